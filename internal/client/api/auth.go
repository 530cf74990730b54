package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/DocDesk/internal/models"
)

const (
	apiLogin  = "/api/auth/login"
	apiLogout = "/api/auth/logout"
)

// LoginResult is what the login endpoint hands back for CompleteLogin.
type LoginResult struct {
	User  *models.User
	Token string
	Role  models.Role
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req, err := c.NewRequest(ctx, http.MethodPost, apiLogin, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	env, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if !env.HasData() {
		return nil, errors.New("login response has no user")
	}

	var user models.User
	if err := env.DecodeData(&user); err != nil {
		return nil, err
	}
	return &LoginResult{User: &user, Token: env.Token, Role: env.Role}, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.NewRequest(ctx, http.MethodPost, apiLogout, struct{}{})
	if err != nil {
		return err
	}
	_, err = c.Do(req)
	return err
}
