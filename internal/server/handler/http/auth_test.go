package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/DocDesk/internal/models"
	"github.com/atinyakov/DocDesk/internal/service"
)

// fakeAuthService implements AuthService and middleware.Authenticator for testing.
type fakeAuthService struct {
	registerErr error
	loginErr    error
	logoutErr   error
	users       map[string]*models.User

	gotLogin  service.LoginRequest
	loggedOut string
}

func (f *fakeAuthService) Register(ctx context.Context, req service.RegisterRequest) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "new", Name: req.Name, Email: req.Email, Role: req.Role}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.Session, error) {
	f.gotLogin = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &service.Session{
		Token: "tok-1",
		User:  &models.User{ID: "d1", Name: "Dr. Bo", Email: req.Email, Role: models.RoleDoctor},
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	f.loggedOut = token
	return f.logoutErr
}

func (f *fakeAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrUnauthorized
}

func TestAuthHandler_Login(t *testing.T) {
	svc := &fakeAuthService{}
	h := &AuthHandler{AuthService: svc}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"bo@x.io","password":"pw"}`))
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.LoginRequest{Email: "bo@x.io", Password: "pw"}, svc.gotLogin)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "tok-1", body["token"])
	assert.Equal(t, "doctor", body["role"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "d1", data["_id"])
	assert.NotContains(t, data, "PasswordHash")
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"invalid JSON", `not a json`, nil, http.StatusBadRequest, "invalid request"},
		{"bad credentials", `{}`, service.ErrUnauthorized, http.StatusUnauthorized, "invalid credentials"},
		{"validation", `{}`, &service.ValidationError{Message: "email is required"}, http.StatusBadRequest, "email is required"},
		{"internal", `{}`, errors.New("db down"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandler{AuthService: &fakeAuthService{loginErr: tt.err}}
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			var env models.Response[any]
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantSub  string
	}{
		{"created", `{"name":"Ann","email":"a@x.io","password":"secret1","role":"patient"}`, nil, http.StatusCreated, `"user successfully created"`},
		{"invalid JSON", `{`, nil, http.StatusBadRequest, "invalid request"},
		{"duplicate", `{"name":"Ann"}`, service.ErrConflict, http.StatusConflict, "user already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandler{AuthService: &fakeAuthService{registerErr: tt.err}}
			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantSub)
		})
	}
}
