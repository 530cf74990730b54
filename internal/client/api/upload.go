package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// UploadResult is what the upload collaborator returns on success.
type UploadResult struct {
	URL string `json:"url"`
}

// Uploader stores a single file and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error)
}

// HTTPUploader posts files as multipart "file" fields to Target.
type HTTPUploader struct {
	Client *Client
	// Target is an absolute URL or a path relative to the client's BaseURL.
	Target string
}

// Upload sends r and returns the stored URL. The URL is read from the
// top-level "url" field or from data.url.
func (u *HTTPUploader) Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Client.URL(u.Target), &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	u.Client.authorize(req)

	env, err := u.Client.Do(req)
	if err != nil {
		return nil, err
	}

	res := &UploadResult{URL: env.URL}
	if res.URL == "" && env.HasData() {
		if err := json.Unmarshal(env.Data, res); err != nil {
			return nil, fmt.Errorf("decode upload: %w", err)
		}
	}
	if res.URL == "" {
		return nil, nil
	}
	return res, nil
}
