package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/netx"
)

// Backend endpoints.
const (
	PathLogin    = "/api/auth/login/"
	PathRegister = "/api/auth/register/"
	PathRefresh  = "/api/auth/token/refresh/"
	PathHistory  = "/api/auth/history/"
	PathUpload   = "/api/auth/upload/"
)

// UploadField is the multipart field that carries the document.
const UploadField = "image"

// authenticatedRetries is the retry budget of calls that need a session.
const authenticatedRetries = 1

var errIncompleteResponse = errors.New("incomplete response")

func jsonRequest(method, path string, payload any) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return Request{Method: method, Path: path, Body: body, ContentType: "application/json"}, nil
}

func decode(resp *Response, path string, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Login exchanges credentials for a token pair.
func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	req, err := jsonRequest(http.MethodPost, PathLogin, creds)
	if err != nil {
		return models.TokenPair{}, err
	}
	req.Anonymous = true

	resp, err := c.Do(ctx, req, 0)
	if err != nil {
		return models.TokenPair{}, err
	}

	var pair models.TokenPair
	if err := decode(resp, PathLogin, &pair); err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return models.TokenPair{}, fmt.Errorf("%w: login returned no token pair", errIncompleteResponse)
	}
	return pair, nil
}

// Register creates an account. It does not log in.
func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) error {
	req, err := jsonRequest(http.MethodPost, PathRegister, reg)
	if err != nil {
		return err
	}
	req.Anonymous = true

	_, err = c.Do(ctx, req, 0)
	return err
}

// RefreshToken trades a refresh token for a new access token. It is never retried.
func (c *HTTPClient) RefreshToken(ctx context.Context, refresh string) (string, error) {
	req, err := jsonRequest(http.MethodPost, PathRefresh, map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	req.Anonymous = true

	resp, err := c.Do(ctx, req, 0)
	if err != nil {
		return "", err
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := decode(resp, PathRefresh, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: refresh returned no access token", errIncompleteResponse)
	}
	return out.Access, nil
}

// History lists past detections of the logged-in user, newest first.
func (c *HTTPClient) History(ctx context.Context) ([]models.DetectionRecord, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathHistory}, authenticatedRetries)
	if err != nil {
		return nil, err
	}

	var records []models.DetectionRecord
	if err := decode(resp, PathHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Upload sends doc for analysis. Uploads work without a session; with one,
// the backend also records the result in the user's history.
func (c *HTTPClient) Upload(ctx context.Context, doc models.Document) (models.DetectionResult, error) {
	body, contentType, err := netx.MultipartBody(
		map[string]string{"password": doc.Password},
		netx.FilePart{Field: UploadField, FileName: doc.Name, ContentType: doc.ContentType, Data: doc.Data},
	)
	if err != nil {
		return models.DetectionResult{}, err
	}

	req := Request{Method: http.MethodPost, Path: PathUpload, Body: body, ContentType: contentType}
	resp, err := c.Do(ctx, req, authenticatedRetries)
	if err != nil {
		return models.DetectionResult{}, err
	}

	var result models.DetectionResult
	if err := decode(resp, PathUpload, &result); err != nil {
		return models.DetectionResult{}, err
	}
	if result.Status == "" {
		return models.DetectionResult{}, fmt.Errorf("%w: upload returned no status", errIncompleteResponse)
	}
	if result.FileName == "" {
		result.FileName = doc.Name
	}
	return result, nil
}
