package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campusdesk/reqsync/schema"
)

// credentialResponse is the login/register payload. Unlike the rest of the
// API it carries token and user at the top level, not inside the envelope.
type credentialResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token"`
	User    *schema.User `json:"user"`
}

func (c *client) credentialCall(ctx context.Context, path string, body interface{}) (string, *schema.User, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("new request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", nil, ErrUnauthorized
	}

	var cr credentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	if resp.StatusCode >= 400 || cr.Token == "" {
		return "", nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    cr.Message,
		}
	}

	return cr.Token, cr.User, nil
}

// Login exchanges an email/password pair for a bearer token and the identity
// behind it.
func (c *client) Login(ctx context.Context, email, password string) (string, *schema.User, error) {
	return c.credentialCall(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates a portal account and logs it in.
func (c *client) Register(ctx context.Context, reg schema.Registration) (string, *schema.User, error) {
	return c.credentialCall(ctx, "/api/auth/register", reg)
}

// Me resolves the identity behind a bearer token.
func (c *client) Me(ctx context.Context, token string) (*schema.User, error) {
	e, err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil)
	if err != nil {
		return nil, err
	}

	var user schema.User
	if err := json.Unmarshal(e.Data, &user); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	return &user, nil
}
