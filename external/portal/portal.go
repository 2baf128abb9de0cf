// Package portal is the HTTP client for the campus request portal API. It is
// a thin collaborator boundary: every call takes the bearer credential
// explicitly, and the caller (the session context or the request store)
// decides what an authorization failure means.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/campusdesk/reqsync/schema"
)

const (
	// Request scopes of the list endpoint.
	SCOPE_MINE = "me"
	SCOPE_ALL  = "all"

	defaultTimeout = 10 * time.Second

	// downloadCacheSize bounds the attachment preview cache; entries are
	// whole files of at most MaxAttachmentSize bytes.
	downloadCacheSize = 32
)

var (
	// ErrUnauthorized signals an expired or rejected credential (401/403).
	// Callers stop retrying and re-authenticate.
	ErrUnauthorized = fmt.Errorf("the portal rejected the credential")
)

// APIError is a portal-reported failure other than an authorization one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("portal error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("portal error (%d)", e.StatusCode)
}

// envelope is the uniform response wrapper of the portal API.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Portal is the abstract contract of the server API consumed by this client.
type Portal interface {
	Login(ctx context.Context, email, password string) (string, *schema.User, error)
	Register(ctx context.Context, reg schema.Registration) (string, *schema.User, error)
	Me(ctx context.Context, token string) (*schema.User, error)

	ListRequests(ctx context.Context, token, scope string) ([]schema.Request, error)
	CreateRequest(ctx context.Context, token string, draft schema.Draft) (*schema.Request, error)
	UpdateRequest(ctx context.Context, token, id string, change schema.StatusChange) (*schema.Request, error)
	EditRequest(ctx context.Context, token, id string, draft schema.Draft) (*schema.Request, error)

	Upload(ctx context.Context, token, fileName string, content io.Reader) (string, error)
	Download(ctx context.Context, token, filePath string) ([]byte, error)
}

type client struct {
	httpClient *http.Client
	endpoint   string

	// downloaded attachment bytes, keyed by server file path
	downloads *lru.Cache[string, []byte]
}

// New returns a portal client for the given base endpoint. A nil httpClient
// uses a default with a 10 second timeout; polling relies on this transport
// timeout rather than enforcing its own.
func New(endpoint string, httpClient *http.Client) (Portal, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	downloads, err := lru.New[string, []byte](downloadCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating download cache: %w", err)
	}

	return &client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		downloads:  downloads,
	}, nil
}

// do issues one API call and decodes the envelope. A 401 or 403 maps to
// ErrUnauthorized before the body is considered.
func (c *client) do(ctx context.Context, method, path, token string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}

	var e envelope
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 || !e.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    e.Message,
		}
	}

	return &e, nil
}
