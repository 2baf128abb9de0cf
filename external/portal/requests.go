package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/campusdesk/reqsync/schema"
)

// ListRequests fetches the caller-visible request set: SCOPE_ALL for an admin
// identity, SCOPE_MINE otherwise.
func (c *client) ListRequests(ctx context.Context, token, scope string) ([]schema.Request, error) {
	if scope != SCOPE_MINE && scope != SCOPE_ALL {
		return nil, fmt.Errorf("unknown request scope %q", scope)
	}

	e, err := c.do(ctx, http.MethodGet, "/api/requests/"+scope, token, nil)
	if err != nil {
		return nil, err
	}

	requests := []schema.Request{}
	if err := json.Unmarshal(e.Data, &requests); err != nil {
		return nil, fmt.Errorf("decode request list: %w", err)
	}

	return requests, nil
}

// CreateRequest submits a draft and returns the authoritative record.
func (c *client) CreateRequest(ctx context.Context, token string, draft schema.Draft) (*schema.Request, error) {
	e, err := c.do(ctx, http.MethodPost, "/api/requests", token, draft)
	if err != nil {
		return nil, err
	}

	var req schema.Request
	if err := json.Unmarshal(e.Data, &req); err != nil {
		return nil, fmt.Errorf("decode created request: %w", err)
	}

	return &req, nil
}

// EditRequest replaces the content of a pending request with a new draft and
// returns the updated record.
func (c *client) EditRequest(ctx context.Context, token, id string, draft schema.Draft) (*schema.Request, error) {
	e, err := c.do(ctx, http.MethodPut, "/api/requests/"+id, token, draft)
	if err != nil {
		return nil, err
	}

	var req schema.Request
	if err := json.Unmarshal(e.Data, &req); err != nil {
		return nil, fmt.Errorf("decode edited request: %w", err)
	}

	return &req, nil
}

// UpdateRequest applies an admin decision and returns the updated record.
func (c *client) UpdateRequest(ctx context.Context, token, id string, change schema.StatusChange) (*schema.Request, error) {
	e, err := c.do(ctx, http.MethodPut, "/api/requests/"+id, token, change)
	if err != nil {
		return nil, err
	}

	var req schema.Request
	if err := json.Unmarshal(e.Data, &req); err != nil {
		return nil, fmt.Errorf("decode updated request: %w", err)
	}

	return &req, nil
}
