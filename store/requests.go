package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/lifecycle"
	"github.com/campusdesk/reqsync/schema"
)

// Refresh fetches the request set visible to the current identity and
// replaces the in-memory collection with it. This is a full reconciliation;
// no delta merging, and eventual consistency within one poll interval.
func (s *RequestStore) Refresh(ctx context.Context) error {
	token, err := s.session.Token()
	if err != nil {
		return err
	}

	scope := portal.SCOPE_MINE
	if user := s.session.User(); user != nil && user.IsAdmin() {
		scope = portal.SCOPE_ALL
	}

	s.mu.Lock()
	generation := s.mutations
	s.mu.Unlock()

	requests, err := s.client.ListRequests(ctx, token, scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mutations != generation {
		// a mutation landed while this poll was in flight; its result is
		// authoritative and this snapshot may predate it
		log.Debug("dropping poll snapshot that raced a mutation")
		return nil
	}

	collection := make(map[string]schema.Request, len(requests))
	for _, req := range requests {
		collection[req.ID] = req
	}
	s.requests = collection

	return nil
}

// Create validates a draft locally, submits it, and appends the
// authoritative record ahead of the next poll tick so the acting user sees
// it immediately. On failure the collection is left unmodified.
func (s *RequestStore) Create(ctx context.Context, draft schema.Draft) (*schema.Request, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateRequest(ctx, token, draft)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			s.credentialRejected()
		}
		return nil, err
	}

	s.mu.Lock()
	s.mutations++
	s.requests[created.ID] = *created
	s.mu.Unlock()

	log.WithField("request_id", created.RequestID).Info("request created")
	return copyRequest(*created), nil
}

// Update applies an admin decision. The transition is validated against the
// locally known status before any network call; a request the local state
// shows as decided is never offered for another decision, regardless of what
// the server might allow out of band.
func (s *RequestStore) Update(ctx context.Context, id string, change schema.StatusChange) (*schema.Request, error) {
	s.mu.Lock()
	current, ok := s.requests[id]
	s.mu.Unlock()

	if !ok {
		return nil, ErrRequestNotFound
	}

	if err := lifecycle.ValidateDecision(current.Status, change); err != nil {
		return nil, err
	}

	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}

	updated, err := s.client.UpdateRequest(ctx, token, id, change)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			s.credentialRejected()
		}
		return nil, err
	}

	s.mu.Lock()
	s.mutations++
	s.requests[updated.ID] = *updated
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"request_id": updated.RequestID,
		"status":     updated.Status,
	}).Info("request decided")
	return copyRequest(*updated), nil
}

// Edit replaces the content of a request the submitter still owns. Only a
// request the local state shows as pending can be edited; once a decision
// has landed the record is immutable.
func (s *RequestStore) Edit(ctx context.Context, id string, draft schema.Draft) (*schema.Request, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.requests[id]
	s.mu.Unlock()

	if !ok {
		return nil, ErrRequestNotFound
	}
	if schema.Terminal(current.Status) {
		return nil, lifecycle.ErrTerminalStatus
	}

	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}

	edited, err := s.client.EditRequest(ctx, token, id, draft)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			s.credentialRejected()
		}
		return nil, err
	}

	s.mu.Lock()
	s.mutations++
	s.requests[edited.ID] = *edited
	s.mu.Unlock()

	log.WithField("request_id", edited.RequestID).Info("request edited")
	return copyRequest(*edited), nil
}
