package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/schema"
	"github.com/campusdesk/reqsync/session"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "store")
}

var (
	ErrRequestNotFound = fmt.Errorf("the request is not in the local collection")
)

// SyncCore is the client-side authority over the request collection.
type SyncCore interface {
	// Refresh fetches the caller-visible request set and replaces the
	// collection wholesale.
	Refresh(ctx context.Context) error

	// Run polls Refresh every 5 seconds until ctx is cancelled or the
	// portal rejects the credential.
	Run(ctx context.Context)

	Create(ctx context.Context, draft schema.Draft) (*schema.Request, error)
	Update(ctx context.Context, id string, change schema.StatusChange) (*schema.Request, error)
	Edit(ctx context.Context, id string, draft schema.Draft) (*schema.Request, error)

	Get(id string) (*schema.Request, bool)
	List() []schema.Request
}

// RequestStore is an implementation of SyncCore. It owns the collection
// exclusively; consumers only ever receive copies.
type RequestStore struct {
	client  portal.Portal
	session *session.Context

	mu       sync.Mutex
	requests map[string]schema.Request

	// mutations counts applied create/update results. A poll snapshot is
	// applied only if no mutation landed after the poll started, so a
	// response that was already in flight can never roll back what the
	// acting user just saw.
	mutations uint64

	// single outstanding poll at a time; a tick that finds this occupied
	// is skipped, not queued
	pollGate chan struct{}

	// onAuthExpired is invoked at most once, after the session has been
	// torn down on a rejected credential, whether a poll or a mutation
	// saw the rejection first.
	onAuthExpired func()
	expiredOnce   sync.Once
}

// NewRequestStore binds a store to a portal client and a session context.
// onAuthExpired may be nil.
func NewRequestStore(client portal.Portal, sess *session.Context, onAuthExpired func()) *RequestStore {
	gate := make(chan struct{}, 1)
	gate <- struct{}{}

	return &RequestStore{
		client:        client,
		session:       sess,
		requests:      make(map[string]schema.Request),
		pollGate:      gate,
		onAuthExpired: onAuthExpired,
	}
}

// Get returns a copy of one request by internal id.
func (s *RequestStore) Get(id string) (*schema.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, false
	}
	return copyRequest(req), true
}

// List returns a copy of the collection ordered by creation time, oldest
// first, matching the order the portal inserted them.
func (s *RequestStore) List() []schema.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]schema.Request, 0, len(s.requests))
	for _, req := range s.requests {
		requests = append(requests, *copyRequest(req))
	}

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID < requests[j].ID
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	return requests
}

func copyRequest(req schema.Request) *schema.Request {
	out := req
	if req.Attachments != nil {
		out.Attachments = append([]schema.Attachment(nil), req.Attachments...)
	}
	if req.Submitter != nil {
		submitter := *req.Submitter
		out.Submitter = &submitter
	}
	return &out
}
