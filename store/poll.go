package store

import (
	"context"
	"errors"
	"time"

	"github.com/campusdesk/reqsync/consts"
	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/session"
)

// Run refreshes immediately, then on every poll tick until ctx is cancelled.
// A tick that arrives while the previous refresh is still in flight is
// skipped so at most one poll is ever outstanding. A rejected credential
// tears down the session, fires the expiry callback and stops the loop;
// any other failure is logged and retried on the next tick, with no backoff
// and no retry budget.
func (s *RequestStore) Run(ctx context.Context) {
	if halt := s.tick(ctx); halt {
		return
	}

	ticker := time.NewTicker(consts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("polling stopped")
			return
		case <-ticker.C:
			if halt := s.tick(ctx); halt {
				return
			}
		}
	}
}

// tick runs one guarded refresh. The returned flag is true when polling must
// halt for good.
func (s *RequestStore) tick(ctx context.Context) bool {
	select {
	case <-s.pollGate:
	default:
		log.Debug("previous poll still in flight, skipping tick")
		return false
	}
	defer func() { s.pollGate <- struct{}{} }()

	err := s.Refresh(ctx)
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, portal.ErrUnauthorized) || errors.Is(err, session.ErrNotAuthenticated) {
		log.Warn("credential rejected, halting polling")
		s.credentialRejected()
		return true
	}

	log.WithError(err).Warn("poll failed, retrying on next tick")
	return false
}

// credentialRejected clears the stored credential and signals the caller to
// re-authenticate. Polls and mutations both land here; the signal fires at
// most once no matter which path noticed the rejection.
func (s *RequestStore) credentialRejected() {
	if err := s.session.Teardown(); err != nil {
		log.WithError(err).Error("session teardown failed")
	}
	s.expiredOnce.Do(func() {
		if s.onAuthExpired != nil {
			s.onAuthExpired()
		}
	})
}
