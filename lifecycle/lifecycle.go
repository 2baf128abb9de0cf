// Package lifecycle holds the transition rules of a request. A decision is
// validated locally before any network call so an admin gets field-level
// feedback without a wasted round trip.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/campusdesk/reqsync/schema"
)

var (
	ErrMissingRemark     = fmt.Errorf("a remark is required before changing the request status")
	ErrTerminalStatus    = fmt.Errorf("the request already carries a final decision")
	ErrInvalidTransition = fmt.Errorf("the requested status change is not allowed")
)

// CanTransition reports whether a request may move between the two statuses.
// Only pending requests move, and only into a terminal decision.
func CanTransition(from, to string) bool {
	if from != schema.STATUS_PENDING {
		return false
	}
	return to == schema.STATUS_APPROVED || to == schema.STATUS_REJECTED
}

// ValidateDecision checks an admin decision against the locally known status.
// The server additionally sends the submitter a notification on success; the
// client neither assumes delivery nor waits for it.
func ValidateDecision(current string, change schema.StatusChange) error {
	if strings.TrimSpace(change.Remark) == "" {
		return ErrMissingRemark
	}
	if schema.Terminal(current) {
		return ErrTerminalStatus
	}
	if !CanTransition(current, change.Status) {
		return ErrInvalidTransition
	}
	return nil
}
