// Package filter derives paginated views and aggregate statistics from a
// request collection. Everything here is a pure function of its inputs;
// recomputing on every change is cheap at the collection sizes this portal
// sees, so nothing is memoized.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/campusdesk/reqsync/consts"
	"github.com/campusdesk/reqsync/schema"
)

const SUBJECT_ANY = "all"

// Filters are AND-combined; the zero value matches everything.
type Filters struct {
	// RequestID - case-insensitive substring of the display id
	RequestID string
	// Name - case-insensitive substring of the submitter name
	Name string
	// Subject - exact match, or "all"/empty for any
	Subject string
	// Window - one of the consts.WINDOW_* keys
	Window string
	// Page - 1-based; values below 1 mean the first page
	Page int
}

// Stats are the headline counts over the time-filtered set. They follow the
// selected time window only, so they stay put while the user types into the
// text filters or flips pages.
type Stats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// View is one derived page of the collection.
type View struct {
	Page       []schema.Request
	Stats      Stats
	TotalPages int
	// Matched counts requests passing all filters, across every page.
	Matched int
}

// Apply derives the view for the given filters at evaluation time now.
func Apply(requests []schema.Request, f Filters, now time.Time) View {
	windowed := inWindow(requests, f.Window, now)

	var view View
	view.Stats = countStatuses(windowed)

	matched := make([]schema.Request, 0, len(windowed))
	for _, req := range windowed {
		if !matchesText(req, f) {
			continue
		}
		matched = append(matched, req)
	}
	view.Matched = len(matched)

	view.TotalPages = (len(matched) + consts.RequestsPerPage - 1) / consts.RequestsPerPage
	if view.TotalPages < 1 {
		view.TotalPages = 1
	}

	page := f.Page
	if page < 1 {
		page = 1
	}

	first := (page - 1) * consts.RequestsPerPage
	if first >= len(matched) {
		view.Page = []schema.Request{}
		return view
	}

	last := first + consts.RequestsPerPage
	if last > len(matched) {
		last = len(matched)
	}
	view.Page = matched[first:last]

	return view
}

func inWindow(requests []schema.Request, window string, now time.Time) []schema.Request {
	d, ok := consts.WindowDuration(window)
	if !ok {
		return requests
	}

	cutoff := now.Add(-d)
	kept := make([]schema.Request, 0, len(requests))
	for _, req := range requests {
		if req.CreatedAt.After(cutoff) {
			kept = append(kept, req)
		}
	}
	return kept
}

func countStatuses(requests []schema.Request) Stats {
	var stats Stats
	stats.Total = len(requests)
	for _, req := range requests {
		switch req.Status {
		case schema.STATUS_APPROVED:
			stats.Approved++
		case schema.STATUS_REJECTED:
			stats.Rejected++
		case schema.STATUS_PENDING:
			stats.Pending++
		}
	}
	return stats
}

func matchesText(req schema.Request, f Filters) bool {
	if f.RequestID != "" &&
		!strings.Contains(strings.ToLower(req.RequestID), strings.ToLower(f.RequestID)) {
		return false
	}

	if f.Name != "" {
		if req.Submitter == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(req.Submitter.Name), strings.ToLower(f.Name)) {
			return false
		}
	}

	if f.Subject != "" && f.Subject != SUBJECT_ANY && req.Subject != f.Subject {
		return false
	}

	return true
}

// DayBucket is one calendar day of the timeline aggregation.
type DayBucket struct {
	Day      time.Time `json:"day"`
	Total    int       `json:"total"`
	Approved int       `json:"approved"`
	Rejected int       `json:"rejected"`
	Pending  int       `json:"pending"`
}

// Timeline groups the time-filtered set into per-day status counts, sorted
// by day. Chart rendering consumes this as-is.
func Timeline(requests []schema.Request, window string, now time.Time) []DayBucket {
	windowed := inWindow(requests, window, now)

	byDay := make(map[time.Time]*DayBucket)
	for _, req := range windowed {
		y, m, d := req.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, req.CreatedAt.Location())

		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayBucket{Day: day}
			byDay[day] = bucket
		}

		bucket.Total++
		switch req.Status {
		case schema.STATUS_APPROVED:
			bucket.Approved++
		case schema.STATUS_REJECTED:
			bucket.Rejected++
		case schema.STATUS_PENDING:
			bucket.Pending++
		}
	}

	timeline := make([]DayBucket, 0, len(byDay))
	for _, bucket := range byDay {
		timeline = append(timeline, *bucket)
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Day.Before(timeline[j].Day)
	})

	return timeline
}
