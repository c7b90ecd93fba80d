// Package bizclock converts between stored UTC instants and wall-clock time
// in the configured business timezone. Every local-date or local-time
// computation in the service goes through a single Clock so the placement
// snapshots and the scheduler's live computation can never drift apart.
package bizclock

import (
	"time"

	"github.com/go-faster/errors"
)

// DateLayout is the calendar-date format used for delivery and display dates.
const DateLayout = "2006-01-02"

// Clock resolves instants against a fixed business timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Clock for the given IANA timezone name.
func New(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", timezone)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed creates a Clock whose "now" is pinned to the given instant.
// Intended for tests and for replaying historical reconciliation passes.
func NewFixed(timezone string, at time.Time) (*Clock, error) {
	c, err := New(timezone)
	if err != nil {
		return nil, err
	}
	c.now = func() time.Time { return at }
	return c, nil
}

// Location returns the business timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current business-local wall-clock time.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// ToLocal converts any instant to business-local time.
func (c *Clock) ToLocal(t time.Time) time.Time {
	return t.In(c.loc)
}

// ParseInstant parses a stored RFC 3339 UTC timestamp and returns the
// equivalent business-local time.
func (c *Clock) ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse instant %q", s)
	}
	return t.In(c.loc), nil
}

// ParseDate parses a calendar date (no time-of-day) in the business timezone.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, c.loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse date %q", s)
	}
	return t, nil
}

// FormatInstant renders an instant as the canonical stored form:
// RFC 3339 in UTC.
func (c *Clock) FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// LocalDate renders the business-local calendar date of an instant.
func (c *Clock) LocalDate(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// LocalWeekday renders the business-local day of week of an instant.
func (c *Clock) LocalWeekday(t time.Time) string {
	return t.In(c.loc).Weekday().String()
}

// SameDate reports whether two instants fall on the same business-local
// calendar date.
func (c *Clock) SameDate(a, b time.Time) bool {
	ay, am, ad := a.In(c.loc).Date()
	by, bm, bd := b.In(c.loc).Date()
	return ay == by && am == bm && ad == bd
}
