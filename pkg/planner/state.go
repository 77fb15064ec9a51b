package planner

import (
	"time"

	"github.com/aretw0/aquarium/pkg/core"
)

// State is the session-scoped planner state: the document cache plus the
// calendar position. It is owned by a single goroutine and never locked.
type State struct {
	Doc      *core.Document
	Month    time.Time // First day of the displayed month
	Selected time.Time // Selected day, at midnight
}

// NewState returns a state showing the month of today with today selected
// and an empty document.
func NewState(today time.Time) *State {
	day := StartOfDay(today)
	return &State{
		Doc:      core.NewDocument(),
		Month:    StartOfMonth(day),
		Selected: day,
	}
}

// SelectedKey returns the date key of the selected day.
func (s *State) SelectedKey() string {
	return core.DateKey(s.Selected)
}

// Replace swaps the document cache wholesale. A nil document resets it to
// the empty default.
func (s *State) Replace(doc *core.Document) {
	if doc == nil {
		doc = core.NewDocument()
	}
	doc.Normalize()
	s.Doc = doc
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns the first day of t's month at midnight.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
