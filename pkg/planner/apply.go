package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/aquarium/pkg/core"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownMood     = errors.New("unknown mood")
	ErrUnknownAction   = errors.New("unknown action")
)

// ChangeKind describes what part of the document an action touched.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeDay
	ChangeDayCleared
	ChangeVisionAdded
	ChangeVisionDeleted
)

// Change reports the effect of a successful Apply.
type Change struct {
	Kind    ChangeKind
	DateKey string          // Set for day changes
	Index   int             // Vision index added or removed
	Item    core.VisionItem // Vision item added or removed
}

// Mutated reports whether the document changed.
func (c Change) Mutated() bool {
	return c.Kind != ChangeNone
}

// Apply performs a on s in place. Blank inputs are silently ignored and
// return a zero Change. Invalid indexes and moods leave s untouched.
func Apply(s *State, a Action) (Change, error) {
	if s.Doc == nil {
		s.Doc = core.NewDocument()
	}
	key := s.SelectedKey()

	switch a.Kind {
	case KindAddTask:
		text := strings.TrimSpace(a.Text)
		if text == "" {
			return Change{}, nil
		}
		rec := s.Doc.EnsureDay(key)
		rec.Tasks = append(rec.Tasks, core.Task{Text: text})
		s.Doc.Calendar[key] = rec
		return Change{Kind: ChangeDay, DateKey: key}, nil

	case KindToggleTask:
		rec := s.Doc.Day(key)
		if a.Index < 0 || a.Index >= len(rec.Tasks) {
			return Change{}, fmt.Errorf("task %d on %s: %w", a.Index, key, ErrIndexOutOfRange)
		}
		rec.Tasks[a.Index].Completed = !rec.Tasks[a.Index].Completed
		s.Doc.Calendar[key] = rec
		return Change{Kind: ChangeDay, DateKey: key}, nil

	case KindDeleteTask:
		rec := s.Doc.Day(key)
		if a.Index < 0 || a.Index >= len(rec.Tasks) {
			return Change{}, fmt.Errorf("task %d on %s: %w", a.Index, key, ErrIndexOutOfRange)
		}
		rec.Tasks = append(rec.Tasks[:a.Index], rec.Tasks[a.Index+1:]...)
		s.Doc.Calendar[key] = rec
		return Change{Kind: ChangeDay, DateKey: key}, nil

	case KindSetMood:
		if a.Mood != "" && !a.Mood.Valid() {
			return Change{}, fmt.Errorf("%q: %w", a.Mood, ErrUnknownMood)
		}
		rec := s.Doc.EnsureDay(key)
		if rec.Mood == a.Mood {
			rec.Mood = ""
		} else {
			rec.Mood = a.Mood
		}
		s.Doc.Calendar[key] = rec
		return Change{Kind: ChangeDay, DateKey: key}, nil

	case KindSetDiary:
		if s.Doc.Day(key).Diary == a.Text {
			return Change{}, nil
		}
		rec := s.Doc.EnsureDay(key)
		rec.Diary = a.Text
		s.Doc.Calendar[key] = rec
		return Change{Kind: ChangeDay, DateKey: key}, nil

	case KindClearDay:
		delete(s.Doc.Calendar, key)
		return Change{Kind: ChangeDayCleared, DateKey: key}, nil

	case KindAddVisionItem:
		url := strings.TrimSpace(a.URL)
		if url == "" {
			return Change{}, nil
		}
		item := core.VisionItem{URL: url, Caption: strings.TrimSpace(a.Caption)}
		s.Doc.Vision = append(s.Doc.Vision, item)
		return Change{Kind: ChangeVisionAdded, Index: len(s.Doc.Vision) - 1, Item: item}, nil

	case KindDeleteVisionItem:
		if a.Index < 0 || a.Index >= len(s.Doc.Vision) {
			return Change{}, fmt.Errorf("vision item %d: %w", a.Index, ErrIndexOutOfRange)
		}
		item := s.Doc.Vision[a.Index]
		s.Doc.Vision = append(s.Doc.Vision[:a.Index], s.Doc.Vision[a.Index+1:]...)
		return Change{Kind: ChangeVisionDeleted, Index: a.Index, Item: item}, nil

	case KindSelectDate:
		if a.Date.IsZero() {
			return Change{}, nil
		}
		s.Selected = StartOfDay(a.Date)
		s.Month = StartOfMonth(s.Selected)
		return Change{}, nil

	case KindShiftMonth:
		s.Month = StartOfMonth(s.Month).AddDate(0, a.Delta, 0)
		return Change{}, nil
	}

	return Change{}, fmt.Errorf("%s: %w", a.Kind, ErrUnknownAction)
}
