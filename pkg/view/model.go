// Package view derives everything the planner shows from the session state.
// Builders are pure: the same state and clock always yield the same frame.
package view

import (
	"time"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
)

// Weekdays are the calendar column headers, Sunday first.
var Weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Cell is one slot of the month grid. Blank cells pad the first week.
type Cell struct {
	Blank    bool
	Day      int
	Key      string
	Glyph    string // Mood glyph, if a mood is recorded
	HasTask  bool   // Set only when there is no mood
	Today    bool
	Selected bool
}

// Calendar is the month grid.
type Calendar struct {
	Title string
	Month time.Time
	Cells []Cell
}

// Weeks splits the cells into rows of seven.
func (c Calendar) Weeks() [][]Cell {
	var weeks [][]Cell
	for i := 0; i < len(c.Cells); i += 7 {
		end := i + 7
		if end > len(c.Cells) {
			end = len(c.Cells)
		}
		weeks = append(weeks, c.Cells[i:end])
	}
	return weeks
}

// TaskRow is one task of the day panel. Index addresses it for toggle and delete.
type TaskRow struct {
	Index     int
	Text      string
	Completed bool
}

// DayPanel is the detail of the selected day.
type DayPanel struct {
	Key   string
	Title string
	Tasks []TaskRow
	Mood  core.Mood
	Glyph string
	Diary string
}

// VisionCard is one image of the vision board.
type VisionCard struct {
	Index   int
	URL     string
	Caption string
}

// Frame is a full rendering of the main surface.
type Frame struct {
	Room     string
	Calendar Calendar
	Day      DayPanel
	Vision   []VisionCard
}

// BuildCalendar lays out month with one cell per day, marking mood, tasks,
// today and the selected day.
func BuildCalendar(month, selected, today time.Time, doc *core.Document) Calendar {
	first := planner.StartOfMonth(month)
	days := first.AddDate(0, 1, -1).Day()
	todayKey := core.DateKey(today)
	selectedKey := core.DateKey(selected)

	cells := make([]Cell, 0, int(first.Weekday())+days)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for d := 1; d <= days; d++ {
		key := core.DateKey(time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, first.Location()))
		cell := Cell{
			Day:      d,
			Key:      key,
			Today:    key == todayKey,
			Selected: key == selectedKey,
		}
		if rec, ok := doc.Calendar[key]; ok {
			if rec.Mood != "" {
				cell.Glyph = rec.Mood.Glyph()
			} else if len(rec.Tasks) > 0 {
				cell.HasTask = true
			}
		}
		cells = append(cells, cell)
	}

	return Calendar{
		Title: first.Format("January 2006"),
		Month: first,
		Cells: cells,
	}
}

// BuildDayPanel collects the record of the selected day.
func BuildDayPanel(selected time.Time, doc *core.Document) DayPanel {
	key := core.DateKey(selected)
	rec := doc.Day(key)

	rows := make([]TaskRow, len(rec.Tasks))
	for i, task := range rec.Tasks {
		rows[i] = TaskRow{Index: i, Text: task.Text, Completed: task.Completed}
	}

	return DayPanel{
		Key:   key,
		Title: selected.Format("Monday, January 2"),
		Tasks: rows,
		Mood:  rec.Mood,
		Glyph: rec.Mood.Glyph(),
		Diary: rec.Diary,
	}
}

// BuildVisionBoard lists the vision items in stored order.
func BuildVisionBoard(doc *core.Document) []VisionCard {
	cards := make([]VisionCard, len(doc.Vision))
	for i, item := range doc.Vision {
		cards[i] = VisionCard{Index: i, URL: item.URL, Caption: item.Caption}
	}
	return cards
}

// BuildFrame derives the whole main surface from s.
func BuildFrame(room string, s *planner.State, today time.Time) Frame {
	return Frame{
		Room:     room,
		Calendar: BuildCalendar(s.Month, s.Selected, today, s.Doc),
		Day:      BuildDayPanel(s.Selected, s.Doc),
		Vision:   BuildVisionBoard(s.Doc),
	}
}
