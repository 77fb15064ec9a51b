// Package planner holds the planner's state transitions.
//
// Every user intent is an Action. Apply turns an Action into an in-place
// mutation of the session State and reports what changed, so that callers
// can decide how to persist it without knowing how it was drawn.
package planner

import (
	"fmt"
	"time"

	"github.com/aretw0/aquarium/pkg/core"
)

// Kind identifies a user action.
type Kind int

const (
	KindAddTask Kind = iota + 1
	KindToggleTask
	KindDeleteTask
	KindSetMood
	KindSetDiary
	KindClearDay
	KindAddVisionItem
	KindDeleteVisionItem
	KindSelectDate
	KindShiftMonth
)

var kindNames = map[Kind]string{
	KindAddTask:          "add-task",
	KindToggleTask:       "toggle-task",
	KindDeleteTask:       "delete-task",
	KindSetMood:          "set-mood",
	KindSetDiary:         "set-diary",
	KindClearDay:         "clear-day",
	KindAddVisionItem:    "add-vision-item",
	KindDeleteVisionItem: "delete-vision-item",
	KindSelectDate:       "select-date",
	KindShiftMonth:       "shift-month",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Mutates reports whether actions of this kind change the room document.
func (k Kind) Mutates() bool {
	return k != KindSelectDate && k != KindShiftMonth
}

// Action is a single user intent. Only the fields relevant to Kind are set.
type Action struct {
	Kind    Kind
	Text    string
	Index   int
	Mood    core.Mood
	URL     string
	Caption string
	Date    time.Time
	Delta   int
}

func (a Action) String() string {
	switch a.Kind {
	case KindToggleTask, KindDeleteTask, KindDeleteVisionItem:
		return fmt.Sprintf("%s[%d]", a.Kind, a.Index)
	case KindSetMood:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Mood)
	case KindSelectDate:
		return fmt.Sprintf("%s(%s)", a.Kind, core.DateKey(a.Date))
	case KindShiftMonth:
		return fmt.Sprintf("%s(%+d)", a.Kind, a.Delta)
	default:
		return a.Kind.String()
	}
}

func AddTask(text string) Action { return Action{Kind: KindAddTask, Text: text} }

func ToggleTask(index int) Action { return Action{Kind: KindToggleTask, Index: index} }

func DeleteTask(index int) Action { return Action{Kind: KindDeleteTask, Index: index} }

// SetMood toggles mood on the selected day: picking the active mood clears it.
func SetMood(mood core.Mood) Action { return Action{Kind: KindSetMood, Mood: mood} }

// SetDiary commits the diary text of the selected day.
func SetDiary(text string) Action { return Action{Kind: KindSetDiary, Text: text} }

// ClearDay removes every record of the selected day. Destructive.
func ClearDay() Action { return Action{Kind: KindClearDay} }

func AddVisionItem(url, caption string) Action {
	return Action{Kind: KindAddVisionItem, URL: url, Caption: caption}
}

// DeleteVisionItem removes the vision item at index. Destructive.
func DeleteVisionItem(index int) Action { return Action{Kind: KindDeleteVisionItem, Index: index} }

func SelectDate(date time.Time) Action { return Action{Kind: KindSelectDate, Date: date} }

func ShiftMonth(delta int) Action { return Action{Kind: KindShiftMonth, Delta: delta} }
