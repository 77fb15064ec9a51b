package planner

import (
	"context"
	"fmt"
)

// NeedsConfirmation reports whether a is destructive and must be confirmed
// before it is applied.
func NeedsConfirmation(a Action) bool {
	return a.Kind == KindClearDay || a.Kind == KindDeleteVisionItem
}

// Prompt returns the question shown before a destructive action.
func Prompt(s *State, a Action) string {
	switch a.Kind {
	case KindClearDay:
		return fmt.Sprintf("Clear all data for %s?", s.SelectedKey())
	case KindDeleteVisionItem:
		return "Delete this image?"
	default:
		return ""
	}
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every action. Used when the caller already asked.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// NeverConfirm declines every action.
var NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
