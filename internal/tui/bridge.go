package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

// Messages sent by the session into the program.
type (
	connectMsg struct{}
	mainMsg    struct{ room string }
	frameMsg   struct{ frame view.Frame }
	confirmMsg struct {
		prompt string
		reply  chan<- bool
	}
)

// Bridge carries session callbacks into a running tea.Program. It is the
// session.View and the planner.Confirmer of the terminal UI. Callbacks made
// before a program is attached are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach routes subsequent callbacks to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

func (b *Bridge) send(msg tea.Msg) bool {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

// ShowConnect implements session.View.
func (b *Bridge) ShowConnect() {
	b.send(connectMsg{})
}

// ShowMain implements session.View.
func (b *Bridge) ShowMain(room string) {
	b.send(mainMsg{room: room})
}

// Render implements session.View.
func (b *Bridge) Render(frame view.Frame) {
	b.send(frameMsg{frame: frame})
}

// Confirm implements planner.Confirmer by asking inside the program and
// waiting for the answer. Without a program, or once ctx is done, the
// action is declined.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	if !b.send(confirmMsg{prompt: prompt, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

var (
	_ session.View      = (*Bridge)(nil)
	_ planner.Confirmer = (*Bridge)(nil)
)
