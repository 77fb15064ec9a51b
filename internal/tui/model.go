// Package tui is the terminal surface of the planner: a bubbletea program
// driven by a session through a Bridge.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

// Options configure the terminal UI.
type Options struct {
	// NewSession builds an idle session driving v and asking c before
	// destructive actions. It is called again after a logout.
	NewSession func(v session.View, c planner.Confirmer) *session.Session
	Styles     view.Styles
	Logger     *slog.Logger
	// Clock returns the current time for the "today" shortcut.
	Clock func() time.Time
}

type mode int

const (
	modeConnecting mode = iota
	modeConnect
	modeMain
	modeInput
	modeConfirm
)

type inputKind int

const (
	inputTask inputKind = iota
	inputDiary
	inputVisionURL
	inputVisionCaption
)

// Results of commands run off the event loop.
type (
	connectedMsg  struct{ err error }
	dispatchedMsg struct {
		action planner.Action
		err    error
	}
	loggedOutMsg struct{ err error }
)

// Model is the bubbletea model of the planner.
type Model struct {
	ctx      context.Context
	opts     Options
	bridge   *Bridge
	sess     *session.Session
	renderer *view.Renderer
	keys     keyMap
	help     help.Model
	input    textinput.Model

	mode       mode
	inputKind  inputKind
	pendingURL string
	confirm    *confirmMsg

	room         string
	frame        view.Frame
	hasFrame     bool
	taskCursor   int
	visionCursor int
	status       string
	showHelp     bool
	width        int
}

// New creates the model and its first session.
func New(ctx context.Context, bridge *Bridge, opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 48

	return Model{
		ctx:      ctx,
		opts:     opts,
		bridge:   bridge,
		sess:     opts.NewSession(bridge, bridge),
		renderer: view.NewRenderer(opts.Styles),
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
		mode:     modeConnecting,
	}
}

// Session returns the session currently driven by the model.
func (m Model) Session() *session.Session {
	return m.sess
}

// Init connects with the persisted room, if any.
func (m Model) Init() tea.Cmd {
	return m.connect(nil)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case connectMsg:
		m.showConnect()
		return m, textinput.Blink

	case mainMsg:
		m.room = msg.room
		m.mode = modeMain
		m.input.Blur()
		m.status = ""
		return m, nil

	case frameMsg:
		m.frame = msg.frame
		m.hasFrame = true
		m.clampCursors()
		return m, nil

	case confirmMsg:
		m.confirm = &msg
		m.mode = modeConfirm
		return m, nil

	case connectedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, core.ErrEmptyRoom) {
				m.status = "Could not connect: " + msg.err.Error()
			}
			m.showConnect()
			return m, textinput.Blink
		}
		return m, nil

	case dispatchedMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("action failed", "action", msg.action.String(), "error", msg.err)
			m.status = msg.action.Kind.String() + " failed: " + msg.err.Error()
		} else {
			m.status = ""
		}
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("logout incomplete", "error", msg.err)
		}
		m.sess = m.opts.NewSession(m.bridge, m.bridge)
		m.room = ""
		m.frame = view.Frame{}
		m.hasFrame = false
		m.showConnect()
		return m, textinput.Blink

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeConnect || m.mode == modeInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) showConnect() {
	m.mode = modeConnect
	m.confirm = nil
	m.input.Reset()
	m.input.Placeholder = "room secret"
	m.input.EchoMode = textinput.EchoPassword
	m.input.Focus()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.declinePending()
		return m, tea.Quit
	}

	switch m.mode {
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeConnect:
		return m.handleConnectKey(msg)
	case modeInput:
		return m.handleInputKey(msg)
	case modeMain:
		return m.handleMainKey(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		m.confirm.reply <- key.Matches(msg, m.keys.Approve)
		m.confirm = nil
	}
	m.mode = modeMain
	return m, nil
}

func (m *Model) declinePending() {
	if m.confirm != nil {
		m.confirm.reply <- false
		m.confirm = nil
	}
}

func (m Model) handleConnectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		room := m.input.Value()
		m.status = ""
		m.mode = modeConnecting
		m.input.Blur()
		return m, m.connect(func(context.Context) (string, error) { return room, nil })
	case key.Matches(msg, m.keys.Cancel):
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeMain
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		value := m.input.Value()
		switch m.inputKind {
		case inputTask:
			m.mode = modeMain
			m.input.Blur()
			if strings.TrimSpace(value) == "" {
				return m, nil
			}
			return m, m.dispatch(planner.AddTask(value))
		case inputDiary:
			m.mode = modeMain
			m.input.Blur()
			return m, m.dispatch(planner.SetDiary(value))
		case inputVisionURL:
			if strings.TrimSpace(value) == "" {
				m.mode = modeMain
				m.input.Blur()
				return m, nil
			}
			m.pendingURL = value
			m.startInput(inputVisionCaption, "caption (optional)", "")
			return m, textinput.Blink
		case inputVisionCaption:
			m.mode = modeMain
			m.input.Blur()
			return m, m.dispatch(planner.AddVisionItem(m.pendingURL, value))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		sess, ctx := m.sess, m.ctx
		return m, func() tea.Msg { return loggedOutMsg{err: sess.Logout(ctx)} }
	}

	if !m.hasFrame {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PrevDay):
		return m, m.moveDays(-1)
	case key.Matches(msg, m.keys.NextDay):
		return m, m.moveDays(1)
	case key.Matches(msg, m.keys.PrevWeek):
		return m, m.moveDays(-7)
	case key.Matches(msg, m.keys.NextWeek):
		return m, m.moveDays(7)
	case key.Matches(msg, m.keys.PrevMonth):
		return m, m.dispatch(planner.ShiftMonth(-1))
	case key.Matches(msg, m.keys.NextMonth):
		return m, m.dispatch(planner.ShiftMonth(1))
	case key.Matches(msg, m.keys.Today):
		return m, m.dispatch(planner.SelectDate(m.opts.Clock()))

	case key.Matches(msg, m.keys.NextTask):
		if n := len(m.frame.Day.Tasks); n > 0 {
			m.taskCursor = (m.taskCursor + 1) % n
		}
		return m, nil
	case key.Matches(msg, m.keys.PrevTask):
		if n := len(m.frame.Day.Tasks); n > 0 {
			m.taskCursor = (m.taskCursor + n - 1) % n
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleTask):
		if len(m.frame.Day.Tasks) == 0 {
			return m, nil
		}
		return m, m.dispatch(planner.ToggleTask(m.frame.Day.Tasks[m.taskCursor].Index))
	case key.Matches(msg, m.keys.DeleteTask):
		if len(m.frame.Day.Tasks) == 0 {
			return m, nil
		}
		return m, m.dispatch(planner.DeleteTask(m.frame.Day.Tasks[m.taskCursor].Index))
	case key.Matches(msg, m.keys.AddTask):
		m.startInput(inputTask, "new task", "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Diary):
		m.startInput(inputDiary, "diary", m.frame.Day.Diary)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Mood):
		i, err := strconv.Atoi(msg.String())
		if err != nil || i < 1 || i > len(core.Moods) {
			return m, nil
		}
		return m, m.dispatch(planner.SetMood(core.Moods[i-1]))
	case key.Matches(msg, m.keys.ClearDay):
		return m, m.dispatch(planner.ClearDay())

	case key.Matches(msg, m.keys.AddVision):
		m.startInput(inputVisionURL, "image URL", "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.NextVision):
		if n := len(m.frame.Vision); n > 0 {
			m.visionCursor = (m.visionCursor + 1) % n
		}
		return m, nil
	case key.Matches(msg, m.keys.PrevVision):
		if n := len(m.frame.Vision); n > 0 {
			m.visionCursor = (m.visionCursor + n - 1) % n
		}
		return m, nil
	case key.Matches(msg, m.keys.DeleteVision):
		if len(m.frame.Vision) == 0 {
			return m, nil
		}
		return m, m.dispatch(planner.DeleteVisionItem(m.frame.Vision[m.visionCursor].Index))
	}
	return m, nil
}

func (m *Model) startInput(kind inputKind, placeholder, value string) {
	m.mode = modeInput
	m.inputKind = kind
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.Focus()
}

func (m *Model) clampCursors() {
	if m.taskCursor >= len(m.frame.Day.Tasks) {
		m.taskCursor = max(len(m.frame.Day.Tasks)-1, 0)
	}
	if m.visionCursor >= len(m.frame.Vision) {
		m.visionCursor = max(len(m.frame.Vision)-1, 0)
	}
}

func (m Model) moveDays(delta int) tea.Cmd {
	selected, err := core.ParseDateKey(m.frame.Day.Key)
	if err != nil {
		return nil
	}
	return m.dispatch(planner.SelectDate(selected.AddDate(0, 0, delta)))
}

func (m Model) connect(prompt session.Prompt) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return connectedMsg{err: sess.Connect(ctx, prompt)}
	}
}

func (m Model) dispatch(a planner.Action) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		_, err := sess.Dispatch(ctx, a)
		return dispatchedMsg{action: a, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	styles := m.opts.Styles

	switch m.mode {
	case modeConnecting:
		return styles.Muted.Render("Connecting...")
	case modeConnect:
		parts := []string{
			styles.Title.Render("aquarium"),
			"Enter the room secret shared by everyone using this planner.",
			"",
			m.input.View(),
		}
		if m.status != "" {
			parts = append(parts, "", styles.Accent.Render(m.status))
		}
		parts = append(parts, "", styles.Muted.Render("enter to connect • esc to quit"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if !m.hasFrame {
		return styles.Muted.Render(fmt.Sprintf("Loading room %s...", m.room))
	}

	parts := []string{m.renderer.Frame(m.frame), m.cursorLine()}
	switch m.mode {
	case modeInput:
		parts = append(parts, "", m.inputLabel(), m.input.View())
	case modeConfirm:
		if m.confirm != nil {
			parts = append(parts, "", styles.Accent.Render(m.confirm.prompt+" (y/n)"))
		}
	}
	if m.status != "" {
		parts = append(parts, styles.Accent.Render(m.status))
	}
	parts = append(parts, "", m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) cursorLine() string {
	var fields []string
	if tasks := m.frame.Day.Tasks; len(tasks) > 0 {
		fields = append(fields, fmt.Sprintf("task %d/%d: %s", m.taskCursor+1, len(tasks), tasks[m.taskCursor].Text))
	}
	if cards := m.frame.Vision; len(cards) > 0 {
		label := cards[m.visionCursor].Caption
		if label == "" {
			label = cards[m.visionCursor].URL
		}
		fields = append(fields, fmt.Sprintf("image %d/%d: %s", m.visionCursor+1, len(cards), label))
	}
	if len(fields) == 0 {
		return ""
	}
	return m.opts.Styles.Muted.Render("› " + strings.Join(fields, "  "))
}

func (m Model) inputLabel() string {
	switch m.inputKind {
	case inputTask:
		return "Add a task for " + m.frame.Day.Title
	case inputDiary:
		return "Diary for " + m.frame.Day.Title
	case inputVisionURL:
		return "Image URL"
	default:
		return "Caption"
	}
}

// Run starts the program and blocks until the user quits or ctx is done.
// The last session is closed on exit, flushing queued writes.
func Run(ctx context.Context, opts Options) error {
	if opts.NewSession == nil {
		return fmt.Errorf("tui requires a session factory")
	}

	bridge := &Bridge{}
	m := New(ctx, bridge, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	final, err := p.Run()
	bridge.Attach(nil)

	sess := m.sess
	if fm, ok := final.(Model); ok {
		sess = fm.sess
	}
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	closeErr := sess.Close(closeCtx)

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return errors.Join(err, closeErr)
}
