package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains the lipgloss styles used to draw a frame.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Muted    lipgloss.Style
	Cell     lipgloss.Style
	Today    lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Accent   lipgloss.Style
	Panel    lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8be9fd")),
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		Cell:     lipgloss.NewStyle().Width(4).Align(lipgloss.Right),
		Today:    lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Bold(true).Foreground(lipgloss.Color("#f1fa8c")),
		Selected: lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Background(lipgloss.Color("#44475a")).Foreground(lipgloss.Color("#f8f8f2")),
		Done:     lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#6272a4")),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff79c6")),
		Panel:    lipgloss.NewStyle().Padding(0, 2),
	}
}

// Renderer draws frames as terminal text.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a renderer with the given styles.
func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Frame draws the calendar and the day panel side by side with the vision
// board below them.
func (r *Renderer) Frame(f Frame) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		r.styles.Panel.Render(r.Calendar(f.Calendar)),
		r.styles.Panel.Render(r.Day(f.Day)),
	)
	parts := []string{}
	if f.Room != "" {
		parts = append(parts, r.styles.Muted.Render("Room: "+f.Room))
	}
	parts = append(parts, top, r.styles.Panel.Render(r.Vision(f.Vision)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Calendar draws the month grid.
func (r *Renderer) Calendar(c Calendar) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(c.Title))
	b.WriteString("\n")

	headers := make([]string, len(Weekdays))
	for i, w := range Weekdays {
		headers[i] = r.styles.Cell.Inherit(r.styles.Header).Render(w)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))

	for _, week := range c.Weeks() {
		b.WriteString("\n")
		cells := make([]string, len(week))
		for i, cell := range week {
			cells[i] = r.cell(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

func (r *Renderer) cell(c Cell) string {
	if c.Blank {
		return r.styles.Cell.Render("")
	}
	text := fmt.Sprintf("%d", c.Day)
	switch {
	case c.Glyph != "":
		text = c.Glyph
	case c.HasTask:
		text += "•"
	}
	switch {
	case c.Selected:
		return r.styles.Selected.Render(text)
	case c.Today:
		return r.styles.Today.Render(text)
	default:
		return r.styles.Cell.Render(text)
	}
}

// Day draws the selected day's tasks, mood and diary.
func (r *Renderer) Day(d DayPanel) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(d.Title))
	b.WriteString("\n")

	if len(d.Tasks) == 0 {
		b.WriteString(r.styles.Muted.Render("No tasks"))
		b.WriteString("\n")
	}
	for _, t := range d.Tasks {
		box := "[ ]"
		text := t.Text
		if t.Completed {
			box = "[x]"
			text = r.styles.Done.Render(text)
		}
		fmt.Fprintf(&b, "%d %s %s\n", t.Index, box, text)
	}

	b.WriteString(r.styles.Header.Render("Mood: "))
	if d.Glyph != "" {
		b.WriteString(d.Glyph + " " + string(d.Mood))
	} else {
		b.WriteString(r.styles.Muted.Render("none"))
	}
	b.WriteString("\n")

	b.WriteString(r.styles.Header.Render("Diary: "))
	if d.Diary != "" {
		b.WriteString(d.Diary)
	} else {
		b.WriteString(r.styles.Muted.Render("empty"))
	}
	return b.String()
}

// Vision draws the vision board in stored order.
func (r *Renderer) Vision(cards []VisionCard) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Vision board"))
	if len(cards) == 0 {
		b.WriteString("\n")
		b.WriteString(r.styles.Muted.Render("No images yet"))
	}
	for _, c := range cards {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d %s", c.Index, r.styles.Accent.Render(c.URL))
		if c.Caption != "" {
			b.WriteString(" " + r.styles.Muted.Render(c.Caption))
		}
	}
	return b.String()
}
