package gui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/loom/internal/platform"
)

// maxLines bounds the committed lines a Panel keeps.
const maxLines = 5

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Faint(true)
)

// Panel is a minimal Context: a status panel with a one-line text editor.
//
// Keys: typed text is appended to the edit line, "enter" commits it,
// "backspace" deletes a rune, "q" or "esc" asks to close.
type Panel struct {
	title   string
	size    platform.Size
	scale   float64
	focused bool
	line    []rune
	lines   []string
	pointer string
	frames  int64
	closing bool
}

// NewPanel creates a panel with the given title.
func NewPanel(title string) *Panel {
	return &Panel{title: title, scale: 1, focused: true}
}

func (p *Panel) Resize(size platform.Size, scale float64) {
	p.size = size
	p.scale = scale
}

func (p *Panel) HandleInput(in platform.Input) bool {
	switch in.Kind {
	case platform.InputText:
		if in.Text == "q" && len(p.line) == 0 {
			p.closing = true
			return false
		}
		p.line = append(p.line, []rune(in.Text)...)
		return true

	case platform.InputKey:
		switch in.Key {
		case "esc":
			p.closing = true
			return false
		case "enter":
			p.lines = append(p.lines, string(p.line))
			if len(p.lines) > maxLines {
				p.lines = p.lines[len(p.lines)-maxLines:]
			}
			p.line = p.line[:0]
			return true
		case "backspace":
			if len(p.line) == 0 {
				return false
			}
			p.line = p.line[:len(p.line)-1]
			return true
		case " ", "space":
			p.line = append(p.line, ' ')
			return true
		}
		return false

	case platform.InputMouse:
		p.pointer = fmt.Sprintf("%s %d,%d", in.Button, in.X, in.Y)
		return true
	}
	return false
}

func (p *Panel) Focus(focused bool) bool {
	if p.focused == focused {
		return false
	}
	p.focused = focused
	return true
}

func (p *Panel) FrameDone(platform.Frame) bool {
	p.frames++
	return false
}

func (p *Panel) WantsClose() bool {
	return p.closing
}

func (p *Panel) Paint(context.Context) (string, error) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.title))
	b.WriteByte('\n')

	focus := "focused"
	if !p.focused {
		focus = "blurred"
	}
	fmt.Fprintf(&b, "%s %s @%gx  %s\n", labelStyle.Render("surface"), p.size, p.scale, focus)
	if p.pointer != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("pointer"), p.pointer)
	}
	for _, l := range p.lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "> %s", string(p.line))

	style := panelStyle
	// Border and padding take four cells.
	if w := p.size.Width - 4; w > 0 {
		style = style.Width(min(w, 60))
	}
	return style.Render(b.String()), nil
}

// Text returns the uncommitted edit line.
func (p *Panel) Text() string { return string(p.line) }

// Lines returns the committed lines, oldest first.
func (p *Panel) Lines() []string { return append([]string(nil), p.lines...) }

// Frames returns how many presented frames the panel has seen.
func (p *Panel) Frames() int64 { return p.frames }
