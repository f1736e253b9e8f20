package terminal

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/loom/internal/platform"
)

type (
	frameMsg struct{}
	tickMsg  time.Time
	titleMsg string
)

// model adapts bubbletea messages to platform events.
type model struct {
	t        *Terminal
	dispatch platform.Dispatch
	interval time.Duration
	title    string
	err      error
}

func newModel(t *Terminal, dispatch platform.Dispatch) *model {
	return &model{t: t, dispatch: dispatch, interval: t.interval()}
}

func (m *model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.title != "" {
		cmds = append(cmds, tea.SetWindowTitle(m.title))
	}
	if m.interval > 0 {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.t.setSize(msg.Width, msg.Height)
		return m.forward(platform.Resized(msg.Width, msg.Height))

	case tea.KeyMsg:
		return m.forward(keyEvent(msg))

	case tea.MouseMsg:
		return m.forward(platform.InputEvent(platform.MouseInput(msg.X, msg.Y, msg.String())))

	case tea.FocusMsg:
		return m.forward(platform.Focus(true))

	case tea.BlurMsg:
		return m.forward(platform.Focus(false))

	case tickMsg:
		next, cmd := m.forward(platform.RedrawRequested())
		if m.err != nil {
			return next, cmd
		}
		return next, m.tick()

	case titleMsg:
		return m, tea.SetWindowTitle(string(msg))

	case frameMsg:
		// View picks up the new frame.
		return m, nil
	}
	return m, nil
}

// forward dispatches ev, quitting the program if the IO engine is gone.
func (m *model) forward(ev platform.Event) (tea.Model, tea.Cmd) {
	if err := m.dispatch(ev); err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	return m.t.content()
}

func keyEvent(msg tea.KeyMsg) platform.Event {
	switch msg.Type {
	case tea.KeyCtrlC:
		return platform.CloseRequested()
	case tea.KeyRunes:
		if msg.Alt {
			return platform.InputEvent(platform.KeyInput(msg.String()))
		}
		return platform.InputEvent(platform.TextInput(string(msg.Runes)))
	default:
		return platform.InputEvent(platform.KeyInput(msg.String()))
	}
}
