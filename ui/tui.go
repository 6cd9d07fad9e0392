package ui

import (
	"io"
	"log"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	messageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

type progressMsg struct {
	message string
	percent int
}

type doneMsg struct {
	err error
}

type model struct {
	bar         progress.Model
	spin        spinner.Model
	message     string
	percent     int
	done        bool
	err         error
	onInterrupt func()
}

func newModel(onInterrupt func()) model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return model{
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spin:        spin,
		message:     "Starting",
		percent:     -1,
		onInterrupt: onInterrupt,
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case progressMsg:
		m.message = typed.message
		m.percent = typed.percent
		return m, nil
	case doneMsg:
		m.done = true
		m.err = typed.err
		return m, tea.Quit
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			m.message = "Cancelling"
			m.percent = -1
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := typed.Width - len(m.message) - 8
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.bar.Width = width
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		if m.err != nil {
			return errorStyle.Render("✗ "+m.message) + "\n"
		}
		return doneStyle.Render("✓ Done") + "\n"
	}
	if m.percent < 0 {
		return m.spin.View() + " " + messageStyle.Render(m.message) + "\n" + hintStyle.Render("ctrl+c to cancel") + "\n"
	}
	return messageStyle.Render(m.message) + " " + m.bar.ViewAs(float64(m.percent)/100) + "\n" + hintStyle.Render("ctrl+c to cancel") + "\n"
}

// TUI renders progress as an animated bar. Start it before the first
// update and Finish it once the operation returns.
type TUI struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// NewTUI builds a TUI writing to out. onInterrupt runs when the user
// presses ctrl+c.
func NewTUI(in io.Reader, out io.Writer, onInterrupt func()) *TUI {
	return &TUI{
		program: tea.NewProgram(newModel(onInterrupt), tea.WithInput(in), tea.WithOutput(out)),
		done:    make(chan struct{}),
	}
}

func (t *TUI) Start() {
	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil {
			log.Printf("ui: progress display stopped: %v", err)
		}
	}()
}

func (t *TUI) Progress(message string, percent int) {
	t.program.Send(progressMsg{message: message, percent: percent})
}

// Finish shows the final state and waits for the program to exit.
func (t *TUI) Finish(err error) {
	t.once.Do(func() {
		t.program.Send(doneMsg{err: err})
		<-t.done
	})
}
