package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// OutcomeMsg reports one resolved prompt.
type OutcomeMsg struct {
	Index   int
	Total   int
	Outcome domain.GenerationOutcome
}

// StatusMsg carries an advisory progress line from the orchestrator.
type StatusMsg string

// DoneMsg ends the program. Err is the run's terminal error, if any.
type DoneMsg struct {
	Err error
}

type model struct {
	spinner spinner.Model
	styles  styles
	events  <-chan tea.Msg
	total   int
	lines   []string
	status  string
	done    bool
	err     error
}

func newModel(total int, events <-chan tea.Msg) model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return model{
		spinner: s,
		styles:  newStyles(),
		events:  events,
		total:   total,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listen(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StatusMsg:
		m.status = string(msg)
		return m, listen(m.events)
	case OutcomeMsg:
		m.lines = append(m.lines, m.renderOutcome(msg))
		m.status = ""
		return m, listen(m.events)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !m.done {
		b.WriteString(m.spinner.View())
		if m.status != "" {
			b.WriteString(m.styles.status.Render(m.status))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m model) renderOutcome(msg OutcomeMsg) string {
	header := m.styles.prompt.Render(fmt.Sprintf("[%d/%d] %s", msg.Index+1, msg.Total, msg.Outcome.Prompt))
	if msg.Outcome.Succeeded() {
		detail := m.styles.success.Render(fmt.Sprintf("%d image(s)", len(msg.Outcome.Images)))
		return header + " " + detail
	}
	return header + " " + m.styles.failure.Render(msg.Outcome.Error)
}

func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

// Run drives the live view until the events channel closes or delivers a
// DoneMsg, then returns the rendered summary.
func Run(total int, events <-chan tea.Msg, output io.Writer) (string, error) {
	p := tea.NewProgram(
		newModel(total, events),
		tea.WithInput(nil),
		tea.WithOutput(output),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	final, ok := finalModel.(model)
	if !ok {
		return "", fmt.Errorf("unexpected final bubbletea model type %T", finalModel)
	}

	var b strings.Builder
	for _, line := range final.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String(), final.err
}
