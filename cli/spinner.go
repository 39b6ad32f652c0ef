package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chweb/chweb/internal/gateway"
)

// RunQuery runs sql, showing a spinner while waiting when interactive is set.
func (c *Context) RunQuery(ctx context.Context, sql string, interactive bool) (gateway.Response, error) {
	if !interactive {
		return c.Query(ctx, sql)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newQueryModel(func() (gateway.Response, error) {
		return c.Query(ctx, sql)
	}, cancel)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return gateway.Response{}, fmt.Errorf("run TUI: %w", err)
	}

	if !model.done {
		return gateway.Response{}, context.Canceled
	}

	return model.resp, model.err
}

// queryModel is the Bubble Tea model shown while a query runs
type queryModel struct {
	spinner spinner.Model
	run     func() (gateway.Response, error)
	cancel  context.CancelFunc

	resp gateway.Response
	err  error
	done bool
}

func newQueryModel(run func() (gateway.Response, error), cancel context.CancelFunc) *queryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &queryModel{
		spinner: s,
		run:     run,
		cancel:  cancel,
	}
}

// Messages
type queryDoneMsg struct {
	resp gateway.Response
	err  error
}

func (m *queryModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			resp, err := m.run()
			return queryDoneMsg{resp: resp, err: err}
		},
	)
}

func (m *queryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			// abort the request still in flight
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case queryDoneMsg:
		m.resp = msg.resp
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	default:
		return m, nil
	}
}

func (m *queryModel) View() string {
	if m.done {
		return ""
	}

	return m.spinner.View() + " Running query… (press 'q' to abort)\n"
}
