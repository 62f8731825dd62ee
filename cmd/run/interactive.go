package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Azzazelloqq/Disposable/testbed"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type drainState int

const (
	stateReady drainState = iota
	stateDraining
	stateDone
)

type interactiveModel struct {
	scenario *testbed.Scenario
	report   *testbed.Report
	events   []testbed.Event
	eventCh  chan testbed.Event
	spin     spinner.Model
	state    drainState
}

type eventMsg testbed.Event

type doneMsg struct {
	report *testbed.Report
}

func newInteractiveModel(scenario *testbed.Scenario) *interactiveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &interactiveModel{
		scenario: scenario,
		spin:     sp,
		eventCh:  make(chan testbed.Event, scenario.Total()),
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) startDrain() tea.Cmd {
	runner := testbed.NewRunner(m.scenario, testbed.WithObserver(func(e testbed.Event) {
		m.eventCh <- e
	}))
	return tea.Batch(
		m.spin.Tick,
		m.nextEvent(),
		func() tea.Msg {
			report := runner.Run(context.Background())
			close(m.eventCh)
			return doneMsg{report: report}
		},
	)
}

// nextEvent waits for the next release event. Once the drain finishes the
// channel is closed and the pending command returns nothing instead of
// blocking forever.
func (m *interactiveModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "enter":
			if m.state == stateReady {
				m.state = stateDraining
				return m, m.startDrain()
			}
			if m.state == stateDone {
				return m, tea.Quit
			}
		}

	case eventMsg:
		if m.state == stateDraining {
			m.events = append(m.events, testbed.Event(msg))
			return m, m.nextEvent()
		}

	case doneMsg:
		m.state = stateDone
		m.report = msg.report

	case spinner.TickMsg:
		if m.state == stateDraining {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Disposable Testbed"))
	b.WriteString(" ")
	b.WriteString(m.scenario.Name)
	b.WriteString("  ")
	b.WriteString(kindStyle.Render(string(m.scenario.Mode)))
	b.WriteString("\n\n")

	switch m.state {
	case stateReady:
		b.WriteString("Resource tree:\n\n")
		renderSpecs(&b, m.scenario.Resources, 1)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter drain • q quit"))

	case stateDraining:
		b.WriteString(m.spin.View())
		b.WriteString(" draining...\n\n")
		for _, e := range m.events {
			b.WriteString(renderEvent(e))
			b.WriteString("\n")
		}

	case stateDone:
		for _, e := range m.report.Events {
			b.WriteString(renderEvent(e))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		released := len(m.report.Released())
		summary := fmt.Sprintf("Released %d/%d in %s", released, m.report.Total,
			m.report.Elapsed.Round(time.Microsecond))
		if m.report.Err != nil {
			b.WriteString(failStyle.Render(summary))
			b.WriteString("\n")
			b.WriteString(failStyle.Render("Error: " + m.report.Err.Error()))
		} else {
			b.WriteString(okStyle.Render(summary))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/q quit"))
	}

	return b.String()
}

func renderSpecs(b *strings.Builder, specs []testbed.ResourceSpec, depth int) {
	for _, spec := range specs {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(spec.Name)
		b.WriteString(" ")
		b.WriteString(kindStyle.Render(string(spec.Kind)))
		if spec.Fail != "" {
			b.WriteString(" ")
			b.WriteString(failStyle.Render("(fails)"))
		}
		b.WriteString("\n")
		renderSpecs(b, spec.Children, depth+1)
	}
}

func renderEvent(e testbed.Event) string {
	if e.Err != nil {
		return failStyle.Render(fmt.Sprintf("  ✗ %s: %v", e.Name, e.Err))
	}
	return okStyle.Render(fmt.Sprintf("  ✓ %s (%s)", e.Name, e.Elapsed.Round(time.Microsecond)))
}

func runInteractive(scenario *testbed.Scenario) error {
	p := tea.NewProgram(newInteractiveModel(scenario), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
