package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ue4ss-installer/ui"
	"ue4ss-installer/workflow"
)

// stepProgressMsg reports a step transition from the running workflow.
type stepProgressMsg workflow.StepEvent

// workflowDoneMsg carries the final outcome.
type workflowDoneMsg struct {
	outcome workflow.Outcome
}

// runFunc runs a workflow, reporting step transitions to onStep.
type runFunc func(onStep func(workflow.StepEvent)) workflow.Outcome

// WorkflowModel shows the steps of one running workflow
type WorkflowModel struct {
	spinner      spinner.Model
	progressChan chan tea.Msg
	run          runFunc

	title   string
	steps   []workflow.StepResult
	outcome workflow.Outcome
	done    bool
}

func newWorkflowModel(title string, wf workflow.Workflow, run runFunc) WorkflowModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorPink))

	steps := make([]workflow.StepResult, len(wf.Steps))
	for i, step := range wf.Steps {
		steps[i] = workflow.StepResult{Label: step.Label, Status: workflow.StepPending}
	}

	return WorkflowModel{
		spinner:      s,
		progressChan: make(chan tea.Msg, 32),
		run:          run,
		title:        title,
		steps:        steps,
	}
}

func (m WorkflowModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.start(),
		m.waitForActivity(),
	)
}

func (m WorkflowModel) start() tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(m.progressChan)
			out := m.run(func(ev workflow.StepEvent) {
				m.progressChan <- stepProgressMsg(ev)
			})
			m.progressChan <- workflowDoneMsg{outcome: out}
		}()
		return nil
	}
}

func (m WorkflowModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return msg
	}
}

func (m WorkflowModel) Update(msg tea.Msg) (WorkflowModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepProgressMsg:
		if msg.Index >= 0 && msg.Index < len(m.steps) {
			m.steps[msg.Index].Status = msg.Status
			m.steps[msg.Index].Err = msg.Err
		}
		return m, m.waitForActivity()

	case workflowDoneMsg:
		m.done = true
		m.outcome = msg.outcome
		return m, nil
	}
	return m, nil
}

func (m WorkflowModel) View() string {
	var b strings.Builder
	symbol := m.spinner.View()
	if m.done {
		if m.outcome.Succeeded {
			symbol = ui.Colorize("✓", ui.ColorGreen)
		} else {
			symbol = ui.Colorize("✗", ui.ColorRed)
		}
	}
	fmt.Fprintf(&b, "\n %s %s\n\n", symbol, m.title)

	for _, step := range m.steps {
		fmt.Fprintf(&b, "  %s %s\n", m.stepSymbol(step.Status), step.Label)
		if step.Err != nil {
			fmt.Fprintf(&b, "      %s\n", ui.Colorize(step.Err.Error(), ui.ColorRed))
		}
	}

	if m.done {
		b.WriteString("\n")
		if m.outcome.Succeeded {
			b.WriteString(ui.Bold("Finished successfully", ui.ColorGreen))
		} else {
			b.WriteString(ui.Bold(fmt.Sprintf("Failed: %v", m.outcome.Err), ui.ColorRed))
		}
		b.WriteString("\n\n" + ui.FooterStyle.Render("press any key to continue") + "\n")
	}
	return b.String()
}

func (m WorkflowModel) stepSymbol(status workflow.StepStatus) string {
	switch status {
	case workflow.StepRunning:
		return m.spinner.View()
	case workflow.StepDone:
		return ui.Colorize("✓", ui.ColorGreen)
	case workflow.StepFailed:
		return ui.Colorize("✗", ui.ColorRed)
	case workflow.StepSkipped:
		return ui.Colorize("-", ui.ColorGrey)
	default:
		return ui.Colorize("·", ui.ColorGrey)
	}
}
