package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
)

const assistTimeout = time.Minute

type assistState int

const (
	assistStatePrompt assistState = iota
	assistStateThinking
	assistStateProposal
	assistStateResult
)

type AssistModel struct {
	CommonModel
	svc    *assist.Service
	editor *invoice.Service

	state   assistState
	form    *huh.Form
	prompt  *string
	spinner spinner.Model

	result assist.Result
	status string
	err    error
}

func NewAssistModel(svc *assist.Service, editor *invoice.Service) AssistModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := AssistModel{
		svc:     svc,
		editor:  editor,
		prompt:  new(string),
		spinner: s,
	}
	m.form = m.buildPromptForm()

	return m
}

func (m AssistModel) Title() string { return "Assist Fill" }

func (m AssistModel) ShortHelp() string {
	switch m.state {
	case assistStateProposal:
		return "y: apply | n: discard"
	case assistStateThinking:
		return "Thinking..."
	case assistStateResult:
		return "Esc: back to menu"
	}

	return "Esc: back | Enter: submit"
}

func (m AssistModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m AssistModel) buildPromptForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Key("prompt").
				Title("Describe the invoice").
				Placeholder("Bill Acme Corp $1200 for March consulting, due 2026-04-15").
				Value(m.prompt).
				Validate(func(s string) error {
					if s == "" {
						return assist.ErrMissingPrompt
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

type assistResultMsg struct {
	result assist.Result
	err    error
}

type assistAppliedMsg struct {
	err error
}

func (m AssistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case assistResultMsg:
		if msg.err != nil {
			m.state = assistStateResult
			m.err = msg.err

			return m, nil
		}

		m.result = msg.result
		m.state = assistStateProposal

		return m, nil
	case assistAppliedMsg:
		m.state = assistStateResult
		m.err = msg.err

		if msg.err == nil {
			m.status = "Applied suggestion from " + m.result.Provider + "."
		}

		return m, nil
	}

	switch m.state {
	case assistStatePrompt:
		return m.updatePrompt(msg)
	case assistStateThinking:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case assistStateProposal:
		return m.updateProposal(msg)
	case assistStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m AssistModel) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = assistStateThinking
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.fillCmd(*m.prompt))
}

func (m AssistModel) updateProposal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y":
		editor := m.editor
		patch := m.result.Filled

		return m, func() tea.Msg {
			ctx, cancel := OpCtx()
			defer cancel()

			return assistAppliedMsg{err: editor.ApplyPatch(ctx, patch)}
		}
	case "n", "esc":
		m.state = assistStateResult
		m.status = "Suggestion discarded."
	}

	return m, nil
}

func (m AssistModel) fillCmd(prompt string) tea.Cmd {
	svc := m.svc
	inv := m.editor.Resolved()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), assistTimeout)
		defer cancel()

		result, err := svc.Fill(ctx, prompt, inv)

		return assistResultMsg{result: result, err: err}
	}
}

func (m AssistModel) View() string {
	switch m.state {
	case assistStatePrompt:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case assistStateThinking:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Asking for suggestions...", m.spinner.View()),
		)
	case assistStateProposal:
		return m.viewProposal()
	case assistStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		}

		return lipgloss.NewStyle().Padding(1).Render(okStyle.Render(m.status))
	}

	return ""
}

func (m AssistModel) viewProposal() string {
	if m.result.Filled.Empty() {
		return lipgloss.NewStyle().Padding(1).Render(
			faintStyle.Render("Nothing could be filled from that prompt.") + "\n\nPress n to go back.",
		)
	}

	next := m.editor.Resolved()
	next.Merge(m.result.Filled)

	header := fmt.Sprintf("Suggested by %s. Apply it?", activeStyle(m.result.Provider))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		panelStyle.Render(RenderInvoice(render.Layout(next, invoice.Compute(next)))),
	)
}
