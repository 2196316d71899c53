package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
)

type previewState int

const (
	previewStateView previewState = iota
	previewStateConfirmClear
)

type PreviewModel struct {
	CommonModel
	svc *invoice.Service

	state   previewState
	confirm *huh.Form
	// Heap-allocated so the confirm field survives model copies.
	clear *bool

	problems []invoice.FieldError
	status   string
	err      error
}

func NewPreviewModel(svc *invoice.Service) PreviewModel {
	return PreviewModel{svc: svc, clear: new(bool)}
}

func (m PreviewModel) Title() string { return "Preview" }

func (m PreviewModel) ShortHelp() string {
	if m.state == previewStateConfirmClear {
		return "←/→: choose | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | v: validate | n: new number | c: clear invoice"
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

type previewDoneMsg struct {
	status string
	err    error
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(previewDoneMsg); ok {
		m.status = done.status
		m.err = done.err
		m.state = previewStateView

		return m, nil
	}

	if m.state == previewStateConfirmClear {
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "v":
		m.status, m.err, m.problems = "", nil, nil

		var verr *invoice.ValidationError

		switch err := m.svc.Validate(); {
		case err == nil:
			m.status = "Invoice is ready to export."
		case errors.As(err, &verr):
			m.problems = verr.Fields
		default:
			m.err = err
		}

		return m, nil
	case "n":
		return m, m.regenerateCmd()
	case "c":
		*m.clear = false
		m.confirm = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Clear the invoice?").
					Description("Every field resets to the blank template.").
					Affirmative("Clear").
					Negative("Keep").
					Value(m.clear),
			),
		).WithWidth(50).WithShowHelp(false)
		m.state = previewStateConfirmClear

		return m, m.confirm.Init()
	}

	return m, nil
}

func (m PreviewModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = previewStateView
		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	if m.confirm.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.clear {
		m.state = previewStateView
		return m, nil
	}

	svc := m.svc

	return m, func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if err := svc.Clear(ctx); err != nil {
			return previewDoneMsg{err: err}
		}

		return previewDoneMsg{status: "Invoice cleared."}
	}
}

func (m PreviewModel) regenerateCmd() tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		number, err := svc.RegenerateNumber(ctx)
		if err != nil {
			return previewDoneMsg{err: err}
		}

		return previewDoneMsg{status: "New invoice number " + number}
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("244"))
)

// RenderInvoice draws the layout shared with PDF export as terminal text.
func RenderInvoice(lines []render.Line) string {
	var b strings.Builder

	for _, l := range lines {
		switch l.Kind {
		case render.KindTitle:
			b.WriteString(titleStyle.Render(l.Cells[0]))
		case render.KindHeading:
			b.WriteString(headingStyle.Render(l.Cells[0]))
		case render.KindField:
			b.WriteString(labelStyle.Render(l.Cells[0]) + l.Cells[1])
		case render.KindItemHead:
			b.WriteString(faintStyle.Render(fmt.Sprintf("%-30s %5s %10s %10s", l.Cells[0], l.Cells[1], l.Cells[2], l.Cells[3])))
		case render.KindItem:
			b.WriteString(fmt.Sprintf("%-30.30s %5s %10s %10s", l.Cells[0], l.Cells[1], l.Cells[2], l.Cells[3]))
		case render.KindTotal:
			b.WriteString(fmt.Sprintf("%46s %10s", l.Cells[0], l.Cells[1]))
		case render.KindGrand:
			b.WriteString(activeStyle(fmt.Sprintf("%46s %10s", l.Cells[0], l.Cells[1])))
		case render.KindText:
			b.WriteString(l.Cells[0])
		}

		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m PreviewModel) View() string {
	if m.state == previewStateConfirmClear {
		return lipgloss.NewStyle().Padding(1).Render(m.confirm.View())
	}

	content := panelStyle.Render(RenderInvoice(render.Layout(m.svc.Resolved(), m.svc.Totals())))

	var footer strings.Builder

	if len(m.problems) > 0 {
		footer.WriteString(errorStyle.Render("Fix before exporting:") + "\n")

		for _, p := range m.problems {
			footer.WriteString(errorStyle.Render(fmt.Sprintf("  %s: %s", p.Field, p.Message)) + "\n")
		}
	}

	if m.err != nil {
		footer.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	} else if m.status != "" {
		footer.WriteString(okStyle.Render(m.status) + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, "", footer.String())
}
