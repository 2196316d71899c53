package view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/export"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
)

const exportTimeout = 2 * time.Minute

type exportState int

const (
	exportStatePath exportState = iota
	exportStateExporting
	exportStateResult
)

const (
	exportModePDF    = "pdf"
	exportModeBundle = "zip"
)

type exportForm struct {
	path string
	mode string
}

type ExportModel struct {
	CommonModel
	exportService *export.Service
	editor        *invoice.Service
	surface       export.Surface

	state   exportState
	form    *huh.Form
	fields  *exportForm
	spinner spinner.Model
	written string
	err     error
}

func NewExportModel(svc *export.Service, editor *invoice.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService: svc,
		editor:        editor,
		// Logo URLs here are typed by the local user, not a remote client.
		surface:       render.NewRaster(editor, render.WithLogoBases("https://")),
		fields:        &exportForm{path: "./exports", mode: exportModePDF},
		spinner:       s,
	}
	m.form = m.buildPathForm()

	return m
}

func (m ExportModel) Title() string { return "Export PDF" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ExportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	// The trigger stays inert while another export (e.g. from the API) runs.
	if m.exportService.InProgress() {
		m.state = exportStateResult
		m.err = export.ErrInProgress

		return m, nil
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(*m.fields))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.written = result.path

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	return m, nil
}

func (m ExportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.fields.path),
			huh.NewSelect[string]().
				Key("mode").
				Title("Format").
				Options(
					huh.NewOption("PDF", exportModePDF),
					huh.NewOption("Zip (PDF + invoice JSON)", exportModeBundle),
				).
				Value(&m.fields.mode),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Rendering invoice...", m.spinner.View()),
		)
	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		var verr *invoice.ValidationError
		if errors.As(m.err, &verr) {
			lines := []string{errorStyle.Render("Invoice is not ready to export:"), ""}
			for _, f := range verr.Fields {
				lines = append(lines, errorStyle.Render(fmt.Sprintf("  %s: %s", f.Field, f.Message)))
			}

			return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
		}

		return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := okStyle.Bold(true).Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", "Saved to "+m.written),
	)
}

type exportResultMsg struct {
	path string
	err  error
}

func (m ExportModel) runExportCmd(f exportForm) tea.Cmd {
	svc := m.exportService
	editor := m.editor
	surface := m.surface

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		dir := strings.TrimSpace(f.path)
		if dir == "" {
			dir = "./exports"
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("creating output directory: %w", err)}
		}

		inv := editor.Active()
		name := export.FileName(inv.InvoiceNumber, time.Now())

		path, err := writeExport(ctx, svc, surface, inv, filepath.Join(dir, name), f.mode)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{path: path}
	}
}

// writeExport creates the file only once rendering has succeeded so a
// rejected invoice leaves nothing behind.
func writeExport(ctx context.Context, svc *export.Service, surface export.Surface, inv invoice.Invoice, pdfPath, mode string) (string, error) {
	var buf bytes.Buffer

	path := pdfPath

	switch mode {
	case exportModeBundle:
		base := strings.TrimSuffix(filepath.Base(pdfPath), ".pdf")
		path = strings.TrimSuffix(pdfPath, ".pdf") + ".zip"

		body, err := json.MarshalIndent(inv, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding invoice: %w", err)
		}

		if err := svc.Bundle(ctx, surface, base, []export.File{{Name: base + ".json", Body: body}}, &buf); err != nil {
			return "", err
		}
	default:
		if err := svc.Export(ctx, surface, &buf); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}
