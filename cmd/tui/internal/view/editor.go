package view

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

// editorForm holds the form bindings. It lives behind a pointer so the huh
// inputs keep writing to the same place as the model is copied around.
type editorForm struct {
	stored   invoice.Invoice
	resolved invoice.Invoice
	values   map[invoice.Field]*string
	linkedID string
	clientID string
}

func newEditorForm(svc *invoice.Service) *editorForm {
	f := &editorForm{
		stored:   svc.Active(),
		resolved: svc.Resolved(),
		values:   make(map[invoice.Field]*string, len(invoice.Fields)),
	}

	for _, field := range invoice.Fields {
		src := f.stored
		if field.IsBillTo() {
			src = f.resolved
		}

		v, _ := src.Value(field)
		f.values[field] = &v
	}

	if bt := svc.BillTo(); bt.Linked {
		f.linkedID = *bt.ClientID
		f.clientID = f.linkedID
	}

	return f
}

func (f *editorForm) changed(field invoice.Field) bool {
	src := f.stored
	if field.IsBillTo() {
		src = f.resolved
	}

	old, _ := src.Value(field)

	return *f.values[field] != old
}

// apply pushes every edited field through the service. Picking a different
// client wins over typed bill-to values; typed values otherwise switch to
// manual entry.
func (f *editorForm) apply(ctx context.Context, svc *invoice.Service) error {
	for _, field := range invoice.Fields {
		if field.IsBillTo() || !f.changed(field) {
			continue
		}

		if err := svc.UpdateField(ctx, field, *f.values[field]); err != nil {
			return err
		}
	}

	billToChanged := false

	for _, field := range invoice.Fields {
		if field.IsBillTo() && f.changed(field) {
			billToChanged = true
		}
	}

	clientChanged := f.clientID != f.linkedID

	switch {
	case clientChanged && f.clientID != "":
		return svc.SelectClient(ctx, f.clientID)
	case billToChanged:
		for _, field := range invoice.Fields {
			if !field.IsBillTo() || !f.changed(field) {
				continue
			}

			if err := svc.SetBillToField(ctx, field, *f.values[field]); err != nil {
				return err
			}
		}
	case clientChanged:
		return svc.ClearClient(ctx)
	}

	return nil
}

type EditorModel struct {
	CommonModel
	svc     *invoice.Service
	clients *client.Service

	form   *huh.Form
	fields *editorForm
	err    error
}

func NewEditorModel(svc *invoice.Service, clients *client.Service) EditorModel {
	m := EditorModel{
		svc:     svc,
		clients: clients,
		fields:  newEditorForm(svc),
	}
	m.form = m.buildForm()

	return m
}

func (m EditorModel) Title() string { return "Edit Invoice" }

func (m EditorModel) ShortHelp() string {
	return "Tab/Enter: next field | Esc: discard and back"
}

func (m EditorModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editorSavedMsg:
		// A client removed while the form was open is not worth reporting.
		if msg.err != nil && !errors.Is(msg.err, invoice.ErrClientNotFound) {
			m.err = msg.err
			m.fields = newEditorForm(m.svc)
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, Back
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m EditorModel) buildForm() *huh.Form {
	input := func(f invoice.Field, title string) *huh.Input {
		return huh.NewInput().Key(string(f)).Title(title).Value(m.fields.values[f])
	}

	options := []huh.Option[string]{huh.NewOption("Manual entry", "")}
	for _, c := range m.clients.List() {
		options = append(options, huh.NewOption(c.FullName, c.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			input(invoice.FieldFullName, "Full Name"),
			input(invoice.FieldRole, "Role"),
			input(invoice.FieldLogo, "Logo").Placeholder("https://... or data:image/png;base64,..."),
		).Title("From"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("client").
				Title("Client").
				Options(options...).
				Value(&m.fields.clientID),
			input(invoice.FieldBillToCompany, "Company"),
			input(invoice.FieldBillToAddress, "Address"),
			input(invoice.FieldBillToZip, "Zip Code"),
		).Title("Bill To"),
		huh.NewGroup(
			input(invoice.FieldInvoiceNumber, "Invoice #"),
			input(invoice.FieldInvoiceDate, "Invoice Date").Placeholder("YYYY-MM-DD"),
			input(invoice.FieldDueDate, "Due Date").Placeholder("YYYY-MM-DD"),
			input(invoice.FieldTaxRate, "Tax Rate (%)").Validate(func(s string) error {
				_, err := invoice.ParseRate(s)
				return err
			}),
			huh.NewText().
				Key(string(invoice.FieldNotes)).
				Title("Notes").
				Value(m.fields.values[invoice.FieldNotes]),
		).Title("Invoice"),
		huh.NewGroup(
			input(invoice.FieldPayVia, "Pay Via"),
			input(invoice.FieldAccountName, "Account Name"),
			input(invoice.FieldAccountEmail, "Account Email"),
		).Title("Payment"),
	).WithWidth(60).WithShowHelp(false)
}

func (m EditorModel) View() string {
	content := m.form.View()

	if m.err != nil {
		content = errorStyle.Render(fmt.Sprintf("Error saving: %v", m.err)) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type editorSavedMsg struct {
	err error
}

func (m EditorModel) saveCmd() tea.Cmd {
	fields := m.fields
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		return editorSavedMsg{err: fields.apply(ctx, svc)}
	}
}
