package view

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

type clientsState int

const (
	clientsStateBrowse clientsState = iota
	clientsStateEdit
	clientsStateImport
)

type clientForm struct {
	id       string
	fullName string
	address  string
	zip      string
}

type ClientsModel struct {
	CommonModel
	clients  *client.Service
	importer *importer.Service
	editor   *invoice.Service

	state      clientsState
	table      table.Model
	list       []client.Client
	form       *huh.Form
	fields     *clientForm
	filePicker filepicker.Model
	status     string
	err        error
}

func NewClientsModel(clients *client.Service, imp *importer.Service, editor *invoice.Service) ClientsModel {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Address", Width: 36},
		{Title: "Zip", Width: 10},
		{Title: "", Width: 8},
	}

	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".json", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := ClientsModel{
		clients:    clients,
		importer:   imp,
		editor:     editor,
		table:      newTable(columns, 12),
		filePicker: fp,
	}
	m.refresh()

	return m
}

func (m ClientsModel) Title() string { return "Clients" }

func (m ClientsModel) ShortHelp() string {
	switch m.state {
	case clientsStateEdit:
		return "Navigate form | Esc: cancel"
	case clientsStateImport:
		return "Enter: import file | Esc: cancel"
	}

	return "Esc: back | Enter: bill to | a: add | e: edit | d: delete | i: import"
}

func (m ClientsModel) Init() tea.Cmd {
	return nil
}

func (m *ClientsModel) refresh() {
	m.list = m.clients.List()

	var linked string
	if bt := m.editor.BillTo(); bt.Linked {
		linked = *bt.ClientID
	}

	rows := make([]table.Row, len(m.list))
	for i, c := range m.list {
		mark := ""
		if c.ID == linked {
			mark = "billed"
		}

		rows[i] = table.Row{c.FullName, c.Address, c.Zip, mark}
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

type clientsDoneMsg struct {
	status string
	err    error
}

func (m ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientsDoneMsg:
		m.status = msg.status
		m.err = msg.err
		m.state = clientsStateBrowse
		m.form = nil
		m.table.Focus()
		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 3))
	case InvoiceChangedMsg:
		if m.state == clientsStateBrowse {
			m.refresh()
		}

		return m, nil
	}

	switch m.state {
	case clientsStateEdit:
		return m.updateEdit(msg)
	case clientsStateImport:
		return m.updateImport(msg)
	}

	return m.updateBrowse(msg)
}

func (m ClientsModel) selected() (client.Client, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return client.Client{}, false
	}

	return m.list[idx], true
}

func (m ClientsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterEditMode(clientForm{})
		case "e":
			if c, ok := m.selected(); ok {
				return m.enterEditMode(clientForm{id: c.ID, fullName: c.FullName, address: c.Address, zip: c.Zip})
			}
		case "d":
			if c, ok := m.selected(); ok {
				return m, m.removeCmd(c)
			}
		case "enter":
			if c, ok := m.selected(); ok {
				return m, m.billToCmd(c)
			}
		case "i":
			m.state = clientsStateImport
			m.status = ""
			m.err = nil
			m.table.Blur()

			return m, m.filePicker.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ClientsModel) enterEditMode(initial clientForm) (tea.Model, tea.Cmd) {
	m.fields = &initial

	title := "New Client"
	if initial.id != "" {
		title = "Edit Client"
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("fullName").
				Title("Name").
				Value(&m.fields.fullName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}

					return nil
				}),
			huh.NewInput().
				Key("address").
				Title("Address").
				Value(&m.fields.address),
			huh.NewInput().
				Key("zip").
				Title("Zip Code").
				Value(&m.fields.zip),
		).Title(title),
	).WithWidth(50).WithShowHelp(false)

	m.state = clientsStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ClientsModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = clientsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd(*m.fields)
}

func (m ClientsModel) updateImport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = clientsStateBrowse
		m.table.Focus()

		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.status = fmt.Sprintf("Importing from %s...", path)
		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ClientsModel) saveCmd(f clientForm) tea.Cmd {
	svc := m.clients

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if f.id == "" {
			c, err := svc.Add(ctx, client.CreateParams{FullName: f.fullName, Address: f.address, Zip: f.zip})
			if err != nil {
				return clientsDoneMsg{err: err}
			}

			return clientsDoneMsg{status: fmt.Sprintf("Added %s.", c.FullName)}
		}

		c, err := svc.Update(ctx, f.id, client.Patch{FullName: &f.fullName, Address: &f.address, Zip: &f.zip})
		if err != nil {
			return clientsDoneMsg{err: err}
		}

		return clientsDoneMsg{status: fmt.Sprintf("Saved %s.", c.FullName)}
	}
}

func (m ClientsModel) removeCmd(c client.Client) tea.Cmd {
	svc := m.clients

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if err := svc.Remove(ctx, c.ID); err != nil && !errors.Is(err, client.ErrNotFound) {
			return clientsDoneMsg{err: err}
		}

		return clientsDoneMsg{status: fmt.Sprintf("Removed %s.", c.FullName)}
	}
}

func (m ClientsModel) billToCmd(c client.Client) tea.Cmd {
	editor := m.editor

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		err := editor.SelectClient(ctx, c.ID)
		if errors.Is(err, invoice.ErrClientNotFound) {
			return clientsDoneMsg{}
		}

		if err != nil {
			return clientsDoneMsg{err: err}
		}

		return clientsDoneMsg{status: fmt.Sprintf("Billing %s.", c.FullName)}
	}
}

func (m ClientsModel) importCmd(path string) tea.Cmd {
	imp := m.importer

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return clientsDoneMsg{err: fmt.Errorf("opening file: %w", err)}
		}
		defer f.Close()

		ctx, cancel := OpCtx()
		defer cancel()

		added, err := imp.Import(ctx, importer.FormatFromFilename(path), f)
		if err != nil {
			return clientsDoneMsg{err: err}
		}

		return clientsDoneMsg{status: fmt.Sprintf("Imported %d clients.", len(added))}
	}
}

func (m ClientsModel) View() string {
	switch m.state {
	case clientsStateEdit:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case clientsStateImport:
		return fmt.Sprintf("Pick a CSV or JSON client list:\n\n%s\n\n%s", m.filePicker.View(), m.status)
	}

	var b strings.Builder

	if len(m.list) == 0 {
		b.WriteString(faintStyle.Render("No clients yet. Press 'a' to add or 'i' to import."))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + okStyle.Render(m.status) + "\n")
	}

	return b.String()
}
