package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
)

type itemsState int

const (
	itemsStateBrowse itemsState = iota
	itemsStateEdit
)

type itemForm struct {
	index       int
	original    invoice.Item
	description string
	quantity    string
	amount      string
}

func (f *itemForm) changes() map[invoice.ItemField]string {
	out := make(map[invoice.ItemField]string)

	if f.description != f.original.Description {
		out[invoice.ItemDescription] = f.description
	}

	if f.quantity != strconv.Itoa(f.original.Quantity) {
		out[invoice.ItemQuantity] = f.quantity
	}

	if f.amount != f.original.Amount.String() {
		out[invoice.ItemAmount] = f.amount
	}

	return out
}

type ItemsModel struct {
	CommonModel
	svc *invoice.Service

	state  itemsState
	table  table.Model
	items  []invoice.Item
	form   *huh.Form
	fields *itemForm
	status string
}

func NewItemsModel(svc *invoice.Service) ItemsModel {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Description", Width: 36},
		{Title: "Qty", Width: 5},
		{Title: "Amount", Width: 12},
		{Title: "Line Total", Width: 12},
	}

	m := ItemsModel{
		svc:   svc,
		table: newTable(columns, 10),
	}
	m.refresh()

	return m
}

func (m ItemsModel) Title() string { return "Line Items" }

func (m ItemsModel) ShortHelp() string {
	if m.state == itemsStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add | e/Enter: edit | d: delete"
}

func (m ItemsModel) Init() tea.Cmd {
	return nil
}

func (m *ItemsModel) refresh() {
	m.items = m.svc.Active().Items

	rows := make([]table.Row, len(m.items))
	for i, it := range m.items {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			it.Description,
			strconv.Itoa(it.Quantity),
			render.FormatAmount(it.Amount),
			render.FormatAmount(invoice.LineTotal(it)),
		}
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

type itemsSavedMsg struct {
	err error
}

func (m ItemsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsSavedMsg:
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = itemsStateBrowse
		m.form = nil
		m.table.Focus()
		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-14, 3))
		return m, nil
	case InvoiceChangedMsg:
		// The open form edits by index, so rows only move while browsing.
		if m.state == itemsStateBrowse {
			m.refresh()
		}

		return m, nil
	}

	if m.state == itemsStateEdit {
		return m.updateEdit(msg)
	}

	return m.updateBrowse(msg)
}

func (m ItemsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m, m.mutateCmd(func(svc *invoice.Service) error {
				ctx, cancel := OpCtx()
				defer cancel()

				return svc.AddItem(ctx)
			})
		case "d":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.items) {
				return m, nil
			}

			return m, m.mutateCmd(func(svc *invoice.Service) error {
				ctx, cancel := OpCtx()
				defer cancel()

				return svc.RemoveItem(ctx, idx)
			})
		case "e", "enter":
			return m.enterEditMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ItemsModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return m, nil
	}

	it := m.items[idx]
	m.fields = &itemForm{
		index:       idx,
		original:    it,
		description: it.Description,
		quantity:    strconv.Itoa(it.Quantity),
		amount:      it.Amount.String(),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.fields.description),
			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.fields.quantity).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}

					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("quantity must be a whole number")
					}

					return nil
				}),
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&m.fields.amount),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = itemsStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ItemsModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = itemsStateBrowse
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

	fields := m.fields

	return m, m.mutateCmd(func(svc *invoice.Service) error {
		ctx, cancel := OpCtx()
		defer cancel()

		changes := fields.changes()
		for _, f := range []invoice.ItemField{invoice.ItemDescription, invoice.ItemQuantity, invoice.ItemAmount} {
			v, ok := changes[f]
			if !ok {
				continue
			}

			if err := svc.UpdateItem(ctx, fields.index, f, v); err != nil {
				return err
			}
		}

		return nil
	})
}

func (m ItemsModel) mutateCmd(fn func(*invoice.Service) error) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		return itemsSavedMsg{err: fn(svc)}
	}
}

func (m ItemsModel) View() string {
	if m.state == itemsStateEdit && m.form != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Editing item %d\n\n%s", m.fields.index+1, m.form.View()),
		)
	}

	var b strings.Builder

	if len(m.items) == 0 {
		b.WriteString(faintStyle.Render("No items. Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	t := m.svc.Totals()
	inv := m.svc.Active()
	b.WriteString(fmt.Sprintf("\n%-16s %12s\n", "Subtotal", render.FormatAmount(t.Subtotal)))
	b.WriteString(fmt.Sprintf("%-16s %12s\n", render.TaxLabel(inv.TaxRate), render.FormatAmount(t.Tax)))
	b.WriteString(activeStyle(fmt.Sprintf("%-16s %12s", "Total", render.FormatAmount(t.Total))))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}

	return b.String()
}
