package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// InvoiceChangedMsg carries the draft after every committed change.
type InvoiceChangedMsg struct {
	Invoice invoice.Invoice
}

// Notify delivers an InvoiceChangedMsg to send for each change svc commits,
// until stop is called. send must not block on the caller's own update loop;
// tea.Program.Send qualifies because every mutation runs in a command.
func Notify(svc *invoice.Service, send func(tea.Msg)) (stop func()) {
	return svc.Subscribe(func(inv invoice.Invoice) {
		send(InvoiceChangedMsg{Invoice: inv})
	})
}
