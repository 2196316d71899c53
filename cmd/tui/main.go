package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invoicer/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	clientStore "github.com/MrJamesThe3rd/invoicer/internal/client/store"
	"github.com/MrJamesThe3rd/invoicer/internal/config"
	"github.com/MrJamesThe3rd/invoicer/internal/export"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicer/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/driver"
)

type model struct {
	appName string

	editor        *invoice.Service
	clientService *client.Service
	importService *importer.Service
	exportService *export.Service
	assistService *assist.Service

	hydrated      bool
	hydrateErr    error
	invoiceNumber string
	currentView   View

	editorView  view.EditorModel
	itemsView   view.ItemsModel
	clientsView view.ClientsModel
	previewView view.PreviewModel
	assistView  view.AssistModel
	exportView  view.ExportModel
}

type View int

const (
	ViewMenu    View = 0
	ViewEditor  View = 1
	ViewItems   View = 2
	ViewClients View = 3
	ViewPreview View = 4
	ViewAssist  View = 5
	ViewExport  View = 6
)

type hydratedMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	editor := m.editor
	clients := m.clientService

	return func() tea.Msg {
		ctx, cancel := view.OpCtx()
		defer cancel()

		var errs []error

		if err := clients.Load(ctx); err != nil {
			errs = append(errs, fmt.Errorf("loading clients: %w", err))
		}

		if err := editor.Hydrate(ctx); err != nil {
			errs = append(errs, err)
		}

		return hydratedMsg{err: errors.Join(errs...)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case hydratedMsg:
		// A broken draft still leaves a usable blank invoice.
		m.hydrated = true
		m.hydrateErr = msg.err

		if msg.err != nil {
			slog.Error("hydration failed", "error", msg.err)
		}

		return m, nil
	case view.InvoiceChangedMsg:
		m.invoiceNumber = msg.Invoice.InvoiceNumber
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			if !m.hydrated {
				return m, nil
			}

			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewEditor
				m.editorView = view.NewEditorModel(m.editor, m.clientService)

				return m, m.editorView.Init()
			case "2":
				m.currentView = ViewItems
				m.itemsView = view.NewItemsModel(m.editor)

				return m, m.itemsView.Init()
			case "3":
				m.currentView = ViewClients
				m.clientsView = view.NewClientsModel(m.clientService, m.importService, m.editor)

				return m, m.clientsView.Init()
			case "4":
				m.currentView = ViewPreview
				m.previewView = view.NewPreviewModel(m.editor)

				return m, m.previewView.Init()
			case "5":
				m.currentView = ViewAssist
				m.assistView = view.NewAssistModel(m.assistService, m.editor)

				return m, m.assistView.Init()
			case "6":
				if m.exportService.InProgress() {
					return m, nil
				}

				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService, m.editor)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewEditor:
		var newModel tea.Model
		newModel, cmd = m.editorView.Update(msg)
		m.editorView = newModel.(view.EditorModel)
	case ViewItems:
		var newModel tea.Model
		newModel, cmd = m.itemsView.Update(msg)
		m.itemsView = newModel.(view.ItemsModel)
	case ViewClients:
		var newModel tea.Model
		newModel, cmd = m.clientsView.Update(msg)
		m.clientsView = newModel.(view.ClientsModel)
	case ViewPreview:
		var newModel tea.Model
		newModel, cmd = m.previewView.Update(msg)
		m.previewView = newModel.(view.PreviewModel)
	case ViewAssist:
		var newModel tea.Model
		newModel, cmd = m.assistView.Update(msg)
		m.assistView = newModel.(view.AssistModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) current() view.View {
	switch m.currentView {
	case ViewEditor:
		return m.editorView
	case ViewItems:
		return m.itemsView
	case ViewClients:
		return m.clientsView
	case ViewPreview:
		return m.previewView
	case ViewAssist:
		return m.assistView
	case ViewExport:
		return m.exportView
	}

	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

func (m model) View() string {
	if !m.hydrated {
		return lipgloss.NewStyle().Padding(2).Render("Loading invoice...")
	}

	if v := m.current(); v != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				headerStyle.Render(v.Title()),
				"",
				v.View(),
				"",
				helpStyle.Render(v.ShortHelp()),
			),
		)
	}

	menu := fmt.Sprintf("%s\n\nEditing %s\n\n", m.appName, m.invoiceNumber) +
		"1. Edit Invoice\n" +
		"2. Line Items\n" +
		"3. Clients\n" +
		"4. Preview\n" +
		"5. Assist Fill\n"

	if m.exportService.InProgress() {
		menu += helpStyle.Render("6. Export PDF (in progress)") + "\n"
	} else {
		menu += "6. Export PDF\n"
	}

	menu += "\nq. Quit"

	if m.hydrateErr != nil {
		menu += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).
			Render(fmt.Sprintf("Some data could not be restored: %v", m.hydrateErr))
	}

	return lipgloss.NewStyle().Padding(2).Render(menu)
}

func newProvider(cfg *config.Config) assist.Provider {
	if cfg.Assist.APIKey == "" {
		slog.Warn("GOOGLE_API_KEY not set, assist uses the heuristic only")
		return nil
	}

	return assist.NewGemini(assist.GeminiConfig{
		APIKey:   cfg.Assist.APIKey,
		Model:    cfg.Assist.Model,
		Endpoint: cfg.Assist.Endpoint,
		Timeout:  cfg.Assist.Timeout,
	})
}

func newModel(cfg *config.Config, backend storage.Backend) model {
	clientSvc := client.NewService(clientStore.New(backend))
	editor := invoice.NewService(invoiceStore.NewDrafts(backend), clientSvc)

	return model{
		appName:       cfg.App.Name,
		editor:        editor,
		clientService: clientSvc,
		importService: importer.NewService(clientSvc),
		exportService: export.NewService(nil),
		assistService: assist.NewService(newProvider(cfg)),
		invoiceNumber: editor.Active().InvoiceNumber,
		currentView:   ViewMenu,
	}
}

func main() {
	os.Exit(run())
}

// run returns the exit code once every deferred cleanup has run.
func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logFile, err := tea.LogToFile(cfg.Log.File, "")
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.Log.File, "error", err)
		return 1
	}
	defer logFile.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	backend, closer, err := driver.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		return 1
	}
	defer closer.Close()

	m := newModel(cfg, backend)
	p := tea.NewProgram(m)

	// Committed edits reach the menu and the open screen.
	stop := view.Notify(m.editor, p.Send)
	defer stop()

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		return 1
	}

	return 0
}
