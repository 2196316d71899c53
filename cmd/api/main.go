package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invoicer/internal/assist"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	clientStore "github.com/MrJamesThe3rd/invoicer/internal/client/store"
	"github.com/MrJamesThe3rd/invoicer/internal/config"
	"github.com/MrJamesThe3rd/invoicer/internal/export"
	invoicerHttp "github.com/MrJamesThe3rd/invoicer/internal/http"
	assistHandler "github.com/MrJamesThe3rd/invoicer/internal/http/assist"
	clientHandler "github.com/MrJamesThe3rd/invoicer/internal/http/client"
	exportHandler "github.com/MrJamesThe3rd/invoicer/internal/http/export"
	invoiceHandler "github.com/MrJamesThe3rd/invoicer/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicer/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicer/internal/objectstore"
	"github.com/MrJamesThe3rd/invoicer/internal/render"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/driver"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()

	if err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Every resource it opens is released
// before it returns, so main may exit right after.
func run(ctx context.Context, cfg *config.Config) error {
	backend, closeBackend, err := driver.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}

	defer func() {
		if err := closeBackend.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	clientService := client.NewService(clientStore.New(backend))
	if err := clientService.Load(ctx); err != nil {
		return fmt.Errorf("loading clients: %w", err)
	}

	editor := invoice.NewService(invoiceStore.NewDrafts(backend), clientService)
	if err := editor.Hydrate(ctx); err != nil {
		slog.Error("failed to restore draft, starting blank", "error", err)
	}

	var archive invoice.Repository = invoice.NewActiveRepository(editor)
	if cfg.Storage.Archive {
		archive = invoiceStore.NewArchive(backend)
	}

	var (
		uploader export.Uploader
		logoOpts []render.Option
	)

	if s3, err := objectstore.NewS3(objectstore.Config(cfg.ObjectStore)); err == nil {
		uploader = s3
		logoOpts = append(logoOpts, render.WithLogoBases(s3.BaseURL()))
	} else if !errors.Is(err, objectstore.ErrNotConfigured) {
		return fmt.Errorf("configuring object store: %w", err)
	}

	var provider assist.Provider
	if cfg.Assist.APIKey != "" {
		provider = assist.NewGemini(assist.GeminiConfig{
			APIKey:   cfg.Assist.APIKey,
			Model:    cfg.Assist.Model,
			Endpoint: cfg.Assist.Endpoint,
			Timeout:  cfg.Assist.Timeout,
		})
	} else {
		slog.Warn("GOOGLE_API_KEY not set, assist uses the heuristic only")
	}

	var (
		exportService = export.NewService(uploader)
		importService = importer.NewService(clientService)
		assistService = assist.NewService(provider)
		surface       = render.NewRaster(editor, logoOpts...)
	)

	var (
		invoiceH = invoiceHandler.NewHandler(editor, archive)
		exportH  = exportHandler.NewHandler(exportService, surface, editor, uploader)
		clientH  = clientHandler.NewHandler(clientService, importService)
		assistH  = assistHandler.NewHandler(assistService, editor)
	)

	router := invoicerHttp.New(invoicerHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
		AssistWindow:   cfg.Assist.RateWindow,
	}, invoiceH, exportH, clientH, assistH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr, "storage", cfg.Storage.Driver)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// In-flight requests still use the backend until Shutdown returns.
	<-shutdownDone

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
