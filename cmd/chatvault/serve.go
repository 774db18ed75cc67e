package main

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/urfave/cli/v2"

	"chatvault/internal/contentstore"
	"chatvault/internal/http"
	"chatvault/internal/ingest"
	"chatvault/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(c *cli.Context) error {
	ctx := c.Context
	cfg := configFrom(c)

	db, err := openDatabase(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	content, err := contentstore.New(cfg.AttachmentsPath)
	if err != nil {
		return err
	}

	repos := db.Repos()
	importer := ingest.NewImporter(db, repos.Jobs, content)

	router := http.NewRouter(&http.Deps{
		Library: service.NewLibrary(repos.Threads, repos.Jobs),
		Imports: service.NewImports(ctx, importer, cfg.ImportRoot, ingest.Options{
			Location: cfg.Location,
		}),
		DB:           db,
		AllowPartial: cfg.AllowPartial,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Give a running import a moment to record its cancellation.
	for deadline := time.Now().Add(shutdownTimeout); importer.Busy() && time.Now().Before(deadline); {
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}
