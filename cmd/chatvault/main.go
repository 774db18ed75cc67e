package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"chatvault/internal/config"
	"chatvault/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API browses and imports chat exports from ChatGPT and Claude into a local library.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: chatvault API
//   description: |
//     Import ChatGPT and Claude exports, then search and read the normalized threads.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

const configKey = "config"

func main() {
	os.Exit(run(os.Args))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp().RunContext(ctx, args)
	if err == nil {
		return 0
	}
	code := 1
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, "error:", msg)
	}
	return code
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "chatvault",
		Usage: "Import and browse ChatGPT and Claude conversation exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Before:         setup,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Import export files, directories or zip archives",
				ArgsUsage: "PATH...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform-hint",
						Usage: "Force a dialect (chatgpt, claude) instead of detecting it",
					},
					&cli.BoolFlag{
						Name:  "allow-partial",
						Usage: "Keep going after a payload fails",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Stop at the first failed payload",
					},
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Apply this DDL file instead of the built-in schema",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the library over HTTP",
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Apply this DDL file instead of the built-in schema",
					},
				},
			},
			{
				Name:   "models",
				Usage:  "Write the Ollama model manifest and pull script",
				Action: modelsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (defaults to OLLAMA_DIR)",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace existing files",
					},
					&cli.StringFlag{
						Name:  "models",
						Usage: "YAML file listing the models to pull",
					},
				},
			},
		},
	}
}

// setup loads configuration and configures the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if level := strings.TrimSpace(c.String("log-level")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func newLogger(levelStr, format string) (*slog.Logger, error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

// openDatabase connects to the configured database and applies the schema,
// from schemaPath when given.
func openDatabase(ctx context.Context, cfg *config.Config, schemaPath string) (*storage.DB, error) {
	db, err := storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if schemaPath != "" {
		err = storage.MigrateFile(ctx, db, schemaPath)
	} else {
		err = storage.Migrate(ctx, db)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized", "driver", cfg.DBDriver)
	return db, nil
}

func migrateCommand(c *cli.Context) error {
	cfg := configFrom(c)
	db, err := openDatabase(c.Context, cfg, c.String("schema"))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	fmt.Fprintln(c.App.Writer, "schema is up to date")
	return nil
}
