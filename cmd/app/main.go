package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/filedock/internal"
	"github.com/starford/filedock/internal/mcpserver"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
	pkgconfig "github.com/starford/filedock/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// withBackend opens the configured backend, acquires access and hands it
// to fn. Logs go to stderr so stdout stays clean for command output.
func withBackend(ctx context.Context, cmd *cli.Command, fn func(storage.Backend) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	backend, closer, err := internal.OpenBackend(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := backend.GetAccess(ctx); err != nil {
		return fmt.Errorf("%s storage: %w", storage.Describe(backend), err)
	}
	return fn(backend)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	return withBackend(ctx, cmd, func(b storage.Backend) error {
		return mcpserver.New(b).ServeStdio()
	})
}

func runLs(ctx context.Context, cmd *cli.Command) error {
	return withBackend(ctx, cmd, func(b storage.Backend) error {
		return listFolder(ctx, b, models.ParsePath(cmd.Args().First()), os.Stdout)
	})
}

func runCat(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("cat: expected exactly one path")
	}
	return withBackend(ctx, cmd, func(b storage.Backend) error {
		return catFile(ctx, b, models.ParsePath(cmd.Args().First()), os.Stdout)
	})
}

func runPut(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("put: expected exactly one path")
	}
	return withBackend(ctx, cmd, func(b storage.Backend) error {
		return putFile(ctx, b, models.ParsePath(cmd.Args().First()), os.Stdin)
	})
}

func main() {
	cmd := &cli.Command{
		Name:   "filedock",
		Usage:  "File Open/Save dialogs over pluggable storage backends",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the dialog host, the storage service and SSE events over HTTP",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the configured storage backend as MCP tools on stdio",
				Action: runMCP,
			},
			{
				Name:      "ls",
				Usage:     "List a folder of the configured backend",
				ArgsUsage: "[path]",
				Action:    runLs,
			},
			{
				Name:      "cat",
				Usage:     "Print a file of the configured backend",
				ArgsUsage: "<path>",
				Action:    runCat,
			},
			{
				Name:      "put",
				Usage:     "Write stdin to a file of the configured backend",
				ArgsUsage: "<path>",
				Action:    runPut,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
