package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func buildOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if path := cmd.Args().First(); path != "" {
		opts = append(opts, internal.WithNotebookPath(path))
	}

	return opts, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:      "raido",
		Usage:     "SQL notebook session: consoles, scripts, and notes in one notebook file",
		ArgsUsage: "[notebook-file]",
		Action:    run,
		Flags:     []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:      "mcp",
				Usage:     "Serve read-only notebook tools over MCP stdio",
				ArgsUsage: "[notebook-file]",
				Action:    runMCP,
				Flags:     []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
