package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/studyr/internal/app"
	"github.com/sadopc/studyr/internal/config"
)

func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	configPath := cmd.String("config")
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []app.Option{
		app.WithConfig(cfg),
		app.WithConfigPath(configPath),
	}

	if err := app.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// withEnv opens the store for a one-shot subcommand.
func withEnv(fn func(context.Context, *cli.Command, *app.Env) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		env, err := app.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(ctx, cmd, env)
	}
}

func status(ctx context.Context, _ *cli.Command, env *app.Env) error {
	return app.PrintStatus(ctx, env, os.Stdout, time.Now())
}

func listFolders(ctx context.Context, _ *cli.Command, env *app.Env) error {
	return app.PrintFolders(ctx, env, os.Stdout)
}

func exportHistory(ctx context.Context, cmd *cli.Command, env *app.Env) error {
	format := cmd.String("format")
	path := cmd.String("output")
	if path == "" {
		path = fmt.Sprintf("studyr-history-%s.%s", time.Now().Format("2006-01-02"), format)
	}
	if err := app.Export(ctx, env, format, path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Println("Exported to", abs)
	return nil
}

func reset(ctx context.Context, cmd *cli.Command, env *app.Env) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("refusing to erase data without --yes")
	}
	return app.Reset(ctx, env, os.Stdout)
}

func main() {
	cmd := &cli.Command{
		Name:   "studyr",
		Usage:  "Pomodoro study timer with folders, todos and daily goals",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "<user config dir>/studyr/config.yaml",
				Value:       config.DefaultPath(),
				Sources:     cli.EnvVars("STUDYR_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show today's focus time, goal progress and todos due",
				Action: withEnv(status),
			},
			{
				Name:   "folders",
				Usage:  "List folders with todo, note and session counts",
				Action: withEnv(listFolders),
			},
			{
				Name:   "export",
				Usage:  "Export session history",
				Action: withEnv(exportHistory),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default studyr-history-<date>.<format>)",
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Erase all folders, history, daily totals and saved settings",
				Action: withEnv(reset),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm erasing everything",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
