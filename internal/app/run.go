// Package app wires configuration, storage and the session engine together
// and runs the terminal UI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/studyr/internal/config"
	"github.com/sadopc/studyr/internal/pomodoro"
	"github.com/sadopc/studyr/internal/tui"
)

// Run starts the terminal UI with the given options and blocks until it
// exits.
func Run(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}

	env, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger

	engine := env.NewEngine()
	defer engine.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewApp(runCtx, tui.Services{
		Folders: env.Folders,
		History: env.History,
		Goals:   env.Goals,
		Engine:  engine,
		KV:      env.Store,
		Clock:   pomodoro.SystemClock{},
	}, env.Settings)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		logger.Info("UI starting")
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	})

	if a.configPath != "" {
		g.Go(func() error {
			err := config.Watch(gCtx, a.configPath, logger, func(cfg *config.Config) {
				program.Send(tui.ConfigMsg{
					Focus:     cfg.Timer.Focus,
					Rest:      cfg.Timer.Rest,
					DailyGoal: cfg.Goals.DailyMinutes,
				})
			})
			if err != nil {
				// The UI keeps running without live reload.
				logger.Warn("config watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			program.Quit()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("UI stopped")
	return nil
}
