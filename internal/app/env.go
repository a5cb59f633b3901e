package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sadopc/studyr/internal/config"
	"github.com/sadopc/studyr/internal/folders"
	"github.com/sadopc/studyr/internal/goals"
	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/pomodoro"
	"github.com/sadopc/studyr/internal/store"
)

// Env is the opened store together with the repositories built on it.
// Repositories are constructed once here and shared by every caller.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Folders *folders.Repository
	History *history.Log
	Goals   *goals.Aggregator

	// Settings are the effective timer settings: values saved from the
	// settings view win over the config file.
	Settings pomodoro.Settings

	closers []io.Closer
}

// Open prepares logging and storage for cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Env, error) {
	a := &application{config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a.open(ctx)
}

func (a *application) open(ctx context.Context) (*Env, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config
	if err := cfg.ResolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	env := &Env{Config: cfg}

	out := a.logOutput
	if out == nil {
		if err := os.MkdirAll(filepath.Dir(cfg.App.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		env.closers = append(env.closers, f)
		out = f
	}

	// The terminal belongs to the TUI, so logs never go to stdout.
	env.Logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	s, err := store.New(cfg.Storage.Path)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	env.Store = s
	env.closers = append(env.closers, s)

	env.Folders = folders.NewRepository(s, env.Logger)
	env.History = history.NewLog(s, env.Logger)
	env.Goals = goals.NewAggregator(s, env.Logger)
	env.Settings = env.effectiveSettings(ctx)

	env.Logger.Info("Configuration loaded",
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.String("focus", env.Settings.Focus.String()),
		slog.String("rest", env.Settings.Rest.String()),
		slog.Float64("daily_goal", env.Settings.DailyGoal))

	return env, nil
}

func settingsFromConfig(cfg *config.Config) pomodoro.Settings {
	return pomodoro.Settings{
		Focus:     pomodoro.HMSOf(cfg.Timer.Focus),
		Rest:      pomodoro.HMSOf(cfg.Timer.Rest),
		DailyGoal: cfg.Goals.DailyMinutes,
	}
}

func (e *Env) effectiveSettings(ctx context.Context) pomodoro.Settings {
	fromFile := settingsFromConfig(e.Config)
	saved, ok, err := pomodoro.LoadSettings(ctx, e.Store)
	if err != nil {
		e.Logger.Warn("stored timer settings ignored", slog.String("error", err.Error()))
		return fromFile
	}
	if !ok {
		return fromFile
	}
	return saved
}

// NewEngine builds a session engine journaling into the env's history and
// goals, configured from the effective settings.
func (e *Env) NewEngine(opts ...pomodoro.Option) *pomodoro.Engine {
	journal := pomodoro.NewJournal(e.History, e.Goals, e.Logger)
	base := []pomodoro.Option{
		pomodoro.WithLogger(e.Logger),
		pomodoro.WithTickInterval(e.Config.Timer.Tick),
		pomodoro.WithGrace(e.Config.Timer.Grace),
		pomodoro.WithDurations(e.Settings.Focus.Duration(), e.Settings.Rest.Duration()),
	}
	return pomodoro.New(journal, e.Store, append(base, opts...)...)
}

// Close releases the store and the log file.
func (e *Env) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}
