package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 25*time.Minute, cfg.Timer.Focus)
	require.Equal(t, 800*time.Millisecond, cfg.Timer.Grace)
	require.Equal(t, slog.LevelInfo, cfg.App.LogLevel)
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)

	cfg, err = LoadFile("")
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("STUDYR_TEST_DB", "/tmp/study.db")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
app:
  log_level: debug
storage:
  path: ${STUDYR_TEST_DB}
timer:
  focus: 50m
  rest: 10m
goals:
  daily_minutes: 240
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
	require.Equal(t, "/tmp/study.db", cfg.Storage.Path)
	require.Equal(t, 50*time.Minute, cfg.Timer.Focus)
	require.Equal(t, 10*time.Minute, cfg.Timer.Rest)
	require.Equal(t, time.Second, cfg.Timer.Tick, "unset fields keep defaults")
	require.Equal(t, 240.0, cfg.Goals.DailyMinutes)
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative focus", "timer:\n  focus: -1m\n"},
		{"zero focus", "timer:\n  focus: 0s\n"},
		{"too long rest", "timer:\n  rest: 26h\n"},
		{"zero tick", "timer:\n  tick: 0s\n"},
		{"negative goal", "goals:\n  daily_minutes: -5\n"},
		{"bad yaml", "timer: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.body)
			_, err := LoadFile(path)
			require.Error(t, err)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Path = "/data/x.db"
	require.NoError(t, cfg.ResolvePaths())
	require.Equal(t, "/data/x.db", cfg.Storage.Path)
	require.NotEmpty(t, cfg.App.LogFile)
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "goals:\n  daily_minutes: 60\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "goals:\n  daily_minutes: 90\n")

	select {
	case cfg := <-got:
		require.Equal(t, 90.0, cfg.Goals.DailyMinutes)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	cancel()
	require.NoError(t, <-done)
}
