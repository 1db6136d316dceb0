package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "note_html", cfg.NoteColumn)
	require.Equal(t, 0, cfg.Workers)
	require.Equal(t, 1<<20, cfg.MaxNoteBytes)
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CSVSS_NOTE_COLUMN", "tooltip_html")
	t.Setenv("CSVSS_WORKERS", "4")
	t.Setenv("CSVSS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "tooltip_html", cfg.NoteColumn)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_NegativeWorkersRejected(t *testing.T) {
	t.Setenv("CSVSS_WORKERS", "-1")
	_, err := Load()
	require.Error(t, err)
}

func TestSlogLevel_UnknownFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "chatty"}
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
