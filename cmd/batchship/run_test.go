package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/batchship/internal/adapters/sink"
	"github.com/bft-labs/batchship/internal/cliconfig"
	"github.com/bft-labs/batchship/internal/domain"
	logAdapter "github.com/bft-labs/batchship/pkg/log"
)

func TestNewTransform(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cfg.Trim = true
	cfg.DropPattern = "^DEBUG"

	transform, err := newTransform(cfg)
	require.NoError(t, err)

	tests := []struct {
		line     string
		wantLine string
		wantKeep bool
	}{
		{"  hello  ", "hello", true},
		{"   ", "", false},
		{"DEBUG noisy", "", false},
		{"INFO DEBUG later", "INFO DEBUG later", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec, keep := transform(domain.NewRecord("test", tt.line))
			assert.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.wantLine, rec.Line)
			}
		})
	}
}

func TestNewTransform_NoTrimKeepsWhitespace(t *testing.T) {
	transform, err := newTransform(cliconfig.DefaultConfig())
	require.NoError(t, err)

	rec, keep := transform(domain.NewRecord("test", " x "))
	assert.True(t, keep)
	assert.Equal(t, " x ", rec.Line)

	_, keep = transform(domain.NewRecord("test", ""))
	assert.False(t, keep)
}

func TestNewTransform_BadPattern(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cfg.DropPattern = "(["

	_, err := newTransform(cfg)
	assert.Error(t, err)
}

func TestReadInput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o600))

	cfg := cliconfig.DefaultConfig()
	cfg.Input = path

	var mu sync.Mutex
	var lines []string
	err := readInput(context.Background(), cfg, logAdapter.NewNoopLogger(), func(rec domain.Record) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, rec.Line)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestRun_ShipsFileToSQLite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.log")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join([]string{
		"first", "", "DEBUG skip", "second", "third",
	}, "\n")+"\n"), 0o600))

	cfg := cliconfig.DefaultConfig()
	cfg.Input = input
	cfg.Sink = cliconfig.SinkSQLite
	cfg.SQLitePath = filepath.Join(dir, "out.db")
	cfg.DropPattern = "^DEBUG"
	require.NoError(t, cfg.Validate())

	require.NoError(t, run(context.Background(), cfg, newLogger(zerolog.Disabled)))

	s, err := sink.OpenSQLiteSink(cfg.SQLitePath)
	require.NoError(t, err)
	defer s.Close(context.Background())

	lines, err := s.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, lines)
}
