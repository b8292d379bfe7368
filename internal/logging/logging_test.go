// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gluepipe/gluepipe/internal/config"
)

func TestLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                  string
		debug, verbose, quiet bool
		want                  log.Level
	}{
		{name: "default", want: log.InfoLevel},
		{name: "debug", debug: true, want: log.DebugLevel},
		{name: "verbose", verbose: true, want: log.DebugLevel},
		{name: "quiet", quiet: true, want: log.WarnLevel},
		{name: "verbose wins over quiet", verbose: true, quiet: true, want: log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := LevelFor(tt.debug, tt.verbose, tt.quiet); got != tt.want {
				t.Errorf("LevelFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: log.InfoLevel, Format: config.LogFormatJSON, PID: true, Output: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer logger.Close()

	logger.Debug("hidden")
	logger.WithPrefix("deploy").Info("finished", "attempt", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "finished" || entry["prefix"] != "deploy" {
		t.Errorf("entry = %v", entry)
	}
	if pid, ok := entry["pid"].(float64); !ok || int(pid) != os.Getpid() {
		t.Errorf("pid = %v, want %d", entry["pid"], os.Getpid())
	}
}

func TestNew_LogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	var buf bytes.Buffer
	logger, err := New(Options{Level: log.InfoLevel, Format: config.LogFormatLogfmt, File: path, Output: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Warn("disk almost full", "free", "1%")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), `msg="disk almost full"`) {
		t.Errorf("log file = %q", data)
	}
	if buf.String() != string(data) {
		t.Errorf("output and log file differ:\n%s\n%s", buf.String(), data)
	}
}

func TestNew_LogFileError(t *testing.T) {
	t.Parallel()

	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "run.log")})
	if !errors.Is(err, ErrLogFile) {
		t.Errorf("New() error = %v, want ErrLogFile", err)
	}
}

func TestFromRuntime(t *testing.T) {
	t.Parallel()

	opts := FromRuntime(&config.Runtime{Quiet: true, LogFormat: config.LogFormatJSON, LogFile: "x.log", PID: true})
	if opts.Level != log.WarnLevel || opts.Format != config.LogFormatJSON || opts.File != "x.log" || !opts.PID {
		t.Errorf("FromRuntime() = %+v", opts)
	}
}
