package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestHashKey(t *testing.T) {
	t.Run("joins parts with a colon", func(t *testing.T) {
		if HashKey("album", "MPRE1") != HashKey("album:MPRE1") {
			t.Error("expected joined and split parts to hash identically")
		}
	})

	t.Run("distinct keys differ", func(t *testing.T) {
		if HashKey("album", "A") == HashKey("playlist", "A") {
			t.Error("expected different content types to hash differently")
		}
	})

	t.Run("hex encoded sha256", func(t *testing.T) {
		got := HashKey("home", "")
		if len(got) != 64 {
			t.Errorf("HashKey() length = %d, want 64", len(got))
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name string
		want log.Level
	}{
		{name: "", want: log.InfoLevel},
		{name: "debug", want: log.DebugLevel},
		{name: "WARN", want: log.WarnLevel},
		{name: "error", want: log.ErrorLevel},
		{name: "loud", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.name); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "session")
		logger.Info("queue replaced")

		out := buf.String()
		if !strings.Contains(out, "component=session") || !strings.Contains(out, "queue replaced") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("level filters output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("file logger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "ytplay.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("started")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.Contains(string(data), "started") {
			t.Errorf("log file = %q", data)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("GenerateID() length = %d, want 36", len(a))
	}
}
