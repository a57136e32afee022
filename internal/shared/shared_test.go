package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNormalizeName(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic normalization", input: "Bob Smith", want: "bob smith"},
		{name: "extra whitespace", input: "  Bob   Smith  ", want: "bob smith"},
		{name: "mixed case", input: "bOb SmItH", want: "bob smith"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-5 * time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{170 * time.Second, "2:50"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		lvl, err := ParseLogLevel("DEBUG")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lvl != log.DebugLevel {
			t.Errorf("expected debug level, got %v", lvl)
		}

		lvl, err = ParseLogLevel("")
		if err != nil || lvl != log.InfoLevel {
			t.Errorf("expected info level for empty name, got %v (%v)", lvl, err)
		}

		if _, err := ParseLogLevel("loud"); err == nil {
			t.Error("expected error for unknown level")
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "component", "rotation").Info("hello")

		if !strings.Contains(buf.String(), "component=rotation") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "kjx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written")
	})

	t.Run("GenerateID", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected unique ids")
		}
	})
}
