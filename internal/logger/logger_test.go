package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"info", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"Trace", LevelTrace, false},
		{"off", LevelOff, false},
		{"verbose", -1, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelInfo, &buf)

	l.Debug("hidden")
	l.Infof("shown %d", 1)
	l.Errorf("failed: %s", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at INFO level: %q", out)
	}
	if !strings.Contains(out, "INFO :") || !strings.Contains(out, "shown 1") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "ERROR:") || !strings.Contains(out, "failed: boom") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("LevelWarn.String() = %q", LevelWarn.String())
	}
	if Level(42).String() != "Level(42)" {
		t.Errorf("Level(42).String() = %q", Level(42).String())
	}
}
