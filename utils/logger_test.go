package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelThreshold(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	if strings.Contains(out.String(), "debug 1") || strings.Contains(out.String(), "info 2") {
		t.Errorf("messages below warn leaked: %q", out.String())
	}
	if !strings.Contains(out.String(), "warn 3") {
		t.Errorf("warn missing from stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "error 4") {
		t.Errorf("error missing from stderr: %q", errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}
