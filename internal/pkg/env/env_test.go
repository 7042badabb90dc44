package env

import (
	"log/slog"
	"testing"
)

func TestGet(t *testing.T) {
	t.Setenv("OBRISK_TEST_GET", "value")
	if got := Get("OBRISK_TEST_GET", "fallback"); got != "value" {
		t.Errorf("Get = %q, want value", got)
	}
	if got := Get("OBRISK_TEST_GET_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Get = %q, want fallback", got)
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "7", 7},
		{"empty", "", 42},
		{"not a number", "seven", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OBRISK_TEST_GETINT", tt.value)
			if got := GetInt("OBRISK_TEST_GETINT", 42); got != tt.want {
				t.Errorf("GetInt(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			if got := ParseLogLevel(slog.LevelInfo); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
