package parser

import (
	"testing"
	"time"
)

func TestParseStructured(t *testing.T) {
	ts := time.Date(2025, 5, 21, 10, 1, 0, 0, time.UTC)

	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantTS  bool
		level   string
		message string
	}{
		{"bracketed ts bare level", "[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4", true, true, LevelError, "CAN-Bus timeout on channel 4"},
		{"bracketed ts bracketed level", "[2025-05-21 10:01:00] [WARN] Voltage drop detected", true, true, LevelWarn, "Voltage drop detected"},
		{"dash separated", "2025-05-21 10:01:00 - ERROR - Sensor failure", true, true, LevelError, "Sensor failure"},
		{"no timestamp", "[ERROR] CAN-Bus timeout on channel 4", true, false, LevelError, "CAN-Bus timeout on channel 4"},
		{"colon after level", "[2025-05-21 10:01:00] FATAL: Firmware exception", true, true, LevelCritical, "Firmware exception"},
		{"lower-case level", "[2025-05-21 10:01:00] warning voltage low", true, true, LevelWarn, "voltage low"},
		{"info", "[2025-05-21 10:01:30] INFO System nominal", true, true, LevelInfo, "System nominal"},
		{"no level", "[2025-05-21 10:01:00] CAN-Bus timeout", false, false, "", ""},
		{"level is word prefix", "ERRORS everywhere", false, false, "", ""},
		{"free text", "Sensor failed", false, false, "", ""},
		{"empty", "", false, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStructured(LogLine{Content: tt.line, LineNum: 1})
			if ok != tt.wantOK {
				t.Fatalf("ParseStructured(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.HasTimestamp != tt.wantTS {
				t.Errorf("HasTimestamp = %v, want %v", got.HasTimestamp, tt.wantTS)
			}
			if tt.wantTS && !got.Timestamp.Equal(ts) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
			}
			if got.Level != tt.level {
				t.Errorf("Level = %q, want %q", got.Level, tt.level)
			}
			if got.Message != tt.message {
				t.Errorf("Message = %q, want %q", got.Message, tt.message)
			}
			if got.Line.Content != tt.line {
				t.Errorf("Line.Content = %q, want original line", got.Line.Content)
			}
		})
	}
}

func TestParseStructured_InvalidDate(t *testing.T) {
	got, ok := ParseStructured(LogLine{Content: "[2025-02-30 10:00:00] ERROR sensor failed"})
	if !ok {
		t.Fatal("ParseStructured() ok = false, want true")
	}
	if got.HasTimestamp {
		t.Error("HasTimestamp = true for invalid calendar date")
	}
}

func TestCanonicalLevel(t *testing.T) {
	tests := map[string]string{
		"err":     LevelError,
		"Warning": LevelWarn,
		"crit":    LevelCritical,
		"PANIC":   LevelCritical,
		"notice":  LevelInfo,
		"trace":   LevelTrace,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := CanonicalLevel(in); got != want {
			t.Errorf("CanonicalLevel(%q) = %q, want %q", in, got, want)
		}
	}

	if !IsInformational(LevelDebug) || IsInformational(LevelWarn) {
		t.Error("IsInformational() misclassifies levels")
	}
}
