package parser

import (
	"regexp"
	"testing"
	"time"
)

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "bracketed",
			line:   "[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4",
			want:   time.Date(2025, 5, 21, 10, 1, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "embedded mid-line",
			line:   "node7 reported at 2024-01-15 23:59:59 sensor failed",
			want:   time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "first match wins",
			line:   "2024-01-15 10:00:00 retry of 2024-01-14 09:00:00",
			want:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "invalid date is absent",
			line:   "2025-02-30 10:00:00 ERROR sensor failed",
			wantOK: false,
		},
		{
			name:   "ISO T separator not recognised",
			line:   "2025-05-21T10:01:00 ERROR",
			wantOK: false,
		},
		{
			name:   "no match",
			line:   "No timestamp here",
			wantOK: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTimestamp(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ExtractTimestamp() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ExtractTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimestampExtractor_CustomPattern(t *testing.T) {
	extractor := NewTimestampExtractor(
		regexp.MustCompile(`ts=(\d{2}/\d{2}/\d{4})`),
		"01/02/2006",
	)

	got, ok := extractor.Extract("level=error ts=03/15/2024 msg=boom")
	if !ok {
		t.Fatal("Extract() ok = false, want true")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}

	if _, ok := extractor.Extract("no timestamp"); ok {
		t.Error("Extract() ok = true for line without timestamp")
	}
}
