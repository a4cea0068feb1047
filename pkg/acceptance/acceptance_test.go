package acceptance

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

func tableOf(counts map[classify.Category]int) *events.Table {
	t := events.NewTable()
	ts := time.Date(2025, 5, 21, 10, 0, 0, 0, time.UTC)
	for c, n := range counts {
		for i := 0; i < n; i++ {
			t.Events = append(t.Events, events.Event{Timestamp: ts, Category: c})
		}
	}
	return t
}

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[classify.Category]int
		accepted bool
		category classify.Category
	}{
		{"empty", nil, true, ""},
		{"below limits", map[classify.Category]int{classify.FirmwareIssue: 1, classify.VoltageWarning: 2, classify.SensorError: 2}, true, ""},
		{"firmware at limit", map[classify.Category]int{classify.FirmwareIssue: 2}, false, classify.FirmwareIssue},
		{"voltage at limit", map[classify.Category]int{classify.VoltageWarning: 3}, false, classify.VoltageWarning},
		{"sensor at limit", map[classify.Category]int{classify.SensorError: 3}, false, classify.SensorError},
		{"other categories ignored", map[classify.Category]int{classify.CommunicationError: 50, classify.GenericError: 9}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tableOf(tt.counts))
			assert.Equal(t, tt.accepted, v.Accepted)
			assert.Equal(t, tt.category, v.Category)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestEvaluate_Precedence(t *testing.T) {
	v := Evaluate(tableOf(map[classify.Category]int{
		classify.FirmwareIssue:  2,
		classify.VoltageWarning: 4,
		classify.SensorError:    5,
	}))

	assert.False(t, v.Accepted)
	assert.Equal(t, classify.FirmwareIssue, v.Category)
	assert.Contains(t, v.Reason, "firmware_issue")
	assert.Contains(t, v.Reason, "2")

	v = Evaluate(tableOf(map[classify.Category]int{classify.VoltageWarning: 3, classify.SensorError: 5}))
	assert.Equal(t, classify.VoltageWarning, v.Category)
}

func TestEvaluate_NoErrorLog(t *testing.T) {
	assert.Equal(t, Verdict{Accepted: true, Reason: ReasonNoErrorLog}, Evaluate(events.NewTable()))
	assert.Equal(t, Verdict{Accepted: true, Reason: ReasonNoErrorLog}, Evaluate(nil))

	noCategory := &events.Table{
		Columns: []string{events.ColumnTimestamp},
		Events:  []events.Event{{Category: classify.FirmwareIssue}, {Category: classify.FirmwareIssue}},
	}
	assert.Equal(t, ReasonNoErrorLog, Evaluate(noCategory).Reason)
}

func TestEvaluate_FirmwareExceptionScenario(t *testing.T) {
	var in []parser.LogLine
	for i, l := range []string{
		"[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4",
		"[2025-05-21 10:01:30] INFO System nominal",
		"[2025-05-21 10:02:00] ERROR Firmware exception at address 0x5C4F",
		"[2025-05-21 10:03:00] ERROR Firmware exception at address 0x5C50",
	} {
		in = append(in, parser.LogLine{Content: l, LineNum: i + 1})
	}

	v := Evaluate(events.Aggregate(in, nil))
	assert.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "2")
	assert.Equal(t, "REJECTED", v.Status())
}

func TestPolicy_CustomLimits(t *testing.T) {
	p := Policy{FirmwareIssue: 5, VoltageWarning: 1, SensorError: 0}

	v := p.EvaluateCounts(map[classify.Category]int{classify.FirmwareIssue: 4, classify.VoltageWarning: 1})
	assert.Equal(t, classify.VoltageWarning, v.Category)

	// zero limit falls back to the default of 3
	v = p.EvaluateCounts(map[classify.Category]int{classify.SensorError: 2})
	assert.True(t, v.Accepted, fmt.Sprint(v))
	assert.Equal(t, ReasonNoCritical, v.Reason)
}
