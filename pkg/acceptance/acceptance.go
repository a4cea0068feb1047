// Package acceptance decides whether a firmware build may be released based on
// the error categories found in its logs.
package acceptance

import (
	"fmt"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
)

// Reasons for accepted verdicts.
const (
	ReasonNoErrorLog = "no error log detected; release possible"
	ReasonNoCritical = "no critical errors detected; release possible"
)

// Policy holds the rejection limits. The rules are always checked in the
// order firmware_issue, voltage_warning, sensor_error.
type Policy struct {
	FirmwareIssue  int `yaml:"firmware_issue" json:"firmware_issue"`
	VoltageWarning int `yaml:"voltage_warning" json:"voltage_warning"`
	SensorError    int `yaml:"sensor_error" json:"sensor_error"`
}

// DefaultPolicy returns the standard release limits.
func DefaultPolicy() Policy {
	return Policy{
		FirmwareIssue:  2,
		VoltageWarning: 3,
		SensorError:    3,
	}
}

// Verdict is the release decision.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`

	// Category is the category whose limit caused a rejection.
	Category classify.Category `json:"category,omitempty"`
	Count    int               `json:"count,omitempty"`
}

// Status returns "ACCEPTED" or "REJECTED".
func (v Verdict) Status() string {
	if v.Accepted {
		return "ACCEPTED"
	}
	return "REJECTED"
}

// Evaluate applies the default policy.
func Evaluate(t *events.Table) Verdict {
	return DefaultPolicy().Evaluate(t)
}

// Evaluate returns the verdict for t. The first rule that fires determines
// the reason.
func (p Policy) Evaluate(t *events.Table) Verdict {
	if t.Len() == 0 || !t.HasColumn(events.ColumnCategory) {
		return Verdict{Accepted: true, Reason: ReasonNoErrorLog}
	}
	return p.EvaluateCounts(events.Counts(t))
}

// EvaluateCounts applies the limits to precomputed per-category counts.
func (p Policy) EvaluateCounts(counts map[classify.Category]int) Verdict {
	p = p.withDefaults()

	if n := counts[classify.FirmwareIssue]; n >= p.FirmwareIssue {
		return reject(classify.FirmwareIssue, n,
			fmt.Sprintf("firmware contains %d critical firmware_issue errors (limit %d)", n, p.FirmwareIssue))
	}
	if n := counts[classify.VoltageWarning]; n >= p.VoltageWarning {
		return reject(classify.VoltageWarning, n,
			fmt.Sprintf("%d voltage drops detected (limit %d)", n, p.VoltageWarning))
	}
	if n := counts[classify.SensorError]; n >= p.SensorError {
		return reject(classify.SensorError, n,
			fmt.Sprintf("%d sensor failures detected (limit %d)", n, p.SensorError))
	}

	return Verdict{Accepted: true, Reason: ReasonNoCritical}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.FirmwareIssue < 1 {
		p.FirmwareIssue = d.FirmwareIssue
	}
	if p.VoltageWarning < 1 {
		p.VoltageWarning = d.VoltageWarning
	}
	if p.SensorError < 1 {
		p.SensorError = d.SensorError
	}
	return p
}

func reject(c classify.Category, n int, reason string) Verdict {
	return Verdict{Accepted: false, Reason: reason, Category: c, Count: n}
}
