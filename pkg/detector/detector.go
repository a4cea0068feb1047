// Package detector samples a log file and recommends how fwtriage should read it.
//
// Two things are measured over the sample: how many lines fit the structured
// timestamp/level/message grammar, and which timestamp shape the lines carry.
// A log dominated by structured lines is best read with the structured mode;
// anything else goes through the keyword classifier.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/fwtriage/pkg/analyzer"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// DefaultSampleSize is the number of non-empty lines sampled.
const DefaultSampleSize = 100

// StructuredCutoff is the share of structured lines at or above which the
// structured mode is recommended.
const StructuredCutoff = 0.5

// DetectionResult holds the result of analyzing a log sample.
type DetectionResult struct {
	Matches      []FormatMatch // Timestamp shapes that matched, by confidence descending
	SampledLines int           // Number of lines sampled
	ParsedLines  int           // Lines with a timestamp the pipeline extracts

	// StructuredLines fit the level grammar; StructuredTimed also carry a
	// valid timestamp and therefore survive structured aggregation.
	StructuredLines int
	StructuredTimed int

	Recommended analyzer.Mode
	Notes       []string
}

// FormatMatch represents a timestamp shape with its share of the sample.
type FormatMatch struct {
	Format     *TimestampFormat
	Confidence float64   // 0.0 to 1.0
	MatchCount int       // Number of lines that matched
	SampleLine string    // Example line that matched
	ParsedTime time.Time // Parsed timestamp from sample
}

// Detector analyzes log samples.
type Detector struct {
	formats    []*TimestampFormat
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector with default formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a log file and analyzes it.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of log lines. Blank lines are ignored.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{Recommended: analyzer.ModeKeyword}

	type formatStats struct {
		format     *TimestampFormat
		matchCount int
		sampleLine string
		parsedTime time.Time
	}
	stats := make(map[string]*formatStats)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		result.SampledLines++

		if _, ok := parser.ExtractTimestamp(line); ok {
			result.ParsedLines++
		}
		if s, ok := parser.ParseStructured(parser.LogLine{Content: line, LineNum: i + 1}); ok {
			result.StructuredLines++
			if s.HasTimestamp {
				result.StructuredTimed++
			}
		}

		// first matching shape wins so a line counts once
		for _, format := range d.formats {
			m := format.Pattern.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			parsed, ok := parseTimestamp(m[1], format.Layout)
			if !ok {
				continue
			}
			s := stats[format.Name]
			if s == nil {
				s = &formatStats{format: format, sampleLine: line, parsedTime: parsed}
				stats[format.Name] = s
			}
			s.matchCount++
			break
		}
	}

	if result.SampledLines == 0 {
		result.Notes = append(result.Notes, "no lines to sample")
		return result
	}

	total := float64(result.SampledLines)
	for _, s := range stats {
		result.Matches = append(result.Matches, FormatMatch{
			Format:     s.format,
			Confidence: float64(s.matchCount) / total,
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
			ParsedTime: s.parsedTime,
		})
	}
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].MatchCount != result.Matches[j].MatchCount {
			return result.Matches[i].MatchCount > result.Matches[j].MatchCount
		}
		return result.Matches[i].Format.Name < result.Matches[j].Format.Name
	})

	if result.StructuredShare() >= StructuredCutoff {
		result.Recommended = analyzer.ModeStructured
	}
	result.Notes = d.notes(result)

	return result
}

func (d *Detector) notes(r *DetectionResult) []string {
	var notes []string

	if best := r.BestMatch(); best != nil {
		if !best.Format.Supported {
			notes = append(notes, fmt.Sprintf(
				"most lines use %s timestamps, which are not extracted; those lines produce no events",
				best.Format.Name))
		}
		if best.Format.Ambiguous {
			notes = append(notes, "date ordering is ambiguous (MM/DD vs DD/MM)")
		}
	} else {
		notes = append(notes, "no timestamps found; every line would be dropped")
	}

	if r.StructuredLines > r.StructuredTimed {
		notes = append(notes, fmt.Sprintf(
			"%d structured line(s) lack a valid timestamp and are dropped in structured mode",
			r.StructuredLines-r.StructuredTimed))
	}

	return notes
}

// StructuredShare is the fraction of sampled lines that fit the structured
// grammar with a valid timestamp.
func (r *DetectionResult) StructuredShare() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.StructuredTimed) / float64(r.SampledLines)
}

// TimestampShare is the fraction of sampled lines with an extractable timestamp.
func (r *DetectionResult) TimestampShare() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.ParsedLines) / float64(r.SampledLines)
}

// BestMatch returns the most common timestamp shape, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one timestamp shape matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

func parseTimestamp(ts, layout string) (time.Time, bool) {
	switch layout {
	case "UNIX_SECONDS":
		secs, err := strconv.ParseInt(ts, 10, 64)
		// 1970 to 2100
		if err != nil || secs < 0 || secs > 4102444800 {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true

	case "UPTIME":
		secs, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(0, 0).UTC().Add(time.Duration(secs * float64(time.Second))), true

	default:
		t, err := time.Parse(layout, ts)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// sampleFile reads up to sampleSize non-empty lines from the head of a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(scanner.Text()) != "" {
			lines = append(lines, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	return lines, nil
}
