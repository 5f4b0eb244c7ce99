// Package progress turns byte counts into fractional completion samples and
// delivers them to observers.
package progress

import (
	"log/slog"

	"github.com/lucrnz/ripzip/internal/util"
)

// MinStep is the smallest advance in completion fraction that is reported.
const MinStep = 0.01

// Reporter receives completion fractions in [0,1]. Report is called
// synchronously from the goroutine doing the copy.
type Reporter interface {
	Report(fraction float64)
}

// ReporterFunc adapts an ordinary function to Reporter.
type ReporterFunc func(fraction float64)

// Report calls f(fraction).
func (f ReporterFunc) Report(fraction float64) { f(fraction) }

// Step computes the completion fraction for totalRead out of targetLength and
// whether it has advanced far enough past last to be reported. targetLength
// must be positive.
//
// No final 1.0 sample is forced: if the last chunk moves the fraction by less
// than MinStep, nothing is reported for it.
func Step(totalRead, targetLength int64, last float64) (bool, float64) {
	fraction := float64(totalRead) / float64(targetLength)
	return fraction-last >= MinStep, fraction
}

// Log is a Reporter that emits structured progress events, at most one per
// Milestone percent.
type Log struct {
	Event     string // message used for each log record
	Name      string // file or entry being copied
	Total     int64
	Milestone int // percentage step
	Logger    *slog.Logger

	nextMilestone int
}

// NewLog creates a progress logger with sane defaults.
func NewLog(logger *slog.Logger, event, name string, total int64, milestone int) *Log {
	if milestone <= 0 {
		milestone = 5
	}
	if milestone > 50 {
		milestone = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	if event == "" {
		event = "copy_progress"
	}
	return &Log{
		Event:         event,
		Name:          name,
		Total:         total,
		Milestone:     milestone,
		Logger:        logger,
		nextMilestone: milestone,
	}
}

// Report logs every milestone crossed by fraction.
func (l *Log) Report(fraction float64) {
	pct := int(fraction * 100)
	if pct > 100 {
		pct = 100
	}
	for pct >= l.nextMilestone && l.nextMilestone <= 100 {
		done := int64(float64(l.Total) * fraction)
		l.Logger.Info(l.Event,
			"name", l.Name,
			"percent", l.nextMilestone,
			"copied_bytes", done,
			"copied", util.HumanReadableBytes(done),
			"total_bytes", l.Total,
			"total", util.HumanReadableBytes(l.Total),
		)
		l.nextMilestone += l.Milestone
	}
}

// Multi fans a sample out to every non-nil reporter, in order.
func Multi(reporters ...Reporter) Reporter {
	var rs []Reporter
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	switch len(rs) {
	case 0:
		return nil
	case 1:
		return rs[0]
	}
	return ReporterFunc(func(fraction float64) {
		for _, r := range rs {
			r.Report(fraction)
		}
	})
}
