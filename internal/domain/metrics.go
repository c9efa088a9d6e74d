package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the persisted text format of checkpoint values.
const TimestampLayout = "2006-01-02 15:04:05"

// Elapsed is a metric result. The zero value is the Empty result.
type Elapsed struct {
	Duration time.Duration
	Valid    bool
}

// String renders whole hours and minutes as HH:MM, or "" when Empty.
func (e Elapsed) String() string {
	if !e.Valid {
		return ""
	}
	return FormatElapsed(e.Duration)
}

// FormatElapsed truncates d to whole minutes and renders it as HH:MM.
// Hours are not wrapped at 24.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", secs/3600, (secs%3600)/60)
}

// ParseTimestamp parses a persisted checkpoint value.
// Missing and malformed text are both reported as !ok. Fractional seconds
// and any other text beyond the fixed layout are malformed.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != len(TimestampLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Render t in loc using the persisted text format.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

// ComputeMetric returns the elapsed time between the metric's start and
// end checkpoints. It never fails: a missing or unparsable endpoint, or an
// end before the start, yields the Empty result.
func ComputeMetric(r Record, def MetricDef) Elapsed {
	start, ok := ParseTimestamp(r.Checkpoints[def.Start])
	if !ok {
		return Elapsed{}
	}
	end, ok := ParseTimestamp(r.Checkpoints[def.End])
	if !ok {
		return Elapsed{}
	}

	d := end.Sub(start)
	if d < 0 {
		return Elapsed{}
	}
	return Elapsed{Duration: d.Truncate(time.Minute), Valid: true}
}

// Compute every metric independently.
func ComputeAllMetrics(r Record) map[string]Elapsed {
	out := make(map[string]Elapsed, len(metrics))
	for _, m := range metrics {
		out[m.Name] = ComputeMetric(r, m)
	}
	return out
}

// WithMetrics returns a copy of r whose metric fields hold the
// freshly computed display values.
func WithMetrics(r Record) Record {
	out := r.Clone()
	for name, e := range ComputeAllMetrics(r) {
		out.Metrics[name] = e.String()
	}
	return out
}
