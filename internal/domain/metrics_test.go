package domain

import (
	"testing"
	"time"
)

func loadingRecord(start, end string) Record {
	r := NewRecord("2024-01-01", "ABC1D23", "Ana")
	r.Checkpoints[LoadStart] = start
	r.Checkpoints[LoadEnd] = end
	return r
}

func loadingDef(t *testing.T) MetricDef {
	t.Helper()
	for _, m := range Metrics() {
		if m.Name == "loading" {
			return m
		}
	}
	t.Fatal("loading metric missing")
	return MetricDef{}
}

func TestComputeMetric(t *testing.T) {
	def := loadingDef(t)

	tests := []struct {
		name      string
		start     string
		end       string
		wantValid bool
		want      string
	}{
		{name: "truncates seconds", start: "2024-01-01 08:00:00", end: "2024-01-01 10:45:30", wantValid: true, want: "02:45"},
		{name: "does not round up", start: "2024-01-01 08:00:00", end: "2024-01-01 08:00:59", wantValid: true, want: "00:00"},
		{name: "equal endpoints", start: "2024-01-01 08:00:00", end: "2024-01-01 08:00:00", wantValid: true, want: "00:00"},
		{name: "over a day", start: "2024-01-01 08:00:00", end: "2024-01-02 10:05:00", wantValid: true, want: "26:05"},
		{name: "end before start", start: "2024-01-01 08:00:00", end: "2024-01-01 07:59:00"},
		{name: "missing start", start: "", end: "2024-01-01 07:59:00"},
		{name: "missing end", start: "2024-01-01 08:00:00", end: ""},
		{name: "malformed start", start: "08:00", end: "2024-01-01 09:00:00"},
		{name: "malformed end", start: "2024-01-01 08:00:00", end: "yesterday"},
		{name: "fractional seconds", start: "2024-01-01 08:00:00", end: "2024-01-01 09:00:00.999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetric(loadingRecord(tt.start, tt.end), def)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.String() != tt.want {
				t.Errorf("String() = %q, want %q", got.String(), tt.want)
			}
			if got.Duration < 0 {
				t.Errorf("negative duration %v", got.Duration)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{in: "2024-01-01 08:00:00", wantOK: true},
		{in: "  2024-01-01 08:00:00 ", wantOK: true},
		{in: "2024-01-01 08:00:00.999999"},
		{in: "2024-01-01 08:00:00.5"},
		{in: "2024-01-01T08:00:00"},
		{in: "2024-01-01 8:00:00"},
		{in: "2024-01-01"},
		{in: ""},
	}

	for _, tt := range tests {
		_, ok := ParseTimestamp(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}

func TestComputeMetricNilMaps(t *testing.T) {
	var r Record
	for _, m := range Metrics() {
		if got := ComputeMetric(r, m); got.Valid {
			t.Errorf("metric %s on zero record = %v, want Empty", m.Name, got)
		}
	}
}

func TestComputeAllMetricsFullRecord(t *testing.T) {
	r := NewRecord("2024-03-01", "ABC1D23", "Ana")
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	for i, c := range Checkpoints() {
		r.Checkpoints[c.Name] = base.Add(time.Duration(i) * 25 * time.Minute).Format(TimestampLayout)
	}

	all := ComputeAllMetrics(r)
	if len(all) != len(Metrics()) {
		t.Fatalf("metrics = %d, want %d", len(all), len(Metrics()))
	}
	for name, e := range all {
		if !e.Valid || e.Duration < 0 {
			t.Errorf("metric %s = %+v, want non-negative duration", name, e)
		}
	}
	if !IsFinalized(r) {
		t.Error("full record should be finalized")
	}

	// factory_entry (index 0) -> yard_exit (index 6) = 150 minutes.
	if got := all["factory_total"].String(); got != "02:30" {
		t.Errorf("factory_total = %q, want 02:30", got)
	}
}

func TestComputeAllMetricsIsolatesFailures(t *testing.T) {
	r := NewRecord("2024-03-01", "ABC1D23", "Ana")
	r.Checkpoints[FactoryEntry] = "2024-03-01 08:00:00"
	r.Checkpoints[FactoryDock] = "2024-03-01 08:30:00"
	r.Checkpoints[LoadStart] = "garbage"
	r.Checkpoints[LoadEnd] = "2024-03-01 09:30:00"

	all := ComputeAllMetrics(r)
	if got := all["dock_wait"].String(); got != "00:30" {
		t.Errorf("dock_wait = %q, want 00:30", got)
	}
	if all["loading"].Valid {
		t.Error("loading should be Empty when start is malformed")
	}

	withM := WithMetrics(r)
	if withM.Metrics["dock_wait"] != "00:30" || withM.Metrics["loading"] != "" {
		t.Errorf("WithMetrics() = %v", withM.Metrics)
	}
	if len(r.Metrics) != 0 {
		t.Error("WithMetrics() mutated its input")
	}
}

func TestFormatTimestampUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	ts := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	if got := FormatTimestamp(ts, loc); got != "2024-03-01 08:00:00" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}
