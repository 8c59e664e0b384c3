// Package telemetry records opt-in, local per-phase timings of a
// generation run. Nothing leaves the machine.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

// Event is one recorded phase.
type Event struct {
	Phase        string         `json:"phase"`
	Duration     time.Duration  `json:"duration"`
	Error        string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	OS           string         `json:"os"`
	Architecture string         `json:"architecture"`
}

// Recorder collects events for one run. A nil or disabled Recorder is
// valid and records nothing.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	events  []Event
	now     func() time.Time
}

// NewRecorder returns a recorder. XCODEGEN_TELEMETRY_DISABLED overrides
// enabled.
func NewRecorder(enabled bool) *Recorder {
	return &Recorder{
		enabled: enabled && !isTelemetryDisabled(),
		now:     time.Now,
	}
}

// Enabled reports whether events are kept.
func (r *Recorder) Enabled() bool {
	return r != nil && r.enabled
}

// Start begins timing phase. The returned func ends it; pass the phase's
// error, if any.
func (r *Recorder) Start(phase string) func(err error) {
	if !r.Enabled() {
		return func(error) {}
	}
	start := r.now()
	return func(err error) {
		r.Record(phase, r.now().Sub(start), err, nil)
	}
}

// Record adds a finished phase.
func (r *Recorder) Record(phase string, d time.Duration, err error, metadata map[string]any) {
	if !r.Enabled() {
		return
	}
	e := Event{
		Phase:        phase,
		Duration:     d,
		Metadata:     metadata,
		Timestamp:    r.now(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if err != nil {
		e.Error = err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns recorded events in order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Total sums phase durations.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, e := range r.Events() {
		total += e.Duration
	}
	return total
}

// Rows formats events as table rows: phase, duration, status.
func (r *Recorder) Rows() [][]string {
	events := r.Events()
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		status := "ok"
		if e.Error != "" {
			status = "failed"
		}
		rows = append(rows, []string{e.Phase, e.Duration.Round(time.Microsecond).String(), status})
	}
	return rows
}

// WriteJSON writes all events as one JSON document.
func (r *Recorder) WriteJSON(w io.Writer) error {
	payload := map[string]any{"events": r.Events()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}
	return nil
}

func isTelemetryDisabled() bool {
	v := os.Getenv("XCODEGEN_TELEMETRY_DISABLED")
	return v == "1" || v == "true"
}
