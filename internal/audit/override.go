// Package audit records manual bottleneck overrides in an append-only JSONL
// log. The log entry is the durable record of the user action; the cascade
// that follows it is best-effort and may be abandoned on failure.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caresignal/caresignal/internal/bottleneck"
)

// DefaultLogPath is where override events land unless configured otherwise.
const DefaultLogPath = ".caresignal/override_log.jsonl"

// OverrideEvent is one logged manual override of a bottleneck's
// resolved/unresolved status.
type OverrideEvent struct {
	Timestamp  time.Time                 `json:"timestamp"`
	Actor      string                    `json:"actor"`
	TenantID   string                    `json:"tenant_id,omitempty"`
	PatientKey string                    `json:"patient_key"`
	Factor     bottleneck.FactorType     `json:"factor"`
	Status     bottleneck.OverrideStatus `json:"status"`
	Source     int                       `json:"source"`
	Reason     string                    `json:"reason,omitempty"`
}

// Log appends override events to a JSONL file.
type Log struct {
	path string
}

// NewLog creates an override log at path; empty path uses DefaultLogPath.
func NewLog(path string) *Log {
	if path == "" {
		path = DefaultLogPath
	}
	return &Log{path: path}
}

// Record appends one event to the log.
func (l *Log) Record(event OverrideEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(event)
}

// Read returns all recorded events in order.
func (l *Log) Read() ([]OverrideEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []OverrideEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev OverrideEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}
