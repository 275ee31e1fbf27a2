// Package output renders a computed SystemResponse for its consumer
// surfaces. Both JSON shapes are projections of the same response and can
// never disagree on the indicator, mode, or tasking summary.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/caresignal/caresignal/internal/signals"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(resp *signals.SystemResponse, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // One-line summary
	VerbosityStandard                       // Sectioned human-readable output
	VerbosityJSON                           // Compact machine-readable payload
	VerbosityJSONFull                       // Full machine-readable payload
)

// NewFormatter creates appropriate formatter based on level
func NewFormatter(level VerbosityLevel) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{}
	case VerbosityJSONFull:
		return &JSONFormatter{Full: true}
	default:
		return &StandardFormatter{}
	}
}

// GetDefaultVerbosity returns appropriate default based on environment
func GetDefaultVerbosity() VerbosityLevel {
	if os.Getenv("CARESIGNAL_JSON") == "1" {
		return VerbosityJSON
	}
	if os.Getenv("CI") == "true" {
		return VerbosityQuiet
	}
	return VerbosityStandard
}

// QuietFormatter prints a one-line summary.
type QuietFormatter struct{}

// Format implements Formatter
func (f *QuietFormatter) Format(resp *signals.SystemResponse, w io.Writer) error {
	_, err := fmt.Fprintf(w, "[%s] %s | %s | %s\n",
		resp.Proceed, resp.Mode, resp.Tasking.Summary, resp.Outcome)
	return err
}

// StandardFormatter prints sectioned human-readable output including the
// per-stage provenance.
type StandardFormatter struct{}

// Format implements Formatter
func (f *StandardFormatter) Format(resp *signals.SystemResponse, w io.Writer) error {
	fmt.Fprintf(w, "Proceed:   %s", resp.Proceed)
	if resp.ProceedText != "" {
		fmt.Fprintf(w, " (%s)", resp.ProceedText)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Mode:      %s - %s\n", resp.Mode, resp.Mode.Description())
	fmt.Fprintf(w, "Tasking:   %s [priority=%s ack=%v]\n",
		resp.Tasking.Summary, resp.Tasking.Priority, resp.Tasking.NeedsAcknowledgement)
	fmt.Fprintf(w, "Outcome:   %s\n", resp.Outcome)

	if resp.Assignment != nil {
		fmt.Fprintf(w, "Assign:    %s to %s, due in %d min, via %v\n",
			resp.Assignment.Priority, resp.Assignment.AssigneeRole,
			resp.Assignment.DueInMinutes, resp.Assignment.Channels)
	}

	fmt.Fprintln(w, "\nProvenance:")
	for _, stage := range signals.StageOrder {
		p, ok := resp.Provenance[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-15s %-24s conf=%.2f", p.Agent, p.Decision, p.Confidence)
		if len(p.Errors) > 0 {
			fmt.Fprintf(w, " errors=%d", len(p.Errors))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nComputed at %s\n", resp.ComputedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// JSONFormatter prints the compact or full consumer payload.
type JSONFormatter struct {
	Full bool
}

// Format implements Formatter
func (f *JSONFormatter) Format(resp *signals.SystemResponse, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if f.Full {
		return enc.Encode(resp.Full())
	}
	return enc.Encode(resp.Compact())
}
