// Package status tracks the observable state of each synchronized
// domain: its lifecycle phase, cursor position, counters, and any event
// that is blocking progress. The durable coordination state lives in
// the cursor store; this package only serves operator visibility.
package status

import "time"

// Phase represents a domain's position in the synchronization lifecycle.
type Phase string

const (
	// PhaseStarting means the domain's cursor is being loaded.
	PhaseStarting Phase = "Starting"

	// PhaseRecovering means buffered events are being drained.
	PhaseRecovering Phase = "Recovering"

	// PhaseListening means live changes are being applied continuously.
	PhaseListening Phase = "Listening"

	// PhaseStopping means shutdown was requested and the in-flight step
	// is being finished.
	PhaseStopping Phase = "Stopping"

	// PhaseStopped means the domain shut down cleanly.
	PhaseStopped Phase = "Stopped"

	// PhaseFailed means the domain halted on an unrecoverable error and
	// needs a restart (or operator intervention) to resume.
	PhaseFailed Phase = "Failed"
)

// HaltedEvent identifies a change event that is blocking cursor
// progress after a permanent write rejection.
type HaltedEvent struct {
	// Seq is the event's sequence marker.
	Seq int64 `json:"seq"`

	// Key is the affected asset's identity key.
	Key string `json:"key"`

	// Reason is the rejection detail.
	Reason string `json:"reason"`
}

// DomainStatus is the current observable state of one domain.
type DomainStatus struct {
	// Domain is the domain name.
	Domain string `json:"domain"`

	// Phase is the current lifecycle phase.
	Phase Phase `json:"phase"`

	// Cursor is the last durably-applied sequence marker.
	Cursor int64 `json:"cursor"`

	// Applied counts events applied since process start.
	Applied int64 `json:"applied"`

	// Recovered counts events applied by startup recovery.
	Recovered int64 `json:"recovered"`

	// Message carries additional detail, such as the failure reason.
	Message string `json:"message,omitempty"`

	// Halted identifies the event blocking progress, if any.
	Halted *HaltedEvent `json:"halted,omitempty"`

	// LastAppliedAt is when the last event was applied.
	LastAppliedAt *time.Time `json:"lastAppliedAt,omitempty"`
}
