// Package notify implements the Event Bus & Notifier (spec.md §4.9). The
// Worker Supervisor's events are consumed inline by the Reconciler — there
// is no fan-out bus to build. The Notifier itself is new code, built in the
// teacher's idiom for small, optional capability-bundle interfaces (the
// closest analogue is the nil-safe Logger interface threaded through
// internal/executor/orchestrator.go).
package notify

import "time"

// Variant selects a toast's visual treatment and, per spec.md §4.8,
// determines its default duration.
type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

// durationByVariant implements spec.md §4.8's mapping: info=5s, success=3s,
// warning=8s, error=8s.
var durationByVariant = map[Variant]time.Duration{
	VariantInfo:    5 * time.Second,
	VariantSuccess: 3 * time.Second,
	VariantWarning: 8 * time.Second,
	VariantError:   8 * time.Second,
}

// DurationFor returns the default duration for variant.
func DurationFor(variant Variant) time.Duration {
	if d, ok := durationByVariant[variant]; ok {
		return d
	}
	return 5 * time.Second
}

// Sink is the capability bundle a caller implements to receive
// notifications. A nil Sink is valid: the Notifier then makes every call a
// no-op.
type Sink interface {
	Toast(title, message string, variant Variant, duration time.Duration)
	Notify(message string)
}

// Notifier wraps an optional Sink, making every call safe even when no
// sink was configured.
type Notifier struct {
	Sink Sink
}

// New creates a Notifier. sink may be nil.
func New(sink Sink) *Notifier {
	return &Notifier{Sink: sink}
}

// Toast emits a toast with variant's default duration unless duration is
// explicitly overridden (pass 0 to use the default).
func (n *Notifier) Toast(title, message string, variant Variant, duration time.Duration) {
	if n == nil || n.Sink == nil {
		return
	}
	if duration <= 0 {
		duration = DurationFor(variant)
	}
	n.Sink.Toast(title, message, variant, duration)
}

// Notify emits a plain structured notification.
func (n *Notifier) Notify(message string) {
	if n == nil || n.Sink == nil {
		return
	}
	n.Sink.Notify(message)
}
