package notify

import (
	"testing"
	"time"
)

type recordingSink struct {
	toasts    []string
	durations []time.Duration
	notices   []string
}

func (r *recordingSink) Toast(title, message string, variant Variant, duration time.Duration) {
	r.toasts = append(r.toasts, title)
	r.durations = append(r.durations, duration)
}

func (r *recordingSink) Notify(message string) {
	r.notices = append(r.notices, message)
}

func TestNilSinkIsNoOp(t *testing.T) {
	n := New(nil)
	n.Toast("t", "m", VariantInfo, 0)
	n.Notify("m")
}

func TestNilNotifierIsNoOp(t *testing.T) {
	var n *Notifier
	n.Toast("t", "m", VariantError, 0)
	n.Notify("m")
}

func TestToastDefaultDuration(t *testing.T) {
	sink := &recordingSink{}
	n := New(sink)
	n.Toast("warn", "careful", VariantWarning, 0)
	if len(sink.toasts) != 1 {
		t.Fatalf("expected 1 toast recorded, got %d", len(sink.toasts))
	}
	if sink.durations[0] != 8*time.Second {
		t.Fatalf("duration = %v, want 8s (warning default)", sink.durations[0])
	}
}

func TestDurationForVariants(t *testing.T) {
	tests := []struct {
		variant Variant
		want    time.Duration
	}{
		{VariantInfo, 5 * time.Second},
		{VariantSuccess, 3 * time.Second},
		{VariantWarning, 8 * time.Second},
		{VariantError, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := DurationFor(tt.variant); got != tt.want {
			t.Errorf("DurationFor(%s) = %v, want %v", tt.variant, got, tt.want)
		}
	}
}
