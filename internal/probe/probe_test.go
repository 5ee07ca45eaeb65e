package probe

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProberStopsAfterFirstSuccess(t *testing.T) {
	var calls atomic.Int32
	check := func(ctx context.Context) bool {
		// ready on the third attempt
		return calls.Add(1) >= 3
	}

	p := New(check, 10*time.Millisecond, testLogger())
	defer p.Stop()

	select {
	case <-p.ReadyChan():
	case <-time.After(2 * time.Second):
		t.Fatal("prober never reported ready")
	}
	if !p.Ready() {
		t.Fatal("Ready should report true after the channel closes")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	// ready is terminal: no further probes happen
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 3 {
		t.Fatalf("prober kept polling after ready: %d attempts", got)
	}
}

func TestProberProbesImmediately(t *testing.T) {
	var calls atomic.Int32
	check := func(ctx context.Context) bool {
		calls.Add(1)
		return true
	}

	p := New(check, time.Hour, testLogger())
	defer p.Stop()

	// with an hour-long interval, readiness can only come from the
	// construction-time attempt
	select {
	case <-p.ReadyChan():
	case <-time.After(2 * time.Second):
		t.Fatal("first attempt did not run at construction")
	}
}

func TestProberStop(t *testing.T) {
	var calls atomic.Int32
	check := func(ctx context.Context) bool {
		calls.Add(1)
		return false
	}

	p := New(check, 5*time.Millisecond, testLogger())
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop() // idempotent

	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	// at most one attempt that was already in flight may land after Stop
	if got := calls.Load(); got > settled+1 {
		t.Fatalf("prober kept polling after Stop: %d -> %d attempts", settled, got)
	}
	if p.Ready() {
		t.Fatal("stopped prober must not report ready")
	}
}
