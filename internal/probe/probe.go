// Package probe watches the remote service's health endpoint until it
// reports ready. Free-tier hosts spin the backend down when idle, so the
// first minutes of a session are spent waking it up.
package probe

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the fixed delay between probe attempts
const DefaultInterval = 3 * time.Second

// CheckFunc performs one readiness check. It must swallow its own failures
// and report them as not-ready.
type CheckFunc func(ctx context.Context) bool

// Prober polls a CheckFunc until it first reports ready. Ready is terminal:
// once reached the prober never probes again for this session.
type Prober struct {
	check    CheckFunc
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	readyOnce sync.Once
	readyCh   chan struct{}
	stopOnce  sync.Once
}

// New starts probing immediately: the first attempt happens at construction,
// not after the first interval.
func New(check CheckFunc, interval time.Duration, logger *slog.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Prober{
		check:    check,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		readyCh:  make(chan struct{}),
	}

	go p.run()
	return p
}

// Ready reports whether the service has been seen ready
func (p *Prober) Ready() bool {
	select {
	case <-p.readyCh:
		return true
	default:
		return false
	}
}

// ReadyChan is closed once, the first time a probe succeeds
func (p *Prober) ReadyChan() <-chan struct{} {
	return p.readyCh
}

// Stop cancels polling. Safe to call more than once and after ready.
func (p *Prober) Stop() {
	p.stopOnce.Do(p.cancel)
}

func (p *Prober) run() {
	if p.attempt() {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.attempt() {
				return
			}
		}
	}
}

// attempt runs one probe and reports whether polling should end
func (p *Prober) attempt() bool {
	select {
	case <-p.ctx.Done():
		return true
	default:
	}

	if p.check(p.ctx) {
		p.readyOnce.Do(func() {
			p.logger.Info("service ready")
			close(p.readyCh)
		})
		return true
	}
	return false
}
