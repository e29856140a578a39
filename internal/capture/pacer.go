package capture

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the default capture period.
const DefaultInterval = 2 * time.Second

// Analyzer accepts captured frames for analysis. InFlight reports whether a
// previously submitted frame is still awaiting its result; Submit hands off a
// frame without waiting for the result. A Submit error means the frame was
// dropped (e.g. channel unavailable), not that the pacer should stop.
type Analyzer interface {
	InFlight() bool
	Submit(ctx context.Context, frame Frame) error
}

// Pacer converts a capture source into a rate-limited sequence of analysis
// submissions. At most one submission is in flight at any time; ticks that
// land while a request is outstanding are skipped, never queued.
type Pacer struct {
	source   Source
	analyzer Analyzer
	interval time.Duration

	// OnDrop, if set, observes frames dropped because the channel refused
	// them. Skipped ticks are silent.
	OnDrop func(err error)

	mu        sync.Mutex
	capturing bool
	err       error

	stop chan struct{}
	done chan struct{}
}

// NewPacer creates a stopped pacer. A non-positive interval falls back to
// DefaultInterval.
func NewPacer(source Source, analyzer Analyzer, interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pacer{
		source:   source,
		analyzer: analyzer,
		interval: interval,
	}
}

// Start begins the capture loop. It returns immediately; the loop runs until
// Stop is called, ctx is cancelled, or snapshot acquisition fails.
func (p *Pacer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capturing {
		return
	}
	p.capturing = true
	p.err = nil
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(ctx, p.stop, p.done)
}

// Stop tears down the capture loop and waits for it to exit. An in-flight
// analysis request is not aborted; its result is simply ignored on arrival.
func (p *Pacer) Stop() {
	p.mu.Lock()
	if !p.capturing {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
}

// Capturing reports whether the capture loop is running.
func (p *Pacer) Capturing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capturing
}

// Err returns the error that stopped the loop, if any.
func (p *Pacer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done returns a channel closed when the loop has exited.
func (p *Pacer) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Pacer) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			p.finish(nil)
			return
		case <-ctx.Done():
			p.finish(ctx.Err())
			return
		case <-ticker.C:
			if p.analyzer.InFlight() {
				continue // drop-on-busy, no queueing
			}
			image, err := p.source.Snapshot(ctx)
			if err == ErrNotReady {
				continue
			}
			if err != nil {
				// Source revoked or unavailable: fatal to this
				// capture session, no retry.
				p.finish(err)
				return
			}
			frame := Frame{Image: image, CapturedAt: time.Now()}
			if err := p.analyzer.Submit(ctx, frame); err != nil {
				if p.OnDrop != nil {
					p.OnDrop(err)
				}
			}
		}
	}
}

func (p *Pacer) finish(err error) {
	p.mu.Lock()
	p.capturing = false
	p.err = err
	p.mu.Unlock()
}
