package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perchdesk/perch/internal/infrastructure/monitoring"
	"github.com/perchdesk/perch/internal/logging"
	"go.uber.org/zap"
)

// MinInterval is the floor for the sampling interval. Requests below it
// are clamped, never rejected.
const MinInterval = 500 * time.Millisecond

// Watcher samples telemetry on a timer into a bounded ring. Start and
// Stop are idempotent and callable from any goroutine; a slow sample
// never overlaps the next tick.
type Watcher struct {
	sampler Sampler
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	interval time.Duration
	ring     []Sample
	size     int
	cancel   context.CancelFunc
	done     chan struct{}

	sampling atomic.Bool
}

// NewWatcher creates a watcher over sampler. interval is clamped to
// MinInterval; historySize bounds the ring.
func NewWatcher(sampler Sampler, interval time.Duration, historySize int, log *logging.Logger) *Watcher {
	if log == nil {
		log = logging.NewNop()
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	if historySize < 1 {
		historySize = 1
	}
	return &Watcher{
		sampler:  sampler,
		log:      log,
		interval: interval,
		size:     historySize,
	}
}

// WithMetrics adds metrics tracking to the watcher.
func (w *Watcher) WithMetrics(metrics *monitoring.Metrics) *Watcher {
	w.metrics = metrics
	return w
}

// Start launches the sampling loop. Calling Start on a running watcher
// is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)

	w.log.Info("telemetry watcher started", zap.Duration("interval", w.interval))
}

// Stop halts the sampling loop and waits for it to drain. Calling Stop
// on a stopped watcher is a no-op. Buffered history survives.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info("telemetry watcher stopped")
}

// SetInterval adjusts the sampling cadence at runtime. Values below
// MinInterval are clamped. Buffered history is untouched; the new
// cadence applies from the next tick.
func (w *Watcher) SetInterval(d time.Duration) {
	if d < MinInterval {
		d = MinInterval
	}
	w.mu.Lock()
	w.interval = d
	w.mu.Unlock()
}

// Interval returns the current sampling cadence.
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Snapshot copies the buffered samples, oldest first.
func (w *Watcher) Snapshot() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Sample, len(w.ring))
	copy(out, w.ring)
	return out
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(w.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			w.sampleOnce(ctx)
			timer.Reset(w.Interval())
		}
	}
}

// sampleOnce takes one reading. The atomic flag skips the tick when the
// previous sample is still in flight.
func (w *Watcher) sampleOnce(ctx context.Context) {
	if !w.sampling.CompareAndSwap(false, true) {
		if w.metrics != nil {
			w.metrics.SamplesDropped.Inc()
		}
		w.log.Debug("telemetry tick skipped, previous sample still running")
		return
	}
	defer w.sampling.Store(false)

	sampleCtx, cancel := context.WithTimeout(ctx, w.Interval())
	defer cancel()

	sample, err := w.sampler.Sample(sampleCtx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("telemetry sample failed", zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	w.ring = append(w.ring, sample)
	if len(w.ring) > w.size {
		w.ring = w.ring[len(w.ring)-w.size:]
	}
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.SamplesTaken.Inc()
	}
}
