package presence

import (
	"context"
	"sync"
	"time"
)

// Monitor runs the periodic liveness sweep.
//
// The loop uses a fixed-delay timer: it re-arms only after a sweep
// finishes, so a slow sweep delays the next one instead of stacking
// overlapping sweeps.
type Monitor struct {
	tracker   *Tracker
	interval  time.Duration
	threshold time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewMonitor creates a liveness monitor over the tracker.
//
// interval is the delay between sweeps; threshold is the maximum silence
// before a connected device is presumed offline.
func NewMonitor(tracker *Tracker, interval, threshold time.Duration) *Monitor {
	return &Monitor{
		tracker:   tracker,
		interval:  interval,
		threshold: threshold,
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Start launches the sweep loop. Call Stop or cancel ctx to shut down.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("liveness monitor started",
		"sweep_interval", m.interval,
		"stale_threshold", m.threshold,
	)
	m.wg.Add(1)
	go m.sweepLoop(ctx)
}

// Stop shuts the monitor down and waits for the loop to exit.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// sweepLoop runs sweeps on a fixed delay until cancelled.
func (m *Monitor) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-timer.C:
			if demoted := m.tracker.Sweep(m.threshold); demoted > 0 {
				m.logger.Info("liveness sweep demoted devices", "count", demoted)
			}
			timer.Reset(m.interval)
		}
	}
}
