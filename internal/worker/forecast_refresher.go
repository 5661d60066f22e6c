// Package worker runs finboard's background tasks.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finboard/internal/log"
)

// ForecastSource is what the refresher drives. services.ForecastService
// implements it.
type ForecastSource interface {
	GateOpen(ctx context.Context) bool
	Refresh(ctx context.Context) (bool, error)
}

// RefresherConfig holds configuration for the forecast refresher
type RefresherConfig struct {
	// Interval is how often the forecast is refetched (default: 30m)
	Interval time.Duration
}

// DefaultRefresherConfig returns sensible defaults
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval: 30 * time.Minute,
	}
}

// ForecastRefresher periodically refetches the forecast while the session
// is visible. It is armed by the first successful forecast fetch and tears
// itself down when the gate closes.
type ForecastRefresher struct {
	source ForecastSource
	config RefresherConfig
	logger *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	armed   bool
	visible bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewForecastRefresher(source ForecastSource, config RefresherConfig, logger *log.Logger) *ForecastRefresher {
	if config.Interval <= 0 {
		config.Interval = DefaultRefresherConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ForecastRefresher{
		source:  source,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
		visible: true,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (r *ForecastRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("forecast refresher is already running")
	}
	r.startLocked(ctx)
	return nil
}

func (r *ForecastRefresher) startLocked(ctx context.Context) {
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.runLoop(ctx, r.stopCh, r.doneCh)

	r.logger.InfoContext(ctx, "Forecast refresher started", "interval", r.config.Interval)
}

// Stop gracefully stops the refresher and waits for completion.
func (r *ForecastRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.stopCh = nil
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Forecast refresher stopped")
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Forecast refresher stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the refresh loop is active
func (r *ForecastRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Arm records a successful forecast fetch and starts the loop when the
// session is visible.
func (r *ForecastRefresher) Arm(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	if r.visible && !r.running {
		r.startLocked(ctx)
	}
}

// SetVisible toggles the session-active flag. Hidden tears the loop down;
// visible re-establishes it if armed and the gate still holds.
func (r *ForecastRefresher) SetVisible(ctx context.Context, visible bool) error {
	r.mu.Lock()
	r.visible = visible
	armed, running := r.armed, r.running
	r.mu.Unlock()

	if !visible {
		return r.Stop(ctx)
	}
	if !armed || running || !r.source.GateOpen(ctx) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visible && !r.running {
		r.startLocked(context.WithoutCancel(ctx))
	}
	return nil
}

// Disarm stops the loop and waits for the next successful fetch, e.g. after
// logout.
func (r *ForecastRefresher) Disarm(ctx context.Context) error {
	r.mu.Lock()
	r.armed = false
	r.mu.Unlock()
	return r.Stop(ctx)
}

func (r *ForecastRefresher) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			r.markStopped(stopCh)
			return
		case <-ticker.C:
			if !r.tick(ctx) {
				r.markStopped(stopCh)
				return
			}
		}
	}
}

// tick refetches once; false means the gate closed and the loop should end.
func (r *ForecastRefresher) tick(ctx context.Context) bool {
	if !r.source.GateOpen(ctx) {
		r.logger.InfoContext(ctx, "Forecast gate closed, stopping refresher")
		return false
	}
	ran, err := r.source.Refresh(ctx)
	switch {
	case err != nil:
		r.logger.WarnContext(ctx, "Forecast refresh failed", log.FieldOperation, log.OpRefresh, log.FieldError, err)
	case ran:
		r.logger.DebugContext(ctx, "Forecast auto-refreshed", log.FieldOperation, log.OpRefresh)
	}
	return true
}

func (r *ForecastRefresher) markStopped(stopCh chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh == stopCh {
		r.running = false
		r.stopCh = nil
	}
}
