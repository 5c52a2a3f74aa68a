package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsight/internal/log"
)

// RefreshProcessorConfig holds configuration for the refresh processor
type RefreshProcessorConfig struct {
	// Interval between sweeps (default: 15m)
	Interval time.Duration

	// RunOnStart sweeps once before the first tick (default: true)
	RunOnStart bool
}

// DefaultRefreshProcessorConfig returns sensible defaults
func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{
		Interval:   15 * time.Minute,
		RunOnStart: true,
	}
}

// Refresher performs one sweep.
type Refresher interface {
	RefreshAll(ctx context.Context) (RefreshSummary, error)
}

// RefreshProcessor runs a Refresher periodically until stopped.
type RefreshProcessor struct {
	refresher Refresher
	config    RefreshProcessorConfig
	logger    *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshProcessor(refresher Refresher, config RefreshProcessorConfig, logger *log.Logger) *RefreshProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshProcessor{
		refresher: refresher,
		config:    config,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	if p.config.Interval <= 0 {
		return fmt.Errorf("invalid refresh interval %v", p.config.Interval)
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	p.logger.InfoContext(ctx, "Refresh processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for the current sweep.
// Only the first of concurrent callers closes the loop; the rest return nil.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.stopCh, p.doneCh = nil, nil
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Refresh processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RefreshProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	if p.config.RunOnStart {
		p.sweep(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *RefreshProcessor) sweep(ctx context.Context) {
	if _, err := p.refresher.RefreshAll(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Refresh sweep failed", log.FieldOperation, log.OpRefresh, log.FieldError, err)
	}
}
