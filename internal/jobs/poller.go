package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bizradar/internal/llm"
	"bizradar/internal/store"
)

const (
	defaultPollInterval  = 15 * time.Second
	defaultMaxConcurrent = 4
	sweepTimeout         = 45 * time.Second
	stopGracePeriod      = 5 * time.Second
)

// Poller sweeps pending interactions and finalizes the ones whose
// provider-side runs have reached a terminal status. Status checks by
// clients may beat the poller to a row; both sides apply the same
// translation so the row ends up identical either way.
type Poller struct {
	store  *store.Store
	llm    llm.Client
	logger *zap.Logger

	interval      time.Duration
	maxConcurrent int

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPoller builds a poller. Zero interval and concurrency fall back
// to package defaults.
func NewPoller(st *store.Store, client llm.Client, logger *zap.Logger, interval time.Duration, maxConcurrent int) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Poller{
		store:         st,
		llm:           client,
		logger:        logger.Named("poller"),
		interval:      interval,
		maxConcurrent: maxConcurrent,
	}
}

// Start launches the sweep loop with an immediate first sweep.
// Starting a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.stopCh != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stopCh = stop
	p.doneCh = done
	p.mu.Unlock()

	go p.run(stop, done)
}

// Stop halts the loop and waits briefly for the running sweep to
// finish. Safe to call on a stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop := p.stopCh
	done := p.doneCh
	p.stopCh = nil
	p.doneCh = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(stopGracePeriod):
			p.logger.Warn("poller did not stop in time")
		}
	}
}

func (p *Poller) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Sweep(context.Background())
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.Sweep(context.Background())
		}
	}
}

// Sweep polls every pending interaction once and finalizes the
// terminal ones. Exported so callers can force a sweep outside the
// loop.
func (p *Poller) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	pending, err := p.store.PendingInteractions(ctx)
	if err != nil {
		p.logger.Warn("failed to list pending interactions", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	p.logger.Debug("sweeping pending interactions", zap.Int("count", len(pending)))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.maxConcurrent)
	for i := range pending {
		inter := &pending[i]
		eg.Go(func() error {
			p.poll(egCtx, inter)
			return nil
		})
	}
	_ = eg.Wait()
}

func (p *Poller) poll(ctx context.Context, inter *store.Interaction) {
	resp, err := p.llm.GetResponse(ctx, inter.ProviderResponseID)
	if err != nil {
		p.logger.Warn("poll failed",
			zap.String("interaction", inter.ID.String()),
			zap.String("response_id", inter.ProviderResponseID),
			zap.Error(err))
		return
	}
	if !resp.Status.Terminal() {
		return
	}

	ApplyResponse(inter, resp)
	if err := p.store.FinalizeInteraction(ctx, inter); err != nil {
		p.logger.Warn("failed to finalize interaction",
			zap.String("interaction", inter.ID.String()),
			zap.Error(err))
		return
	}

	p.logger.Info("interaction finalized",
		zap.String("interaction", inter.ID.String()),
		zap.String("status", string(inter.Status)),
		zap.Int64("duration_ms", inter.DurationMs))
}
