/*
scheduler.go - Automated policy expiration

PURPOSE:
  Periodically expires ACTIVE policies whose period has ended. Each run is
  one conditional bulk update (policy.Service.ExpireDue with cutoff =
  today), so a cancellation racing the job is never overwritten.

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewExpirationScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunExpirations endpoint (manual run)
  - policy/service.go: ExpireDue
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/premium-engine/calendar"
	"github.com/warp/premium-engine/policy"
)

// ExpirationScheduler runs bulk expiration in the background.
type ExpirationScheduler struct {
	Service       *policy.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirationScheduler creates a new scheduler.
func NewExpirationScheduler(svc *policy.Service, logger *zap.Logger) *ExpirationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirationScheduler{
		Service:       svc,
		Logger:        logger.Named("scheduler"),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler. It runs once immediately.
func (es *ExpirationScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		es.Logger.Info("disabled, not starting")
		return
	}
	if es.ticker != nil {
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.stop = make(chan struct{})
	es.wg.Add(1)

	go es.run()

	es.Logger.Info("started", zap.Duration("interval", es.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight run.
func (es *ExpirationScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		es.ticker = nil
		es.Logger.Info("stopped")
	}
}

func (es *ExpirationScheduler) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.RunNow(context.Background())

	for {
		select {
		case <-es.ticker.C:
			es.RunNow(context.Background())
		case <-es.stop:
			return
		}
	}
}

// RunNow expires every policy due as of today and returns the count.
func (es *ExpirationScheduler) RunNow(ctx context.Context) int {
	cutoff := calendar.DateOf(es.Service.Now())

	n, err := es.Service.ExpireDue(ctx, cutoff)
	if err != nil {
		es.Logger.Error("expiration run failed", zap.String("cutoff", cutoff.String()), zap.Error(err))
		return 0
	}
	return n
}
