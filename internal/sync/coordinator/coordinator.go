// Package coordinator supervises the per-domain synchronization
// lifecycle: recovery of buffered changes at startup, continuous live
// listening, optional buffer retention sweeps, and operator-triggered
// full loads.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daaslabs/indexsync/internal/config"
	"github.com/daaslabs/indexsync/internal/index"
	"github.com/daaslabs/indexsync/internal/mapper"
	"github.com/daaslabs/indexsync/internal/status"
	pkgsync "github.com/daaslabs/indexsync/internal/sync"
	"github.com/daaslabs/indexsync/internal/telemetry"
)

// Coordinator manages background synchronization for all configured domains
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/daaslabs/indexsync/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start begins recovery and live listening for every domain.
	// Blocks until context is cancelled or an unrecoverable error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and all domain sync loops
	Stop() error

	// TriggerFullLoad runs a full load for the named domain. Safe to
	// call while the domain is listening; at most one load runs per
	// domain at a time.
	TriggerFullLoad(ctx context.Context, domain string) (*pkgsync.LoadResult, error)

	// TriggerWindowLoad re-indexes rows modified in [from, to) for the
	// named domain, stepping through the range.
	TriggerWindowLoad(ctx context.Context, domain string, from, to time.Time, step time.Duration) (*pkgsync.LoadResult, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	config  *config.Config
	deps    Deps
	tracker *status.Tracker

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}

	// loadMu serializes full loads per domain
	loadMu map[string]*sync.Mutex

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies
func New(
	cfg *config.Config,
	deps Deps,
	tracker *status.Tracker,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		config:  cfg,
		deps:    deps,
		tracker: tracker,
		done:    make(chan struct{}),
		loadMu:  make(map[string]*sync.Mutex, len(cfg.Domains)),
	}
	for i := range cfg.Domains {
		c.loadMu[cfg.Domains[i].Name] = &sync.Mutex{}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins recovery and live listening for all configured domains.
// A domain that fails is marked failed and left parked; the remaining
// domains keep running.
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting sync coordinator", "domain_count", len(c.config.Domains))

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Sync coordinator shut down")
	}()

	group, groupCtx := errgroup.WithContext(coordCtx)
	for i := range c.config.Domains {
		dom := &c.config.Domains[i]
		group.Go(func() error {
			c.runDomain(groupCtx, dom)
			return nil
		})
		if retention := dom.GetBufferRetention(); retention > 0 {
			group.Go(func() error {
				c.runRetentionSweep(groupCtx, dom.Name, retention)
				return nil
			})
		}
	}

	return group.Wait()
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping sync coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// runDomain drives one domain through its lifecycle: starting,
// recovering buffered events, then listening until shutdown.
func (c *defaultCoordinator) runDomain(ctx context.Context, dom *config.DomainConfig) {
	c.tracker.SetPhase(dom.Name, status.PhaseStarting)

	applier, err := c.newApplier(ctx, dom)
	if err != nil {
		c.failDomain(dom.Name, err)
		return
	}

	c.tracker.SetPhase(dom.Name, status.PhaseRecovering)
	recovery := pkgsync.NewRecovery(dom.Name, dom.GetReadLimit(), c.deps.Reader, applier)
	result, err := recovery.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.stopDomain(dom.Name)
			return
		}
		c.failDomain(dom.Name, fmt.Errorf("recovery failed: %w", err))
		return
	}
	slog.Info("Domain recovered", "domain", dom.Name, "applied", result.Applied, "cursor", result.LastCursor)

	c.tracker.SetPhase(dom.Name, status.PhaseListening)
	notifier := c.deps.NewNotifier(dom.GetChannel())
	listener := pkgsync.NewListener(
		dom.Name,
		dom.GetApplyBatchSize(),
		dom.GetFlushInterval(),
		dom.GetPollInterval(),
		c.deps.Reader,
		notifier,
		applier,
	)
	if err := listener.Run(ctx); err != nil {
		c.failDomain(dom.Name, fmt.Errorf("listener failed: %w", err))
		return
	}

	c.stopDomain(dom.Name)
}

// TriggerFullLoad runs a full load for the named domain
func (c *defaultCoordinator) TriggerFullLoad(ctx context.Context, domain string) (*pkgsync.LoadResult, error) {
	loader, unlock, err := c.newFullLoader(domain)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return loader.Run(ctx)
}

// TriggerWindowLoad re-indexes rows modified in [from, to) for the named domain
func (c *defaultCoordinator) TriggerWindowLoad(
	ctx context.Context, domain string, from, to time.Time, step time.Duration,
) (*pkgsync.LoadResult, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid window: from %s is not before to %s", from, to)
	}
	loader, unlock, err := c.newFullLoader(domain)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return loader.RunWindow(ctx, from, to, step)
}

// runRetentionSweep periodically deletes buffer rows already covered by
// the durable cursor. The cursor is re-read each sweep so the deletes
// never outrun committed work.
func (c *defaultCoordinator) runRetentionSweep(ctx context.Context, domain string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			position, found, err := c.deps.Cursors.Load(ctx, domain)
			if err != nil {
				slog.Warn("Retention sweep could not read cursor", "domain", domain, "error", err)
				continue
			}
			if !found || position == 0 {
				continue
			}
			deleted, err := c.deps.Reader.DeleteThrough(ctx, domain, position)
			if err != nil {
				slog.Warn("Retention sweep failed", "domain", domain, "error", err)
				continue
			}
			if deleted > 0 {
				slog.Debug("Swept applied buffer events",
					"domain", domain, "deleted", deleted, "through", position)
			}
		}
	}
}

func (c *defaultCoordinator) newApplier(ctx context.Context, dom *config.DomainConfig) (*pkgsync.Applier, error) {
	writer, err := c.newWriter(dom)
	if err != nil {
		return nil, err
	}

	position, found, err := c.deps.Cursors.Load(ctx, dom.Name)
	if err != nil {
		return nil, fmt.Errorf("loading cursor: %w", err)
	}
	if !found {
		slog.Info("No cursor for domain, starting from the buffer head", "domain", dom.Name)
	}

	return pkgsync.NewApplier(
		dom.Name,
		mapper.New(dom.GetKeyColumn()),
		writer,
		c.deps.Cursors,
		c.tracker,
		c.syncMetrics,
		position,
	), nil
}

func (c *defaultCoordinator) newFullLoader(domain string) (*pkgsync.FullLoader, func(), error) {
	dom := c.domainConfig(domain)
	if dom == nil {
		return nil, nil, fmt.Errorf("unknown domain: %s", domain)
	}

	writer, err := c.newWriter(dom)
	if err != nil {
		return nil, nil, err
	}

	loader := pkgsync.NewFullLoader(
		dom.Name,
		c.deps.NewExtractor(dom),
		mapper.New(dom.GetKeyColumn()),
		writer,
		c.deps.Reader,
		c.deps.Cursors,
		c.syncMetrics,
	)

	mu := c.loadMu[dom.Name]
	if !mu.TryLock() {
		return nil, nil, fmt.Errorf("a load is already running for domain %s", dom.Name)
	}
	return loader, mu.Unlock, nil
}

func (c *defaultCoordinator) newWriter(dom *config.DomainConfig) (index.Writer, error) {
	writer, err := c.deps.NewWriter(dom.GetCollection())
	if err != nil {
		return nil, fmt.Errorf("creating index writer for %s: %w", dom.Name, err)
	}
	return index.NewRetryingWriter(writer, index.NewRetryPolicy(c.retryConfig())), nil
}

func (c *defaultCoordinator) retryConfig() *config.RetryConfig {
	if c.config.Index == nil {
		return nil
	}
	return c.config.Index.Retry
}

func (c *defaultCoordinator) domainConfig(name string) *config.DomainConfig {
	for i := range c.config.Domains {
		if c.config.Domains[i].Name == name {
			return &c.config.Domains[i]
		}
	}
	return nil
}

func (c *defaultCoordinator) failDomain(domain string, err error) {
	slog.Error("Domain sync failed", "domain", domain, "error", err)
	c.tracker.SetFailed(domain, err.Error())
}

func (c *defaultCoordinator) stopDomain(domain string) {
	c.tracker.SetPhase(domain, status.PhaseStopping)
	c.tracker.SetPhase(domain, status.PhaseStopped)
	slog.Info("Domain sync stopped", "domain", domain)
}
