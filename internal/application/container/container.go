package container

import (
	"context"
	"time"

	"pricehub/internal/application/port"
	"pricehub/internal/application/service"
	"pricehub/internal/application/usecase/broadcast"
	"pricehub/internal/domain"
)

type Deps struct {
	Clients      []port.ExchangeClient
	Symbols      []string
	Priority     []string
	FetchTimeout time.Duration
	RetryDelay   time.Duration
	// Repo is optional; without it snapshots are not mirrored.
	Repo    port.Repository
	Metrics port.Metrics
	// Extra receive every snapshot after subscribers and the mirror.
	Extra []service.SnapshotPublisher
}

// Container wires the core: aggregator, scheduler, broadcast hub and the
// optional storage mirror. It is also the entry point the HTTP layer calls into.
type Container struct {
	aggregator *service.Aggregator
	scheduler  *service.Scheduler
	hub        *broadcast.Hub
	formatter  *broadcast.Formatter
	snapshots  *service.SnapshotService
}

func New(deps Deps) *Container {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics()
	}

	c := &Container{}
	c.formatter = broadcast.NewFormatter(deps.Priority)
	c.aggregator = service.NewAggregator(service.AggregatorDeps{
		Clients:      deps.Clients,
		Symbols:      deps.Symbols,
		FetchTimeout: deps.FetchTimeout,
		Metrics:      deps.Metrics,
	})
	c.hub = broadcast.NewHub(broadcast.HubDeps{
		Source:    c.aggregator,
		Formatter: c.formatter,
		Metrics:   deps.Metrics,
	})

	publishers := []service.SnapshotPublisher{c.hub}
	if deps.Repo != nil {
		c.snapshots = service.NewSnapshotService(deps.Repo, c.formatter.Encode)
		publishers = append(publishers, c.snapshots)
	}
	publishers = append(publishers, deps.Extra...)

	c.scheduler = service.NewScheduler(service.SchedulerDeps{
		Refresher:  c.aggregator,
		Publishers: publishers,
		RetryDelay: deps.RetryDelay,
		Metrics:    deps.Metrics,
	})
	return c
}

func (c *Container) Aggregator() *service.Aggregator { return c.aggregator }

func (c *Container) Scheduler() *service.Scheduler { return c.scheduler }

func (c *Container) Hub() *broadcast.Hub { return c.hub }

func (c *Container) Formatter() *broadcast.Formatter { return c.formatter }

// SnapshotService is nil when no repository was configured.
func (c *Container) SnapshotService() *service.SnapshotService { return c.snapshots }

// GetLatestSnapshot returns the latest snapshot, running one synchronous refresh
// first if no cycle has completed yet.
func (c *Container) GetLatestSnapshot(ctx context.Context) *domain.Snapshot {
	return c.aggregator.LatestOrRefresh(ctx)
}

// StartPeriodicUpdates is idempotent. It reports whether this call started the loop.
func (c *Container) StartPeriodicUpdates(ctx context.Context, interval time.Duration) bool {
	return c.scheduler.Start(ctx, interval)
}

// Close stops the scheduler, then disconnects every subscriber.
func (c *Container) Close() {
	c.scheduler.Stop()
	c.hub.Close()
}
