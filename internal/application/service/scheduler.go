package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

type SchedulerState int32

const (
	StateStopped SchedulerState = iota
	StateStarting
	StateRunning
)

func (s SchedulerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Refresher produces one snapshot per call.
type Refresher interface {
	Refresh(ctx context.Context) *domain.Snapshot
}

// SnapshotPublisher receives every snapshot the scheduler produces, in cycle order.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

type SchedulerDeps struct {
	Refresher  Refresher
	Publishers []SnapshotPublisher
	RetryDelay time.Duration
	Metrics    port.Metrics
}

// Scheduler drives periodic refresh cycles. Concurrent Start calls collapse
// into a single running loop.
type Scheduler struct {
	refresher  Refresher
	publishers []SnapshotPublisher
	retryDelay time.Duration
	metrics    port.Metrics

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(deps SchedulerDeps) *Scheduler {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics()
	}
	if deps.RetryDelay <= 0 {
		deps.RetryDelay = 5 * time.Second
	}
	return &Scheduler{
		refresher:  deps.Refresher,
		publishers: deps.Publishers,
		retryDelay: deps.RetryDelay,
		metrics:    deps.Metrics,
	}
}

func (s *Scheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

// Start launches the loop under ctx. It returns false, doing nothing, when a
// loop is already starting or running.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return false
	}

	retry := min(s.retryDelay, interval)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state.Store(int32(StateRunning))

	go func() {
		defer func() {
			cancel()
			s.state.Store(int32(StateStopped))
			close(done)
		}()
		s.run(runCtx, interval, retry)
	}()

	log.Info().Dur("interval", interval).Dur("retry", retry).Msg("periodic updates started")
	return true
}

// Stop cancels the loop and waits for it to exit. An in-flight cycle is
// discarded without touching the published snapshot.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, interval, retry time.Duration) {
	for {
		if ctx.Err() != nil {
			break
		}

		wait := interval
		if err := s.cycle(ctx); err != nil {
			s.metrics.CycleFailed()
			log.Error().Err(err).Dur("retry_in", retry).Msg("refresh cycle failed")
			wait = retry
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	log.Info().Msg("periodic updates stopped")
}

func (s *Scheduler) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CycleError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	snap := s.refresher.Refresh(ctx)
	if ctx.Err() != nil {
		return nil
	}

	var errs []error
	for _, p := range s.publishers {
		if perr := p.Publish(ctx, snap); perr != nil {
			errs = append(errs, perr)
		}
	}
	if len(errs) > 0 {
		return &CycleError{Err: errors.Join(errs...)}
	}
	return nil
}
