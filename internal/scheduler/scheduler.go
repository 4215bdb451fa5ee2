// Package scheduler drives refresh cycles: every cycle walks the source
// catalog, runs discovery per source through a bounded worker pool, and
// feeds surviving candidates to the topic pipeline. One source's failure
// never aborts the cycle.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/goinsight/internal/discovery"
	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/logger"
	"github.com/jonesrussell/goinsight/internal/sitegraph"
	"github.com/jonesrussell/goinsight/internal/sources"
	"github.com/jonesrussell/goinsight/internal/store"
	"github.com/jonesrussell/goinsight/internal/topics"
)

// Defaults for cycle pacing.
const (
	defaultWorkers      = 4
	defaultInterval     = time.Hour
	defaultCycleTimeout = 30 * time.Minute
	defaultMaxJitter    = 5 * time.Second
)

// Config tunes the refresh loop.
type Config struct {
	// Workers bounds concurrent source refreshes within one cycle.
	Workers int `mapstructure:"workers"`
	// Interval is the pause between cycle starts in continuous mode.
	Interval time.Duration `mapstructure:"interval"`
	// CycleTimeout bounds one full cycle; sources still running at the
	// deadline persist their partial graphs and report a failed status.
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`
	// MaxJitter is the random per-source start delay that keeps cycle
	// traffic from bursting against every origin at once.
	MaxJitter time.Duration `mapstructure:"max_jitter"`
}

// WithDefaults fills zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = defaultCycleTimeout
	}
	if c.MaxJitter < 0 {
		c.MaxJitter = defaultMaxJitter
	}
	return c
}

// Scheduler owns the refresh loop over the source registry.
type Scheduler struct {
	registry   *sources.Registry
	discoverer *discovery.Discoverer
	pipeline   *topics.Pipeline
	store      *store.Store
	cfg        Config
	log        logger.Interface

	slugs *slugLocks
}

// New creates a scheduler over the given collaborators.
func New(
	registry *sources.Registry,
	discoverer *discovery.Discoverer,
	pipeline *topics.Pipeline,
	st *store.Store,
	cfg Config,
	log logger.Interface,
) *Scheduler {
	return &Scheduler{
		registry:   registry,
		discoverer: discoverer,
		pipeline:   pipeline,
		store:      st,
		cfg:        cfg.WithDefaults(),
		log:        log.WithComponent("scheduler"),
		slugs:      newSlugLocks(),
	}
}

// RunCycle executes one full refresh cycle and returns per-source statuses
// in catalog order. The cycle honors the configured timeout; a source that
// fails or times out yields a failed status without disturbing its peers.
func (s *Scheduler) RunCycle(ctx context.Context) []domain.SourceStatus {
	cycleID := uuid.NewString()
	log := s.log.WithCycle(cycleID)

	cycleCtx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	catalog := s.registry.List()
	statuses := make([]domain.SourceStatus, len(catalog))

	log.Info("cycle starting", "sources", len(catalog), "workers", s.cfg.Workers)
	started := time.Now()

	g, groupCtx := errgroup.WithContext(cycleCtx)
	g.SetLimit(s.cfg.Workers)
	for i, src := range catalog {
		g.Go(func() error {
			statuses[i] = s.refreshSource(groupCtx, cycleID, src)
			// Always nil: a source failure is data, not a group abort.
			return nil
		})
	}
	g.Wait()

	failed := 0
	for i := range statuses {
		if statuses[i].Failed {
			failed++
		}
		if err := s.store.SaveStatus(&statuses[i]); err != nil {
			log.Error("save status failed", "source", statuses[i].Slug, "error", err)
		}
	}

	log.Info("cycle complete",
		"sources", len(catalog),
		"failed", failed,
		"elapsed", time.Since(started),
	)
	return statuses
}

// RefreshSource refreshes a single source by slug outside the cycle loop,
// for one-shot CLI runs. The status is persisted like a cycle's.
func (s *Scheduler) RefreshSource(ctx context.Context, slug string) (domain.SourceStatus, error) {
	src, err := s.registry.Get(slug)
	if err != nil {
		return domain.SourceStatus{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	status := s.refreshSource(runCtx, uuid.NewString(), src)
	if saveErr := s.store.SaveStatus(&status); saveErr != nil {
		s.log.Error("save status failed", "source", slug, "error", saveErr)
	}
	return status, nil
}

// refreshSource runs discovery and ingest for one source and reports its
// cycle status.
func (s *Scheduler) refreshSource(ctx context.Context, cycleID string, src *domain.Source) domain.SourceStatus {
	log := s.log.WithCycle(cycleID).WithSource(src.Slug)
	status := domain.SourceStatus{
		Slug:    src.Slug,
		CycleID: cycleID,
		LastRun: time.Now().UTC(),
	}

	// Two cycles may overlap when one runs long; a slug is never refreshed
	// by both at once.
	if !s.slugs.tryLock(src.Slug) {
		status.Failed = true
		status.ErrorSummary = "previous refresh still running"
		log.Warn("refresh skipped, previous run still active")
		return status
	}
	defer s.slugs.unlock(src.Slug)

	if s.cfg.MaxJitter > 0 {
		jitter := time.Duration(rand.Int63n(int64(s.cfg.MaxJitter)))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			status.Failed = true
			status.ErrorSummary = ctx.Err().Error()
			return status
		}
	}

	graph, err := s.loadGraph(src.Slug)
	if err != nil {
		status.Failed = true
		status.ErrorSummary = err.Error()
		log.Error("graph load failed", "error", err)
		return status
	}
	if requeued := graph.RequeueFailed(); requeued > 0 {
		log.Debug("requeued failed nodes", "count", requeued)
	}

	result := s.discoverer.Run(ctx, src, graph)
	status.NodesVisited = result.NodesVisited

	// Partial graphs persist even on failure or cancellation so the next
	// cycle resumes from the frontier instead of restarting.
	if saveErr := s.store.SaveGraph(graph.Snapshot()); saveErr != nil {
		log.Error("graph save failed", "error", saveErr)
		if !status.Failed {
			status.Failed = true
			status.ErrorSummary = saveErr.Error()
		}
		return status
	}

	if result.Failed {
		status.Failed = true
		status.ErrorSummary = result.ErrorSummary
		log.Warn("source refresh failed", "error", result.ErrorSummary)
		return status
	}

	ingest, err := s.pipeline.Ingest(ctx, src, result.Candidates)
	if ingest != nil {
		status.DocumentsFound = ingest.Added + ingest.Updated
	}
	if err != nil {
		status.Failed = true
		status.ErrorSummary = fmt.Sprintf("ingest: %s", err)
		log.Error("ingest failed", "error", err)
		return status
	}

	if touchErr := s.registry.TouchRefreshed(src.Slug, status.LastRun); touchErr != nil {
		log.Warn("touch refreshed failed", "error", touchErr)
	}
	log.Info("source refreshed",
		"visited", status.NodesVisited,
		"candidates", len(result.Candidates),
		"documents", status.DocumentsFound,
	)
	return status
}

// loadGraph restores the source's persisted graph, or starts a fresh one.
func (s *Scheduler) loadGraph(slug string) (*sitegraph.Graph, error) {
	snap, err := s.store.Graph(slug)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", slug, err)
	}
	if snap == nil {
		return sitegraph.New(slug), nil
	}
	return sitegraph.FromSnapshot(snap), nil
}

// Start runs cycles continuously: one immediately, then on the configured
// interval, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.RunCycle(ctx)

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	_, err := c.AddFunc(spec, func() {
		if ctx.Err() == nil {
			s.RunCycle(ctx)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.log.Info("scheduler started", "interval", s.cfg.Interval)
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
	return nil
}
