package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ValleyStore is the part of ResultStore the search loop needs.
type ValleyStore interface {
	Exists(ctx context.Context, layout Layout) (bool, error)
	Insert(ctx context.Context, r OptimizationResult) (bool, error)
}

// SearchOptions configures a Coordinator.
type SearchOptions struct {
	// Trials is the total number of random restarts, split across workers.
	Trials int
	// Workers is the size of the worker pool.
	Workers int
	// CacheSize bounds the in-process set of known valleys; 0 disables it.
	CacheSize int
	// Reporter receives each newly stored valley. Optional.
	Reporter Reporter
	// Logger defaults to a discarding logger.
	Logger logrus.FieldLogger
	// Registerer receives the search metrics. Optional.
	Registerer prometheus.Registerer
}

// RunStats summarizes a finished run.
type RunStats struct {
	Trials      int
	NewValleys  int
	Duplicates  int
	StoreErrors int
	Elapsed     time.Duration
}

func (s *RunStats) add(o RunStats) {
	s.Trials += o.Trials
	s.NewValleys += o.NewValleys
	s.Duplicates += o.Duplicates
	s.StoreErrors += o.StoreErrors
}

// Coordinator runs random-restart descents on a fixed pool of workers and
// submits every valley to the store. Workers share only the store, the seen
// cache and the read-only cost model.
type Coordinator struct {
	model   *CostModel
	store   ValleyStore
	opts    SearchOptions
	log     logrus.FieldLogger
	seen    *seenCache
	metrics *searchMetrics

	// seed returns a fresh generator seed; replaced in tests.
	seed func() ([32]byte, error)
}

// NewCoordinator validates opts and prepares a run.
func NewCoordinator(model *CostModel, store ValleyStore, opts SearchOptions) (*Coordinator, error) {
	if opts.Trials < 0 {
		return nil, fmt.Errorf("%w: trials %d < 0", ErrInvalidConfig, opts.Trials)
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: workers %d < 1", ErrInvalidConfig, opts.Workers)
	}
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	return &Coordinator{
		model:   model,
		store:   store,
		opts:    opts,
		log:     log,
		seen:    newSeenCache(opts.CacheSize),
		metrics: newSearchMetrics(opts.Registerer),
		seed:    entropySeed,
	}, nil
}

// share returns the number of trials worker w runs. Shares differ by at most
// one and add up to the budget.
func (c *Coordinator) share(w int) int {
	n := c.opts.Trials / c.opts.Workers
	if w < c.opts.Trials%c.opts.Workers {
		n++
	}
	return n
}

// Run blocks until every worker has used its trial budget or ctx is done.
// A worker that cannot seed its generator stops; the rest carry on and the
// first such error is returned with the combined stats.
func (c *Coordinator) Run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	c.log.WithFields(logrus.Fields{
		"trials":  c.opts.Trials,
		"workers": c.opts.Workers,
		"bigrams": c.model.Len(),
	}).Info("search started")

	perWorker := make([]RunStats, c.opts.Workers)
	var g errgroup.Group
	for w := 0; w < c.opts.Workers; w++ {
		g.Go(func() error {
			st, err := c.worker(ctx, w)
			perWorker[w] = st
			return err
		})
	}
	err := g.Wait()

	var total RunStats
	for _, st := range perWorker {
		total.add(st)
	}
	total.Elapsed = time.Since(start)

	c.log.WithFields(logrus.Fields{
		"trials":       total.Trials,
		"new":          total.NewValleys,
		"duplicates":   total.Duplicates,
		"store_errors": total.StoreErrors,
		"elapsed":      total.Elapsed.Round(time.Millisecond),
	}).Info("search finished")
	return total, err
}

func (c *Coordinator) worker(ctx context.Context, id int) (RunStats, error) {
	var st RunStats
	log := c.log.WithField("worker", id)

	seed, err := c.seed()
	if err != nil {
		log.WithError(err).Error("worker aborted")
		return st, fmt.Errorf("worker %d: %w", id, err)
	}
	gen := NewSeededGenerator(seed)

	budget := c.share(id)
	for t := 0; t < budget; t++ {
		if ctx.Err() != nil {
			log.WithField("done", t).Debug("worker cancelled")
			return st, nil
		}
		valley := FindValley(gen.Next(), c.model)
		if ctx.Err() != nil {
			// a cancelled context would only turn this submit into a store error
			return st, nil
		}
		st.Trials++
		c.metrics.observeTrial(valley)
		c.submit(ctx, log, valley, &st)
	}
	log.WithField("trials", st.Trials).Debug("worker done")
	return st, nil
}

// submit checks whether valley is new and inserts it. Store failures are
// logged and counted; the valley is simply lost.
func (c *Coordinator) submit(ctx context.Context, log logrus.FieldLogger, valley OptimizationResult, st *RunStats) {
	if c.seen.Contains(valley.Layout) {
		st.Duplicates++
		c.metrics.observeDuplicate()
		return
	}

	exists, err := c.store.Exists(ctx, valley.Layout)
	if err != nil {
		// the insert below is still safe; it ignores conflicts
		st.StoreErrors++
		c.metrics.observeStoreError("exists")
		log.WithError(err).Warn("store lookup failed")
	}
	if exists {
		c.seen.Add(valley.Layout)
		st.Duplicates++
		c.metrics.observeDuplicate()
		return
	}

	inserted, err := c.store.Insert(ctx, valley)
	if err != nil {
		st.StoreErrors++
		c.metrics.observeStoreError("insert")
		log.WithError(err).WithField("layout", valley.Layout.String()).Warn("failed to save valley")
		return
	}
	c.seen.Add(valley.Layout)
	if !inserted {
		// another worker stored it between the check and the insert
		st.Duplicates++
		c.metrics.observeDuplicate()
		return
	}

	st.NewValleys++
	c.metrics.observeNew(valley)
	if c.opts.Reporter != nil {
		if err := c.opts.Reporter.Report(ctx, valley); err != nil {
			log.WithError(err).Warn("report failed")
		}
	}
}
