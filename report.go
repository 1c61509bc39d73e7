package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Reporter receives every valley that a run inserted into the store.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, r OptimizationResult) error
}

// valleyMessage is the wire form of a reported valley.
type valleyMessage struct {
	Layout string  `json:"layout"`
	Cost   float64 `json:"cost"`
	Steps  int     `json:"steps"`
}

func newValleyMessage(r OptimizationResult) valleyMessage {
	return valleyMessage{Layout: r.Layout.String(), Cost: r.Cost, Steps: r.Steps}
}

// ── log ─────────────────────────────────────────────────────────────

type logReporter struct {
	log logrus.FieldLogger
}

// NewLogReporter logs each valley at info level.
func NewLogReporter(log logrus.FieldLogger) Reporter {
	return &logReporter{log: log}
}

func (l *logReporter) Report(_ context.Context, r OptimizationResult) error {
	l.log.WithFields(logrus.Fields{
		"layout": r.Layout.String(),
		"cost":   r.Cost,
		"steps":  r.Steps,
	}).Info("found valley")
	return nil
}

// ── NATS ────────────────────────────────────────────────────────────

type natsReporter struct {
	nc      *nats.Conn
	subject string
}

// NewNATSReporter publishes each valley as JSON on subject. The caller owns nc.
func NewNATSReporter(nc *nats.Conn, subject string) Reporter {
	return &natsReporter{nc: nc, subject: subject}
}

func (n *natsReporter) Report(_ context.Context, r OptimizationResult) error {
	data, err := json.Marshal(newValleyMessage(r))
	if err != nil {
		return err
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

// ── fan-out / collect ───────────────────────────────────────────────

type multiReporter []Reporter

// MultiReporter sends every valley to all reporters and joins their errors.
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

func (m multiReporter) Report(ctx context.Context, r OptimizationResult) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// collectReporter keeps every reported valley in memory.
type collectReporter struct {
	mu      sync.Mutex
	results []OptimizationResult
}

func (c *collectReporter) Report(_ context.Context, r OptimizationResult) error {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	return nil
}

func (c *collectReporter) Results() []OptimizationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]OptimizationResult(nil), c.results...)
}
