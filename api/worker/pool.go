// Package worker provides an asynchronous worker pool that announces saved
// workshops on the configured eventstream.Publisher.
//
// The pool decouples event publishing from the API's HTTP hot path so a slow
// or unreachable broker never delays the response to a save request.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/catalyst/pkg/eventstream"
	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Record *workshop.Record
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives one event per saved workshop.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each publish call (defaults to 10s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes workshop events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
		now:    time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Record == nil {
		p.logger.Warn("job not queued, missing record")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "workshop_id", job.Record.ID)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "workshop_id", job.Record.ID)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob publishes the saved event for one record. Failures are logged
// and never retried.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	event := eventstream.NewWorkshopSavedEvent(job.Record, p.config.Source, p.now())
	if err := p.config.Publisher.PublishWorkshopSaved(ctx, event); err != nil {
		p.logger.Error("workshop event publish failed",
			"workshop_id", job.Record.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Info("workshop event published",
		"workshop_id", job.Record.ID,
		"event_id", event.EventID,
	)
}
