// Package worker drains the submission queue, values each activity, and
// appends it to the interaction ledger.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/lumina-social/lumina/internal/adapters/mq/queue"
	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/pkg/logger"
	"github.com/lumina-social/lumina/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Valuer assigns points to an activity by its action kind.
type Valuer interface {
	Value(ctx context.Context, action model.Action) (int, error)
}

// Appender records a valued activity against a wallet.
type Appender interface {
	Append(ctx context.Context, wallet string, activity model.Activity) (int, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// LedgerWorker implements Worker for activity processing.
type LedgerWorker struct {
	queue    Queue
	valuer   Valuer
	appender Appender
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewLedgerWorker creates a worker with configuration options.
func NewLedgerWorker(q Queue, valuer Valuer, appender Appender, opts ...Option) *LedgerWorker {
	w := &LedgerWorker{
		queue:    q,
		valuer:   valuer,
		appender: appender,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *LedgerWorker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-submissions:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *LedgerWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process values one submission and appends it to the ledger.
func (w *LedgerWorker) process(ctx context.Context, s queue.Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	valueStart := time.Now()
	points, err := w.valuer.Value(ctx, s.Activity.Action)
	metrics.RecordValuationLatency(float64(time.Since(valueStart).Milliseconds()))

	if err != nil {
		metrics.RecordValuationError()
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "valuation failed for submission",
			logger.String("activityID", s.Activity.ID),
			logger.String("action", string(s.Activity.Action)),
			logger.Error(err),
		)
		return fmt.Errorf("failed to value activity %s: %w", s.Activity.ID, err)
	}

	activity := s.Activity
	activity.Points = points

	if _, err := w.appender.Append(ctx, s.Wallet, activity); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "ledger append failed for submission",
			logger.String("activityID", s.Activity.ID),
			logger.String("wallet", s.Wallet),
			logger.Error(err),
		)
		return fmt.Errorf("ledger append failed: %w", err)
	}

	metrics.RecordActivityProcessed()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*LedgerWorker
	queue    Queue
	valuer   Valuer
	appender Appender

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount selects a
// CPU-proportional default.
func NewPool(workerCount int, q Queue, valuer Valuer, appender Appender) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*LedgerWorker, workerCount),
		queue:    q,
		valuer:   valuer,
		appender: appender,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewLedgerWorker(
			q,
			valuer,
			appender,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue so workers drain, then waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
