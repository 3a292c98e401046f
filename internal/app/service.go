// Package service wires the activity pipeline, the ledger, and the
// catalog-backed read engines behind the dependency surface the HTTP
// API consumes.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/lumina-social/lumina/internal/adapters/catalog"
	"github.com/lumina-social/lumina/internal/adapters/ledger"
	"github.com/lumina-social/lumina/internal/adapters/mq/queue"
	"github.com/lumina-social/lumina/internal/adapters/mq/worker"
	"github.com/lumina-social/lumina/internal/adapters/socialgraph"
	"github.com/lumina-social/lumina/internal/domain/dedupe"
	"github.com/lumina-social/lumina/internal/domain/feed"
	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/internal/domain/personalization"
	"github.com/lumina-social/lumina/internal/domain/reputation"
	"github.com/lumina-social/lumina/internal/domain/rewards"
	"github.com/lumina-social/lumina/internal/domain/signals"
	"github.com/lumina-social/lumina/pkg/logger"
	"github.com/lumina-social/lumina/pkg/metrics"
)

const communityTrackScan = 50

// track records one engine computation and returns a closure that records
// its latency when the computation finishes.
func track(engine string) func() {
	metrics.RecordEngineComputation(engine)
	start := time.Now()
	return func() {
		metrics.RecordEngineLatency(engine, float64(time.Since(start).Milliseconds()))
	}
}

// Service implements the API dependencies for the engagement system.
type Service struct {
	mu sync.RWMutex

	ledger  *ledger.TreapStore
	deduper dedupe.Deduper
	queue   *queue.MemoryQueue
	valuer  *rewards.Valuer
	pool    *worker.Pool

	catalog *catalog.Client
	social  *socialgraph.Client
	signals *signals.Engine
	rails   *personalization.Engine
	feed    *feed.Engine

	workerCount    int
	queueSize      int
	dedupeSize     int
	pointOverrides map[string]int
	catalogOpts    []catalog.Option
	socialOpts     []socialgraph.Option

	started bool
	logger  logger.Logger
}

// New constructs an unstarted Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 4,
		queueSize:   100_000,
		dedupeSize:  500_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes all components and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.ledger = ledger.NewTreapStore(ctx)
	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewMemoryQueue(queue.WithCapacity(s.queueSize))
	s.valuer = rewards.NewValuer(rewards.WithPointOverrides(s.pointOverrides))

	s.catalog = catalog.New(s.catalogOpts...)
	s.social = socialgraph.New(s.socialOpts...)
	s.signals = signals.NewEngine(s.catalog)
	s.rails = personalization.NewEngine(s.catalog)
	s.feed = feed.NewEngine(s.catalog, s.signals, s.social)

	s.pool = worker.NewPool(s.workerCount, s.queue, s.valuer, s.ledger)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "engagement service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains the pipeline and releases resources. Safe to call twice.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping engagement service")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.ledger != nil {
		_ = s.ledger.Close()
	}

	s.started = false
	s.logger.Info(ctx, "engagement service stopped")
}

// SeenAndRecord atomically checks whether an activity id was seen and
// records it if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an activity id from the seen set so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of activity ids held by the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// KnownAction reports whether the action kind earns points.
func (s *Service) KnownAction(action model.Action) bool {
	return s.valuer.Known(action)
}

// Enqueue submits an activity for asynchronous valuation. Returns false
// when the queue is full or closed.
func (s *Service) Enqueue(ctx context.Context, sub queue.Submission) bool {
	ok := s.queue.Enqueue(ctx, sub)
	if ok {
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}
	return ok
}

// TopN returns the top n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]ledger.Entry, error) {
	return s.ledger.TopN(ctx, n)
}

// Rank returns the standing of one wallet.
func (s *Service) Rank(ctx context.Context, wallet string) (ledger.Entry, error) {
	return s.ledger.Rank(ctx, wallet)
}

// SupporterProfile returns a wallet's ledger record and derived reputation.
// Wallets with no history yield an empty record and a zero profile.
func (s *Service) SupporterProfile(ctx context.Context, wallet string) (model.LedgerRecord, reputation.SupporterProfile, error) {
	record, err := s.ledger.Record(ctx, wallet)
	if err != nil {
		record = model.LedgerRecord{Wallet: wallet}
	}
	return record, reputation.ComputeSupporterProfile(record.Points, record.Activities), nil
}

// Signals returns the top undervalued artists from the trending batch.
func (s *Service) Signals(ctx context.Context, limit int) ([]signals.ArtistSignal, error) {
	defer track("signals")()
	out, err := s.signals.Undervalued(ctx, limit)
	if err != nil {
		metrics.RecordEngineError("signals")
	}
	return out, err
}

// Community derives an artist's community snapshot from the full ledger
// and the artist's catalog track list.
func (s *Service) Community(ctx context.Context, artistID, viewerWallet string) (reputation.CommunitySnapshot, error) {
	defer track("community")()
	tracks, err := s.catalog.UserTracks(ctx, artistID, communityTrackScan, 0)
	if err != nil {
		metrics.RecordEngineError("community")
		return reputation.CommunitySnapshot{}, err
	}
	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
	}
	records := s.ledger.All(ctx)
	return reputation.ComputeArtistCommunitySnapshot(records, artistID, trackIDs, viewerWallet), nil
}

// Rails builds discovery rails from the wallet's activity history. A wallet
// with no history gets the no-history result of the engine.
func (s *Service) Rails(ctx context.Context, wallet string) ([]personalization.Rail, error) {
	defer track("rails")()
	record, err := s.ledger.Record(ctx, wallet)
	if err != nil {
		record = model.LedgerRecord{Wallet: wallet}
	}
	rails, err := s.rails.DiscoveryRails(ctx, record.Activities)
	if err != nil {
		metrics.RecordEngineError("rails")
	}
	return rails, err
}

// Feed returns the merged global event stream.
func (s *Service) Feed(ctx context.Context) ([]feed.Event, error) {
	defer track("feed")()
	events, err := s.feed.GlobalEvents(ctx)
	if err != nil {
		metrics.RecordEngineError("feed")
	}
	return events, err
}

// GetStats returns runtime counters for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
	}
	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		wallets := s.ledger.Count(ctx)

		stats["queue_length"] = queueLen
		stats["wallets"] = wallets
		stats["deduper_size"] = s.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateLedgerWallets(wallets)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}
