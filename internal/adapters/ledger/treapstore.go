package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumina-social/lumina/internal/domain/model"
	"github.com/lumina-social/lumina/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: points DESC, then wallet ASC (deterministic). The BST
// comparator treats "less" as "ranks earlier", so in-order traversal
// produces the leaderboard from best to worst. Point totals are plain
// integers, so no score scaling is involved.

// record holds a wallet's running total and its activity log,
// newest first. Activity slices are rebuilt on every append and never
// mutated in place, so returned slice headers are safe to share.
type record struct {
	points     int
	activities []model.Activity
}

// Snapshot is an immutable view of the leaderboard state, published
// periodically for cheap stats reads.
type Snapshot struct {
	RankByWallet   map[string]int
	PointsByWallet map[string]int

	// TopCache holds the best entries, sorted descending.
	TopCache []Entry
}

// treap node
type node struct {
	wallet string
	points int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aPoints, aWallet) ranks earlier than
// (bPoints, bWallet).
func less(aPoints int, aWallet string, bPoints int, bWallet string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints // more points ranks earlier
	}
	return aWallet < bWallet // tie-breaker by wallet asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// pointsToPriority keeps wallets with more points near the treap root.
// The offset shifts negative totals into the unsigned range.
func pointsToPriority(points int) uint64 {
	const offset = uint64(1) << 63
	return uint64(int64(points)) + offset
}

func insert(n *node, wallet string, points int) *node {
	if n == nil {
		return &node{wallet: wallet, points: points, prio: pointsToPriority(points), size: 1}
	}
	if less(points, wallet, n.points, n.wallet) {
		n.left = insert(n.left, wallet, points)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, wallet, points)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, wallet string, points int) *node {
	if n == nil {
		return nil
	}
	if points == n.points && wallet == n.wallet {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, wallet, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, wallet, points)
		}
	} else if less(points, wallet, n.points, n.wallet) {
		n.left = deleteNode(n.left, wallet, points)
	} else {
		n.right = deleteNode(n.right, wallet, points)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}

	collectTopN(n.left, limit, records, out)

	if len(*out) < limit {
		if rec, ok := records[n.wallet]; ok {
			*out = append(*out, Entry{Wallet: n.wallet, Points: rec.points, Activities: len(rec.activities)})
		}
	}

	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// collectAll appends every entry in rank order.
func collectAll(n *node, records map[string]record, out *[]Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, records, out)
	if rec, ok := records[n.wallet]; ok {
		*out = append(*out, Entry{Wallet: n.wallet, Points: rec.points, Activities: len(rec.activities)})
	}
	collectAll(n.right, records, out)
}

// assignRanksWithTies gives wallets with equal points the same rank;
// the following distinct total takes the next consecutive rank.
func assignRanksWithTies(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameCount := 1
		for j := i + 1; j < len(entries) && entries[j].Points == entries[i].Points; j++ {
			entries[j].Rank = currentRank
			sameCount++
		}

		currentRank++
		i += sameCount - 1
	}
}

// TreapStore is the in-memory ledger implementation.
type TreapStore struct {
	mu                    sync.RWMutex
	root                  *node
	byWallet              map[string]record
	snapshotInterval      time.Duration
	topCacheSize          int
	metricsUpdateInterval time.Duration

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a ledger store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		snapshotInterval:      1 * time.Second,
		topCacheSize:          500,
		metricsUpdateInterval: 5 * time.Second,
		byWallet:              make(map[string]record),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)
	s.startMetricsUpdater(ctx)

	return s
}

func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

func (s *TreapStore) publishSnapshot() {
	s.mu.RLock()
	s.publishSnapshotInternal()
	s.mu.RUnlock()

	metrics.RecordLedgerSnapshot()
}

// publishSnapshotInternal rebuilds the snapshot; the caller holds the lock.
func (s *TreapStore) publishSnapshotInternal() {
	topCache := make([]Entry, 0, s.topCacheSize)
	collectTopN(s.root, s.topCacheSize, s.byWallet, &topCache)

	allEntries := make([]Entry, 0, len(s.byWallet))
	collectAll(s.root, s.byWallet, &allEntries)
	assignRanksWithTies(allEntries)

	rankByWallet := make(map[string]int, len(allEntries))
	pointsByWallet := make(map[string]int, len(allEntries))
	for _, entry := range allEntries {
		rankByWallet[entry.Wallet] = entry.Rank
		pointsByWallet[entry.Wallet] = entry.Points
	}

	for i := range topCache {
		if rank, ok := rankByWallet[topCache[i].Wallet]; ok {
			topCache[i].Rank = rank
		}
	}

	s.snapshot.Store(&Snapshot{
		RankByWallet:   rankByWallet,
		PointsByWallet: pointsByWallet,
		TopCache:       topCache,
	})
}

// Snapshot returns the most recently published snapshot, or nil if none
// has been published yet.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close gracefully shuts down the background goroutines.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Append implements Store.Append with O(log n) expected time.
func (s *TreapStore) Append(ctx context.Context, wallet string, activity model.Activity) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if wallet == "" {
		return 0, ErrEmptyWallet
	}

	isNewWallet := false

	s.mu.Lock()
	old, ok := s.byWallet[wallet]
	if ok {
		s.root = deleteNode(s.root, wallet, old.points)
	} else {
		isNewWallet = true
	}

	activities := make([]model.Activity, 0, len(old.activities)+1)
	activities = append(activities, activity)
	activities = append(activities, old.activities...)

	updated := record{points: old.points + activity.Points, activities: activities}
	s.byWallet[wallet] = updated
	s.root = insert(s.root, wallet, updated.points)
	walletCount := len(s.byWallet)
	s.mu.Unlock()

	metrics.RecordLedgerUpdate()
	if isNewWallet {
		metrics.UpdateLedgerWallets(walletCount)
	}

	return updated.points, nil
}

// Record returns a wallet's ledger record.
func (s *TreapStore) Record(ctx context.Context, wallet string) (model.LedgerRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byWallet[wallet]
	if !ok {
		return model.LedgerRecord{}, ErrNotFound
	}
	return model.LedgerRecord{Wallet: wallet, Points: rec.points, Activities: rec.activities}, nil
}

// All returns every ledger record in leaderboard order.
func (s *TreapStore) All(ctx context.Context) []model.LedgerRecord {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.byWallet))
	collectAll(s.root, s.byWallet, &entries)

	records := make([]model.LedgerRecord, 0, len(entries))
	for _, entry := range entries {
		rec := s.byWallet[entry.Wallet]
		records = append(records, model.LedgerRecord{
			Wallet:     entry.Wallet,
			Points:     rec.points,
			Activities: rec.activities,
		})
	}
	return records
}

// Rank returns the current rank entry for a wallet in O(n).
// In-order traversal already yields leaderboard order, so no extra
// sorting pass is needed.
func (s *TreapStore) Rank(ctx context.Context, wallet string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byWallet[wallet]; !ok {
		return Entry{}, ErrNotFound
	}

	allEntries := make([]Entry, 0, len(s.byWallet))
	collectAll(s.root, s.byWallet, &allEntries)
	assignRanksWithTies(allEntries)

	for _, entry := range allEntries {
		if entry.Wallet == wallet {
			return entry, nil
		}
	}

	return Entry{}, ErrNotFound
}

// TopN returns the top-N entries ordered by points desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.byWallet, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of wallets.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byWallet)
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				walletCount := len(s.byWallet)
				s.mu.RUnlock()
				metrics.UpdateLedgerWallets(walletCount)
			}
		}
	}()
}
