// Package dedupe tracks already-seen activity ids so the ingestion pipeline
// stays idempotent.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Deduper records seen activity ids for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set. Used to roll back the seen
	// mark when an activity could not be enqueued after all.
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked ids.
	Size() int64
}

// generationDeduper implements Deduper with two rotating map generations.
// When the current generation fills up it becomes the previous generation
// and a fresh map takes over, so memory stays bounded at roughly twice
// maxSize while recent ids keep being recognized.
type generationDeduper struct {
	mu       sync.Mutex
	current  map[string]struct{}
	previous map[string]struct{}
	maxSize  int
	size     atomic.Int64
}

// Option applies a configuration option to the deduper.
type Option func(*generationDeduper)

// WithMaxSize bounds each generation. Non-positive values keep the default.
func WithMaxSize(maxSize int) Option {
	return func(d *generationDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// New creates a bounded in-memory deduper.
func New(opts ...Option) Deduper {
	d := &generationDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.current = make(map[string]struct{}, d.maxSize)
	d.previous = map[string]struct{}{}
	return d
}

func (d *generationDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.current[id]; ok {
		return true
	}
	if _, ok := d.previous[id]; ok {
		return true
	}

	if len(d.current) >= d.maxSize {
		d.size.Add(-int64(len(d.previous)))
		d.previous = d.current
		d.current = make(map[string]struct{}, d.maxSize)
	}
	d.current[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *generationDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.current[id]; ok {
		delete(d.current, id)
		d.size.Add(-1)
		return
	}
	if _, ok := d.previous[id]; ok {
		delete(d.previous, id)
		d.size.Add(-1)
	}
}

func (d *generationDeduper) Size() int64 {
	return d.size.Load()
}
