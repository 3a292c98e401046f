package service

import (
	"github.com/lumina-social/lumina/internal/adapters/catalog"
	"github.com/lumina-social/lumina/internal/adapters/socialgraph"
	"github.com/lumina-social/lumina/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of valuation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the in-memory activity queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps the activity-id deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPointOverrides replaces default point values per action kind.
func WithPointOverrides(overrides map[string]int) Option {
	return func(s *Service) {
		s.pointOverrides = overrides
	}
}

// WithCatalogBaseURL points the catalog client at a different host.
func WithCatalogBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.catalogOpts = append(s.catalogOpts, catalog.WithBaseURL(u))
		}
	}
}

// WithCatalogAPIKey sets the catalog bearer token.
func WithCatalogAPIKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.catalogOpts = append(s.catalogOpts, catalog.WithAPIKey(key))
		}
	}
}

// WithSocialBaseURL points the social-graph client at a different host.
func WithSocialBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.socialOpts = append(s.socialOpts, socialgraph.WithBaseURL(u))
		}
	}
}

// WithSocialAPIKey sets the social-graph API key.
func WithSocialAPIKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.socialOpts = append(s.socialOpts, socialgraph.WithAPIKey(key))
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
