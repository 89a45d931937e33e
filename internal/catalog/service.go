package catalog

import (
	"EasyDockerDeploy/internal/cache"
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/logger"
	"context"
	"time"
)

// DefaultServiceTTL is how long the service trusts its cached applications.
const DefaultServiceTTL = time.Hour

// DefaultScraperTTL is the longer lifetime used for the raw scraper cache key.
const DefaultScraperTTL = 24 * time.Hour

// Source provides the raw markdown document.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// Cache is the subset of cache.Store the service needs.
type Cache interface {
	Load(key string) *cache.Entry[Application]
	Save(key string, apps []Application) error
	IsValid(entry *cache.Entry[Application], ttl time.Duration) bool
	Clear(keys ...string) error
	Stat(key string) cache.Status
}

// Service returns applications from the cache while it is fresh and
// refreshes it from the source otherwise.
type Service struct {
	source    Source
	store     Cache
	key       string
	ttl       time.Duration
	heuristic *Heuristic

	diagnostics []Diagnostic
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCacheKey sets the key the service reads and writes.
func WithCacheKey(key string) ServiceOption {
	return func(s *Service) {
		s.key = key
	}
}

// WithTTL sets how long cached applications are used.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithHeuristic sets the Docker-readiness heuristic used when parsing.
func WithHeuristic(h *Heuristic) ServiceOption {
	return func(s *Service) {
		s.heuristic = h
	}
}

// NewService creates a service reading from source and caching in store.
func NewService(source Source, store Cache, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		store:  store,
		key:    constants.ServiceCacheKey,
		ttl:    DefaultServiceTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.heuristic == nil {
		s.heuristic = NewHeuristic(nil)
	}
	return s
}

// CacheKey returns the key this service caches under.
func (s *Service) CacheKey() string {
	return s.key
}

// GetApplications returns the cached applications when they are still valid
// and forceRefresh is false. Otherwise it fetches and parses the document,
// saves the result and returns it. Only *ContentFetchError and *ParseError
// are returned; a failed save is logged.
func (s *Service) GetApplications(ctx context.Context, forceRefresh bool) ([]Application, error) {
	if !forceRefresh {
		if entry := s.store.Load(s.key); entry != nil && s.store.IsValid(entry, s.ttl) {
			logger.Debug(ctx, "Using cached application list ({{_Highlight_}}%d{{|-|}} entries).", len(entry.Applications))
			return entry.Applications, nil
		}
	}

	logger.Info(ctx, "Fetching application list from {{_URL_}}%s{{|-|}}", s.source)
	document, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, &ContentFetchError{Source: s.source.String(), Err: err}
	}

	parser := NewParser(s.heuristic)
	apps, err := parser.Parse(ctx, document)
	if err != nil {
		return nil, err
	}
	s.diagnostics = parser.Diagnostics()

	if err := s.store.Save(s.key, apps); err != nil {
		logger.Warn(ctx, "Failed to cache the application list: %v", err)
	}
	logger.Info(ctx, "Parsed {{_Highlight_}}%d{{|-|}} applications.", len(apps))
	return apps, nil
}

// Catalog wraps GetApplications in a Catalog snapshot.
func (s *Service) Catalog(ctx context.Context, forceRefresh bool) (*Catalog, error) {
	apps, err := s.GetApplications(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return NewCatalog(apps), nil
}

// ClearCache removes the given cache keys, or every cached record when no
// key is given.
func (s *Service) ClearCache(keys ...string) error {
	return s.store.Clear(keys...)
}

// CacheStatus reports on the service's cache record.
func (s *Service) CacheStatus() cache.Status {
	return s.store.Stat(s.key)
}

// TTL returns how long cached applications are used.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Diagnostics returns the warnings of the most recent parse done by this service.
func (s *Service) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// NewScraper creates a service for probed parses, cached under the scraper
// key with DefaultScraperTTL.
func NewScraper(source Source, store Cache, h *Heuristic) *Service {
	return NewService(source, store,
		WithCacheKey(constants.ScraperCacheKey),
		WithTTL(DefaultScraperTTL),
		WithHeuristic(h),
	)
}
