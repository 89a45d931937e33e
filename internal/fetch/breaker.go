package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// DefaultTripThreshold is the number of consecutive failures that opens a host's breaker.
const DefaultTripThreshold = 5

// BreakerFetcher wraps a Fetcher with one circuit breaker per host.
// A missing resource is an answer, not a failure, and never counts towards tripping.
type BreakerFetcher struct {
	fetcher   *Fetcher
	threshold int64
	breakers  map[string]*circuit.Breaker
	mu        sync.RWMutex
}

// NewBreakerFetcher creates a circuit breaker wrapper for a fetcher.
func NewBreakerFetcher(f *Fetcher) *BreakerFetcher {
	return &BreakerFetcher{
		fetcher:   f,
		threshold: DefaultTripThreshold,
		breakers:  make(map[string]*circuit.Breaker),
	}
}

// Close releases the underlying fetcher.
func (bf *BreakerFetcher) Close() {
	bf.fetcher.Close()
}

func (bf *BreakerFetcher) getBreaker(host string) *circuit.Breaker {
	bf.mu.RLock()
	breaker, exists := bf.breakers[host]
	bf.mu.RUnlock()

	if exists {
		return breaker
	}

	bf.mu.Lock()
	defer bf.mu.Unlock()

	if breaker, exists := bf.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(bf.threshold),
	})
	bf.breakers[host] = breaker
	return breaker
}

// call runs fn through the host's breaker. ErrNotFound passes through without
// being recorded as a failure.
func (bf *BreakerFetcher) call(rawURL string, fn func() error) error {
	host := extractHost(rawURL)
	breaker := bf.getBreaker(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for host %s: %w", host, ErrUpstreamDown)
	}

	var notFound bool
	err := breaker.Call(func() error {
		err := fn()
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil
		}
		return err
	}, 0)
	if notFound {
		return ErrNotFound
	}
	return err
}

// Fetch wraps the underlying fetcher's Fetch with circuit breaker logic.
func (bf *BreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Resource, error) {
	var res *Resource
	err := bf.call(fetchURL, func() error {
		var fetchErr error
		res, fetchErr = bf.fetcher.Fetch(ctx, fetchURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Head wraps the underlying fetcher's Head with circuit breaker logic.
func (bf *BreakerFetcher) Head(ctx context.Context, headURL string) (size int64, contentType string, err error) {
	err = bf.call(headURL, func() error {
		var headErr error
		size, contentType, headErr = bf.fetcher.Head(ctx, headURL)
		return headErr
	})
	return size, contentType, err
}

// extractHost returns the host a URL's breaker is keyed on.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerState returns "open" or "closed" for every host seen so far.
func (bf *BreakerFetcher) BreakerState() map[string]string {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range bf.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
