package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDomainsTTL is how long a fetched domain list is served without refetching.
const DefaultDomainsTTL = 10 * time.Minute

// DomainLister is implemented by client.Client.
type DomainLister interface {
	FetchDomains(ctx context.Context) ([]string, error)
}

// CachedLister serves the domain directory from cache while fresh and falls
// back to the last stored list when the directory endpoint fails.
type CachedLister struct {
	source DomainLister
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedLister wraps source. A ttl <= 0 uses DefaultDomainsTTL.
func NewCachedLister(source DomainLister, store Store, ttl time.Duration) *CachedLister {
	if ttl <= 0 {
		ttl = DefaultDomainsTTL
	}
	return &CachedLister{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: log.With().Str("component", "cache").Logger(),
	}
}

// FetchDomains returns the cached list when fresh, otherwise fetches it.
// A failed fetch is answered from a stale copy if one exists.
func (l *CachedLister) FetchDomains(ctx context.Context) ([]string, error) {
	key := DomainsKey()

	if entry, err := l.store.Get(ctx, key); err == nil {
		if domains, err := decodeDomains(entry); err == nil {
			l.logger.Debug().Int("domains", len(domains)).Dur("age", entry.Age()).Msg("Domain list served from cache")
			return domains, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		l.logger.Warn().Err(err).Msg("Domain list cache read failed")
	}

	domains, fetchErr := l.source.FetchDomains(ctx)
	if fetchErr == nil {
		l.save(ctx, domains)
		return domains, nil
	}

	entry, err := l.store.GetStale(ctx, key)
	if err != nil {
		return nil, fetchErr
	}
	stale, err := decodeDomains(entry)
	if err != nil {
		return nil, fetchErr
	}

	CacheFallbacks.Inc()
	l.logger.Warn().
		Err(fetchErr).
		Int("domains", len(stale)).
		Time("cached_at", entry.CachedAt).
		Msg("Domain directory unavailable, serving cached list")
	return stale, nil
}

func (l *CachedLister) save(ctx context.Context, domains []string) {
	data, err := json.Marshal(domains)
	if err != nil {
		return
	}
	now := time.Now()
	entry := &Entry{Data: data, Expires: now.Add(l.ttl), CachedAt: now}
	if err := l.store.Set(ctx, DomainsKey(), entry); err != nil {
		l.logger.Warn().Err(err).Msg("Domain list cache write failed")
	}
}

func decodeDomains(entry *Entry) ([]string, error) {
	var domains []string
	if err := json.Unmarshal(entry.Data, &domains); err != nil {
		return nil, err
	}
	return domains, nil
}
