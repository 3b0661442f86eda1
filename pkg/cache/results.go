package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
)

// ResultStore keeps the last DomainResult of every domain.
type ResultStore struct {
	store Store
}

// NewResultStore creates a result store on top of store.
func NewResultStore(store Store) *ResultStore {
	return &ResultStore{store: store}
}

// Previous returns the stored result for domain.
// Returns ErrCacheMiss if the domain was never stored.
func (s *ResultStore) Previous(ctx context.Context, domain string) (pagination.DomainResult, error) {
	entry, err := s.store.Get(ctx, ResultKey(domain))
	if err != nil {
		return pagination.DomainResult{}, err
	}

	var result pagination.DomainResult
	if err := json.Unmarshal(entry.Data, &result); err != nil {
		return pagination.DomainResult{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return result, nil
}

// Save stores result as the latest one for its domain. It never expires.
func (s *ResultStore) Save(ctx context.Context, result pagination.DomainResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.store.Set(ctx, ResultKey(result.Domain), &Entry{Data: data, CachedAt: time.Now()})
}
