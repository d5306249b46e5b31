// Package cache decorates outbound repositories with in-memory caching.
package cache

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"snippetcorpus/internal/domain/entity"
	"snippetcorpus/internal/port/outbound"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const languagesKey = "languages"

// LanguageCachingRepository caches the distinct-language listing of a ChallengeRepository.
// Successful writes through this decorator invalidate the cache so newly stored languages
// show up immediately. Writes made by other processes, such as the import worker, are only
// seen once the entry expires.
type LanguageCachingRepository struct {
	outbound.ChallengeRepository

	languages *expirable.LRU[string, []string]
	// generation counts invalidations; a listing read across one is not cached.
	generation atomic.Uint64
}

// NewLanguageCachingRepository wraps next. Entries expire after ttl.
func NewLanguageCachingRepository(next outbound.ChallengeRepository, size int, ttl time.Duration) *LanguageCachingRepository {
	if next == nil {
		panic("challenge repository cannot be nil")
	}
	if size <= 0 {
		size = 1
	}
	return &LanguageCachingRepository{
		ChallengeRepository: next,
		languages:           expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

// FindDistinctLanguages serves the listing from cache when it is fresh.
func (r *LanguageCachingRepository) FindDistinctLanguages(ctx context.Context) ([]string, error) {
	if cached, ok := r.languages.Get(languagesKey); ok {
		return slices.Clone(cached), nil
	}
	generation := r.generation.Load()
	languages, err := r.ChallengeRepository.FindDistinctLanguages(ctx)
	if err != nil {
		return nil, err
	}
	if r.generation.Load() == generation {
		r.languages.Add(languagesKey, slices.Clone(languages))
	}
	return languages, nil
}

// UpsertBatch writes through and invalidates the listing.
func (r *LanguageCachingRepository) UpsertBatch(ctx context.Context, challenges []*entity.Challenge) error {
	if err := r.ChallengeRepository.UpsertBatch(ctx, challenges); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Save writes through and invalidates the listing.
func (r *LanguageCachingRepository) Save(ctx context.Context, challenge *entity.Challenge) error {
	if err := r.ChallengeRepository.Save(ctx, challenge); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

func (r *LanguageCachingRepository) invalidate() {
	r.generation.Add(1)
	r.languages.Purge()
}
