package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// CacheObserver is notified of snapshot cache lookups.
type CacheObserver interface {
	ObserveSnapshotLookup(hit bool)
}

// snapshot is one merged, sorted and capped fetch of all three collections.
// It is never mutated after construction.
type snapshot struct {
	items             []domain.Diagnosis
	brainTumorTotal   int
	breastCancerTotal int
	strokeTotal       int
}

func (s *snapshot) total() int {
	return s.brainTumorTotal + s.breastCancerTotal + s.strokeTotal
}

// page slices [skip, skip+limit) out of the snapshot. Arguments must already
// be non-negative.
func (s *snapshot) page(skip, limit int) *DiagnosisPage {
	start := min(skip, len(s.items))
	end := start + min(limit, len(s.items)-start)

	results := make([]domain.Diagnosis, end-start)
	copy(results, s.items[start:end])

	return &DiagnosisPage{
		Results:           results,
		Total:             s.total(),
		BrainTumorTotal:   s.brainTumorTotal,
		BreastCancerTotal: s.breastCancerTotal,
		StrokeTotal:       s.strokeTotal,
	}
}

// SnapshotCache keeps each user's latest merged snapshot so consecutive page
// requests slice the same fixed point. A nil *SnapshotCache is disabled.
type SnapshotCache struct {
	lru      *expirable.LRU[string, *snapshot]
	observer CacheObserver
}

// NewSnapshotCache returns nil when size is not positive.
func NewSnapshotCache(size int, ttl time.Duration, observer CacheObserver) *SnapshotCache {
	if size <= 0 {
		return nil
	}
	return &SnapshotCache{
		lru:      expirable.NewLRU[string, *snapshot](size, nil, ttl),
		observer: observer,
	}
}

func (c *SnapshotCache) get(userKey string) (*snapshot, bool) {
	if c == nil || userKey == "" {
		return nil, false
	}
	snap, ok := c.lru.Get(userKey)
	if c.observer != nil {
		c.observer.ObserveSnapshotLookup(ok)
	}
	return snap, ok
}

func (c *SnapshotCache) add(userKey string, snap *snapshot) {
	if c == nil || userKey == "" {
		return
	}
	c.lru.Add(userKey, snap)
}

// Invalidate drops the snapshot held for userKey.
func (c *SnapshotCache) Invalidate(userKey string) {
	if c == nil {
		return
	}
	c.lru.Remove(userKey)
}

// Len reports the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
