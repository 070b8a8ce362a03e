package vectorstore

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore with brute-force cosine search.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Point)}
}

// Upsert inserts or replaces points.
func (s *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]Point)
		s.collections[collection] = c
	}
	for _, p := range points {
		c[p.ID] = Point{
			ID:   p.ID,
			Vec:  slices.Clone(p.Vec),
			Meta: maps.Clone(p.Meta),
		}
	}
	return nil
}

// Search ranks matching points by cosine distance.
func (s *MemoryStore) Search(_ context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, p := range s.collections[collection] {
		if !filter.Matches(p.Meta) {
			continue
		}
		results = append(results, SearchResult{
			PointID:  p.ID,
			Distance: 1 - cosine(query, p.Vec),
			Meta:     maps.Clone(p.Meta),
		})
	}

	SortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Scroll lists matching points by sequence number, then id.
func (s *MemoryStore) Scroll(_ context.Context, collection string, filter Filter, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for id, p := range s.collections[collection] {
		if !filter.Matches(p.Meta) {
			continue
		}
		results = append(results, SearchResult{PointID: id, Meta: maps.Clone(p.Meta)})
	}
	sort.Slice(results, func(i, j int) bool { return lessBySeq(results[i], results[j]) })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of matching points.
func (s *MemoryStore) Count(_ context.Context, collection string, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.collections[collection] {
		if filter.Matches(p.Meta) {
			n++
		}
	}
	return n, nil
}

// Delete removes points by id.
func (s *MemoryStore) Delete(_ context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collection]
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}

// DeleteByFilter removes every matching point. An empty filter is rejected.
func (s *MemoryStore) DeleteByFilter(_ context.Context, collection string, filter Filter) error {
	if filter.IsEmpty() {
		return fmt.Errorf("refusing to delete with an empty filter")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collection]
	for id, p := range c {
		if filter.Matches(p.Meta) {
			delete(c, id)
		}
	}
	return nil
}

// Health always succeeds.
func (s *MemoryStore) Health(context.Context) error {
	return nil
}

// cosine returns the cosine similarity of a and b, or 0 if either is a zero vector
// or their dimensions differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
