package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/williampepple1/scrape-api/pkg/models"
)

// MemoryStore keeps scrape history in process memory. Used when persistence
// is disabled and by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	scrapes []models.StoredScrape
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, doc *models.StoredScrape) (string, error) {
	now := time.Now().UTC()
	doc.ScrapeID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	s.mu.Lock()
	s.scrapes = append(s.scrapes, *doc)
	s.mu.Unlock()

	return doc.ScrapeID, nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(_ context.Context, scrapeID string) (*models.StoredScrape, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.scrapes {
		if s.scrapes[i].ScrapeID == scrapeID {
			found := s.scrapes[i]
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// Find implements Store.
func (s *MemoryStore) Find(_ context.Context, q Query) ([]models.StoredScrape, int64, error) {
	s.mu.RLock()
	var matched []models.StoredScrape
	for _, doc := range s.scrapes {
		if matches(doc, q) {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []models.StoredScrape{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context, from, to time.Time) ([]models.ScrapeStatistics, error) {
	type bucket struct {
		count int64
		total int64
	}

	s.mu.RLock()
	buckets := make(map[models.StoredMetadata]*bucket)
	for _, doc := range s.scrapes {
		if doc.CreatedAt.Before(from) || doc.CreatedAt.After(to) {
			continue
		}
		key := models.StoredMetadata{Success: doc.Metadata.Success, ScrapeMode: doc.Metadata.ScrapeMode}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.total += doc.Metadata.DurationMS
	}
	s.mu.RUnlock()

	stats := make([]models.ScrapeStatistics, 0, len(buckets))
	for key, b := range buckets {
		stats = append(stats, models.ScrapeStatistics{
			Mode:          key.ScrapeMode,
			Success:       key.Success,
			Count:         b.count,
			AvgDurationMS: float64(b.total) / float64(b.count),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Mode != stats[j].Mode {
			return stats[i].Mode < stats[j].Mode
		}
		return stats[i].Success && !stats[j].Success
	})
	return stats, nil
}

// Close implements Store.
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

func matches(doc models.StoredScrape, q Query) bool {
	if q.URL != "" && (doc.Request == nil || doc.Request.URL != q.URL) {
		return false
	}
	if q.Mode != "" && doc.Metadata.ScrapeMode != q.Mode {
		return false
	}
	if q.Success != nil && doc.Metadata.Success != *q.Success {
		return false
	}
	if q.From != nil && doc.CreatedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && doc.CreatedAt.After(*q.To) {
		return false
	}
	return true
}
