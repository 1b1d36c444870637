package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/scrape-api/pkg/models"
)

func storedDoc(url, mode string, success bool, duration int64) *models.StoredScrape {
	return &models.StoredScrape{
		Request: &models.ScrapeRequest{URL: url},
		Content: &models.ScrapeData{URL: url},
		Metadata: models.StoredMetadata{
			Success:    success,
			ScrapeMode: mode,
			DurationMS: duration,
		},
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, storedDoc("https://example.com", "static", true, 120))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", doc.Request.URL)
	assert.Equal(t, id, doc.ScrapeID)
	assert.False(t, doc.CreatedAt.IsZero())

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFindFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, storedDoc("https://a.test", "static", true, 100))
	require.NoError(t, err)
	_, err = s.Create(ctx, storedDoc("https://b.test", "dynamic", false, 900))
	require.NoError(t, err)
	_, err = s.Create(ctx, storedDoc("https://a.test", "static", false, 300))
	require.NoError(t, err)

	results, total, err := s.Find(ctx, Query{URL: "https://a.test"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, results, 2)

	failed := false
	results, total, err = s.Find(ctx, Query{Success: &failed})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, doc := range results {
		assert.False(t, doc.Metadata.Success)
	}

	results, total, err = s.Find(ctx, Query{Mode: "dynamic"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "https://b.test", results[0].Request.URL)
}

func TestMemoryStoreFindPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, storedDoc("https://example.com", "static", true, 100))
		require.NoError(t, err)
	}

	results, total, err := s.Find(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, results, 2)

	results, total, err = s.Find(ctx, Query{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, results, 1)

	results, _, err = s.Find(ctx, Query{Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, storedDoc("https://a.test", "static", true, 100))
	require.NoError(t, err)
	_, err = s.Create(ctx, storedDoc("https://b.test", "static", true, 300))
	require.NoError(t, err)
	_, err = s.Create(ctx, storedDoc("https://c.test", "dynamic", false, 1000))
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	stats, err := s.Stats(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "dynamic", stats[0].Mode)
	assert.False(t, stats[0].Success)
	assert.EqualValues(t, 1, stats[0].Count)

	assert.Equal(t, "static", stats[1].Mode)
	assert.True(t, stats[1].Success)
	assert.EqualValues(t, 2, stats[1].Count)
	assert.InDelta(t, 200, stats[1].AvgDurationMS, 0.001)
}

func TestMemoryStoreStatsWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, storedDoc("https://a.test", "static", true, 100))
	require.NoError(t, err)

	past := time.Now().UTC().Add(-2 * time.Hour)
	stats, err := s.Stats(ctx, past.Add(-time.Hour), past)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
