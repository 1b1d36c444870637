// Package store persists scrape results for the history endpoints. A
// MongoDB-backed implementation is used in production; an in-memory one
// serves tests and deployments without persistence.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/williampepple1/scrape-api/pkg/models"
)

// ErrNotFound is returned when no scrape matches the requested id.
var ErrNotFound = errors.New("scrape not found")

// Query filters stored scrapes. Zero values mean "no filter".
type Query struct {
	URL     string
	Mode    string
	Success *bool
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// Store defines scrape-history persistence
type Store interface {
	// Create inserts a new scrape document, assigning its id and timestamps,
	// and returns the assigned id.
	Create(ctx context.Context, doc *models.StoredScrape) (string, error)
	// GetByID returns the scrape with the given id or ErrNotFound.
	GetByID(ctx context.Context, scrapeID string) (*models.StoredScrape, error)
	// Find returns matching scrapes newest first plus the total match count.
	Find(ctx context.Context, q Query) ([]models.StoredScrape, int64, error)
	// Stats aggregates count and average duration by mode and outcome over
	// the given window.
	Stats(ctx context.Context, from, to time.Time) ([]models.ScrapeStatistics, error)
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
