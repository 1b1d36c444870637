// Package scraper fetches pages either over plain HTTP or through a headless
// browser, returning the rendered markup for extraction downstream.
package scraper

import (
	"context"

	"github.com/williampepple1/scrape-api/pkg/models"
)

// Page is the raw outcome of fetching one URL. The markup is copied out of
// whatever produced it; no live DOM or browser handles escape the fetch.
type Page struct {
	URL              string // final URL after redirects
	HTML             string
	Title            string
	StatusCode       int
	Screenshot       []byte // PNG, when requested
	ActionsPerformed int
	Retries          int
	ProxyUsed        string
}

// Scraper defines the interface for a page fetcher
type Scraper interface {
	Fetch(ctx context.Context, req *models.ScrapeRequest) (*Page, error)
}
