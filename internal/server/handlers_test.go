package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/metrics"
	"github.com/williampepple1/scrape-api/internal/scraper"
	"github.com/williampepple1/scrape-api/internal/service"
	"github.com/williampepple1/scrape-api/internal/store"
	"github.com/williampepple1/scrape-api/pkg/models"
)

type stubScraper struct {
	html string
}

func (s *stubScraper) Fetch(_ context.Context, req *models.ScrapeRequest) (*scraper.Page, error) {
	return &scraper.Page{URL: req.URL, HTML: s.html, Title: "Stub"}, nil
}

const stubHTML = `<html><head><title>Stub</title></head><body><h1>Hello</h1></body></html>`

func testServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Worker.RateLimit = 1 // effectively no throttling in tests
	logger := logging.NewNop()

	st := store.NewMemoryStore()
	stub := &stubScraper{html: stubHTML}
	svc := service.New(cfg, logger).WithScrapers(stub, stub)

	return New(cfg, svc, st, metrics.New(), logger), st
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, "available", health.Scrapers["static"])
}

func TestScrapeEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/scrape", models.ScrapeRequest{
		URL:     "https://example.com",
		Extract: &models.Extraction{Selector: "h1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Hello", resp.Data.Content)
}

func TestScrapeValidation(t *testing.T) {
	srv, _ := testServer(t)

	cases := []struct {
		name string
		req  models.ScrapeRequest
	}{
		{"missing url", models.ScrapeRequest{}},
		{"bad scheme", models.ScrapeRequest{URL: "ftp://example.com/file"}},
		{"no host", models.ScrapeRequest{URL: "https://"}},
		{"unknown mode", models.ScrapeRequest{URL: "https://example.com", Mode: "turbo"}},
		{"unknown format", models.ScrapeRequest{URL: "https://example.com", OutputFormat: "yaml"}},
		{"unknown action", models.ScrapeRequest{
			URL:     "https://example.com",
			Actions: []models.Action{{Type: "hover"}},
		}},
		{"url too long", models.ScrapeRequest{
			URL: "https://example.com/" + strings.Repeat("x", 3000),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, "/scrape", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestScrapeDisabledMode(t *testing.T) {
	srv, _ := testServer(t)
	srv.config.Scraper.EnableDynamic = false

	w := doRequest(t, srv, http.MethodPost, "/scrape", models.ScrapeRequest{
		URL:  "https://example.com",
		Mode: models.ModeDynamic,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchScrapeEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/scrape/batch", models.BatchScrapeRequest{
		URLs: []string{"https://a.test", "https://b.test"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.BatchScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Len(t, resp.Results, 2)
}

func TestBatchScrapeValidation(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(t, srv, http.MethodPost, "/scrape/batch", models.BatchScrapeRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	urls := make([]string, srv.config.Worker.MaxURLs+1)
	for i := range urls {
		urls[i] = "https://example.com"
	}
	w = doRequest(t, srv, http.MethodPost, "/scrape/batch", models.BatchScrapeRequest{URLs: urls})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/scrape/batch", models.BatchScrapeRequest{
		URLs: []string{"https://ok.test", "ftp://bad.test"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListScrapes(t *testing.T) {
	srv, st := testServer(t)

	_, err := st.Create(context.Background(), &models.StoredScrape{
		Request:  &models.ScrapeRequest{URL: "https://example.com"},
		Metadata: models.StoredMetadata{Success: true, ScrapeMode: "static"},
	})
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodGet, "/scrapes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScrapeQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://example.com", resp.Results[0].Request.URL)

	w = doRequest(t, srv, http.MethodGet, "/scrapes?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/scrapes?limit=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/scrapes?success=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScrapeByID(t *testing.T) {
	srv, st := testServer(t)

	id, err := st.Create(context.Background(), &models.StoredScrape{
		Request:  &models.ScrapeRequest{URL: "https://example.com"},
		Metadata: models.StoredMetadata{Success: true, ScrapeMode: "static"},
	})
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodGet, "/scrapes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.StoredScrape
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, id, doc.ScrapeID)

	w = doRequest(t, srv, http.MethodGet, "/scrapes/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScrapeStatsEndpoint(t *testing.T) {
	srv, st := testServer(t)

	_, err := st.Create(context.Background(), &models.StoredScrape{
		Request:  &models.ScrapeRequest{URL: "https://example.com"},
		Metadata: models.StoredMetadata{Success: true, ScrapeMode: "static", DurationMS: 120},
	})
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodGet, "/scrapes/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stats []models.ScrapeStatistics `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, "static", resp.Stats[0].Mode)
	assert.EqualValues(t, 1, resp.Stats[0].Count)

	w = doRequest(t, srv, http.MethodGet, "/scrapes/stats/summary?from=notatime", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
