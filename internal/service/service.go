// Package service orchestrates a scrape: mode selection, page fetch,
// content extraction, table parsing and response-envelope assembly.
package service

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/extraction"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/metrics"
	"github.com/williampepple1/scrape-api/internal/scraper"
	"github.com/williampepple1/scrape-api/internal/store"
	"github.com/williampepple1/scrape-api/internal/table"
	"github.com/williampepple1/scrape-api/pkg/models"
)

// Service coordinates the scrapers, the extractor and the table engine.
type Service struct {
	cfg       *config.AppConfig
	static    scraper.Scraper
	dynamic   scraper.Scraper
	extractor *extraction.Extractor
	tables    *table.Parser
	store     store.Store
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// New creates a service with the default HTTP and browser scrapers.
func New(cfg *config.AppConfig, logger *logging.Logger) *Service {
	return &Service{
		cfg:       cfg,
		static:    scraper.NewHTTPScraper(cfg, logger),
		dynamic:   scraper.NewBrowserScraper(cfg, logger),
		extractor: extraction.NewExtractor(),
		tables:    table.NewParser(),
		logger:    logger,
	}
}

// WithStore enables scrape-history persistence.
func (s *Service) WithStore(st store.Store) *Service {
	s.store = st
	return s
}

// WithMetrics enables prometheus instrumentation.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// WithScrapers swaps the page fetchers, primarily for tests.
func (s *Service) WithScrapers(static, dynamic scraper.Scraper) *Service {
	s.static = static
	s.dynamic = dynamic
	return s
}

// Scrape runs one scrape request end to end. Failures are reported inside
// the response envelope; the error return of the transport layer never
// leaks to the caller.
func (s *Service) Scrape(ctx context.Context, req *models.ScrapeRequest) *models.ScrapeResponse {
	start := time.Now()
	mode := s.resolveMode(req)

	fetcher := s.static
	if mode == models.ModeDynamic {
		fetcher = s.dynamic
	}

	page, err := fetcher.Fetch(ctx, req)
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", req.URL), zap.Error(err))
		return s.finish(req, s.failure(mode, start, err.Error(), nil, 0))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return s.finish(req, s.failure(mode, start, "parsing page: "+err.Error(), nil, page.ActionsPerformed))
	}

	format := req.OutputFormat
	if format == "" {
		format = models.FormatJSON
	}

	content, debug, tableSel := s.extractor.Extract(doc, req.Extract, format)

	if req.Extract != nil && debug != nil && !debug.SelectorMatched {
		msg := "Extraction failed: selector '" + debug.SelectorUsed + "' matched 0 elements. " +
			"Possible issues: (1) Element hasn't appeared - try adding a wait action, " +
			"(2) Selector syntax is incorrect, (3) Element structure changed"
		return s.finish(req, s.failure(mode, start, msg, debug, page.ActionsPerformed))
	}

	var parsed []table.Record
	var tableMeta *table.Metadata
	if req.Extract != nil && req.Extract.ParseTable != nil && tableSel != nil {
		records, meta, err := s.tables.Parse(tableSel, *req.Extract.ParseTable)
		if err != nil {
			// Deterministic configuration problem; retrying cannot help,
			// so surface it to the caller.
			return s.finish(req, s.failure(mode, start, err.Error(), debug, page.ActionsPerformed))
		}
		parsed = records
		tableMeta = &meta
		if s.metrics != nil {
			s.metrics.ObserveTableParse(meta.NestedTablesFound)
		}
	}

	title := page.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	finalURL := page.URL
	if finalURL == "" {
		finalURL = req.URL
	}

	data := &models.ScrapeData{
		Content:       content,
		Title:         title,
		URL:           finalURL,
		Parsed:        parsed,
		TableMetadata: tableMeta,
	}
	// The full markup is only worth returning when nothing narrower was asked for.
	if req.Extract == nil {
		data.HTML = page.HTML
	}

	extracted := 0
	if debug != nil {
		extracted = debug.ElementsFound
	}

	resp := &models.ScrapeResponse{
		Success: true,
		Data:    data,
		Metadata: models.ScrapeMetadata{
			ScrapeMode:        mode,
			DurationMS:        time.Since(start).Milliseconds(),
			Timestamp:         time.Now().UTC(),
			ActionsPerformed:  page.ActionsPerformed,
			ExtractedElements: extracted,
			ExtractionDebug:   debug,
		},
	}
	if len(page.Screenshot) > 0 {
		resp.Screenshot = base64.StdEncoding.EncodeToString(page.Screenshot)
	}

	return s.finish(req, resp)
}

// resolveMode picks static or dynamic. Auto chooses the browser only when
// the request needs one: page actions or a screenshot.
func (s *Service) resolveMode(req *models.ScrapeRequest) string {
	switch req.Mode {
	case models.ModeStatic, models.ModeDynamic:
		return req.Mode
	}
	if (len(req.Actions) > 0 || req.Screenshot) && s.cfg.Scraper.EnableDynamic {
		return models.ModeDynamic
	}
	return models.ModeStatic
}

// failure builds a failed envelope with whatever context is known.
func (s *Service) failure(mode string, start time.Time, msg string, debug *models.ExtractionDebug, actions int) *models.ScrapeResponse {
	return &models.ScrapeResponse{
		Success: false,
		Metadata: models.ScrapeMetadata{
			ScrapeMode:       mode,
			DurationMS:       time.Since(start).Milliseconds(),
			Timestamp:        time.Now().UTC(),
			ActionsPerformed: actions,
			ExtractionDebug:  debug,
		},
		Error: msg,
	}
}

// finish records metrics and persists the outcome before returning it.
func (s *Service) finish(req *models.ScrapeRequest, resp *models.ScrapeResponse) *models.ScrapeResponse {
	if s.metrics != nil {
		s.metrics.ObserveScrape(resp.Metadata.ScrapeMode, resp.Success,
			time.Duration(resp.Metadata.DurationMS)*time.Millisecond)
	}
	if s.store != nil {
		go s.persist(req, resp)
	}
	return resp
}

// persist stores the outcome with its own deadline, detached from the
// request context. Persistence failures are logged, never surfaced.
func (s *Service) persist(req *models.ScrapeRequest, resp *models.ScrapeResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := &models.StoredScrape{
		Request: req,
		Content: resp.Data,
		Metadata: models.StoredMetadata{
			Success:    resp.Success,
			ScrapeMode: resp.Metadata.ScrapeMode,
			DurationMS: resp.Metadata.DurationMS,
		},
	}
	if _, err := s.store.Create(ctx, doc); err != nil {
		s.logger.Warn("storing scrape failed", zap.String("url", req.URL), zap.Error(err))
	}
}

// Available reports which scrapers the configuration enables, for /health.
func (s *Service) Available() map[string]string {
	status := func(enabled bool) string {
		if enabled {
			return "available"
		}
		return "unavailable"
	}
	return map[string]string{
		"static":  status(s.cfg.Scraper.EnableStatic),
		"dynamic": status(s.cfg.Scraper.EnableDynamic),
	}
}
