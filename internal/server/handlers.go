package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/store"
	"github.com/williampepple1/scrape-api/internal/worker"
	"github.com/williampepple1/scrape-api/pkg/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	defaultStatsSpan = 7 * 24 * time.Hour
)

// handleHealth reports service status and which scrapers are enabled.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "healthy",
		Version:  Version,
		Scrapers: s.service.Available(),
	})
}

// handleScrape runs a single scrape. Transport-level problems are HTTP
// errors; scrape failures come back 200 with success=false.
func (s *Server) handleScrape(c *gin.Context) {
	var req models.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := s.validateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.service.Scrape(c.Request.Context(), &req))
}

// handleBatchScrape scrapes a list of URLs through the worker pool, applying
// the same options to each.
func (s *Server) handleBatchScrape(c *gin.Context) {
	var batch models.BatchScrapeRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(batch.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls is required"})
		return
	}
	if max := s.config.Worker.MaxURLs; len(batch.URLs) > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("too many urls: %d exceeds the limit of %d", len(batch.URLs), max)})
		return
	}

	reqs := make([]*models.ScrapeRequest, 0, len(batch.URLs))
	for _, u := range batch.URLs {
		req := &models.ScrapeRequest{
			URL:          u,
			Mode:         batch.Mode,
			Extract:      batch.Extract,
			OutputFormat: batch.OutputFormat,
		}
		if err := s.validateRequest(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": u + ": " + err.Error()})
			return
		}
		reqs = append(reqs, req)
	}

	pool := worker.NewPool(&s.config.Worker, s.service.Scrape, len(reqs), s.logger)
	pool.Start(c.Request.Context())
	pool.AddJobs(reqs)

	c.JSON(http.StatusOK, pool.Collect())
}

// handleListScrapes queries stored scrape history.
func (s *Server) handleListScrapes(c *gin.Context) {
	q := store.Query{
		URL:    c.Query("url"),
		Mode:   c.Query("mode"),
		Limit:  defaultListLimit,
		Offset: 0,
	}

	if v := c.Query("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "success must be true or false"})
			return
		}
		q.Success = &success
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		q.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		q.To = &t
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxListLimit)})
			return
		}
		q.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		q.Offset = offset
	}

	results, total, err := s.store.Find(c.Request.Context(), q)
	if err != nil {
		s.logger.Error("querying scrapes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "querying scrapes failed"})
		return
	}

	c.JSON(http.StatusOK, models.ScrapeQueryResponse{
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		Results: results,
	})
}

// handleGetScrape fetches one stored scrape by id.
func (s *Server) handleGetScrape(c *gin.Context) {
	doc, err := s.store.GetByID(c.Request.Context(), c.Param("id"))
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "scrape not found"})
		return
	}
	if err != nil {
		s.logger.Error("fetching scrape failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetching scrape failed"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// handleScrapeStats aggregates outcomes over a time window, defaulting to
// the last seven days.
func (s *Server) handleScrapeStats(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-defaultStatsSpan)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		to = t
	}

	stats, err := s.store.Stats(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("aggregating scrape statistics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregating statistics failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":  from,
		"to":    to,
		"stats": stats,
	})
}

// validateRequest rejects requests the configuration does not allow before
// any network traffic happens.
func (s *Server) validateRequest(req *models.ScrapeRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.URL) > s.config.Scraper.MaxURLLength {
		return fmt.Errorf("url exceeds the maximum length of %d", s.config.Scraper.MaxURLLength)
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	allowed := false
	for _, scheme := range s.config.Scraper.AllowedSchemes {
		if parsed.Scheme == scheme {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("url scheme %q is not allowed", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url has no host")
	}

	switch req.Mode {
	case "", models.ModeAuto:
	case models.ModeStatic:
		if !s.config.Scraper.EnableStatic {
			return fmt.Errorf("static scraping is disabled")
		}
	case models.ModeDynamic:
		if !s.config.Scraper.EnableDynamic {
			return fmt.Errorf("dynamic scraping is disabled")
		}
	default:
		return fmt.Errorf("mode must be auto, static or dynamic")
	}

	if req.Screenshot && !s.config.Scraper.EnableScreenshots {
		return fmt.Errorf("screenshots are disabled")
	}

	switch req.OutputFormat {
	case "", models.FormatJSON, models.FormatText, models.FormatHTML, models.FormatMarkdown:
	default:
		return fmt.Errorf("output_format must be json, text, html or markdown")
	}

	for _, a := range req.Actions {
		switch a.Type {
		case models.ActionClick, models.ActionType, models.ActionWait,
			models.ActionScroll, models.ActionScreenshot:
		default:
			return fmt.Errorf("unknown action type %q", a.Type)
		}
	}

	return nil
}
