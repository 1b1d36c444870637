package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/proxy"
	"github.com/williampepple1/scrape-api/pkg/models"
)

// HTTPScraper implements static scraping over plain HTTP
type HTTPScraper struct {
	Config *config.AppConfig
	Proxy  *proxy.Manager
	Logger *logging.Logger
}

// NewHTTPScraper creates a new HTTP scraper
func NewHTTPScraper(cfg *config.AppConfig, logger *logging.Logger) *HTTPScraper {
	return &HTTPScraper{
		Config: cfg,
		Proxy:  proxy.NewManager(&cfg.Proxies),
		Logger: logger,
	}
}

// Fetch retrieves the page, retrying with backoff. The user agent rotates
// per attempt and, when enabled, the proxy rotates as well. That is why the
// retry loop lives here rather than in a retrying client.
func (s *HTTPScraper) Fetch(ctx context.Context, req *models.ScrapeRequest) (*Page, error) {
	transport := &http.Transport{}
	proxyUsed := ""

	if s.Config.Proxies.Enabled && len(s.Config.Proxies.List) > 0 {
		applied, err := s.Proxy.ApplyToTransport(transport)
		if err != nil {
			return nil, fmt.Errorf("applying proxy: %w", err)
		}
		proxyUsed = applied
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   s.Config.Scraper.Timeout,
	}

	var lastErr error
	statusCode := 0

	for retries := 0; retries <= s.Config.Scraper.MaxRetries; retries++ {
		if retries > 0 {
			retryWait := s.Config.Scraper.RetryDelay * time.Duration(retries)
			s.Logger.Debug("retrying fetch",
				zap.String("url", req.URL),
				zap.Int("attempt", retries),
				zap.Int("max_retries", s.Config.Scraper.MaxRetries))
			select {
			case <-time.After(retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			if s.Config.Proxies.Enabled && s.Config.Proxies.Rotate && len(s.Config.Proxies.List) > 1 {
				proxyUsed, _ = s.Proxy.ApplyToTransport(transport)
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		if agents := s.Config.Scraper.UserAgents; len(agents) > 0 {
			httpReq.Header.Set("User-Agent", agents[rand.Intn(len(agents))])
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}

		statusCode = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, s.Config.Scraper.MaxBodySize))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return &Page{
			URL:        resp.Request.URL.String(),
			HTML:       decodeToUTF8(body),
			StatusCode: statusCode,
			Retries:    retries,
			ProxyUsed:  proxyUsed,
		}, nil
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %w", s.Config.Scraper.MaxRetries, lastErr)
}

// decodeToUTF8 converts the body to UTF-8 using charset detection, falling
// back to the raw bytes when detection or decoding fails.
func decodeToUTF8(body []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(body)
	if err != nil || result == nil {
		return string(body)
	}

	name := strings.ToLower(result.Charset)
	if name == "utf-8" || name == "ascii" {
		return string(body)
	}

	reader, err := charset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
