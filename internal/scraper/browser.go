package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/proxy"
	"github.com/williampepple1/scrape-api/pkg/models"
)

// BrowserScraper implements dynamic scraping through a headless browser,
// executing the request's user-interaction steps before reading the page.
type BrowserScraper struct {
	Config *config.AppConfig
	Proxy  *proxy.Manager
	Logger *logging.Logger
}

// NewBrowserScraper creates a new browser scraper
func NewBrowserScraper(cfg *config.AppConfig, logger *logging.Logger) *BrowserScraper {
	return &BrowserScraper{
		Config: cfg,
		Proxy:  proxy.NewManager(&cfg.Proxies),
		Logger: logger,
	}
}

// Fetch renders the URL in a browser, runs the configured actions and
// returns the rendered markup plus an optional screenshot.
func (s *BrowserScraper) Fetch(ctx context.Context, req *models.ScrapeRequest) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.Scraper.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Config.Browser.Headless),
		chromedp.UserAgent(s.Config.Browser.UserAgent),
	)
	if addr := s.Proxy.ServerAddress(); addr != "" {
		opts = append(opts, chromedp.ProxyServer(addr))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var (
		html       string
		title      string
		finalURL   string
		screenshot []byte
	)

	tasks := []chromedp.Action{
		chromedp.Navigate(req.URL),
		chromedp.Sleep(s.Config.Browser.WaitTime),
	}

	actionsPerformed := 0
	for _, action := range req.Actions {
		step, err := s.buildAction(action)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, step)
		actionsPerformed++
	}

	// Give the extraction selector a chance to appear before reading the
	// page, so AJAX-created content is not missed.
	if req.Extract != nil && req.Extract.Selector != "" {
		wait := s.Config.Browser.WaitTimeout
		if req.Extract.WaitTimeout > 0 {
			wait = time.Duration(req.Extract.WaitTimeout) * time.Millisecond
		}
		selector := req.Extract.Selector
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()
			if err := chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx); err != nil {
				return fmt.Errorf("selector %q did not appear within %v: %w", selector, wait, err)
			}
			return nil
		}))
	}

	tasks = append(tasks,
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)
	if req.Screenshot && s.Config.Scraper.EnableScreenshots {
		tasks = append(tasks, chromedp.CaptureScreenshot(&screenshot))
	}

	if err := chromedp.Run(browserCtx, tasks...); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("browser timeout after %v", s.Config.Scraper.Timeout)
		}
		return nil, err
	}

	s.Logger.Debug("browser fetch complete",
		zap.String("url", finalURL),
		zap.Int("actions", actionsPerformed))

	return &Page{
		URL:              finalURL,
		HTML:             html,
		Title:            title,
		Screenshot:       screenshot,
		ActionsPerformed: actionsPerformed,
	}, nil
}

// buildAction translates one request action into a chromedp step.
func (s *BrowserScraper) buildAction(action models.Action) (chromedp.Action, error) {
	settle := time.Duration(action.WaitAfter) * time.Millisecond

	switch action.Type {
	case models.ActionClick:
		return withSettle(chromedp.Click(action.Selector, chromedp.ByQuery), settle), nil

	case models.ActionType:
		return withSettle(chromedp.SendKeys(action.Selector, action.Value, chromedp.ByQuery), settle), nil

	case models.ActionWait:
		return s.buildWait(action), nil

	case models.ActionScroll:
		if action.Selector != "" {
			return withSettle(chromedp.ScrollIntoView(action.Selector, chromedp.ByQuery), settle), nil
		}
		js := fmt.Sprintf("window.scrollBy(0, %d)", action.Amount)
		return withSettle(chromedp.Evaluate(js, nil), settle), nil

	case models.ActionScreenshot:
		// Marker only; the capture happens at the end of the task list.
		return chromedp.Sleep(settle), nil

	default:
		return nil, fmt.Errorf("unknown action type: %q", action.Type)
	}
}

// buildWait maps a wait action's condition onto a chromedp step.
func (s *BrowserScraper) buildWait(action models.Action) chromedp.Action {
	timeout := s.Config.Browser.WaitTimeout
	if action.Timeout > 0 {
		timeout = time.Duration(action.Timeout) * time.Millisecond
	}

	switch action.Condition {
	case models.WaitSelector:
		selector := action.Selector
		if selector == "" {
			selector = action.Value
		}
		return chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx)
		})

	case models.WaitLoad:
		return chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return chromedp.WaitReady("body", chromedp.ByQuery).Do(waitCtx)
		})

	case models.WaitNetworkIdle:
		// CDP has no first-class network-idle signal here; a bounded settle
		// delay is the pragmatic equivalent.
		return chromedp.Sleep(timeout)

	default: // models.WaitTimeout
		return chromedp.Sleep(timeout)
	}
}

// withSettle appends the optional wait_after delay to a step.
func withSettle(action chromedp.Action, settle time.Duration) chromedp.Action {
	if settle <= 0 {
		return action
	}
	return chromedp.Tasks{action, chromedp.Sleep(settle)}
}
