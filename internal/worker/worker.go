// Package worker runs batches of scrape requests over a fixed pool of
// goroutines with a shared rate limit.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/pkg/models"
)

// ScrapeFunc performs one scrape. The pool stays agnostic of the service
// behind it, which also keeps tests simple.
type ScrapeFunc func(ctx context.Context, req *models.ScrapeRequest) *models.ScrapeResponse

// Pool manages a pool of worker goroutines
type Pool struct {
	Config    *config.WorkerConfig
	Scrape    ScrapeFunc
	Jobs      chan *models.ScrapeRequest
	Results   chan models.BatchItem
	WaitGroup *sync.WaitGroup
	Logger    *logging.Logger
}

// NewPool creates a worker pool sized for the given number of jobs.
func NewPool(cfg *config.WorkerConfig, scrape ScrapeFunc, jobCount int, logger *logging.Logger) *Pool {
	return &Pool{
		Config:    cfg,
		Scrape:    scrape,
		Jobs:      make(chan *models.ScrapeRequest, jobCount),
		Results:   make(chan models.BatchItem, jobCount),
		WaitGroup: &sync.WaitGroup{},
		Logger:    logger,
	}
}

// Start starts the worker pool. The results channel is closed once every
// worker has drained the jobs channel.
func (p *Pool) Start(ctx context.Context) {
	rateLimiter := time.NewTicker(p.Config.RateLimit)

	for w := 1; w <= p.Config.Workers; w++ {
		p.WaitGroup.Add(1)
		go p.worker(ctx, w, rateLimiter)
	}

	go func() {
		p.WaitGroup.Wait()
		rateLimiter.Stop()
		close(p.Results)
	}()
}

// worker processes requests from the jobs channel and sends outcomes to the
// results channel.
func (p *Pool) worker(ctx context.Context, id int, rateLimiter *time.Ticker) {
	defer p.WaitGroup.Done()

	for req := range p.Jobs {
		select {
		case <-rateLimiter.C:
		case <-ctx.Done():
			p.Results <- canceled(req, ctx.Err())
			continue
		}

		p.Logger.Debug("worker processing url",
			zap.Int("worker", id),
			zap.String("url", req.URL))

		p.Results <- models.BatchItem{
			URL:      req.URL,
			Response: *p.Scrape(ctx, req),
		}
	}
}

// AddJobs queues the requests and signals workers that no more are coming.
func (p *Pool) AddJobs(reqs []*models.ScrapeRequest) {
	for _, req := range reqs {
		p.Jobs <- req
	}
	close(p.Jobs)
}

// Collect drains the results channel into a batch response.
func (p *Pool) Collect() *models.BatchScrapeResponse {
	resp := &models.BatchScrapeResponse{Results: []models.BatchItem{}}
	for item := range p.Results {
		resp.Total++
		if item.Response.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

func canceled(req *models.ScrapeRequest, err error) models.BatchItem {
	return models.BatchItem{
		URL: req.URL,
		Response: models.ScrapeResponse{
			Success: false,
			Metadata: models.ScrapeMetadata{
				Timestamp: time.Now().UTC(),
			},
			Error: err.Error(),
		},
	}
}
