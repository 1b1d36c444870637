package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/io"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/service"
	"github.com/williampepple1/scrape-api/internal/worker"
	"github.com/williampepple1/scrape-api/pkg/models"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	inputFile := flag.String("input", "", "File containing URLs to scrape (one per line)")
	outputFile := flag.String("output", "results.json", "File to save results to (JSON format)")
	mode := flag.String("mode", models.ModeAuto, "Scrape mode: auto, static or dynamic")
	selector := flag.String("selector", "", "CSS selector to extract from each page")
	format := flag.String("format", models.FormatText, "Output format: json, text, html or markdown")
	numWorkers := flag.Int("workers", 0, "Number of concurrent workers (overrides configuration)")
	rateLimit := flag.Duration("rate-limit", 0, "Delay between requests (overrides configuration)")
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("No input file provided, use -input")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if *numWorkers > 0 {
		cfg.Worker.Workers = *numWorkers
	}
	if *rateLimit > 0 {
		cfg.Worker.RateLimit = *rateLimit
	}

	logger := logging.NewDefault()
	defer logger.Sync()

	urls, err := io.NewURLReader().ReadFromFile(*inputFile)
	if err != nil {
		log.Fatalf("Error reading URLs: %v", err)
	}
	if len(urls) == 0 {
		log.Fatal("No URLs to scrape")
	}

	fmt.Printf("Preparing to scrape %d URLs with %d workers\n", len(urls), cfg.Worker.Workers)

	reqs := make([]*models.ScrapeRequest, 0, len(urls))
	for _, u := range urls {
		req := &models.ScrapeRequest{URL: u, Mode: *mode, OutputFormat: *format}
		if *selector != "" {
			req.Extract = &models.Extraction{Selector: *selector}
		}
		reqs = append(reqs, req)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := service.New(cfg, logger)
	pool := worker.NewPool(&cfg.Worker, svc.Scrape, len(reqs), logger)

	start := time.Now()
	pool.Start(ctx)
	pool.AddJobs(reqs)

	resp := &models.BatchScrapeResponse{Results: []models.BatchItem{}}
	for item := range pool.Results {
		resp.Total++
		if item.Response.Success {
			resp.Succeeded++
			fmt.Printf("Successfully scraped %s in %dms\n", item.URL, item.Response.Metadata.DurationMS)
		} else {
			resp.Failed++
			fmt.Printf("Error scraping %s: %s\n", item.URL, item.Response.Error)
		}
		resp.Results = append(resp.Results, item)
	}

	if err := io.NewResultWriter().SaveToFile(*outputFile, resp); err != nil {
		log.Fatalf("Error saving results to file: %v", err)
	}

	fmt.Printf("All URLs have been processed in %v. Success: %d, Failures: %d\n",
		time.Since(start).Round(time.Millisecond), resp.Succeeded, resp.Failed)
	fmt.Printf("Results saved to %s\n", *outputFile)
}
