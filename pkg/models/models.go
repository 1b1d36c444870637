// Package models defines the request and response shapes shared by the API
// layer, the scrapers and the persistence store.
package models

import (
	"time"

	"github.com/williampepple1/scrape-api/internal/table"
)

// Scrape modes accepted by the API.
const (
	ModeAuto    = "auto"
	ModeStatic  = "static"
	ModeDynamic = "dynamic"
)

// Output formats for extracted content.
const (
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Action types performed on the page before extraction.
const (
	ActionClick      = "click"
	ActionType       = "type"
	ActionWait       = "wait"
	ActionScroll     = "scroll"
	ActionScreenshot = "screenshot"
)

// Wait conditions for ActionWait.
const (
	WaitSelector    = "selector"
	WaitTimeout     = "timeout"
	WaitNetworkIdle = "networkidle"
	WaitLoad        = "load"
)

// Action is a single user-interaction step executed by the browser scraper.
type Action struct {
	Type      string `json:"type" bson:"type"`
	Selector  string `json:"selector,omitempty" bson:"selector,omitempty"`
	Value     string `json:"value,omitempty" bson:"value,omitempty"`
	WaitAfter int    `json:"wait_after,omitempty" bson:"wait_after,omitempty"` // milliseconds
	Condition string `json:"condition,omitempty" bson:"condition,omitempty"`
	Timeout   int    `json:"timeout,omitempty" bson:"timeout,omitempty"` // milliseconds
	Amount    int    `json:"amount,omitempty" bson:"amount,omitempty"`   // scroll pixels
}

// Extraction configures which content to pull out of the fetched page.
type Extraction struct {
	Selector string `json:"selector" bson:"selector"`
	// Attribute extracts an HTML attribute instead of text content.
	Attribute string `json:"attribute,omitempty" bson:"attribute,omitempty"`
	// Multiple extracts all matching elements instead of the first.
	Multiple bool `json:"multiple,omitempty" bson:"multiple,omitempty"`
	// WaitTimeout bounds how long dynamic mode waits for the selector, in
	// milliseconds. Zero means the default of 5000.
	WaitTimeout int `json:"wait_timeout,omitempty" bson:"wait_timeout,omitempty"`
	// InnerHTML returns element contents rather than the element with its tag.
	InnerHTML bool `json:"inner_html,omitempty" bson:"inner_html,omitempty"`
	// Strip removes attributes, scripts and styles from HTML output.
	Strip bool `json:"strip,omitempty" bson:"strip,omitempty"`
	// ParseTable converts the extracted table element to records.
	ParseTable *table.Config `json:"parse_table,omitempty" bson:"parse_table,omitempty"`
}

// ScrapeRequest is the body of POST /scrape.
type ScrapeRequest struct {
	URL          string      `json:"url" bson:"url"`
	Mode         string      `json:"mode,omitempty" bson:"mode,omitempty"`
	Actions      []Action    `json:"actions,omitempty" bson:"actions,omitempty"`
	Extract      *Extraction `json:"extract,omitempty" bson:"extract,omitempty"`
	Screenshot   bool        `json:"screenshot,omitempty" bson:"screenshot,omitempty"`
	OutputFormat string      `json:"output_format,omitempty" bson:"output_format,omitempty"`
}

// BatchScrapeRequest is the body of POST /scrape/batch: the same options
// applied across a list of URLs.
type BatchScrapeRequest struct {
	URLs         []string    `json:"urls"`
	Mode         string      `json:"mode,omitempty"`
	Extract      *Extraction `json:"extract,omitempty"`
	OutputFormat string      `json:"output_format,omitempty"`
}

// ScrapeData carries the extracted content of a successful scrape.
type ScrapeData struct {
	Content string `json:"content" bson:"content"`
	// HTML is the full page markup, omitted when an extraction was requested.
	HTML  string `json:"html,omitempty" bson:"html,omitempty"`
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	URL   string `json:"url" bson:"url"`
	// Parsed and TableMetadata are present when parse_table was enabled.
	Parsed        []table.Record  `json:"parsed,omitempty" bson:"parsed,omitempty"`
	TableMetadata *table.Metadata `json:"table_metadata,omitempty" bson:"table_metadata,omitempty"`
}

// ExtractionDebug reports how the extraction selector fared.
type ExtractionDebug struct {
	SelectorMatched bool   `json:"selector_matched" bson:"selector_matched"`
	ElementsFound   int    `json:"elements_found" bson:"elements_found"`
	SelectorUsed    string `json:"selector_used" bson:"selector_used"`
}

// ScrapeMetadata describes the scrape operation itself.
type ScrapeMetadata struct {
	ScrapeMode        string           `json:"scrape_mode" bson:"scrape_mode"`
	DurationMS        int64            `json:"duration_ms" bson:"duration_ms"`
	Timestamp         time.Time        `json:"timestamp" bson:"timestamp"`
	ActionsPerformed  int              `json:"actions_performed" bson:"actions_performed"`
	ExtractedElements int              `json:"extracted_elements" bson:"extracted_elements"`
	ExtractionDebug   *ExtractionDebug `json:"extraction_debug,omitempty" bson:"extraction_debug,omitempty"`
}

// ScrapeResponse is the envelope returned by POST /scrape. Scrape failures
// are reported inside the envelope, not as transport errors.
type ScrapeResponse struct {
	Success    bool           `json:"success" bson:"success"`
	Data       *ScrapeData    `json:"data" bson:"data"`
	Screenshot string         `json:"screenshot,omitempty" bson:"screenshot,omitempty"` // base64 PNG
	Metadata   ScrapeMetadata `json:"metadata" bson:"metadata"`
	Error      string         `json:"error,omitempty" bson:"error,omitempty"`
}

// BatchItem pairs one URL of a batch with its scrape outcome.
type BatchItem struct {
	URL      string         `json:"url"`
	Response ScrapeResponse `json:"response"`
}

// BatchScrapeResponse is the envelope returned by POST /scrape/batch.
type BatchScrapeResponse struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Scrapers map[string]string `json:"scrapers"`
}

// StoredScrape is a persisted scrape result.
type StoredScrape struct {
	ScrapeID  string         `json:"scrape_id" bson:"scrape_id"`
	Request   *ScrapeRequest `json:"request,omitempty" bson:"request,omitempty"`
	Content   *ScrapeData    `json:"content" bson:"content"`
	Metadata  StoredMetadata `json:"metadata" bson:"metadata"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// StoredMetadata is the queryable subset of scrape metadata kept alongside
// stored results.
type StoredMetadata struct {
	Success    bool   `json:"success" bson:"success"`
	ScrapeMode string `json:"scrape_mode" bson:"scrape_mode"`
	DurationMS int64  `json:"duration_ms" bson:"duration_ms"`
}

// ScrapeQueryResponse is returned by GET /scrapes.
type ScrapeQueryResponse struct {
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Results []StoredScrape `json:"results"`
}

// ScrapeStatistics is one aggregation bucket for the stats endpoint.
type ScrapeStatistics struct {
	Mode          string  `json:"mode" bson:"mode"`
	Success       bool    `json:"success" bson:"success"`
	Count         int64   `json:"count" bson:"count"`
	AvgDurationMS float64 `json:"avg_duration_ms" bson:"avg_duration_ms"`
}
