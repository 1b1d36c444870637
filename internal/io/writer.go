package io

import (
	"encoding/json"
	"os"

	"github.com/williampepple1/scrape-api/pkg/models"
)

// ResultWriter writes batch scrape outcomes.
type ResultWriter struct{}

// NewResultWriter creates a new result writer
func NewResultWriter() *ResultWriter {
	return &ResultWriter{}
}

// SaveToFile writes the batch response to a file as indented JSON.
func (w *ResultWriter) SaveToFile(filename string, resp *models.BatchScrapeResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
