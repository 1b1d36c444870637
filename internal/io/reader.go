// Package io reads URL lists and writes batch results for the CLI.
package io

import (
	"bufio"
	"os"
	"strings"
)

// URLReader reads URL lists for batch scraping.
type URLReader struct{}

// NewURLReader creates a new URL reader
func NewURLReader() *URLReader {
	return &URLReader{}
}

// ReadFromFile reads URLs from a file, one URL per line. Blank lines and
// lines starting with # are skipped.
func (r *URLReader) ReadFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url != "" && !strings.HasPrefix(url, "#") {
			urls = append(urls, url)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}
