package table

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// locate resolves the header list and the body rows for the given table root.
// Header text is copied out immediately; only the row selections are carried
// forward into grid construction.
func locate(root *goquery.Selection, cfg Config) ([]string, []*goquery.Selection, error) {
	matched := directMatches(root, cfg.RowSelector)

	var headers []string
	if cfg.HeaderRowIndex != nil {
		idx := *cfg.HeaderRowIndex
		if idx < 0 || idx >= len(matched) {
			return nil, nil, &ConfigError{
				Reason: fmt.Sprintf("header_row_index %d out of range for %d matched rows", idx, len(matched)),
			}
		}
		cells := directMatches(matched[idx], cfg.CellSelector)
		if len(cells) == 0 {
			// Header rows often use th even when the data cells are td.
			cells = directMatches(matched[idx], "th")
		}
		for _, cell := range cells {
			headers = append(headers, cellText(cell))
		}
	} else {
		for _, cell := range directMatches(root, cfg.HeadersSelector) {
			headers = append(headers, cellText(cell))
		}
	}

	// Skip indices refer to the pre-filter match order, so the header row is
	// only dropped from the data when the caller lists it in skip_rows.
	skip := cfg.skipSet()
	var rows []*goquery.Selection
	for i, row := range matched {
		if skip[i] {
			continue
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// directMatches finds selector matches under root that belong to root's own
// table. Matches inside a nested table are excluded; the recursive parse of
// that table reaches them instead.
func directMatches(root *goquery.Selection, selector string) []*goquery.Selection {
	var out []*goquery.Selection
	root.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsUntilSelection(root).Filter("table").Length() == 0 {
			out = append(out, sel)
		}
	})
	return out
}

// cellText returns the cell's text content with whitespace runs collapsed.
func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// syntheticHeaders generates positional header names col_0..col_{n-1}.
func syntheticHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("col_%d", i)
	}
	return headers
}
