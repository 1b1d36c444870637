package table

import "github.com/PuerkitoBio/goquery"

// resolver produces cell values during grid construction, recursing into
// nested tables and accumulating counters into the shared metadata.
type resolver struct {
	parser *Parser
	cfg    Config
	depth  int
	meta   *Metadata
}

// resolveCell returns the value for one cell: plain trimmed text for ordinary
// cells, or the recursively parsed record list when the cell holds nested
// tables. A cell that would recurse past the depth cap falls back to its
// flattened text and flags the truncation, leaving the rest of the grid intact.
func (r *resolver) resolveCell(cell *goquery.Selection) interface{} {
	nested := topLevelTables(cell)
	if len(nested) == 0 {
		return cellText(cell)
	}

	r.meta.NestedTablesFound += len(nested)

	records, err := r.parseNested(nested)
	if err != nil {
		r.meta.DepthTruncated = true
		return cellText(cell)
	}
	return records
}

// parseNested runs the full pipeline over each nested table with a default
// configuration and concatenates the record lists in document order.
func (r *resolver) parseNested(tables []*goquery.Selection) ([]Record, error) {
	if r.depth+1 > r.parser.maxDepth() {
		return nil, &DepthError{Depth: r.depth + 1}
	}

	records := []Record{}
	for _, t := range tables {
		recs, meta, err := r.parser.parse(t, Config{}.withDefaults(), r.depth+1)
		if err != nil {
			// Default configs cannot produce a ConfigError; guard anyway.
			continue
		}
		r.meta.NestedTablesFound += meta.NestedTablesFound
		if meta.DepthTruncated {
			r.meta.DepthTruncated = true
		}
		records = append(records, recs...)
	}
	return records, nil
}

// topLevelTables returns the tables nested directly under the cell, excluding
// tables that are themselves inside another nested table. Those are reached
// by the recursive parse of their parent.
func topLevelTables(cell *goquery.Selection) []*goquery.Selection {
	return directMatches(cell, "table")
}
