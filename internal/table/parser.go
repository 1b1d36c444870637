// Package table converts arbitrary, possibly irregular HTML table subtrees
// into ordered key-value records plus structural metadata. It reconstructs
// the logical row/column grid under colspan/rowspan merging and recursively
// resolves tables nested inside cells.
//
// The engine is a pure transformation over an already-parsed goquery tree:
// it performs no I/O, keeps no state across calls and treats the node tree
// as a read-only view, so concurrent Parse calls need no coordination.
package table

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxDepth caps nested-table recursion against pathological markup.
const DefaultMaxDepth = 8

// Parser runs the table-extraction pipeline.
type Parser struct {
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
}

// NewParser creates a parser with the default recursion cap.
func NewParser() *Parser {
	return &Parser{MaxDepth: DefaultMaxDepth}
}

func (p *Parser) maxDepth() int {
	if p.MaxDepth > 0 {
		return p.MaxDepth
	}
	return DefaultMaxDepth
}

// Parse extracts records and metadata from the table rooted at sel. Which
// table to extract is the caller's decision; sel is expected to already be
// the table element (or a fragment containing it).
//
// A *ConfigError is returned when the configuration cannot be applied, e.g.
// header_row_index past the matched rows. Structural anomalies never fail:
// empty bodies produce an empty record list and malformed span attributes
// are treated as 1.
func (p *Parser) Parse(sel *goquery.Selection, cfg Config) ([]Record, Metadata, error) {
	root := sel
	if !root.Is("table") {
		if t := root.Find("table").First(); t.Length() > 0 {
			root = t
		}
	}
	return p.parse(root, cfg.withDefaults(), 0)
}

func (p *Parser) parse(root *goquery.Selection, cfg Config, depth int) ([]Record, Metadata, error) {
	var meta Metadata

	root = detach(root)

	headers, rows, err := locate(root, cfg)
	if err != nil {
		return nil, meta, err
	}

	res := &resolver{parser: p, cfg: cfg, depth: depth, meta: &meta}
	grid, colCount, merged := buildGrid(rows, cfg.CellSelector, res.resolveCell)

	// No occupied columns means no cells matched at all; report a valid
	// empty result rather than rows of zero-width records.
	if colCount == 0 {
		return []Record{}, Metadata{}, nil
	}

	meta.RowsParsed = len(rows)
	meta.Columns = colCount
	meta.HasMergedCells = merged

	if len(headers) == 0 {
		headers = syntheticHeaders(colCount)
		meta.SyntheticHeaders = true
	}

	return assemble(grid, len(rows), headers), meta, nil
}

// detach re-parses the root's own markup into a fresh document. Descendant
// selectors like "tbody tr" are satisfied by ANY ancestor in the document,
// including elements above root, so a nested table parsed in place would let
// the outer table's tbody qualify its header row as a data row. A detached
// tree has no ancestry above the table, so selectors resolve within it only.
func detach(root *goquery.Selection) *goquery.Selection {
	html, err := goquery.OuterHtml(root)
	if err != nil {
		return root
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return root
	}
	if t := doc.Find("table").First(); t.Length() > 0 {
		return t
	}
	return doc.Selection
}

// assemble zips each logical grid row against the header list. Rows shorter
// than the header count pad with empty strings; grid columns beyond the
// header count are dropped.
func assemble(grid map[gridKey]interface{}, rowCount int, headers []string) []Record {
	records := make([]Record, 0, rowCount)
	for r := 0; r < rowCount; r++ {
		rec := make(Record, 0, len(headers))
		for c, header := range headers {
			value, ok := grid[gridKey{r, c}]
			if !ok {
				value = ""
			}
			rec = append(rec, Field{Key: header, Value: value})
		}
		records = append(records, rec)
	}
	return records
}
