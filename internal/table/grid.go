package table

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// gridKey addresses one logical (row, column) coordinate.
type gridKey struct {
	row, col int
}

// buildGrid reconstructs the logical grid from the body rows, propagating
// merged-cell values. For each row a column cursor advances past coordinates
// already claimed by an earlier row's rowspan, then the cell's resolved value
// is placed at every coordinate of its colspan x rowspan rectangle.
//
// Returns the grid, the column count (one plus the highest occupied column)
// and whether any originating cell spanned more than one slot.
func buildGrid(rows []*goquery.Selection, cellSelector string, resolve func(*goquery.Selection) interface{}) (map[gridKey]interface{}, int, bool) {
	grid := make(map[gridKey]interface{})
	occupied := make(map[gridKey]bool)
	colCount := 0
	merged := false

	for r, row := range rows {
		col := 0
		for _, cell := range directMatches(row, cellSelector) {
			for occupied[gridKey{r, col}] {
				col++
			}

			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")
			if colspan > 1 || rowspan > 1 {
				merged = true
			}

			value := resolve(cell)
			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					key := gridKey{r + dr, col + dc}
					occupied[key] = true
					grid[key] = value
				}
			}
			if col+colspan > colCount {
				colCount = col + colspan
			}
			col += colspan
		}
	}

	return grid, colCount, merged
}

// spanAttr reads a colspan/rowspan attribute. Real-world markup routinely
// carries junk here, so anything non-numeric or below one normalizes to 1.
func spanAttr(cell *goquery.Selection, name string) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
