package table

// Default selectors applied when a Config field is left empty.
const (
	DefaultHeadersSelector = "thead th"
	DefaultRowSelector     = "tbody tr"
	DefaultCellSelector    = "td"
)

// Config controls how a table subtree is resolved into records
type Config struct {
	// HeadersSelector matches the header cells. Ignored when HeaderRowIndex is set.
	HeadersSelector string `json:"headers_selector,omitempty" yaml:"headers_selector"`
	// RowSelector matches the data rows.
	RowSelector string `json:"row_selector,omitempty" yaml:"row_selector"`
	// CellSelector matches the data cells within a row.
	CellSelector string `json:"cell_selector,omitempty" yaml:"cell_selector"`
	// HeaderRowIndex designates a row from RowSelector as the header source
	// (0-based). The row is not excluded from the data automatically; list it
	// in SkipRows to drop it.
	HeaderRowIndex *int `json:"header_row_index,omitempty" yaml:"header_row_index"`
	// SkipRows holds indices into the RowSelector match list, counted before
	// any filtering. Out-of-range indices are ignored.
	SkipRows []int `json:"skip_rows,omitempty" yaml:"skip_rows"`
}

// withDefaults returns a copy with empty selectors replaced by the defaults.
func (c Config) withDefaults() Config {
	if c.HeadersSelector == "" {
		c.HeadersSelector = DefaultHeadersSelector
	}
	if c.RowSelector == "" {
		c.RowSelector = DefaultRowSelector
	}
	if c.CellSelector == "" {
		c.CellSelector = DefaultCellSelector
	}
	return c
}

// skipSet converts SkipRows to a lookup set.
func (c Config) skipSet() map[int]bool {
	if len(c.SkipRows) == 0 {
		return nil
	}
	set := make(map[int]bool, len(c.SkipRows))
	for _, idx := range c.SkipRows {
		set[idx] = true
	}
	return set
}
