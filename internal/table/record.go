package table

import (
	"bytes"
	"encoding/json"
)

// Field is a single header/value pair within a Record. The value is either
// a string or, for cells containing nested tables, a []Record.
type Field struct {
	Key   string      `bson:"key"`
	Value interface{} `bson:"value"`
}

// Record is one parsed table row: an ordered mapping from header to value.
// Key order follows header order, which plain maps cannot preserve.
type Record []Field

// Get returns the value for the given header, if present.
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the record as a JSON object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Metadata describes the structure of a parsed table.
type Metadata struct {
	RowsParsed        int  `json:"rows_parsed" bson:"rows_parsed"`
	Columns           int  `json:"columns" bson:"columns"`
	HasMergedCells    bool `json:"has_merged_cells" bson:"has_merged_cells"`
	NestedTablesFound int  `json:"nested_tables_found" bson:"nested_tables_found"`
	// SyntheticHeaders is set when no headers matched and positional
	// col_N keys were generated instead.
	SyntheticHeaders bool `json:"synthetic_headers,omitempty" bson:"synthetic_headers,omitempty"`
	// DepthTruncated is set when at least one cell fell back to flattened
	// text because nested tables went past the recursion cap.
	DepthTruncated bool `json:"depth_truncated,omitempty" bson:"depth_truncated,omitempty"`
}
