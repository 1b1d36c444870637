package table

import "fmt"

// ConfigError reports a table configuration that cannot be applied to the
// selected table. It is fatal for the extraction and deterministic for the
// same input, so callers should not retry.
type ConfigError struct {
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return "table config: " + e.Reason
}

// DepthError reports that resolving nested tables went past the recursion
// cap. It is confined to a single cell: the cell falls back to flattened
// text and the rest of the grid still completes.
type DepthError struct {
	Depth int
}

// Error implements the error interface
func (e *DepthError) Error() string {
	return fmt.Sprintf("nested table depth %d exceeds cap", e.Depth)
}
