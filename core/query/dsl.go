// Package query defines the vocabulary of OData system query options used by
// the QueryBuilder: operation names, marker characters and the punctuation
// that joins query elements together.
package query

// Marker characters that must prefix operation and alias names.
const (
	OperationMarker = '$'
	AliasMarker     = '@'
)

// Structural punctuation written by the builder.
const (
	QueryStart         = '?'
	TopLevelSeparator  = '&'
	SubquerySeparator  = ';'
	ExpressionAssign   = '='
	ExpressionChain    = ','
	OpenSubquery       = '('
	CloseSubquery      = ')'
	literalStringQuote = '\''
)

// System query options supported by the fluent helpers.
const (
	OperationSelect    = "$select"
	OperationFilter    = "$filter"
	OperationExpand    = "$expand"
	OperationOrderBy   = "$orderby"
	OperationTop       = "$top"
	OperationSkip      = "$skip"
	OperationCount     = "$count"
	OperationSearch    = "$search"
	OperationFormat    = "$format"
	OperationSkipToken = "$skiptoken"
	OperationApply     = "$apply"     // Data aggregation transformations
	OperationCompute   = "$compute"   // Computed properties
	OperationLevels    = "$levels"    // Expand levels for hierarchical data
)

// SortDirection specifies the direction for ordering.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// Valid reports whether d is a known sort direction. The empty direction is
// treated as ascending.
func (d SortDirection) Valid() bool {
	switch d {
	case "", SortDirectionAsc, SortDirectionDesc:
		return true
	default:
		return false
	}
}

// Segment is a single top-level element of a built query, such as
// "$select=Name,Age" or "@p1=10".
type Segment struct {
	Name     string // Operation or alias name including its marker.
	Value    string // Text after the first '=', empty when absent.
	Assigned bool   // The element had an '=', even if Value is empty.
}
