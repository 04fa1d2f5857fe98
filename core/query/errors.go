package query

import "errors"

// Errors reported by the QueryBuilder. All of them indicate a programming
// error in the way a query is composed; none are transient.
var (
	// ErrInvalidGrammar is returned when a name lacks its marker prefix or a
	// subquery is opened or closed at an illegal position.
	ErrInvalidGrammar = errors.New("invalid OData grammar")

	// ErrDuplicateElement is returned when an operation or alias is added to
	// the same builder twice.
	ErrDuplicateElement = errors.New("duplicate OData query element")

	// ErrContextMismatch is returned when an element requires a different
	// current operation.
	ErrContextMismatch = errors.New("OData operation context mismatch")

	// ErrUnbalancedNesting is returned when subquery starts and ends do not match.
	ErrUnbalancedNesting = errors.New("unbalanced OData subquery nesting")

	// ErrMalformedURI is returned when the built text cannot be parsed as a URI.
	ErrMalformedURI = errors.New("malformed OData URI")
)
