// Package query defines the interfaces shared between query builders of
// different entity types.
package query

// Builder is implemented by anything that can produce final OData query text.
// Every QueryBuilder satisfies it regardless of its entity type, which lets a
// subquery for one entity be attached to the builder of another.
type Builder interface {
	// Build returns the accumulated query text, or the first error recorded
	// while composing it.
	Build() (string, error)
}
