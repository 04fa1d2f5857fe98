// Package schema defines declarative OData query definitions. A definition
// describes a query as data (YAML or JSON) and is rendered through the
// QueryBuilder, so definitions obey the same grammar rules as queries written
// in code.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/asaidimu/go-odata/core/query"
	"gopkg.in/yaml.v3"
)

// OrderClause is a single sort key of an $orderby option.
type OrderClause struct {
	Field     string              `yaml:"field" json:"field"`
	Direction query.SortDirection `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// ExpandDefinition expands a navigation property, optionally with its own
// nested query options.
type ExpandDefinition struct {
	Property string           `yaml:"property" json:"property"`
	Query    *QueryDefinition `yaml:"query,omitempty" json:"query,omitempty"`
}

// QueryDefinition is the serializable form of an OData query.
type QueryDefinition struct {
	Base    string             `yaml:"base,omitempty" json:"base,omitempty"` // Resource URI, top level only
	Select  []string           `yaml:"select,omitempty" json:"select,omitempty"`
	Expand  []ExpandDefinition `yaml:"expand,omitempty" json:"expand,omitempty"`
	Filter  string             `yaml:"filter,omitempty" json:"filter,omitempty"`
	Search  string             `yaml:"search,omitempty" json:"search,omitempty"`
	OrderBy []OrderClause      `yaml:"orderby,omitempty" json:"orderby,omitempty"`
	Top     *int               `yaml:"top,omitempty" json:"top,omitempty"`
	Skip    *int               `yaml:"skip,omitempty" json:"skip,omitempty"`
	Count   *bool              `yaml:"count,omitempty" json:"count,omitempty"`
	Apply   string             `yaml:"apply,omitempty" json:"apply,omitempty"`
	Compute string             `yaml:"compute,omitempty" json:"compute,omitempty"`
	Levels  *int               `yaml:"levels,omitempty" json:"levels,omitempty"` // Negative means max
	Format  string             `yaml:"format,omitempty" json:"format,omitempty"`
	Params  map[string]string  `yaml:"params,omitempty" json:"params,omitempty"` // Alias (with '@') to pre-formatted value
}

// Issue represents a validation issue found in a definition.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"` // e.g., "error", "warning"
}

// ValidationResult is the outcome of validating a definition.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// ValidationError is returned by Render when a definition is invalid. It
// matches query.ErrInvalidGrammar with errors.Is.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		messages[i] = fmt.Sprintf("%s: %s", issue.Path, issue.Message)
	}
	return "invalid query definition: " + strings.Join(messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return query.ErrInvalidGrammar
}

// ParseDefinition decodes a YAML or JSON query definition. Unknown keys are
// rejected.
func ParseDefinition(data []byte) (*QueryDefinition, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var def QueryDefinition
	if err := decoder.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("query definition is empty")
		}
		return nil, fmt.Errorf("failed to decode query definition: %w", err)
	}
	return &def, nil
}

// LoadDefinition reads and decodes the definition stored at path.
func LoadDefinition(path string) (*QueryDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query definition %s: %w", path, err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the definition without rendering it.
func (d *QueryDefinition) Validate() ValidationResult {
	valid, issues := NewValidator().Validate(d)
	return ValidationResult{Valid: valid, Issues: issues}
}

// Render validates the definition and renders it to query text. A definition
// without a base renders a bare query; a base without '?' gets one appended.
func (d *QueryDefinition) Render(opts ...query.Option) (string, error) {
	if result := d.Validate(); !result.Valid {
		return "", &ValidationError{Issues: result.Issues}
	}

	qb := query.ForResource[any](d.Base, opts...)
	return applyDefinition(qb, d, opts).Build()
}

// applyDefinition writes the options of d into qb in a fixed order so a
// definition always renders to the same text.
func applyDefinition[T any](qb *query.QueryBuilder[T], d *QueryDefinition, opts []query.Option) *query.QueryBuilder[T] {
	if len(d.Select) > 0 {
		qb.Select(d.Select...)
	}
	for _, expand := range d.Expand {
		if expand.Query == nil {
			qb.Expand(expand.Property)
			continue
		}
		sub := applyDefinition(query.NewSubquery[any](opts...), expand.Query, opts)
		qb.ExpandWith(expand.Property, sub)
	}
	if d.Filter != "" {
		qb.Filter(d.Filter)
	}
	if d.Search != "" {
		qb.Search(d.Search)
	}
	for i, clause := range d.OrderBy {
		if i == 0 {
			qb.OrderBy(clause.Field, clause.Direction)
		} else {
			qb.ThenBy(clause.Field, clause.Direction)
		}
	}
	if d.Top != nil {
		qb.Top(*d.Top)
	}
	if d.Skip != nil {
		qb.Skip(*d.Skip)
	}
	if d.Count != nil {
		qb.Count(*d.Count)
	}
	if d.Apply != "" {
		qb.Apply(d.Apply)
	}
	if d.Compute != "" {
		qb.Compute(d.Compute)
	}
	if d.Levels != nil {
		qb.Levels(*d.Levels)
	}
	if d.Format != "" {
		qb.Format(d.Format)
	}

	aliases := make([]string, 0, len(d.Params))
	for alias := range d.Params {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		qb.Param(alias, d.Params[alias])
	}
	return qb
}
