package query

import (
	"fmt"
	"strconv"

	"github.com/asaidimu/go-odata/utils"
)

// option appends a complete "$operation=value" segment.
func (qb *QueryBuilder[T]) option(operation string, value any) *QueryBuilder[T] {
	return qb.AppendOperation(operation).AppendExpression(value)
}

// requireName rejects empty names for the given operation.
func (qb *QueryBuilder[T]) requireName(operation string, names ...string) bool {
	if len(names) == 0 {
		qb.fail(operation, fmt.Errorf("%w: %s requires at least one item", ErrInvalidGrammar, operation))
		return false
	}
	for _, name := range names {
		if name == "" {
			qb.fail(operation, fmt.Errorf("%w: %s item cannot be empty", ErrInvalidGrammar, operation))
			return false
		}
	}
	return true
}

// Select adds a $select option listing the given properties.
func (qb *QueryBuilder[T]) Select(fields ...string) *QueryBuilder[T] {
	if qb.err != nil || !qb.requireName(OperationSelect, fields...) {
		return qb
	}
	qb.option(OperationSelect, fields[0])
	for _, field := range fields[1:] {
		qb.AppendChainingExpression(field)
	}
	return qb
}

// SelectEntity adds a $select option listing every JSON-visible field of the
// builder's entity type T.
func (qb *QueryBuilder[T]) SelectEntity() *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	fields, err := utils.FieldNames[T]()
	if err != nil {
		return qb.fail(OperationSelect, fmt.Errorf("%w: %w", ErrInvalidGrammar, err))
	}
	return qb.Select(fields...)
}

// Filter adds a $filter option. The expression is written verbatim.
func (qb *QueryBuilder[T]) Filter(expression string) *QueryBuilder[T] {
	return qb.option(OperationFilter, expression)
}

// Search adds a $search option.
func (qb *QueryBuilder[T]) Search(expression string) *QueryBuilder[T] {
	return qb.option(OperationSearch, expression)
}

// Apply adds an $apply transformation sequence.
func (qb *QueryBuilder[T]) Apply(transformations string) *QueryBuilder[T] {
	return qb.option(OperationApply, transformations)
}

// Compute adds a $compute option.
func (qb *QueryBuilder[T]) Compute(expression string) *QueryBuilder[T] {
	return qb.option(OperationCompute, expression)
}

// Format adds a $format option, e.g. "json".
func (qb *QueryBuilder[T]) Format(format string) *QueryBuilder[T] {
	return qb.option(OperationFormat, format)
}

// SkipToken adds a $skiptoken option for server-driven paging.
func (qb *QueryBuilder[T]) SkipToken(token string) *QueryBuilder[T] {
	return qb.option(OperationSkipToken, token)
}

// OrderBy adds an $orderby option with its first sort key. An empty
// direction leaves the service default in place.
func (qb *QueryBuilder[T]) OrderBy(field string, direction SortDirection) *QueryBuilder[T] {
	if qb.err != nil || !qb.requireName(OperationOrderBy, field) || !qb.validDirection(direction) {
		return qb
	}
	return qb.option(OperationOrderBy, field).appendDirection(direction)
}

// ThenBy adds another sort key to the $orderby option written last.
func (qb *QueryBuilder[T]) ThenBy(field string, direction SortDirection) *QueryBuilder[T] {
	if qb.err != nil || !qb.requireName(OperationOrderBy, field) || !qb.validDirection(direction) {
		return qb
	}
	if qb.lastElement != OperationOrderBy || qb.atStart {
		return qb.fail(field, fmt.Errorf("%w: ThenBy must directly follow %s", ErrContextMismatch, OperationOrderBy))
	}
	return qb.AppendChainingExpression(field).appendDirection(direction)
}

func (qb *QueryBuilder[T]) validDirection(direction SortDirection) bool {
	if !direction.Valid() {
		qb.fail(string(direction), fmt.Errorf("%w: unknown sort direction %q", ErrInvalidGrammar, direction))
		return false
	}
	return true
}

func (qb *QueryBuilder[T]) appendDirection(direction SortDirection) *QueryBuilder[T] {
	if direction == "" {
		return qb
	}
	return qb.AppendModifier(" " + string(direction))
}

// Top limits the number of returned entities.
func (qb *QueryBuilder[T]) Top(n int) *QueryBuilder[T] {
	return qb.nonNegative(OperationTop, n)
}

// Skip skips the first n entities.
func (qb *QueryBuilder[T]) Skip(n int) *QueryBuilder[T] {
	return qb.nonNegative(OperationSkip, n)
}

func (qb *QueryBuilder[T]) nonNegative(operation string, n int) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if n < 0 {
		return qb.fail(operation, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidGrammar, operation, n))
	}
	return qb.option(operation, strconv.Itoa(n))
}

// Levels adds a $levels option to an expand subquery. A negative value
// requests all levels.
func (qb *QueryBuilder[T]) Levels(n int) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if n < 0 {
		return qb.option(OperationLevels, "max")
	}
	return qb.option(OperationLevels, strconv.Itoa(n))
}

// Count requests (or explicitly declines) the total count of matching entities.
func (qb *QueryBuilder[T]) Count(include bool) *QueryBuilder[T] {
	return qb.option(OperationCount, BoolLiteral(include))
}

// Expand adds a navigation property to the $expand option. Consecutive calls
// extend the same option.
func (qb *QueryBuilder[T]) Expand(navigation string) *QueryBuilder[T] {
	if qb.err != nil || !qb.requireName(OperationExpand, navigation) {
		return qb
	}
	if qb.lastElement == OperationExpand && !qb.atStart {
		return qb.AppendChainingExpression(navigation)
	}
	return qb.option(OperationExpand, navigation)
}

// ExpandWith expands a navigation property and attaches the options held by
// sub, e.g. Orders($select=Id;$top=5). sub is usually built with NewSubquery.
func (qb *QueryBuilder[T]) ExpandWith(navigation string, sub Builder) *QueryBuilder[T] {
	return qb.Expand(navigation).StartSubquery().AppendSubquery(sub).EndSubquery()
}

// Param adds a parameter alias with its value, e.g. @p1=10.
func (qb *QueryBuilder[T]) Param(alias string, value any) *QueryBuilder[T] {
	return qb.AppendAlias(alias).AppendExpression(value)
}
