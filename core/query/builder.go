// Package query provides a fluent API for building OData query strings. The
// builder enforces the OData composition grammar (marker prefixes, element
// uniqueness, subquery nesting) while the query is being assembled, so a
// malformed query is caught where it is written rather than when the service
// rejects the request.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Option configures a QueryBuilder at construction time.
type Option func(*builderOptions)

type builderOptions struct {
	logger *zap.Logger
}

// WithLogger attaches a logger that receives debug entries for rejected
// elements and built queries. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *builderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// QueryBuilder accumulates the text of an OData query. The type parameter T
// names the entity the query targets; it only tags the builder for the
// caller's benefit and is otherwise used by SelectEntity.
//
// Mutators return the builder so calls can be chained. The first call that
// violates the grammar records an error and leaves the builder exactly as it
// was before that call; later mutators are no-ops and Build returns the
// recorded error until ClearErr is called. String returns the text written so
// far, so a builder with a recorded error can still be inspected.
//
// A QueryBuilder is not safe for concurrent use. A builder passed to
// AppendSubquery is copied into the parent at call time and should not be
// reused afterwards.
type QueryBuilder[T any] struct {
	uri              strings.Builder
	currentOperation string
	lastElement      string
	enclosing        []string
	subqueryLevel    int
	subqueryEmpty    bool
	atStart          bool
	isSubquery       bool
	operations       map[string]struct{}
	aliases          map[string]struct{}
	err              error
	logger           *zap.Logger
}

func newQueryBuilder[T any](isSubquery bool, opts []Option) *QueryBuilder[T] {
	o := builderOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	qb := &QueryBuilder[T]{
		isSubquery: isSubquery,
		operations: make(map[string]struct{}),
		aliases:    make(map[string]struct{}),
		logger:     o.logger,
	}
	qb.uri.Grow(512)
	return qb
}

// New creates an empty top-level query builder. Sibling elements are joined
// with '&'.
func New[T any](opts ...Option) *QueryBuilder[T] {
	qb := newQueryBuilder[T](false, opts)
	qb.atStart = true
	return qb
}

// NewSubquery creates an empty builder for a subquery, such as the options
// of an expanded navigation property. Sibling elements are joined with ';'.
func NewSubquery[T any](opts ...Option) *QueryBuilder[T] {
	qb := newQueryBuilder[T](true, opts)
	qb.atStart = true
	return qb
}

// FromPrefix creates a top-level builder that continues an existing URI or
// query prefix. When the prefix ends with '?' the first element is written
// without a separator.
func FromPrefix[T any](prefix string, opts ...Option) *QueryBuilder[T] {
	qb := newQueryBuilder[T](false, opts)
	qb.uri.WriteString(prefix)
	qb.atStart = strings.HasSuffix(prefix, string(QueryStart))
	return qb
}

// ForResource creates a top-level builder for the given resource URI. An
// empty resource yields a bare query, and a resource without a query part
// gets a '?' appended before the first option.
func ForResource[T any](resource string, opts ...Option) *QueryBuilder[T] {
	switch {
	case resource == "":
		return New[T](opts...)
	case strings.ContainsRune(resource, QueryStart):
		return FromPrefix[T](resource, opts...)
	default:
		return FromPrefix[T](resource+string(QueryStart), opts...)
	}
}

// FromURL is FromPrefix for a parsed URL.
func FromURL[T any](u *url.URL, opts ...Option) *QueryBuilder[T] {
	if u == nil {
		qb := newQueryBuilder[T](false, opts)
		return qb.fail("<nil>", fmt.Errorf("%w: base URL cannot be nil", ErrMalformedURI))
	}
	return FromPrefix[T](u.String(), opts...)
}

// Err returns the first error recorded by the builder, if any.
func (qb *QueryBuilder[T]) Err() error {
	return qb.err
}

// ClearErr returns the recorded error and clears it. The builder continues
// from the state it had before the failing call.
func (qb *QueryBuilder[T]) ClearErr() error {
	err := qb.err
	qb.err = nil
	return err
}

// String returns the text written so far, without any checks.
func (qb *QueryBuilder[T]) String() string {
	return qb.uri.String()
}

// fail records err as the builder's error. The buffer is left untouched.
func (qb *QueryBuilder[T]) fail(element string, err error) *QueryBuilder[T] {
	qb.err = err
	qb.logger.Debug("Rejected OData query element", zap.String("element", element), zap.Error(err))
	return qb
}

// separator returns the character that joins sibling elements. It is fixed
// by the builder's mode.
func (qb *QueryBuilder[T]) separator() byte {
	if qb.isSubquery {
		return SubquerySeparator
	}
	return TopLevelSeparator
}

// appendElement writes a new operation or alias, preceded by exactly one
// separator unless the cursor is at the start of a segment.
func (qb *QueryBuilder[T]) appendElement(element string) {
	if !qb.atStart {
		qb.uri.WriteByte(qb.separator())
	}
	qb.atStart = false
	qb.subqueryEmpty = false
	qb.lastElement = element
	qb.uri.WriteString(element)
}

// AppendOperation starts a new system query option segment. The name must
// begin with '$' and may appear only once per builder.
func (qb *QueryBuilder[T]) AppendOperation(operation string) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if !strings.HasPrefix(operation, string(OperationMarker)) {
		return qb.fail(operation, fmt.Errorf("%w: %q is not a valid OData operation", ErrInvalidGrammar, operation))
	}
	if _, exists := qb.operations[operation]; exists {
		return qb.fail(operation, fmt.Errorf("%w: %s has already been added to the query", ErrDuplicateElement, operation))
	}
	qb.currentOperation = operation
	qb.operations[operation] = struct{}{}
	qb.appendElement(operation)
	return qb
}

// AppendAlias starts a parameter alias segment. The name must begin with '@'
// and may appear only once per builder.
func (qb *QueryBuilder[T]) AppendAlias(alias string) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if !strings.HasPrefix(alias, string(AliasMarker)) {
		return qb.fail(alias, fmt.Errorf("%w: %q is not a valid OData alias", ErrInvalidGrammar, alias))
	}
	if _, exists := qb.aliases[alias]; exists {
		return qb.fail(alias, fmt.Errorf("%w: %s has already been added to the query", ErrDuplicateElement, alias))
	}
	qb.aliases[alias] = struct{}{}
	qb.appendElement(alias)
	return qb
}

// AssertCurrentOperation fails with ErrContextMismatch unless operation is
// the most recently appended operation. It never modifies the query.
func (qb *QueryBuilder[T]) AssertCurrentOperation(operation string) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if qb.currentOperation != operation {
		current := qb.currentOperation
		if current == "" {
			current = "no operation"
		}
		return qb.fail(operation, fmt.Errorf("%w: expected %s but was in %s", ErrContextMismatch, operation, current))
	}
	return qb
}

// AppendExpression writes '=' followed by the text of expression. The
// expression is written verbatim.
func (qb *QueryBuilder[T]) AppendExpression(expression any) *QueryBuilder[T] {
	return qb.write(ExpressionAssign, expression)
}

// AppendChainingExpression writes ',' followed by the text of expression,
// adding another item to the current operation.
func (qb *QueryBuilder[T]) AppendChainingExpression(expression any) *QueryBuilder[T] {
	return qb.write(ExpressionChain, expression)
}

// AppendModifier writes the text of modifier with no leading punctuation.
func (qb *QueryBuilder[T]) AppendModifier(modifier any) *QueryBuilder[T] {
	return qb.write(0, modifier)
}

func (qb *QueryBuilder[T]) write(prefix byte, value any) *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if prefix != 0 {
		qb.uri.WriteByte(prefix)
	}
	fmt.Fprint(&qb.uri, value)
	qb.subqueryEmpty = false
	return qb
}

// StartSubquery opens a parenthesized subquery. There must be content before
// it in the current segment.
func (qb *QueryBuilder[T]) StartSubquery() *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if qb.atStart {
		return qb.fail(string(OpenSubquery), fmt.Errorf("%w: cannot start a subquery at the start of another query", ErrInvalidGrammar))
	}
	qb.enclosing = append(qb.enclosing, qb.lastElement)
	qb.atStart = true
	qb.subqueryEmpty = true
	qb.subqueryLevel++
	qb.uri.WriteByte(OpenSubquery)
	return qb
}

// EndSubquery closes the innermost open subquery. Closing a subquery with no
// content is rejected.
func (qb *QueryBuilder[T]) EndSubquery() *QueryBuilder[T] {
	if qb.err != nil {
		return qb
	}
	if qb.subqueryLevel == 0 {
		return qb.fail(string(CloseSubquery), fmt.Errorf("%w: cannot end a subquery when no subquery started", ErrUnbalancedNesting))
	}
	if qb.subqueryEmpty {
		return qb.fail(string(CloseSubquery), fmt.Errorf("%w: cannot create an empty subquery", ErrInvalidGrammar))
	}
	qb.subqueryLevel--
	qb.lastElement = qb.enclosing[len(qb.enclosing)-1]
	qb.enclosing = qb.enclosing[:len(qb.enclosing)-1]
	qb.atStart = false
	qb.uri.WriteByte(CloseSubquery)
	return qb
}

// AppendSubquery copies the text of sub into the query. It is only valid
// while composing an $expand segment. Errors recorded by sub are propagated.
// The enclosing subquery counts as non-empty even when sub wrote nothing.
func (qb *QueryBuilder[T]) AppendSubquery(sub Builder) *QueryBuilder[T] {
	if qb.AssertCurrentOperation(OperationExpand).err != nil {
		return qb
	}
	if sub == nil {
		return qb.fail("subquery", fmt.Errorf("%w: subquery cannot be nil", ErrInvalidGrammar))
	}
	text, err := sub.Build()
	if err != nil {
		return qb.fail("subquery", fmt.Errorf("subquery: %w", err))
	}
	qb.subqueryEmpty = false
	if text == "" {
		return qb
	}
	qb.atStart = false
	qb.uri.WriteString(text)
	return qb
}

// Build returns the query text. It fails with the first recorded error, or
// with ErrUnbalancedNesting while a subquery is still open.
func (qb *QueryBuilder[T]) Build() (string, error) {
	if qb.err != nil {
		return "", qb.err
	}
	if qb.subqueryLevel != 0 {
		return "", fmt.Errorf("%w: subquery start and end mismatch, %d still open", ErrUnbalancedNesting, qb.subqueryLevel)
	}
	query := qb.uri.String()
	qb.logger.Debug("Built OData query", zap.String("query", query))
	return query, nil
}

// BuildURI returns the query parsed as a URL. Parse failures are reported as
// ErrMalformedURI.
func (qb *QueryBuilder[T]) BuildURI() (*url.URL, error) {
	query, err := qb.Build()
	if err != nil {
		return nil, err
	}
	return ParseURI(query)
}

// ParseURI parses query text, such as the result of Build, as a URL. Parse
// failures are reported as ErrMalformedURI.
func ParseURI(text string) (*url.URL, error) {
	u, err := url.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURI, err)
	}
	return u, nil
}
