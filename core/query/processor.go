package query

import "strings"

// String returns the segment in its query form.
func (s Segment) String() string {
	if !s.hasExpression() {
		return s.Name
	}
	return s.Name + string(ExpressionAssign) + s.Value
}

func (s Segment) hasExpression() bool {
	return s.Assigned || s.Value != ""
}

// SplitSegments splits built query text into its top-level segments. Text up
// to and including the first '?' is treated as a resource path and dropped,
// unless the text already starts with an operation or alias. Separators
// inside parentheses or single-quoted literals do not split.
//
// For example "$expand=Orders($select=Id;$top=5)&$top=10" yields the
// segments "$expand" and "$top".
func SplitSegments(text string) []Segment {
	if !strings.HasPrefix(text, string(OperationMarker)) && !strings.HasPrefix(text, string(AliasMarker)) {
		if i := strings.IndexByte(text, QueryStart); i >= 0 {
			text = text[i+1:]
		}
	}

	var (
		segments []Segment
		depth    int
		quoted   bool
		start    int
	)
	emit := func(end int) {
		if part := text[start:end]; part != "" {
			name, value, assigned := strings.Cut(part, string(ExpressionAssign))
			segments = append(segments, Segment{Name: name, Value: value, Assigned: assigned})
		}
		start = end + 1
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case literalStringQuote:
			quoted = !quoted
		case OpenSubquery:
			if !quoted {
				depth++
			}
		case CloseSubquery:
			if !quoted && depth > 0 {
				depth--
			}
		case TopLevelSeparator, SubquerySeparator:
			if !quoted && depth == 0 {
				emit(i)
			}
		}
	}
	emit(len(text))
	return segments
}

// FromSegments replays segments into a new top-level builder. Replaying
// text written by another top-level builder reproduces it exactly, and
// replaying hand-written text checks its top-level grammar.
func FromSegments[T any](segments []Segment, opts ...Option) *QueryBuilder[T] {
	return replay(New[T](opts...), segments)
}

// FromSubquerySegments is FromSegments for text written by a subquery
// builder. The replayed segments are joined with ';'.
func FromSubquerySegments[T any](segments []Segment, opts ...Option) *QueryBuilder[T] {
	return replay(NewSubquery[T](opts...), segments)
}

func replay[T any](qb *QueryBuilder[T], segments []Segment) *QueryBuilder[T] {
	for _, segment := range segments {
		if strings.HasPrefix(segment.Name, string(AliasMarker)) {
			qb.AppendAlias(segment.Name)
		} else {
			qb.AppendOperation(segment.Name)
		}
		if segment.hasExpression() {
			qb.AppendExpression(segment.Value)
		}
	}
	return qb
}
