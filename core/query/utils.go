// Package query provides helpers that format Go values as OData literals for
// use inside filter expressions and parameter aliases.
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NullLiteral is the OData null literal.
const NullLiteral = "null"

// StringLiteral quotes s as an OData string literal, doubling embedded
// single quotes.
func StringLiteral(s string) string {
	const quote = string(literalStringQuote)
	return quote + strings.ReplaceAll(s, quote, quote+quote) + quote
}

// GUIDLiteral formats id as an OData Edm.Guid literal.
func GUIDLiteral(id uuid.UUID) string {
	return id.String()
}

// DateTimeOffsetLiteral formats t as an OData Edm.DateTimeOffset literal.
func DateTimeOffsetLiteral(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// DateLiteral formats the calendar date of t as an OData Edm.Date literal.
func DateLiteral(t time.Time) string {
	return t.Format(time.DateOnly)
}

// BoolLiteral formats b as an OData boolean literal.
func BoolLiteral(b bool) string {
	return strconv.FormatBool(b)
}

// Literal formats a Go value as an OData literal. It returns an error for
// types that have no literal form.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return NullLiteral, nil
	case string:
		return StringLiteral(val), nil
	case bool:
		return BoolLiteral(val), nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return floatLiteral(float64(val), 32), nil
	case float64:
		return floatLiteral(val, 64), nil
	case uuid.UUID:
		return GUIDLiteral(val), nil
	case time.Time:
		return DateTimeOffsetLiteral(val), nil
	case fmt.Stringer:
		return StringLiteral(val.String()), nil
	default:
		return "", fmt.Errorf("unsupported OData literal type %T", v)
	}
}

func floatLiteral(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}
}
