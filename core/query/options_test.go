package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilder_Options(t *testing.T) {
	tests := []struct {
		name     string
		buildFn  func(*QueryBuilder[customer]) *QueryBuilder[customer]
		expected string
	}{
		{
			name:     "Select single field",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Select("Name") },
			expected: "$select=Name",
		},
		{
			name:     "Select several fields",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Select("Name", "Age", "City") },
			expected: "$select=Name,Age,City",
		},
		{
			name:     "SelectEntity",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.SelectEntity() },
			expected: "$select=id,name,age",
		},
		{
			name:     "Filter",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Filter("Age gt 18") },
			expected: "$filter=Age gt 18",
		},
		{
			name:     "Search",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Search("blue OR green") },
			expected: "$search=blue OR green",
		},
		{
			name: "Apply and Compute",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.Compute("Age mul 2 as Double").Apply("groupby((City))")
			},
			expected: "$compute=Age mul 2 as Double&$apply=groupby((City))",
		},
		{
			name:     "Format and SkipToken",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Format("json").SkipToken("abc") },
			expected: "$format=json&$skiptoken=abc",
		},
		{
			name: "OrderBy with ThenBy",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.OrderBy("Name", SortDirectionDesc).ThenBy("Age", "").ThenBy("City", SortDirectionAsc)
			},
			expected: "$orderby=Name desc,Age,City asc",
		},
		{
			name:     "Top and Skip",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Top(10).Skip(0) },
			expected: "$top=10&$skip=0",
		},
		{
			name:     "Count",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Count(false) },
			expected: "$count=false",
		},
		{
			name:     "Expand chained",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Expand("Orders").Expand("Address") },
			expected: "$expand=Orders,Address",
		},
		{
			name: "ExpandWith followed by Expand",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.ExpandWith("Orders", NewSubquery[order]().Select("Id").Levels(-1)).Expand("Address")
			},
			expected: "$expand=Orders($select=Id;$levels=max),Address",
		},
		{
			name:     "Param",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Param("@name", StringLiteral("Ann")) },
			expected: "@name='Ann'",
		},
		{
			name: "full query",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.Select("Name", "Age").
					Filter("Age gt @p1").
					OrderBy("Name", SortDirectionAsc).
					Top(10).
					Skip(20).
					Count(true).
					Param("@p1", 18)
			},
			expected: "$select=Name,Age&$filter=Age gt @p1&$orderby=Name asc&$top=10&$skip=20&$count=true&@p1=18",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := tt.buildFn(New[customer]()).Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestQueryBuilder_OptionErrors(t *testing.T) {
	tests := []struct {
		name     string
		buildFn  func(*QueryBuilder[customer]) *QueryBuilder[customer]
		expected error
	}{
		{
			name:     "Select without fields",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Select() },
			expected: ErrInvalidGrammar,
		},
		{
			name:     "Select with empty field",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Select("Name", "") },
			expected: ErrInvalidGrammar,
		},
		{
			name:     "Filter twice",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Filter("a").Filter("b") },
			expected: ErrDuplicateElement,
		},
		{
			name:     "ThenBy without OrderBy",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.ThenBy("Name", "") },
			expected: ErrContextMismatch,
		},
		{
			name: "ThenBy after another option",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.OrderBy("Name", "").Top(1).ThenBy("Age", "")
			},
			expected: ErrContextMismatch,
		},
		{
			name:     "unknown sort direction",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.OrderBy("Name", "down") },
			expected: ErrInvalidGrammar,
		},
		{
			name:     "negative Top",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Top(-1) },
			expected: ErrInvalidGrammar,
		},
		{
			name:     "negative Skip",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Skip(-5) },
			expected: ErrInvalidGrammar,
		},
		{
			name: "Expand after another option",
			buildFn: func(qb *QueryBuilder[customer]) *QueryBuilder[customer] {
				return qb.Expand("Orders").Top(1).Expand("Address")
			},
			expected: ErrDuplicateElement,
		},
		{
			name:     "Expand with empty navigation",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Expand("") },
			expected: ErrInvalidGrammar,
		},
		{
			name:     "Param without marker",
			buildFn:  func(qb *QueryBuilder[customer]) *QueryBuilder[customer] { return qb.Param("p1", 1) },
			expected: ErrInvalidGrammar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.buildFn(New[customer]()).Build()
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestQueryBuilder_SelectEntityRequiresStruct(t *testing.T) {
	_, err := New[string]().SelectEntity().Build()
	assert.ErrorIs(t, err, ErrInvalidGrammar)

	_, err = New[any]().SelectEntity().Build()
	assert.ErrorIs(t, err, ErrInvalidGrammar)
}

func TestQueryBuilder_OptionsAfterError(t *testing.T) {
	qb := NewSubquery[order]().Top(-1)
	require.ErrorIs(t, qb.Err(), ErrInvalidGrammar)

	qb.Levels(2).Levels(-1).Skip(1).Count(true)
	assert.Equal(t, "", qb.String())
	assert.NotContains(t, qb.operations, OperationLevels)

	require.ErrorIs(t, qb.ClearErr(), ErrInvalidGrammar)
	text, err := qb.Levels(-1).Build()
	require.NoError(t, err)
	assert.Equal(t, "$levels=max", text)
}

func TestSortDirection_Valid(t *testing.T) {
	assert.True(t, SortDirection("").Valid())
	assert.True(t, SortDirectionAsc.Valid())
	assert.True(t, SortDirectionDesc.Valid())
	assert.False(t, SortDirection("DESC").Valid())
}
