package querysql

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/queryir"
)

func field(path, column string) queryir.Field {
	return queryir.Field{Path: path, Column: column}
}

func intPtr(n int) *int {
	return &n
}

var customers = queryir.Table{
	Name: "customers",
	Columns: []queryir.Field{
		field("name", "name"),
		field("tier", "tier"),
		field("lovedOne.nickname", "pet_nickname"),
		field("lovedOne.ageInYears", "pet_age"),
	},
}

var items = queryir.Table{
	Name:    "items",
	Columns: []queryir.Field{field("id", "id"), field("price", "price")},
}

// render writes the SQL on one line and the typed parameters on the next.
func render(sql string, params []any) []byte {
	typed := make([]string, len(params))
	for i, p := range params {
		typed[i] = fmt.Sprintf("%T(%v)", p, p)
	}
	return []byte(sql + "\n" + strings.Join(typed, " ") + "\n")
}

func TestCompile_Golden(t *testing.T) {
	testCases := []struct {
		name  string
		query queryir.Query
		count bool
	}{
		{
			name: "customer_page",
			query: queryir.Select{
				From: customers,
				Filter: queryir.And{Predicates: []queryir.Predicate{
					queryir.Not{Predicate: queryir.Text{Field: field("name", "name"), Op: queryir.TextContains, Value: "r", IgnoreCase: true}},
					queryir.Text{Field: field("lovedOne.nickname", "pet_nickname"), Op: queryir.TextSuffix, Value: "h", IgnoreCase: true},
					queryir.Compare{Field: field("tier", "tier"), Op: queryir.OpEqual, Value: ir.Int(1)},
					queryir.Compare{Field: field("lovedOne.ageInYears", "pet_age"), Op: queryir.OpGreater, Value: ir.Int(1)},
				}},
				Order:  []queryir.Order{{Field: field("lovedOne.nickname", "pet_nickname")}},
				Offset: 20,
				Limit:  intPtr(10),
			},
		},
		{
			name: "nested_select",
			query: queryir.Select{
				From: queryir.Select{
					From:  items,
					Order: []queryir.Order{{Field: field("price", "price"), Descending: true}},
					Limit: intPtr(5),
				},
				Filter: queryir.Compare{Field: field("id", "id"), Op: queryir.OpGreaterOrEqual, Value: ir.Int(3)},
			},
		},
		{
			name:  "count",
			query: queryir.Select{From: items, Filter: queryir.IsNull{Field: field("price", "price")}},
			count: true,
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compile := NewSQLCompiler().Compile
			if tc.count {
				compile = NewSQLCompiler().CompileCount
			}
			sql, params, err := compile(tc.query)
			require.NoError(t, err)
			g.Assert(t, tc.name, render(sql, params))
		})
	}
}

func TestCompile_Predicates(t *testing.T) {
	name := field("name", "name")

	testCases := []struct {
		name   string
		pred   queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "equals case sensitive",
			pred:   queryir.Text{Field: name, Op: queryir.TextEqual, Value: "John"},
			where:  `"name" = ?`,
			params: []any{"John"},
		},
		{
			name:   "equals folded",
			pred:   queryir.Text{Field: name, Op: queryir.TextEqual, Value: "Straße", IgnoreCase: true},
			where:  `fsp_fold("name") = ?`,
			params: []any{"strasse"},
		},
		{
			name:   "prefix counts code points",
			pred:   queryir.Text{Field: name, Op: queryir.TextPrefix, Value: "Zoë"},
			where:  `substr("name", 1, ?) = ?`,
			params: []any{3, "Zoë"},
		},
		{
			name:   "contains",
			pred:   queryir.Text{Field: name, Op: queryir.TextContains, Value: "oh"},
			where:  `instr("name", ?) > 0`,
			params: []any{"oh"},
		},
		{
			name:  "empty needle",
			pred:  queryir.Text{Field: name, Op: queryir.TextSuffix, Value: "", IgnoreCase: true},
			where: `"name" IS NOT NULL`,
		},
		{
			name:   "empty equals",
			pred:   queryir.Text{Field: name, Op: queryir.TextEqual, Value: ""},
			where:  `"name" = ?`,
			params: []any{""},
		},
		{
			name:  "not null",
			pred:  queryir.Not{Predicate: queryir.IsNull{Field: name}},
			where: `NOT COALESCE(("name" IS NULL), 0)`,
		},
		{
			name:   "bool",
			pred:   queryir.Compare{Field: field("active", "active"), Op: queryir.OpEqual, Value: ir.Bool(true)},
			where:  `"active" = ?`,
			params: []any{true},
		},
		{
			name:   "float",
			pred:   queryir.Compare{Field: field("price", "price"), Op: queryir.OpLessOrEqual, Value: ir.Float(2.5)},
			where:  `"price" <= ?`,
			params: []any{2.5},
		},
		{
			name:  "empty and",
			pred:  queryir.And{},
			where: `1 = 1`,
		},
		{
			name:  "quoted column",
			pred:  queryir.IsNull{Field: field("odd", `we"ird`)},
			where: `"we""ird" IS NULL`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().compilePredicate(tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.where, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_TimeIsBoundInUTC(t *testing.T) {
	local := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	_, params, err := NewSQLCompiler().compilePredicate(queryir.Compare{
		Field: field("joinedAt", "joined_at"),
		Op:    queryir.OpGreater,
		Value: ir.Time{Time: local},
	})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, time.UTC, params[0].(time.Time).Location())
	assert.True(t, local.Equal(params[0].(time.Time)))
}

func TestCompile_Paging(t *testing.T) {
	testCases := []struct {
		name   string
		offset int
		limit  *int
		suffix string
		params []any
	}{
		{"unbounded", 0, nil, `ORDER BY "fsp_rowid"`, nil},
		{"offset only", 10, nil, `LIMIT ? OFFSET ?`, []any{-1, 10}},
		{"negative values", -20, intPtr(-5), `LIMIT ? OFFSET ?`, []any{0, 0}},
		{"first page", 0, intPtr(100), `LIMIT ? OFFSET ?`, []any{100, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: items, Offset: tc.offset, Limit: tc.limit})
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(sql, tc.suffix), sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_Table(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(items)
	require.NoError(t, err)
	assert.Equal(t, `SELECT rowid AS "fsp_rowid", "id", "price" FROM "items"`, sql)
	assert.Empty(t, params)
}

func TestCompile_RejectsInvalidQueries(t *testing.T) {
	testCases := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil", nil, "nil query"},
		{"no source", queryir.Select{}, "invalid query"},
		{"no columns", queryir.Table{Name: "t"}, "no columns"},
		{
			name: "null compare",
			query: queryir.Select{From: items, Filter: queryir.Compare{
				Field: field("price", "price"), Value: ir.Null{},
			}},
			want: "IsNull",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Empty(t, sql)
			assert.Nil(t, params)
		})
	}
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:   customers,
		Filter: queryir.Text{Field: field("name", "name"), Op: queryir.TextEqual, Value: "'; DROP TABLE customers; --"},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"'; DROP TABLE customers; --"}, params)
}
