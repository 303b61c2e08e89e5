package querysql

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/queryir"
)

// FoldFunc is the SQL function that case folds text the way ir.FoldText
// does. The store registers it on every connection.
const FoldFunc = "fsp_fold"

// RowIDColumn carries the source table's rowid through every select. It is
// the final ORDER BY key, so records that compare equal keep table order.
const RowIDColumn = "fsp_rowid"

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Every select ends its ORDER BY with RowIDColumn, so results are
// deterministic and sorting is stable. All values are bound as parameters,
// never interpolated.
type SQLCompiler struct {
	depth int // subquery alias counter
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated first; a query with problems is rejected with all
// of them listed.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if result := queryir.Validate(q); !result.IsValid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Problems, "; "))
	}
	c.depth = 0
	sql, params, _, err := c.compileQuery(q)
	return sql, params, err
}

// CompileCount compiles a query that counts the rows q returns.
func (c *SQLCompiler) CompileCount(q queryir.Query) (string, []any, error) {
	sql, params, err := c.Compile(q)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM (" + sql + ")", params, nil
}

// compileQuery also returns the effective ORDER BY of q, which an enclosing
// select appends after its own keys to keep the inner order.
func (c *SQLCompiler) compileQuery(q queryir.Query) (string, []any, []string, error) {
	switch query := q.(type) {
	case queryir.Table:
		return c.compileTable(query)
	case *queryir.Table:
		return c.compileTable(*query)
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileTable selects the listed columns plus the rowid.
// Example: SELECT rowid AS "fsp_rowid", "name", "tier" FROM "customers"
func (c *SQLCompiler) compileTable(t queryir.Table) (string, []any, []string, error) {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, "rowid AS "+QuoteIdent(RowIDColumn))
	for _, f := range t.Columns {
		cols = append(cols, QuoteIdent(f.Column))
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), QuoteIdent(t.Name))
	return sql, nil, []string{QuoteIdent(RowIDColumn)}, nil
}

// compileSelect compiles a queryir.Select over a table or a subquery.
//
// Parameters are collected in clause order: WHERE, then LIMIT and OFFSET.
// Subquery parameters come first because the subquery is in FROM.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, []string, error) {
	var (
		sql    strings.Builder
		params []any
		inner  []string
	)

	switch from := q.From.(type) {
	case queryir.Table:
		tableSQL, _, order, _ := c.compileTable(from)
		sql.WriteString(tableSQL)
		inner = order
	case *queryir.Table:
		tableSQL, _, order, _ := c.compileTable(*from)
		sql.WriteString(tableSQL)
		inner = order
	default:
		fromSQL, fromParams, order, err := c.compileQuery(q.From)
		if err != nil {
			return "", nil, nil, fmt.Errorf("compile source: %w", err)
		}
		c.depth++
		fmt.Fprintf(&sql, "SELECT * FROM (%s) AS q%d", fromSQL, c.depth)
		params = append(params, fromParams...)
		inner = order
	}

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, nil, fmt.Errorf("compile filter: %w", err)
		}
		sql.WriteString(" WHERE " + filterSQL)
		params = append(params, filterParams...)
	}

	order := make([]string, 0, len(q.Order)+len(inner))
	for _, o := range q.Order {
		key := QuoteIdent(o.Field.Column) + " COLLATE BINARY"
		if o.Descending {
			key += " DESC"
		} else {
			key += " ASC"
		}
		order = append(order, key)
	}
	order = append(order, inner...)
	sql.WriteString(" ORDER BY " + strings.Join(order, ", "))

	if q.Limit != nil || q.Offset != 0 {
		limit := -1
		if q.Limit != nil {
			limit = max(*q.Limit, 0)
		}
		sql.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, limit, max(q.Offset, 0))
	}

	return sql.String(), params, order, nil
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// Returns (sql, params, error).
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.Text:
		return c.compileText(pred)
	case *queryir.Text:
		return c.compileText(*pred)
	case queryir.IsNull:
		return QuoteIdent(pred.Field.Column) + " IS NULL", nil, nil
	case *queryir.IsNull:
		return QuoteIdent(pred.Field.Column) + " IS NULL", nil, nil
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileCompare compiles "field op ?". A null column makes the comparison
// NULL, which WHERE treats as false.
func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	param, err := valueToParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s %s ?", QuoteIdent(cmp.Field.Column), cmp.Op), []any{param}, nil
}

// compileText matches code points, not bytes. With IgnoreCase the column is
// folded by FoldFunc and the needle is folded here.
func (c *SQLCompiler) compileText(t queryir.Text) (string, []any, error) {
	col := QuoteIdent(t.Field.Column)
	needle := t.Value
	if t.IgnoreCase {
		col = FoldFunc + "(" + col + ")"
		needle = ir.FoldText(needle)
	}

	if needle == "" && t.Op != queryir.TextEqual {
		return QuoteIdent(t.Field.Column) + " IS NOT NULL", nil, nil
	}

	switch t.Op {
	case queryir.TextContains:
		return fmt.Sprintf("instr(%s, ?) > 0", col), []any{needle}, nil
	case queryir.TextPrefix:
		return fmt.Sprintf("substr(%s, 1, ?) = ?", col), []any{utf8.RuneCountInString(needle), needle}, nil
	case queryir.TextSuffix:
		return fmt.Sprintf("substr(%s, ?) = ?", col), []any{-utf8.RuneCountInString(needle), needle}, nil
	default:
		return fmt.Sprintf("%s = ?", col), []any{needle}, nil
	}
}

// compileNot negates with two-valued logic: a NULL inner result counts as
// false, so the negation is true.
func (c *SQLCompiler) compileNot(n queryir.Not) (string, []any, error) {
	inner, params, err := c.compilePredicate(n.Predicate)
	if err != nil {
		return "", nil, err
	}
	return "NOT COALESCE((" + inner + "), 0)", params, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// QuoteIdent quotes an SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// valueToParam converts an ir.Value to a driver parameter. Times are bound
// in UTC so stored and compared text forms agree.
func valueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.Time:
		return val.UTC(), nil
	case ir.Null, nil:
		return nil, errors.New("null cannot be bound in a comparison")
	default:
		return ir.Native(v), nil
	}
}
