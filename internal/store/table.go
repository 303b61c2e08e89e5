package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/querysql"
	"github.com/roach88/fspquery/internal/queryir"
	"github.com/roach88/fspquery/internal/resolver"
)

// ErrSchemaMismatch is returned by CreateTable when a table of the same name
// was created for a record type with different columns.
var ErrSchemaMismatch = errors.New("table exists with different columns")

// columnTypes maps a leaf kind to its declared SQLite type. The declared
// types make go-sqlite3 return bool and time.Time values.
var columnTypes = map[ir.Kind]string{
	ir.KindString: "TEXT",
	ir.KindInt:    "INTEGER",
	ir.KindUint:   "INTEGER",
	ir.KindFloat:  "REAL",
	ir.KindBool:   "BOOLEAN",
	ir.KindTime:   "TIMESTAMP",
}

// Table is a compiler.Queryable over a SQLite table of records of type T.
//
// One column is stored per scalar leaf path, named by resolver.Path.Column,
// so nested records are flattened. A nested record that is nil and one whose
// fields are all null are stored alike and read back as nil.
//
// Where, OrderBy, Skip and Take only build the query; All and Count run it.
// A Table is immutable and safe for concurrent use.
type Table[T any] struct {
	store      *Store
	name       string
	recordType reflect.Type
	addr       func(T) unsafe.Pointer
	leaves     []resolver.Path
	columns    map[string]resolver.Path
	query      queryir.Select
}

// NewTable describes the table name holding records of type T. The record
// layout comes from c's resolver; the table is not created. s may be nil for
// a table that only builds queries.
func NewTable[T any](s *Store, name string, c *compiler.Compiler) (*Table[T], error) {
	rt, addr, err := compiler.RecordAccess[T](c)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	leaves, err := c.Resolver().Leaves(rt)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("table %s: %s has no scalar fields", name, rt)
	}

	source := queryir.Table{Name: name}
	columns := make(map[string]resolver.Path, len(leaves))
	for _, p := range leaves {
		if _, dup := columns[p.Column()]; dup {
			return nil, fmt.Errorf("table %s: column %q is used twice", name, p.Column())
		}
		columns[p.Column()] = p
		source.Columns = append(source.Columns, queryir.Field{Path: p.String(), Column: p.Column()})
	}

	return &Table[T]{
		store:      s,
		name:       name,
		recordType: rt,
		addr:       addr,
		leaves:     leaves,
		columns:    columns,
		query:      queryir.Select{From: source},
	}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.name
}

// Values reads every scalar leaf of rec, keyed by dotted property path.
// Leaves under a nil record, and every leaf of a nil rec, are ir.Null.
func (t *Table[T]) Values(rec T) map[string]ir.Value {
	p := t.addr(rec)
	out := make(map[string]ir.Value, len(t.leaves))
	for _, leaf := range t.leaves {
		if p == nil {
			out[leaf.String()] = ir.Null{}
			continue
		}
		out[leaf.String()] = leaf.Value(p)
	}
	return out
}

// Query returns the abstract query the table would run.
func (t *Table[T]) Query() queryir.Select {
	return t.query
}

// CreateTable creates the table and records it in the catalog. Creating a
// table that exists with the same columns is a no-op.
func (t *Table[T]) CreateTable(ctx context.Context) error {
	columns := make([]any, len(t.leaves))
	defs := make([]string, len(t.leaves))
	for i, p := range t.leaves {
		typ := columnTypes[p.Leaf().Kind]
		columns[i] = map[string]any{"column": p.Column(), "path": p.String(), "type": typ}
		defs[i] = querysql.QuoteIdent(p.Column()) + " " + typ
	}
	doc, err := ir.MarshalCanonical(columns)
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}
	fingerprint, err := ir.Fingerprint(ir.DomainTable, map[string]any{"columns": columns})
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}

	var existing string
	err = t.store.db.QueryRowContext(ctx, `SELECT fingerprint FROM fsp_tables WHERE name = ?`, t.name).Scan(&existing)
	switch {
	case err == nil && existing == fingerprint:
		return nil
	case err == nil:
		return fmt.Errorf("create table %s: %w", t.name, ErrSchemaMismatch)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("create table %s: read catalog: %w", t.name, err)
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", querysql.QuoteIdent(t.name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fsp_tables (name, record_type, columns, fingerprint)
		VALUES (?, ?, ?, ?)
	`, t.name, t.recordType.String(), string(doc), fingerprint); err != nil {
		return fmt.Errorf("create table %s: write catalog: %w", t.name, err)
	}
	return tx.Commit()
}

// Insert writes records in one transaction. Nil records are skipped.
func (t *Table[T]) Insert(ctx context.Context, records ...T) error {
	cols := make([]string, len(t.leaves))
	marks := make([]string, len(t.leaves))
	for i, p := range t.leaves {
		cols[i] = querysql.QuoteIdent(p.Column())
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.QuoteIdent(t.name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	defer prepared.Close()

	args := make([]any, len(t.leaves))
	for _, rec := range records {
		p := t.addr(rec)
		if p == nil {
			continue
		}
		for i, leaf := range t.leaves {
			args[i] = toParam(leaf.Value(p))
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.name, err)
		}
	}
	return tx.Commit()
}

// toParam binds times in UTC so stored text forms compare in time order.
func toParam(v ir.Value) any {
	if tv, ok := v.(ir.Time); ok {
		return tv.UTC()
	}
	return ir.Native(v)
}

func (t *Table[T]) with(q queryir.Select) *Table[T] {
	next := *t
	next.query = q
	return &next
}

// paged reports whether the current select already skips or takes. Steps
// after paging apply to the page, so they go in an enclosing select.
func (t *Table[T]) paged() bool {
	return t.query.Offset != 0 || t.query.Limit != nil
}

func (t *Table[T]) nested() queryir.Select {
	return queryir.Select{From: t.query}
}

// Where adds p to the filter conjunction.
func (t *Table[T]) Where(p compiler.Predicate[T]) compiler.Queryable[T] {
	q := t.query
	if t.paged() {
		q = t.nested()
	}
	switch f := q.Filter.(type) {
	case nil:
		q.Filter = p.Expr
	case queryir.And:
		preds := append(make([]queryir.Predicate, 0, len(f.Predicates)+1), f.Predicates...)
		q.Filter = queryir.And{Predicates: append(preds, p.Expr)}
	default:
		q.Filter = queryir.And{Predicates: []queryir.Predicate{f, p.Expr}}
	}
	return t.with(q)
}

// OrderBy makes o the primary sort key. Earlier keys break its ties, which
// is what a stable sort over the earlier order gives.
func (t *Table[T]) OrderBy(o compiler.Ordering[T]) compiler.Queryable[T] {
	q := t.query
	if t.paged() {
		q = t.nested()
	}
	q.Order = append([]queryir.Order{o.Expr}, q.Order...)
	return t.with(q)
}

// Skip sets the offset.
func (t *Table[T]) Skip(n int) compiler.Queryable[T] {
	q := t.query
	if t.paged() {
		q = t.nested()
	}
	q.Offset = n
	return t.with(q)
}

// Take sets the limit.
func (t *Table[T]) Take(n int) compiler.Queryable[T] {
	q := t.query
	if q.Limit != nil {
		q = t.nested()
	}
	q.Limit = &n
	return t.with(q)
}

// All runs the query and returns the matching records.
//
// Returns an empty slice (not nil) if nothing matches.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(t.query)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}
	rows, err := t.store.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}

	out := []T{}
	for rows.Next() {
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return nil, fmt.Errorf("select from %s: %w", t.name, err)
		}
		rec, err := t.build(columns, values)
		if err != nil {
			return nil, fmt.Errorf("select from %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}
	return out, nil
}

// Count runs the query and returns the number of matching records.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	query, params, err := querysql.NewSQLCompiler().CompileCount(t.query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	var n int
	if err := t.store.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}

// build creates a record from one row. Null columns leave their field
// unset, and nested records are allocated only for non-null columns.
func (t *Table[T]) build(columns []string, values []any) (T, error) {
	var zero T
	ptr := reflect.New(t.recordType)
	for i, col := range columns {
		path, ok := t.columns[col]
		if !ok || values[i] == nil {
			continue
		}
		raw, ok := ir.FromGo(values[i])
		if !ok {
			return zero, fmt.Errorf("column %s: unsupported value %T", col, values[i])
		}
		v, err := ir.Coerce(raw, path.Leaf().Kind)
		if err != nil {
			return zero, fmt.Errorf("column %s: %w", col, err)
		}
		target := path.Target(ptr.UnsafePointer())
		if !target.IsValid() {
			continue
		}
		if err := resolver.Assign(target, v); err != nil {
			return zero, fmt.Errorf("column %s: %w", col, err)
		}
	}

	if reflect.TypeFor[T]().Kind() == reflect.Struct {
		return ptr.Elem().Interface().(T), nil
	}
	rec, ok := ptr.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%s does not implement %s", ptr.Type(), reflect.TypeFor[T]())
	}
	return rec, nil
}
