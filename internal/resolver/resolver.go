package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/roach88/fspquery/internal/ir"
)

// ErrInvalidPath is the kind of every PathError.
var ErrInvalidPath = errors.New("invalid property path")

// PathError reports a property path that does not resolve on a record type.
// Path is always the full path as given, even when a later segment failed.
type PathError struct {
	Type    reflect.Type
	Path    string
	Segment string
	Err     error // underlying cause, nil for an unknown segment
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("the property path %q is invalid", e.Path)
	if e.Segment != "" {
		msg += fmt.Sprintf(" (segment %q)", e.Segment)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PathError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidPath, e.Err}
	}
	return []error{ErrInvalidPath}
}

// IsPathError checks if an error is a PathError.
func IsPathError(err error) bool {
	var pe *PathError
	return errors.As(err, &pe)
}

// Resolver caches field tables per record type.
// A Resolver is safe for concurrent use.
type Resolver struct {
	introspector Introspector
	tables       sync.Map // reflect.Type -> *table
}

type table struct {
	once   sync.Once
	fields []*Descriptor
	byName map[string]*Descriptor
	err    error
}

// Default is the process-wide resolver using the zero Introspector.
var Default = New(Introspector{})

// New returns a resolver with its own cache.
func New(in Introspector) *Resolver {
	return &Resolver{introspector: in}
}

// table returns the populated table for t, building it on first use.
func (r *Resolver) table(t reflect.Type) (*table, error) {
	st, err := recordType(t)
	if err != nil {
		return nil, err
	}

	v, ok := r.tables.Load(st)
	if !ok {
		v, _ = r.tables.LoadOrStore(st, &table{})
	}
	tbl := v.(*table)
	tbl.once.Do(func() {
		tbl.fields, tbl.err = r.introspector.Fields(st)
		if tbl.err != nil {
			slog.Debug("resolver: field table rejected", "type", st.String(), "error", tbl.err)
			return
		}
		tbl.byName = make(map[string]*Descriptor, len(tbl.fields))
		for _, d := range tbl.fields {
			tbl.byName[ir.FoldName(d.ExternalName)] = d
		}
		slog.Debug("resolver: field table built", "type", st.String(), "fields", len(tbl.fields))
	})
	return tbl, tbl.err
}

// Preload builds the field table of t and of every record type reachable
// from it.
func (r *Resolver) Preload(t reflect.Type) error {
	_, err := r.Leaves(t)
	return err
}

// Fields returns the top-level descriptors of t in declaration order.
func (r *Resolver) Fields(t reflect.Type) ([]*Descriptor, error) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, err
	}
	return tbl.fields, nil
}

// Resolve looks up one external name on t, ignoring case.
func (r *Resolver) Resolve(t reflect.Type, name string) (*Descriptor, bool) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, false
	}
	d, ok := tbl.byName[ir.FoldName(name)]
	return d, ok
}

// ResolvePath resolves a dot-separated path of external names. Every
// segment but the last must name a record field.
func (r *Resolver) ResolvePath(t reflect.Type, path string) (Path, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &PathError{Type: t, Path: path}
	}

	segments := strings.Split(path, ".")
	out := make(Path, 0, len(segments))
	current := t
	for i, seg := range segments {
		tbl, err := r.table(current)
		if err != nil {
			return nil, &PathError{Type: t, Path: path, Segment: seg, Err: err}
		}
		d, ok := tbl.byName[ir.FoldName(seg)]
		if !ok {
			return nil, &PathError{Type: t, Path: path, Segment: seg}
		}
		if i < len(segments)-1 {
			if d.Category != Record {
				return nil, &PathError{Type: t, Path: path, Segment: seg, Err: fmt.Errorf("%s is not a record", d.ExternalName)}
			}
			current = d.Nested
		}
		out = append(out, d)
	}
	return out, nil
}

// SetValue writes raw into the scalar field path names on record, which
// must be a non-nil pointer to a struct. raw is converted to the field's
// kind the way filter values are; nil clears a nullable field.
func (r *Resolver) SetValue(record any, path string, raw any) error {
	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("set %q: record must be a non-nil struct pointer, got %T", path, record)
	}

	p, err := r.ResolvePath(rv.Type(), path)
	if err != nil {
		return err
	}
	leaf := p.Leaf()
	if !leaf.Scalar() {
		return &PathError{Type: rv.Type(), Path: path, Segment: leaf.ExternalName, Err: fmt.Errorf("%s is not a scalar field", leaf.ExternalName)}
	}

	v, err := ir.Coerce(raw, leaf.Kind)
	if err != nil {
		return fmt.Errorf("set %q: %w", path, err)
	}
	if err := p.Set(rv.UnsafePointer(), v); err != nil {
		return fmt.Errorf("set %q: %w", path, err)
	}
	return nil
}

// Leaves returns every scalar path of t, depth first in declaration order.
// Record types that contain themselves are expanded once.
func (r *Resolver) Leaves(t reflect.Type) ([]Path, error) {
	var out []Path
	if err := r.leaves(t, nil, map[reflect.Type]bool{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) leaves(t reflect.Type, prefix Path, visiting map[reflect.Type]bool, out *[]Path) error {
	fields, err := r.Fields(t)
	if err != nil {
		return err
	}
	st, _ := recordType(t)
	visiting[st] = true
	defer delete(visiting, st)

	for _, d := range fields {
		path := append(prefix[:len(prefix):len(prefix)], d)
		switch {
		case d.Scalar():
			*out = append(*out, path)
		case d.Category == Record && !visiting[d.Nested]:
			if err := r.leaves(d.Nested, path, visiting, out); err != nil {
				return err
			}
		}
	}
	return nil
}
