package compiler

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/viant/xunsafe"

	"github.com/roach88/fspquery/internal/resolver"
)

// Compiler compiles instructions against record types using a resolver.
// A Compiler is immutable and safe for concurrent use.
type Compiler struct {
	resolver   *resolver.Resolver
	recordType reflect.Type
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithResolver sets the resolver. Defaults to resolver.Default.
func WithResolver(r *resolver.Resolver) Option {
	return func(c *Compiler) {
		c.resolver = r
	}
}

// WithRecordType sets the record type used when the element type of a
// Queryable is an interface (for example records built from a schema at run
// time). Elements must then be pointers to that struct type.
func WithRecordType(t reflect.Type) Option {
	return func(c *Compiler) {
		c.recordType = t
	}
}

// New returns a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{resolver: resolver.Default}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default compiles against resolver.Default.
var Default = New()

// Resolver returns the resolver c compiles against.
func (c *Compiler) Resolver() *resolver.Resolver {
	return c.orDefault().resolver
}

func (c *Compiler) orDefault() *Compiler {
	if c == nil {
		return Default
	}
	return c
}

// RecordAccess returns the struct type records of type T are read as, and a
// function yielding the address of the record a T value holds. Backends use
// it to read and build records the way compiled filters see them.
func RecordAccess[T any](c *Compiler) (reflect.Type, func(T) unsafe.Pointer, error) {
	return access[T](c.orDefault())
}

// access returns the record struct type behind T and a function yielding the
// address of the record held by a T value. The address is nil for nil
// pointers and for interface values of another type.
func access[T any](c *Compiler) (reflect.Type, func(T) unsafe.Pointer, error) {
	rt := reflect.TypeFor[T]()
	switch {
	case rt.Kind() == reflect.Struct:
		return rt, func(v T) unsafe.Pointer { return unsafe.Pointer(&v) }, nil

	case rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Struct:
		return rt.Elem(), func(v T) unsafe.Pointer { return xunsafe.AsPointer(v) }, nil

	case rt.Kind() == reflect.Interface && c.recordType != nil:
		st := c.recordType
		for st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		if st.Kind() != reflect.Struct {
			return nil, nil, fmt.Errorf("%w: %s", resolver.ErrNotRecord, c.recordType)
		}
		want := reflect.PointerTo(st)
		return st, func(v T) unsafe.Pointer {
			x := any(v)
			if x == nil || reflect.TypeOf(x) != want {
				return nil
			}
			return xunsafe.AsPointer(x)
		}, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", resolver.ErrNotRecord, rt)
}
