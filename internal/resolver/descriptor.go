package resolver

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/viant/xunsafe"

	"github.com/roach88/fspquery/internal/ir"
)

// Category groups field types by the operators they support.
type Category int

const (
	Unsupported Category = iota
	Text
	Ordered
	Boolean
	Record
)

func (c Category) String() string {
	switch c {
	case Text:
		return "text"
	case Ordered:
		return "ordered"
	case Boolean:
		return "boolean"
	case Record:
		return "record"
	default:
		return "unsupported"
	}
}

// Descriptor describes one field of a record type.
type Descriptor struct {
	InternalName string       // Go field name
	ExternalName string       // alias, or InternalName when the field has none
	Type         reflect.Type // declared field type
	Nested       reflect.Type // struct type for Record fields, pointer stripped
	Category     Category
	Kind         ir.Kind // comparison kind for scalar fields
	Nullable     bool    // pointer-typed field
	Column       string  // storage column for this segment
	Index        []int   // reflect index path, through embedded structs

	steps []step
}

// step is one field hop from a struct pointer. deref is set for embedded
// pointer structs that must be followed to reach the next hop.
type step struct {
	field *xunsafe.Field
	deref bool
}

// Scalar reports whether the field holds a comparable value.
func (d *Descriptor) Scalar() bool {
	switch d.Category {
	case Text, Ordered, Boolean:
		return true
	}
	return false
}

// owner returns the address of the struct that directly holds the field, or
// nil when an embedded pointer on the way is nil.
func (d *Descriptor) owner(record unsafe.Pointer) unsafe.Pointer {
	p := record
	for _, s := range d.steps[:len(d.steps)-1] {
		if p == nil {
			return nil
		}
		p = s.field.Pointer(p)
		if s.deref {
			p = *(*unsafe.Pointer)(p)
		}
	}
	return p
}

func (d *Descriptor) last() *xunsafe.Field {
	return d.steps[len(d.steps)-1].field
}

// Addr returns the address of the field within record, or nil.
func (d *Descriptor) Addr(record unsafe.Pointer) unsafe.Pointer {
	if record == nil {
		return nil
	}
	owner := d.owner(record)
	if owner == nil {
		return nil
	}
	return d.last().Pointer(owner)
}

// Value reads a scalar field from record. A nil record, a nil embedded
// pointer or a nil pointer field all read as Null.
func (d *Descriptor) Value(record unsafe.Pointer) ir.Value {
	if record == nil {
		return ir.Null{}
	}
	owner := d.owner(record)
	if owner == nil {
		return ir.Null{}
	}
	v, ok := ir.FromGo(d.last().Value(owner))
	if !ok {
		return ir.Null{}
	}
	return v
}

// Child returns the address of the nested record held by a Record field, or
// nil when the field is a nil pointer.
func (d *Descriptor) Child(record unsafe.Pointer) unsafe.Pointer {
	addr := d.Addr(record)
	if addr == nil {
		return nil
	}
	if d.Nullable {
		return *(*unsafe.Pointer)(addr)
	}
	return addr
}

// Path is a resolved property path: every element but the last is a Record
// field.
type Path []*Descriptor

// Leaf returns the final descriptor.
func (p Path) Leaf() *Descriptor {
	return p[len(p)-1]
}

// String returns the dotted external names.
func (p Path) String() string {
	names := make([]string, len(p))
	for i, d := range p {
		names[i] = d.ExternalName
	}
	return strings.Join(names, ".")
}

// Column returns the storage column for the path: segment columns joined
// with "_".
func (p Path) Column() string {
	cols := make([]string, len(p))
	for i, d := range p {
		cols[i] = d.Column
	}
	return strings.Join(cols, "_")
}

// Value reads the leaf value from record. A nil record anywhere on the path
// reads as Null.
func (p Path) Value(record unsafe.Pointer) ir.Value {
	for _, d := range p[:len(p)-1] {
		record = d.Child(record)
		if record == nil {
			return ir.Null{}
		}
	}
	return p.Leaf().Value(record)
}

// Target returns a settable reflect.Value for the leaf, allocating nil
// nested records on the way. The result is invalid when a nil embedded
// pointer blocks the path.
func (p Path) Target(record unsafe.Pointer) reflect.Value {
	for _, d := range p[:len(p)-1] {
		addr := d.Addr(record)
		if addr == nil {
			return reflect.Value{}
		}
		if d.Nullable {
			slot := (*unsafe.Pointer)(addr)
			if *slot == nil {
				*slot = reflect.New(d.Nested).UnsafePointer()
			}
			record = *slot
			continue
		}
		record = addr
	}
	addr := p.Leaf().Addr(record)
	if addr == nil {
		return reflect.Value{}
	}
	return reflect.NewAt(p.Leaf().Type, addr).Elem()
}

// Set stores v in the leaf of record. Null clears a nullable leaf and leaves
// nil nested records alone; any other value allocates them.
func (p Path) Set(record unsafe.Pointer, v ir.Value) error {
	leaf := p.Leaf()
	if ir.IsNull(v) {
		if !leaf.Nullable {
			return fmt.Errorf("%s is not nullable", p)
		}
		for _, d := range p[:len(p)-1] {
			if record = d.Child(record); record == nil {
				return nil
			}
		}
		if addr := leaf.Addr(record); addr != nil {
			reflect.NewAt(leaf.Type, addr).Elem().SetZero()
		}
		return nil
	}

	target := p.Target(record)
	if !target.IsValid() {
		return fmt.Errorf("%s is behind a nil embedded pointer", p)
	}
	return Assign(target, v)
}

// Assign stores v in dst, allocating dst when it is a pointer. Integers
// that do not fit dst are rejected.
func Assign(dst reflect.Value, v ir.Value) error {
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	native := reflect.ValueOf(ir.Native(v))
	if !native.IsValid() || !native.Type().ConvertibleTo(dst.Type()) {
		return fmt.Errorf("cannot store %s in %s", v.Kind(), dst.Type())
	}
	switch {
	case native.CanInt() && dst.CanInt() && dst.OverflowInt(native.Int()),
		native.CanUint() && dst.CanUint() && dst.OverflowUint(native.Uint()):
		return fmt.Errorf("%s overflows %s", ir.Format(v), dst.Type())
	case native.CanInt() && dst.CanUint() && native.Int() < 0:
		return fmt.Errorf("%s overflows %s", ir.Format(v), dst.Type())
	}
	dst.Set(native.Convert(dst.Type()))
	return nil
}
