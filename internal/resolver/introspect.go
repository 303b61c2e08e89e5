package resolver

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/viant/tagly/format/text"
	"github.com/viant/xunsafe"

	"github.com/roach88/fspquery/internal/ir"
)

// ErrMalformedType is returned for record types whose field table cannot be
// built, such as two fields sharing an external name.
var ErrMalformedType = errors.New("malformed record type")

// ErrNotRecord is returned when a type passed as a record type is not a
// struct or pointer to struct.
var ErrNotRecord = errors.New("not a record type")

// FieldAlias assigns an external name to the Go field Field. Name "-" hides
// the field.
type FieldAlias struct {
	Field string
	Name  string
}

// FieldIntrospectable is implemented by record types that publish their own
// alias table. Entries take precedence over struct tags; fields without an
// entry fall back to tags.
type FieldIntrospectable interface {
	DescribeFields() []FieldAlias
}

var introspectableType = reflect.TypeOf((*FieldIntrospectable)(nil)).Elem()

// Introspector builds the field table of a record type.
//
// The zero value reads "json" tags, takes columns from "db" tags and leaves
// untagged Go names unchanged.
type Introspector struct {
	// TagKeys are consulted in order; the first present tag names the field.
	TagKeys []string

	// ColumnTag names the storage column of a field. Defaults to "db".
	ColumnTag string

	// Case, when defined, reformats untagged Go field names
	// (text.CaseFormatLowerCamel turns "LovedOne" into "lovedOne").
	Case text.CaseFormat
}

func (in Introspector) tagKeys() []string {
	if len(in.TagKeys) == 0 {
		return []string{"json"}
	}
	return in.TagKeys
}

func (in Introspector) columnTag() string {
	if in.ColumnTag == "" {
		return "db"
	}
	return in.ColumnTag
}

// candidate is a descriptor found at some embedding depth.
type candidate struct {
	desc  *Descriptor
	depth int
}

// Fields returns the descriptors of t in declaration order, with embedded
// structs flattened. Shallower fields shadow deeper ones of the same name;
// two fields at the same depth with the same name are an error.
func (in Introspector) Fields(t reflect.Type) ([]*Descriptor, error) {
	st, err := recordType(t)
	if err != nil {
		return nil, err
	}

	var aliases map[string]string
	if st.Implements(introspectableType) || reflect.PointerTo(st).Implements(introspectableType) {
		table := reflect.New(st).Interface().(FieldIntrospectable).DescribeFields()
		aliases = make(map[string]string, len(table))
		for _, a := range table {
			aliases[a.Field] = a.Name
		}
	}

	var found []candidate
	in.collect(st, aliases, nil, nil, 0, &found)

	slices.SortStableFunc(found, func(a, b candidate) int { return a.depth - b.depth })

	out := make([]*Descriptor, 0, len(found))
	seen := make(map[string]int, len(found))
	for _, c := range found {
		key := ir.FoldName(c.desc.ExternalName)
		if depth, dup := seen[key]; dup {
			if depth == c.depth {
				return nil, fmt.Errorf("%w: %s: fields share the external name %q", ErrMalformedType, st, c.desc.ExternalName)
			}
			continue
		}
		seen[key] = c.depth
		out = append(out, c.desc)
	}
	return out, nil
}

func (in Introspector) collect(st reflect.Type, aliases map[string]string, index []int, steps []step, depth int, found *[]candidate) {
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		name, tagged := in.externalName(sf, aliases)
		if name == "-" {
			continue
		}

		fieldIndex := append(slices.Clone(index), i)

		if sf.Anonymous && !tagged {
			if embedded, ok := embeddedStruct(sf); ok {
				hop := step{field: xunsafe.NewField(sf), deref: sf.Type.Kind() == reflect.Pointer}
				in.collect(embedded, nil, fieldIndex, append(slices.Clone(steps), hop), depth+1, found)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		fieldSteps := append(slices.Clone(steps), step{field: xunsafe.NewField(sf)})

		category, kind, nested := classify(sf.Type)
		column := sf.Tag.Get(in.columnTag())
		if column == "" || column == "-" {
			column = name
		}
		*found = append(*found, candidate{
			depth: depth,
			desc: &Descriptor{
				InternalName: sf.Name,
				ExternalName: name,
				Type:         sf.Type,
				Nested:       nested,
				Category:     category,
				Kind:         kind,
				Nullable:     sf.Type.Kind() == reflect.Pointer,
				Column:       column,
				Index:        fieldIndex,
				steps:        fieldSteps,
			},
		})
	}
}

// externalName returns the external name of sf and whether it came from an
// alias rather than the Go name.
func (in Introspector) externalName(sf reflect.StructField, aliases map[string]string) (string, bool) {
	if name, ok := aliases[sf.Name]; ok && name != "" {
		return name, true
	}
	for _, key := range in.tagKeys() {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name, true
		}
		// json:",omitempty" keeps the Go name and still ends the lookup.
		break
	}
	return in.formatName(sf.Name), false
}

func (in Introspector) formatName(name string) string {
	if !in.Case.IsDefined() {
		return name
	}
	from := text.DetectCaseFormat(name)
	if !from.IsDefined() {
		return name
	}
	return from.Format(name, in.Case)
}

// embeddedStruct returns the struct type of an anonymous field that should
// be flattened.
func embeddedStruct(sf reflect.StructField) (reflect.Type, bool) {
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		if !sf.IsExported() {
			return nil, false
		}
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, false
	}
	return t, true
}

var timeType = reflect.TypeOf(time.Time{})

// classify maps a field type to its category, scalar kind and, for records,
// the nested struct type.
func classify(t reflect.Type) (Category, ir.Kind, reflect.Type) {
	if kind, ok := ir.KindOf(t); ok {
		switch kind {
		case ir.KindString:
			return Text, kind, nil
		case ir.KindBool:
			return Boolean, kind, nil
		default:
			return Ordered, kind, nil
		}
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct {
		return Record, ir.KindNull, base
	}
	return Unsupported, ir.KindNull, nil
}

// recordType strips pointers from t and checks it is a struct.
func recordType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNotRecord
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotRecord, t)
	}
	return t, nil
}
