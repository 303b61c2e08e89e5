package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/token"
	"reflect"
	"time"

	"github.com/viant/tagly/format/text"
)

var scalarGoTypes = map[string]reflect.Type{
	TypeString: reflect.TypeOf(""),
	TypeInt:    reflect.TypeOf(int64(0)),
	TypeUint:   reflect.TypeOf(uint64(0)),
	TypeFloat:  reflect.TypeOf(float64(0)),
	TypeBool:   reflect.TypeOf(false),
	TypeTime:   reflect.TypeOf(time.Time{}),
}

// Build returns a struct type for s. Each field carries a json tag with its
// schema name and, when set, a db tag with its column. Nullable fields are
// pointers; objects are nested structs.
func (s *Schema) Build() (reflect.Type, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return buildStruct(s.Fields), nil
}

func buildStruct(fields []Field) reflect.Type {
	out := make([]reflect.StructField, len(fields))
	used := make(map[string]bool, len(fields))
	for i, f := range fields {
		var typ reflect.Type
		if f.Type == TypeObject {
			typ = buildStruct(f.Fields)
		} else {
			typ = scalarGoTypes[f.Type]
		}
		if f.Nullable {
			typ = reflect.PointerTo(typ)
		}

		tag := fmt.Sprintf(`json:"%s"`, f.Name)
		if f.Column != "" {
			tag += fmt.Sprintf(` db:"%s"`, f.Column)
		}

		name := goName(f.Name, i)
		if used[name] {
			name = fmt.Sprintf("F%d_%s", i, name)
		}
		used[name] = true

		out[i] = reflect.StructField{Name: name, Type: typ, Tag: reflect.StructTag(tag)}
	}
	return reflect.StructOf(out)
}

// goName converts a schema name to an exported Go identifier:
// "lovedOne" → "LovedOne", "joined_at" → "JoinedAt".
func goName(name string, i int) string {
	converted := text.DetectCaseFormat(name).To(text.CaseFormatUpperCamel).Format(name)
	if token.IsIdentifier(converted) && token.IsExported(converted) {
		return converted
	}
	return fmt.Sprintf("F%d", i)
}

// Records decodes rows into new records of type t, one pointer per row.
// Rows are matched to fields by schema name; unknown keys are rejected.
// Times are RFC 3339 strings or values the YAML decoder already parsed.
func Records(t reflect.Type, rows []map[string]any) ([]any, error) {
	out := make([]any, 0, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rec := reflect.New(t)
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(rec.Interface()); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec.Interface())
	}
	return out, nil
}
