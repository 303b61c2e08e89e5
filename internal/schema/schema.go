// Package schema describes record types in CUE or YAML files and builds Go
// struct types from them at run time, so records defined outside Go code
// can be resolved, filtered and stored like any other struct.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/fspquery/internal/ir"
)

// Field types.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeUint   = "uint"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeTime   = "time"
	TypeObject = "object"
)

// Schema is a named record type.
type Schema struct {
	Name   string  `json:"name" yaml:"name"`
	Table  string  `json:"table,omitempty" yaml:"table,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field is one property of a record. Object fields carry nested Fields.
type Field struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Nullable bool    `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Column   string  `json:"column,omitempty" yaml:"column,omitempty"`
	Fields   []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// TableName returns Table, or Name when no table is set.
func (s *Schema) TableName() string {
	if s.Table != "" {
		return s.Table
	}
	return s.Name
}

// CompileError represents a schema error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var scalarTypes = map[string]bool{
	TypeString: true, TypeInt: true, TypeUint: true, TypeFloat: true, TypeBool: true, TypeTime: true,
}

// check applies the rules both formats share. CUE files are also checked
// by #Schema, which cannot express the object and duplicate rules.
func (s *Schema) check() error {
	if !identifier.MatchString(s.Name) {
		return &CompileError{Field: "name", Message: fmt.Sprintf("invalid schema name %q", s.Name)}
	}
	if s.Table != "" && !identifier.MatchString(s.Table) {
		return &CompileError{Field: "table", Message: fmt.Sprintf("invalid table name %q", s.Table)}
	}
	return checkFields("fields", s.Fields)
}

func checkFields(at string, fields []Field) error {
	if len(fields) == 0 {
		return &CompileError{Field: at, Message: "at least one field is required"}
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		where := fmt.Sprintf("%s[%d]", at, i)
		if !identifier.MatchString(f.Name) {
			return &CompileError{Field: where + ".name", Message: fmt.Sprintf("invalid field name %q", f.Name)}
		}
		key := ir.FoldName(f.Name)
		if seen[key] {
			return &CompileError{Field: where + ".name", Message: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[key] = true
		if f.Column != "" && !identifier.MatchString(f.Column) {
			return &CompileError{Field: where + ".column", Message: fmt.Sprintf("invalid column name %q", f.Column)}
		}

		switch {
		case f.Type == TypeObject:
			if err := checkFields(where+".fields", f.Fields); err != nil {
				return err
			}
		case scalarTypes[f.Type]:
			if len(f.Fields) > 0 {
				return &CompileError{Field: where + ".fields", Message: fmt.Sprintf("%s field %q cannot have fields", f.Type, f.Name)}
			}
		default:
			return &CompileError{
				Field:   where + ".type",
				Message: fmt.Sprintf("unsupported type %q (want one of %s)", f.Type, strings.Join(typeNames(), ", ")),
			}
		}
	}
	return nil
}

func typeNames() []string {
	return []string{TypeString, TypeInt, TypeUint, TypeFloat, TypeBool, TypeTime, TypeObject}
}
