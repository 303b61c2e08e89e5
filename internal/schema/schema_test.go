package schema

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/resolver"
)

func TestLoad_FormatsAgree(t *testing.T) {
	fromCUE, err := Load("testdata/customer.cue")
	require.NoError(t, err)
	fromYAML, err := Load("testdata/customer.yaml")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
	assert.Equal(t, "customers", fromCUE.TableName())
	require.Len(t, fromCUE.Fields, 5)
	assert.Equal(t, Field{Name: "joinedAt", Type: TypeTime, Nullable: true, Column: "joined_at"}, fromCUE.Fields[3])
	assert.Len(t, fromCUE.Fields[4].Fields, 3)
}

func TestLoad_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestParseCUE_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"syntax", `name: "x" fields: [`},
		{"bad type", `name: "x", fields: [{name: "a", type: "decimal"}]`},
		{"no fields", `name: "x", fields: []`},
		{"unknown key", `name: "x", fields: [{name: "a", type: "int", size: 4}]`},
		{"bad identifier", `name: "x", fields: [{name: "a b", type: "int"}]`},
		{"object without fields", `name: "x", fields: [{name: "a", type: "object"}]`},
		{"duplicate", `name: "x", fields: [{name: "a", type: "int"}, {name: "A", type: "string"}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCUE("bad.cue", []byte(tc.src))
			require.Error(t, err)

			var ce *CompileError
			assert.True(t, errors.As(err, &ce), "got %T: %v", err, err)
		})
	}
}

func TestParseCUE_ReportsPosition(t *testing.T) {
	src := "name: \"x\"\nfields: [\n\t{name: \"a\", type: \"decimal\"},\n]\n"
	_, err := ParseCUE("bad.cue", []byte(src))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Equal(t, "bad.cue", ce.Pos.Filename())
	assert.Contains(t, err.Error(), "bad.cue:")
}

func TestParseCUE_PositionPointsAtOffendingField(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		line int
	}{
		{"bad type", "name: \"x\"\nfields: [\n\t{name: \"a\", type: \"decimal\"},\n]\n", 3},
		{"bad column", "name: \"x\"\nfields: [\n\t{name: \"a\", type: \"int\"},\n\t{name: \"b\", type: \"int\", column: \"b-c\"},\n]\n", 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCUE("customer.cue", []byte(tc.src))
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			require.True(t, ce.Pos.IsValid(), "no position in %v", err)
			assert.Equal(t, "customer.cue", ce.Pos.Filename())
			assert.Equal(t, tc.line, ce.Pos.Line())
		})
	}
}

func TestParseYAML_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"unknown key", "name: x\nfields: [{name: a, type: int, size: 4}]\n", "size"},
		{"bad type", "name: x\nfields: [{name: a, type: decimal}]\n", "unsupported type"},
		{"scalar with fields", "name: x\nfields: [{name: a, type: int, fields: [{name: b, type: int}]}]\n", "cannot have fields"},
		{"nested duplicate", "name: x\nfields: [{name: o, type: object, fields: [{name: b, type: int}, {name: B, type: int}]}]\n", "fields[0].fields[1].name"},
		{"bad column", "name: x\nfields: [{name: a, type: int, column: a-b}]\n", "invalid column"},
		{"no name", "fields: [{name: a, type: int}]\n", "invalid schema name"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuild_ResolvesLikeAStruct(t *testing.T) {
	s, err := Load("testdata/customer.yaml")
	require.NoError(t, err)

	typ, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, reflect.Struct, typ.Kind())

	r := resolver.New(resolver.Introspector{})
	leaves, err := r.Leaves(typ)
	require.NoError(t, err)

	var paths, columns []string
	for _, p := range leaves {
		paths = append(paths, p.String())
		columns = append(columns, p.Column())
	}
	assert.Equal(t, []string{
		"name", "tier", "active", "joinedAt",
		"lovedOne.nickname", "lovedOne.ageInYears", "lovedOne.numberOfTimesHugged",
	}, paths)
	assert.Equal(t, []string{
		"name", "tier", "active", "joined_at",
		"pet_nickname", "pet_age", "pet_points",
	}, columns)

	pet, ok := r.Resolve(typ, "LOVEDONE")
	require.True(t, ok)
	assert.True(t, pet.Nullable)
	assert.Equal(t, resolver.Record, pet.Category)

	for i := 0; i < typ.NumField(); i++ {
		assert.True(t, typ.Field(i).IsExported(), typ.Field(i).Name)
	}
}

func TestBuild_GoNames(t *testing.T) {
	s := &Schema{Name: "x", Fields: []Field{
		{Name: "joined_at", Type: TypeTime},
		{Name: "joinedAt2", Type: TypeInt},
		{Name: "_", Type: TypeBool},
	}}
	typ, err := s.Build()
	require.NoError(t, err)

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		assert.True(t, f.IsExported(), f.Name)
	}
	assert.Equal(t, `json:"_"`, string(typ.Field(2).Tag))
}

func TestRecords(t *testing.T) {
	s, err := Load("testdata/customer.cue")
	require.NoError(t, err)
	typ, err := s.Build()
	require.NoError(t, err)

	records, err := Records(typ, []map[string]any{
		{
			"name":     "john",
			"tier":     1,
			"active":   true,
			"joinedAt": "2024-01-02T00:00:00Z",
			"lovedOne": map[string]any{"nickname": "scratch", "ageInYears": 2},
		},
		{"name": nil, "active": false},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := resolver.New(resolver.Introspector{})
	john := reflect.ValueOf(records[0])
	require.Equal(t, reflect.PointerTo(typ), john.Type())

	path, err := r.ResolvePath(typ, "lovedOne.nickname")
	require.NoError(t, err)
	assert.Equal(t, ir.String("scratch"), path.Value(john.UnsafePointer()))

	joined, err := r.ResolvePath(typ, "joinedAt")
	require.NoError(t, err)
	joinedAt, ok := joined.Value(john.UnsafePointer()).(ir.Time)
	require.True(t, ok)
	assert.True(t, joinedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, ir.Null{}, joined.Value(reflect.ValueOf(records[1]).UnsafePointer()))

	_, err = Records(typ, []map[string]any{{"nmae": "typo"}})
	assert.ErrorContains(t, err, "record 0")
}
