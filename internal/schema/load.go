package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a schema file. The format follows the extension: .cue, or
// .yaml/.yml.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("read schema %s: unknown format (want .cue, .yaml or .yml)", path)
	}
}

// ParseCUE parses a CUE schema and unifies it with #Schema. filename is
// used in error positions.
func ParseCUE(filename string, data []byte) (*Schema, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Schema"))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	src := ctx.CompileBytes(data, cue.Filename(filename))
	if err := src.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := def.Unify(src)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, positionIn(formatCUEError(err), err, filename, src)
	}

	var s Schema
	if err := v.Decode(&s); err != nil {
		return nil, positionIn(formatCUEError(err), err, filename, src)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseYAML parses a YAML schema. Unknown keys are rejected.
func ParseYAML(data []byte) (*Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	// Report the first error, with its position when it has one
	firstErr := errs[0]
	ce := &CompileError{Field: "cue", Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// positionIn points ce at filename. Unification errors often carry only
// positions inside the embedded schema, so the offending value in src wins,
// then the first position in filename, then src itself.
func positionIn(ce error, err error, filename string, src cue.Value) error {
	c, ok := ce.(*CompileError)
	if !ok {
		return ce
	}

	for _, e := range errors.Errors(err) {
		if pos := valuePos(src, e.Path()); pos.IsValid() {
			c.Pos = pos
			return c
		}
	}
	if c.Pos.IsValid() && c.Pos.Filename() == filename {
		return c
	}

	for _, e := range errors.Errors(err) {
		for _, pos := range errors.Positions(e) {
			if pos.IsValid() && pos.Filename() == filename {
				c.Pos = pos
				return c
			}
		}
	}
	if pos := src.Pos(); pos.IsValid() {
		c.Pos = pos
	}
	return c
}

// valuePos returns the position of the deepest value of src along path.
func valuePos(src cue.Value, path []string) token.Pos {
	for n := len(path); n > 0; n-- {
		sels := make([]cue.Selector, n)
		for i, label := range path[:n] {
			if idx, err := strconv.Atoi(label); err == nil {
				sels[i] = cue.Index(idx)
			} else {
				sels[i] = cue.Str(label)
			}
		}
		if v := src.LookupPath(cue.MakePath(sels...)); v.Exists() && v.Pos().IsValid() {
			return v.Pos()
		}
	}
	return token.NoPos
}
