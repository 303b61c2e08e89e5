package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fspquery/internal/schema"
)

// LoadError represents an error that occurred while loading a schema or a
// data file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
// Validator (E1xx) and compiler (E2xx) codes are reported as they are.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // Data file could not be decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSchema      = "E006" // Schema invalid or does not match the table
	ErrCodeStoreFailed = "E007" // Database error
	ErrCodeParse       = "E010" // Query string could not be parsed
)

// LoadSchema loads the record schema at path and builds its record type.
func LoadSchema(path string) (*schema.Schema, reflect.Type, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path)}
		}
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema file: %v", err)}
	}

	sc, err := schema.Load(path)
	if err != nil {
		return nil, nil, convertSchemaError(err)
	}
	typ, err := sc.Build()
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("building record type: %v", err)}
	}
	return sc, typ, nil
}

// LoadRecords decodes a YAML list of records of type t from path.
func LoadRecords(path string, t reflect.Type) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("data file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading data file: %v", err)}
	}

	var rows []map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&rows); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing data file: %v", err)}
	}
	records, err := schema.Records(t, rows)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return records, nil
}

// convertSchemaError converts a schema error to a LoadError.
func convertSchemaError(err error) *LoadError {
	var ce *schema.CompileError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.Field != "" {
			msg = ce.Field + ": " + msg
		}
		return &LoadError{Code: ErrCodeSchema, Message: msg, Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeSchema, Message: err.Error()}
}

// asLoadError returns err as a LoadError, wrapping it as generic if needed.
func asLoadError(err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}
