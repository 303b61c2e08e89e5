package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fspquery/internal/ir"
)

// DefaultIgnoreCase is the case sensitivity of a condition that does not say.
const DefaultIgnoreCase = true

// ErrConflictingFilter is returned by FilterSet.Add when the set already holds
// a condition with the same path and operator.
var ErrConflictingFilter = errors.New("conflicting filter")

// FilterCondition is one comparison of the field at Path against Value.
//
// Value stays untyped (string, number, bool, time.Time or nil) until the
// compiler coerces it to the field's kind. IgnoreCase only affects text
// fields.
type FilterCondition struct {
	Path       string   `json:"path" yaml:"path"`
	Operator   Operator `json:"operator" yaml:"operator"`
	Value      any      `json:"value" yaml:"value"`
	IgnoreCase bool     `json:"ignoreCase" yaml:"ignoreCase"`
}

// NewFilterCondition returns a case-insensitive condition.
func NewFilterCondition(path string, op Operator, value any) FilterCondition {
	return FilterCondition{Path: path, Operator: op, Value: value, IgnoreCase: DefaultIgnoreCase}
}

func (c FilterCondition) String() string {
	return fmt.Sprintf("%s %s %v", c.Path, c.Operator, c.Value)
}

// filterConditionDoc is the wire form; a missing ignoreCase decodes as true.
type filterConditionDoc struct {
	Path       string   `json:"path" yaml:"path"`
	Operator   Operator `json:"operator" yaml:"operator"`
	Value      any      `json:"value" yaml:"value"`
	IgnoreCase *bool    `json:"ignoreCase" yaml:"ignoreCase"`
}

func (d filterConditionDoc) condition() FilterCondition {
	c := NewFilterCondition(d.Path, d.Operator, d.Value)
	if d.IgnoreCase != nil {
		c.IgnoreCase = *d.IgnoreCase
	}
	return c
}

func (c *FilterCondition) UnmarshalJSON(data []byte) error {
	var doc filterConditionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = doc.condition()
	return nil
}

func (c *FilterCondition) UnmarshalYAML(node *yaml.Node) error {
	var doc filterConditionDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*c = doc.condition()
	return nil
}

// FilterSet is an ordered collection of conditions with at most one
// condition per (path, operator). Paths are compared case-insensitively.
// The zero value is an empty set ready to use.
type FilterSet struct {
	conditions []FilterCondition
	keys       map[filterKey]struct{}
}

type filterKey struct {
	path string
	op   Operator
}

// NewFilterSet builds a set from conditions, failing on the first conflict.
func NewFilterSet(conditions ...FilterCondition) (*FilterSet, error) {
	s := &FilterSet{}
	for _, c := range conditions {
		if err := s.Add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends c unless a condition with the same path and operator exists.
func (s *FilterSet) Add(c FilterCondition) error {
	key := filterKey{path: ir.FoldName(c.Path), op: c.Operator}
	if _, dup := s.keys[key]; dup {
		return fmt.Errorf("%w: %s already has a %s condition", ErrConflictingFilter, c.Path, c.Operator)
	}
	if s.keys == nil {
		s.keys = make(map[filterKey]struct{})
	}
	s.keys[key] = struct{}{}
	s.conditions = append(s.conditions, c)
	return nil
}

// Has reports whether the set holds a condition on path with operator op.
func (s *FilterSet) Has(path string, op Operator) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[filterKey{path: ir.FoldName(path), op: op}]
	return ok
}

// Len returns the number of conditions. A nil set is empty.
func (s *FilterSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.conditions)
}

// Conditions returns a copy of the conditions in insertion order.
func (s *FilterSet) Conditions() []FilterCondition {
	if s == nil {
		return nil
	}
	out := make([]FilterCondition, len(s.conditions))
	copy(out, s.conditions)
	return out
}

func (s *FilterSet) MarshalJSON() ([]byte, error) {
	conditions := s.Conditions()
	if conditions == nil {
		conditions = []FilterCondition{}
	}
	return json.Marshal(conditions)
}

func (s *FilterSet) UnmarshalJSON(data []byte) error {
	var conditions []FilterCondition
	if err := json.Unmarshal(data, &conditions); err != nil {
		return err
	}
	return s.reset(conditions)
}

func (s *FilterSet) MarshalYAML() (any, error) {
	conditions := s.Conditions()
	if conditions == nil {
		conditions = []FilterCondition{}
	}
	return conditions, nil
}

func (s *FilterSet) UnmarshalYAML(node *yaml.Node) error {
	var conditions []FilterCondition
	if err := node.Decode(&conditions); err != nil {
		return err
	}
	return s.reset(conditions)
}

func (s *FilterSet) reset(conditions []FilterCondition) error {
	fresh, err := NewFilterSet(conditions...)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}
