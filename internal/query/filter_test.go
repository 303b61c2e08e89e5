package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFilterSet_RejectsSamePathAndOperator(t *testing.T) {
	s := &FilterSet{}
	require.NoError(t, s.Add(NewFilterCondition("name", Contains, "a")))

	err := s.Add(NewFilterCondition("NAME", Contains, "b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictingFilter))
	assert.Equal(t, 1, s.Len())
}

func TestFilterSet_AllowsDifferentOperators(t *testing.T) {
	s, err := NewFilterSet(
		NewFilterCondition("name", Contains, "a"),
		NewFilterCondition("name", NotContains, "b"),
		NewFilterCondition("age", GreaterThan, "3"),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("Name", NotContains))
	assert.False(t, s.Has("name", Equals))
}

func TestFilterSet_InsertionOrder(t *testing.T) {
	s, err := NewFilterSet(
		NewFilterCondition("z", Equals, "1"),
		NewFilterCondition("a", Equals, "2"),
		NewFilterCondition("m", Equals, "3"),
	)
	require.NoError(t, err)

	var paths []string
	for _, c := range s.Conditions() {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"z", "a", "m"}, paths)
}

func TestFilterSet_NilIsEmpty(t *testing.T) {
	var s *FilterSet
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Conditions())
	assert.False(t, s.Has("x", Equals))
}

func TestFilterCondition_IgnoreCaseDefaultsTrue(t *testing.T) {
	var c FilterCondition
	require.NoError(t, json.Unmarshal([]byte(`{"path":"name","operator":"Equals","value":"x"}`), &c))
	assert.True(t, c.IgnoreCase)

	require.NoError(t, json.Unmarshal([]byte(`{"path":"name","operator":"Equals","value":"x","ignoreCase":false}`), &c))
	assert.False(t, c.IgnoreCase)

	var y FilterCondition
	require.NoError(t, yaml.Unmarshal([]byte("path: name\noperator: EndsWith\nvalue: son\n"), &y))
	assert.True(t, y.IgnoreCase)
	assert.Equal(t, EndsWith, y.Operator)
	assert.Equal(t, "son", y.Value)
}

func TestFilterSet_DecodeRejectsConflict(t *testing.T) {
	var s FilterSet
	err := json.Unmarshal([]byte(`[
		{"path":"name","operator":"Equals","value":"a"},
		{"path":"Name","operator":"Equals","value":"b"}
	]`), &s)
	assert.ErrorIs(t, err, ErrConflictingFilter)
}
