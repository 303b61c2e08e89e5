package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator_Negation(t *testing.T) {
	testCases := []struct {
		op       Operator
		negated  bool
		positive Operator
		negate   Operator
	}{
		{Equals, false, Equals, NotEquals},
		{NotEquals, true, Equals, Equals},
		{Contains, false, Contains, NotContains},
		{NotEndsWith, true, EndsWith, EndsWith},
		{GreaterThanOrEqual, false, GreaterThanOrEqual, NotGreaterThanOrEqual},
		{NotLessThanOrEqual, true, LessThanOrEqual, LessThanOrEqual},
		{Undefined, false, Undefined, Undefined},
	}

	for _, tc := range testCases {
		t.Run(tc.op.String(), func(t *testing.T) {
			assert.Equal(t, tc.negated, tc.op.Negated())
			assert.Equal(t, tc.positive, tc.op.Positive())
			assert.Equal(t, tc.negate, tc.op.Negate())
		})
	}
}

func TestOperators(t *testing.T) {
	ops := Operators()
	assert.Len(t, ops, 16)
	assert.Equal(t, Equals, ops[0])
	assert.Equal(t, NotLessThanOrEqual, ops[len(ops)-1])
	assert.NotContains(t, ops, Undefined)
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("notcontains")
	require.NoError(t, err)
	assert.Equal(t, NotContains, op)

	_, err = ParseOperator("Like")
	assert.Error(t, err)
}

func TestOperator_JSONByName(t *testing.T) {
	data, err := json.Marshal(GreaterThan)
	require.NoError(t, err)
	assert.Equal(t, `"GreaterThan"`, string(data))

	var op Operator
	require.NoError(t, json.Unmarshal([]byte(`"StartsWith"`), &op))
	assert.Equal(t, StartsWith, op)
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"", Ascending, true},
		{"asc", Ascending, true},
		{"ASC", Ascending, true},
		{"desc", Descending, true},
		{"Desc", Descending, true},
		{"down", Ascending, false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDirection(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
