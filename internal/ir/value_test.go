package ir

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type tier int

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Uint(42)
	var _ Value = Float(4.2)
	var _ Value = Bool(true)
	var _ Value = Time{time.Unix(0, 0)}
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		typ  reflect.Type
		kind Kind
		ok   bool
	}{
		{"string", reflect.TypeOf(""), KindString, true},
		{"pointer to string", reflect.TypeOf((*string)(nil)), KindString, true},
		{"int32", reflect.TypeOf(int32(0)), KindInt, true},
		{"named int", reflect.TypeOf(tier(0)), KindInt, true},
		{"uint8", reflect.TypeOf(uint8(0)), KindUint, true},
		{"float32", reflect.TypeOf(float32(0)), KindFloat, true},
		{"bool", reflect.TypeOf(false), KindBool, true},
		{"time", reflect.TypeOf(time.Time{}), KindTime, true},
		{"pointer to time", reflect.TypeOf((*time.Time)(nil)), KindTime, true},
		{"struct", reflect.TypeOf(struct{}{}), KindNull, false},
		{"slice", reflect.TypeOf([]int{}), KindNull, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, ok := KindOf(tc.typ)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestFromGo(t *testing.T) {
	n := 7
	var nilInt *int
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"nil pointer", nilInt, Null{}},
		{"pointer", &n, Int(7)},
		{"named int", tier(3), Int(3)},
		{"uint16", uint16(9), Uint(9)},
		{"float32", float32(1.5), Float(1.5)},
		{"time", now, Time{now}},
		{"value passthrough", String("x"), String("x")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromGo(tc.in)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := FromGo([]int{1})
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Int(1), Int(2)))
	assert.Equal(t, 1, Compare(Float(2.5), Float(1)))
	assert.Equal(t, 0, Compare(String("a"), String("a")))
	assert.Equal(t, -1, Compare(Bool(false), Bool(true)))
	assert.Equal(t, -1, Compare(Null{}, Int(0)))
	assert.Equal(t, 1, Compare(Int(0), nil))
	assert.Equal(t, 0, Compare(nil, Null{}))

	earlier := Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	later := Time{time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, -1, Compare(earlier, later))
}

func TestFormatNative(t *testing.T) {
	assert.Equal(t, "12", Format(Int(12)))
	assert.Equal(t, "1.25", Format(Float(1.25)))
	assert.Equal(t, "1000000", Format(Float(1e6)))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "null", Format(Null{}))

	assert.Equal(t, int64(12), Native(Int(12)))
	assert.Equal(t, "x", Native(String("x")))
	assert.Nil(t, Native(Null{}))
}
