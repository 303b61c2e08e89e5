package sequence

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fspquery/internal/compiler"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestSeq_Lazy(t *testing.T) {
	calls := 0
	even := compiler.Predicate[int]{Match: func(v int) bool { calls++; return v%2 == 0 }}

	q := Of(ints(10)).Where(even)
	assert.Equal(t, 0, calls, "Where records without evaluating")

	got, err := Collect(q)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, got)
	assert.Equal(t, 10, calls)
}

func TestSeq_DoesNotModifySource(t *testing.T) {
	src := []int{3, 1, 2}
	desc := compiler.Ordering[int]{Compare: func(a, b int) int { return cmp.Compare(b, a) }}

	q := Of(src).OrderBy(desc)
	got, _ := Collect(q)
	assert.Equal(t, []int{3, 2, 1}, got)
	assert.Equal(t, []int{3, 1, 2}, src)
}

func TestSeq_Branching(t *testing.T) {
	base := Of(ints(5)).Skip(1)
	a, _ := Collect(base.Take(2))
	b, _ := Collect(base.Take(3))
	assert.Equal(t, []int{2, 3}, a)
	assert.Equal(t, []int{2, 3, 4}, b)
}

func TestSeq_SkipTakeEdges(t *testing.T) {
	testCases := []struct {
		name string
		skip int
		take int
		want []int
	}{
		{"negative skip", -10, 2, []int{1, 2}},
		{"skip past end", 9, 2, []int{}},
		{"zero take", 0, 0, []int{}},
		{"negative take", 0, -1, []int{}},
		{"take past end", 3, 10, []int{4, 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Collect(Of(ints(5)).Skip(tc.skip).Take(tc.take))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSeq_StableOrder(t *testing.T) {
	type pair struct{ key, pos int }
	src := []pair{{1, 0}, {0, 1}, {1, 2}, {0, 3}}
	byKey := compiler.Ordering[pair]{Compare: func(a, b pair) int { return cmp.Compare(a.key, b.key) }}

	got, _ := Collect(Of(src).OrderBy(byKey))
	assert.Equal(t, []pair{{0, 1}, {0, 3}, {1, 0}, {1, 2}}, got)
}

type other struct{ compiler.Queryable[int] }

func TestCollect_Foreign(t *testing.T) {
	_, err := Collect[int](other{})
	assert.Error(t, err)
	assert.Equal(t, 0, Of([]int(nil)).Count())
}
