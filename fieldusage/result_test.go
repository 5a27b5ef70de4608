package fieldusage

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSortByCount(t *testing.T) {

	r := Result{
		{Field: "a", Count: 1},
		{Field: "b", Count: 0},
		{Field: "c", Count: 7},
		{Field: "d", Count: 1},
		{Field: "e", Count: 0},
	}

	sorted := SortByCount(r)

	assert.Equal(t, []string{"c", "a", "d", "b", "e"}, sorted.Fields())

	// the input is left untouched
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, r.Fields())
}

func TestSum(t *testing.T) {

	cases := []struct {
		Name     string
		Input    []Result
		Expected Result
	}{
		{
			Name:     "nothing",
			Input:    nil,
			Expected: Result{},
		},
		{
			Name: "single",
			Input: []Result{
				{{Field: "x", Count: 0}, {Field: "y", Count: 2}},
			},
			Expected: Result{{Field: "y", Count: 2}, {Field: "x", Count: 0}},
		},
		{
			Name: "overlapping",
			Input: []Result{
				{{Field: "message", Count: 5}, {Field: "host.name", Count: 1}, {Field: "status", Count: 0}},
				{{Field: "status", Count: 3}, {Field: "message", Count: 1}, {Field: "agent", Count: 0}},
			},
			Expected: Result{
				{Field: "message", Count: 6},
				{Field: "status", Count: 3},
				{Field: "host.name", Count: 1},
				{Field: "agent", Count: 0},
			},
		},
		{
			Name: "identical results are summed not merged",
			Input: []Result{
				{{Field: "a.b", Count: 5}, {Field: "c", Count: 0}},
				{{Field: "a.b", Count: 5}, {Field: "c", Count: 0}},
			},
			Expected: Result{{Field: "a.b", Count: 10}, {Field: "c", Count: 0}},
		},
		{
			Name: "ties keep first insertion order",
			Input: []Result{
				{{Field: "b", Count: 1}, {Field: "a", Count: 0}},
				{{Field: "a", Count: 1}, {Field: "c", Count: 2}},
			},
			Expected: Result{
				{Field: "c", Count: 2},
				{Field: "b", Count: 1},
				{Field: "a", Count: 1},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expected, Sum(c.Input...))
		})
	}
}

func TestResultAccessors(t *testing.T) {

	r := Result{{Field: "a", Count: 3}, {Field: "b", Count: 0}}

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.EqualValues(t, 3, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]int64{"a": 3, "b": 0}, r.Map())
}
