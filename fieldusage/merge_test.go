package fieldusage

import (
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"testing"
)

func TestSplitFieldPath(t *testing.T) {
	assert.Equal(t, []string{"a"}, SplitFieldPath("a"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitFieldPath("a.b.c"))
}

func TestMerge(t *testing.T) {

	tree := NewMappingTree(gjson.Parse(testMappingA))

	usage := UsageStats{
		{Field: "message", Count: 5},
		{Field: "host.name", Count: 2},
		{Field: "message.keyword", Count: 9},
		{Field: "host", Count: 4},
		{Field: "not.mapped", Count: 1},
	}

	expected := Result{
		{Field: "message", Count: 5},
		{Field: "host.name", Count: 2},
		{Field: "host.ip", Count: 0},
		{Field: "@timestamp", Count: 0},
	}

	assert.Equal(t, expected, Merge(tree, usage))
}

func TestMergeEveryLeafOnce(t *testing.T) {

	tree := NewMappingTree(gjson.Parse(testMappingA))
	r := Merge(tree, nil)

	assert.Equal(t, tree.Leaves(), r.Fields())

	for _, fc := range r {
		assert.Zero(t, fc.Count)
	}
}

func TestMergeEmptyTree(t *testing.T) {
	r := Merge(NewMappingTree(gjson.Result{}), UsageStats{{Field: "a", Count: 1}})
	assert.Empty(t, r)
}
