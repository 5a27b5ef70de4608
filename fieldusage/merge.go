package fieldusage

import (
	"strings"
)

// SplitFieldPath splits a field usage name into mapping path segments. Every "." is treated as a
// path separator, so a multi-field whose own name contains a literal dot can not be told apart
// from a nested field.
func SplitFieldPath(name string) []string {
	return strings.Split(name, ".")
}

// Merge returns one entry for every leaf in tree, seeded with 0, overlaid with the counts in
// usage. Usage fields that do not resolve to a leaf of tree are dropped.
func Merge(tree *MappingTree, usage UsageStats) Result {

	acc := newAccumulator()

	for _, leaf := range tree.Leaves() {
		acc.add(leaf, 0)
	}

	for _, fc := range usage {

		node, ok := tree.Lookup(SplitFieldPath(fc.Field))

		if !ok || !node.IsLeaf() {
			continue
		}

		acc.counts[strings.Join(node.Path, ".")] = fc.Count
	}

	return acc.result()
}
