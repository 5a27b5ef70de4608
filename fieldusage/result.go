package fieldusage

import (
	"sort"
)

// type FieldCount is a single dotted field path and the number of times it was accessed.
type FieldCount struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}

// type Result is an ordered table of field paths and access counts. A Result never contains the
// same field twice.
type Result []FieldCount

// type UsageStats is the per-field access count for a single index, summed over all of its
// shards, in the order fields were first reported by Elasticsearch.
type UsageStats = Result

// Get returns the count for field and whether field is present.
func (r Result) Get(field string) (int64, bool) {

	for _, fc := range r {

		if fc.Field == field {
			return fc.Count, true
		}
	}

	return 0, false
}

// Fields returns the field paths in r, in order.
func (r Result) Fields() []string {

	fields := make([]string, len(r))

	for i, fc := range r {
		fields[i] = fc.Field
	}

	return fields
}

// Map returns r as an (unordered) map.
func (r Result) Map() map[string]int64 {

	m := make(map[string]int64, len(r))

	for _, fc := range r {
		m[fc.Field] = fc.Count
	}

	return m
}

// SortByCount returns a copy of r sorted by count, descending. Ties keep their original order.
func SortByCount(r Result) Result {

	sorted := make(Result, len(r))
	copy(sorted, r)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	return sorted
}

// Sum adds up the counts of identical field paths across results and returns the total sorted by
// count, descending. Ties are broken by the order in which fields were first seen.
func Sum(results ...Result) Result {

	acc := newAccumulator()

	for _, r := range results {

		for _, fc := range r {
			acc.add(fc.Field, fc.Count)
		}
	}

	return SortByCount(acc.result())
}

// accumulator sums counts per field while remembering first-insertion order.
type accumulator struct {
	order  []string
	counts map[string]int64
}

func newAccumulator() *accumulator {
	return &accumulator{
		order:  make([]string, 0),
		counts: make(map[string]int64),
	}
}

func (a *accumulator) add(field string, count int64) {

	if _, ok := a.counts[field]; !ok {
		a.order = append(a.order, field)
	}

	a.counts[field] += count
}

func (a *accumulator) result() Result {

	r := make(Result, len(a.order))

	for i, field := range a.order {
		r[i] = FieldCount{Field: field, Count: a.counts[field]}
	}

	return r
}
