// Package fieldusage aggregates Elasticsearch field usage statistics for one or more indices and
// merges them with each index's field mapping.
package fieldusage

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"go.uber.org/zap"
)

// type FieldUsage holds the field usage stats for every index matching a search pattern. Derived
// results and reports are computed on first use and cached for the lifetime of the instance.
// A FieldUsage is not safe for concurrent use.
type FieldUsage struct {
	client  *es.Client
	logger  *zap.Logger
	pattern string
	indices []string
	usage   map[string]UsageStats

	per_index        map[string]Result
	results          Result
	report           *Report
	per_index_report map[string]*Report
}

// New returns a new *FieldUsage instance for all the indices matching pattern.
func New(ctx context.Context, es_client *es.Client, pattern string, logger *zap.Logger) (*FieldUsage, error) {

	if pattern == "" {
		return nil, fmt.Errorf("%w: search pattern is required", ErrMissingArgument)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	body, err := GetFieldUsage(ctx, es_client, pattern)

	if err != nil {
		return nil, err
	}

	indices, usage, err := ParseFieldUsage(body)

	if err != nil {
		return nil, err
	}

	logger.Debug("Field usage stats retrieved", zap.String("pattern", pattern), zap.Strings("indices", indices))

	fu := &FieldUsage{
		client:  es_client,
		logger:  logger,
		pattern: pattern,
		indices: indices,
		usage:   usage,
	}

	return fu, nil
}

// Pattern returns the search pattern fu was created with.
func (fu *FieldUsage) Pattern() string {
	return fu.pattern
}

// Indices returns the names of the indices matching the search pattern, in response order.
func (fu *FieldUsage) Indices() []string {
	return fu.indices
}

// Usage returns the raw, shard-summed usage stats for index.
func (fu *FieldUsage) Usage(index string) (UsageStats, bool) {
	u, ok := fu.usage[index]
	return u, ok
}

// VerifySingleIndex returns index if it is not empty. Otherwise it returns the only matched index,
// or an ErrValueMismatch error if zero or several indices were matched.
func (fu *FieldUsage) VerifySingleIndex(index string) (string, error) {

	if index != "" {
		return index, nil
	}

	switch len(fu.indices) {
	case 0:
		return "", fmt.Errorf("%w: no indices found", ErrValueMismatch)
	case 1:
		return fu.indices[0], nil
	default:
		return "", fmt.Errorf("%w: too many indices found; indicate a single index for result, or use results for all indices (found: %v)", ErrValueMismatch, fu.indices)
	}
}

// Result returns the merged mapping and usage result for a single index, sorted by count. An empty
// index is only valid when exactly one index matched the search pattern.
func (fu *FieldUsage) Result(ctx context.Context, index string) (Result, error) {

	index, err := fu.VerifySingleIndex(index)

	if err != nil {
		return nil, err
	}

	usage, ok := fu.usage[index]

	if !ok {
		fu.logger.Debug("No usage stats for index", zap.String("index", index))
		return make(Result, 0), nil
	}

	tree, err := GetMapping(ctx, fu.client, index)

	if err != nil {
		return nil, err
	}

	return SortByCount(Merge(tree, usage)), nil
}

// ResultsByIndex returns the result of every matched index keyed by index name.
func (fu *FieldUsage) ResultsByIndex(ctx context.Context) (map[string]Result, error) {

	if fu.per_index != nil {
		return fu.per_index, nil
	}

	per_index := make(map[string]Result, len(fu.indices))

	for _, idx := range fu.indices {

		r, err := fu.Result(ctx, idx)

		if err != nil {
			return nil, err
		}

		per_index[idx] = r
	}

	fu.per_index = per_index
	return fu.per_index, nil
}

// Results returns the results of every matched index summed per field and sorted by count. With
// a single matched index its result is returned as is.
func (fu *FieldUsage) Results(ctx context.Context) (Result, error) {

	if fu.results != nil {
		return fu.results, nil
	}

	per_index, err := fu.ResultsByIndex(ctx)

	if err != nil {
		return nil, err
	}

	if len(fu.indices) == 1 {
		fu.results = per_index[fu.indices[0]]
		return fu.results, nil
	}

	all := make([]Result, len(fu.indices))

	for i, idx := range fu.indices {
		all[i] = per_index[idx]
	}

	fu.results = Sum(all...)
	return fu.results, nil
}

// Report returns the summary report for all matched indices.
func (fu *FieldUsage) Report(ctx context.Context) (*Report, error) {

	if fu.report != nil {
		return fu.report, nil
	}

	results, err := fu.Results(ctx)

	if err != nil {
		return nil, err
	}

	fu.report = NewReport(fu.indices, results)
	return fu.report, nil
}

// PerIndexReport returns a summary report for each matched index.
func (fu *FieldUsage) PerIndexReport(ctx context.Context) (map[string]*Report, error) {

	if fu.per_index_report != nil {
		return fu.per_index_report, nil
	}

	per_index, err := fu.ResultsByIndex(ctx)

	if err != nil {
		return nil, err
	}

	reports := make(map[string]*Report, len(per_index))

	for idx, r := range per_index {
		reports[idx] = NewReport([]string{idx}, r)
	}

	fu.per_index_report = reports
	return fu.per_index_report, nil
}
