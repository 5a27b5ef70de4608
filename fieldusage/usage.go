package fieldusage

import (
	"context"
	"fmt"
	es "github.com/elastic/go-elasticsearch/v7"
	"github.com/tidwall/gjson"
	"io"
)

// Fields that can be used by runtime queries and are therefore not counted.
var ignoredFields = map[string]bool{
	"_id":     true,
	"_source": true,
}

// GetFieldUsage calls the field usage stats API for every index matching pattern and returns the
// raw response body.
func GetFieldUsage(ctx context.Context, es_client *es.Client, pattern string) ([]byte, error) {

	rsp, err := es_client.Indices.FieldUsageStats(
		pattern,
		es_client.Indices.FieldUsageStats.WithContext(ctx),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: unable to get field usage: %w", ErrResultNotExpected, err)
	}

	defer rsp.Body.Close()

	err = CheckResponse(rsp)

	if err != nil {
		return nil, fmt.Errorf("unable to get field usage: %w", err)
	}

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to read field usage response: %w", ErrResultNotExpected, err)
	}

	return body, nil
}

// ParseFieldUsage derives the per-index usage stats from a field usage stats API response. Indices
// are returned in the order they appear in the response; the "_shards" summary is skipped.
func ParseFieldUsage(body []byte) ([]string, map[string]UsageStats, error) {

	if !gjson.ValidBytes(body) {
		return nil, nil, fmt.Errorf("%w: field usage response is not valid JSON", ErrResultNotExpected)
	}

	root := gjson.ParseBytes(body)

	if !root.IsObject() {
		return nil, nil, fmt.Errorf("%w: field usage response is not a JSON object", ErrResultNotExpected)
	}

	indices := make([]string, 0)
	stats := make(map[string]UsageStats)

	root.ForEach(func(key gjson.Result, value gjson.Result) bool {

		idx := key.String()

		if idx == "_shards" {
			return true
		}

		indices = append(indices, idx)
		stats[idx] = SumShardStats(value)
		return true
	})

	return indices, stats, nil
}

// SumShardStats sums the "any" access count of every field over all the shards of a single index
// entry in a field usage stats response.
func SumShardStats(index gjson.Result) UsageStats {

	acc := newAccumulator()

	index.Get("shards").ForEach(func(_ gjson.Result, shard gjson.Result) bool {

		shard.Get("stats.fields").ForEach(func(field gjson.Result, value gjson.Result) bool {

			name := field.String()

			if ignoredFields[name] {
				return true
			}

			acc.add(name, value.Get("any").Int())
			return true
		})

		return true
	})

	return acc.result()
}
