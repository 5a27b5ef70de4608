package fieldusage

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const testFieldUsage = `{
  "_shards": {"total": 3, "successful": 3, "failed": 0},
  "logs-a": {
    "shards": [
      {"tracking_id": "1", "stats": {"all_fields": {"any": 20}, "fields": {
        "_id": {"any": 9},
        "_source": {"any": 9},
        "message": {"any": 3},
        "host.name": {"any": 1}
      }}},
      {"tracking_id": "2", "stats": {"fields": {
        "message": {"any": 2},
        "host.name": {"any": 4}
      }}}
    ]
  },
  "logs-b": {
    "shards": [
      {"tracking_id": "3", "stats": {"fields": {
        "message": {"any": 1},
        "unknown": {"any": 5}
      }}}
    ]
  }
}`

func TestParseFieldUsage(t *testing.T) {

	indices, usage, err := ParseFieldUsage([]byte(testFieldUsage))
	require.NoError(t, err)

	assert.Equal(t, []string{"logs-a", "logs-b"}, indices)
	assert.NotContains(t, usage, "_shards")

	assert.Equal(t, UsageStats{
		{Field: "message", Count: 5},
		{Field: "host.name", Count: 5},
	}, usage["logs-a"])

	assert.Equal(t, UsageStats{
		{Field: "message", Count: 1},
		{Field: "unknown", Count: 5},
	}, usage["logs-b"])
}

func TestParseFieldUsageEmptyShards(t *testing.T) {

	indices, usage, err := ParseFieldUsage([]byte(`{"_shards":{},"idx":{"shards":[]}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"idx"}, indices)
	assert.Empty(t, usage["idx"])
}

func TestParseFieldUsageInvalid(t *testing.T) {

	for _, body := range []string{"", "not json", "[1,2,3]"} {
		_, _, err := ParseFieldUsage([]byte(body))
		assert.True(t, errors.Is(err, ErrResultNotExpected), "body %q", body)
	}
}
