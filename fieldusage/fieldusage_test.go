package fieldusage_test

import (
	"context"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/estest"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const usageTwoIndices = `{
  "_shards": {"total": 2, "successful": 2, "failed": 0},
  "logs-a": {"shards": [
    {"stats": {"fields": {"_id": {"any": 4}, "message": {"any": 3}, "host.name": {"any": 1}}}},
    {"stats": {"fields": {"message": {"any": 2}, "host.name": {"any": 4}}}}
  ]},
  "logs-b": {"shards": [
    {"stats": {"fields": {"message": {"any": 1}, "unknown": {"any": 5}}}}
  ]}
}`

const usageOneIndex = `{
  "_shards": {"total": 1, "successful": 1, "failed": 0},
  "logs-b": {"shards": [
    {"stats": {"fields": {"message": {"any": 1}, "status": {"any": 2}}}}
  ]}
}`

var testMappings = map[string]string{
	"logs-a": `{"message": {"type": "text"}, "host": {"properties": {"name": {"type": "keyword"}, "ip": {"type": "ip"}}}, "@timestamp": {"type": "date"}}`,
	"logs-b": `{"message": {"type": "text"}, "status": {"type": "long"}}`,
}

func TestGetFieldUsage(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, &estest.Fixtures{
		FieldUsage: usageOneIndex,
	})

	body, err := fieldusage.GetFieldUsage(ctx, srv.NewClient(t), "logs-b")
	require.NoError(t, err)

	assert.JSONEq(t, usageOneIndex, string(body))
	assert.Equal(t, 1, srv.Calls("GET", "/logs-b/_field_usage_stats"))
}

func TestFieldUsageMultipleIndices(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, &estest.Fixtures{
		FieldUsage: usageTwoIndices,
		Mappings:   testMappings,
	})

	fu, err := fieldusage.New(ctx, srv.NewClient(t), "logs-*", nil)
	require.NoError(t, err)

	assert.Equal(t, "logs-*", fu.Pattern())
	assert.Equal(t, []string{"logs-a", "logs-b"}, fu.Indices())

	by_index, err := fu.ResultsByIndex(ctx)
	require.NoError(t, err)

	assert.Equal(t, fieldusage.Result{
		{Field: "message", Count: 5},
		{Field: "host.name", Count: 5},
		{Field: "host.ip", Count: 0},
		{Field: "@timestamp", Count: 0},
	}, by_index["logs-a"])

	assert.Equal(t, fieldusage.Result{
		{Field: "message", Count: 1},
		{Field: "status", Count: 0},
	}, by_index["logs-b"])

	results, err := fu.Results(ctx)
	require.NoError(t, err)

	assert.Equal(t, fieldusage.Result{
		{Field: "message", Count: 6},
		{Field: "host.name", Count: 5},
		{Field: "host.ip", Count: 0},
		{Field: "@timestamp", Count: 0},
		{Field: "status", Count: 0},
	}, results)

	report, err := fu.Report(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"logs-a", "logs-b"}, report.Indices)
	assert.Equal(t, 5, report.FieldCount)
	assert.Equal(t, []string{"message", "host.name"}, report.Accessed.Fields())
	assert.Equal(t, []string{"host.ip", "@timestamp", "status"}, report.Unaccessed.Fields())
	assert.Equal(t, report.FieldCount, len(report.Accessed)+len(report.Unaccessed))

	per_index, err := fu.PerIndexReport(ctx)
	require.NoError(t, err)
	require.Contains(t, per_index, "logs-b")
	assert.Equal(t, []string{"logs-b"}, per_index["logs-b"].Indices)
	assert.Equal(t, []string{"message"}, per_index["logs-b"].Accessed.Fields())

	// Everything above was memoized: one mapping request per index
	again, err := fu.Report(ctx)
	require.NoError(t, err)
	assert.Same(t, report, again)

	assert.Equal(t, 1, srv.Calls("GET", "/logs-a/_mapping"))
	assert.Equal(t, 1, srv.Calls("GET", "/logs-b/_mapping"))
	assert.Equal(t, 1, srv.Calls("GET", "/logs-*/_field_usage_stats"))
}

func TestFieldUsageSingleIndex(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, &estest.Fixtures{
		FieldUsage: usageOneIndex,
		Mappings:   testMappings,
	})

	fu, err := fieldusage.New(ctx, srv.NewClient(t), "logs-b", nil)
	require.NoError(t, err)

	single, err := fu.Result(ctx, "")
	require.NoError(t, err)

	results, err := fu.Results(ctx)
	require.NoError(t, err)

	assert.Equal(t, single, results)
	assert.Equal(t, fieldusage.Result{
		{Field: "status", Count: 2},
		{Field: "message", Count: 1},
	}, results)
}

func TestFieldUsageVerifySingleIndex(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, &estest.Fixtures{
		FieldUsage: usageTwoIndices,
		Mappings:   testMappings,
	})

	fu, err := fieldusage.New(ctx, srv.NewClient(t), "logs-*", nil)
	require.NoError(t, err)

	_, err = fu.Result(ctx, "")
	assert.ErrorIs(t, err, fieldusage.ErrValueMismatch)
	assert.ErrorIs(t, err, fieldusage.ErrConfiguration)
	assert.Contains(t, err.Error(), "too many indices found")

	idx, err := fu.VerifySingleIndex("logs-a")
	require.NoError(t, err)
	assert.Equal(t, "logs-a", idx)

	// An index that was not matched has no results
	r, err := fu.Result(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, r)
}

func TestFieldUsageNoIndices(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, &estest.Fixtures{
		FieldUsage: `{"_shards": {"total": 0, "successful": 0, "failed": 0}}`,
	})

	fu, err := fieldusage.New(ctx, srv.NewClient(t), "nothing-*", nil)
	require.NoError(t, err)
	assert.Empty(t, fu.Indices())

	_, err = fu.Result(ctx, "")
	assert.ErrorIs(t, err, fieldusage.ErrValueMismatch)
	assert.Contains(t, err.Error(), "no indices found")

	results, err := fu.Results(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFieldUsageErrors(t *testing.T) {

	ctx := context.Background()

	srv := estest.NewServer(t, nil)

	_, err := fieldusage.New(ctx, srv.NewClient(t), "", nil)
	assert.ErrorIs(t, err, fieldusage.ErrMissingArgument)

	_, err = fieldusage.New(ctx, srv.NewClient(t), "missing", nil)
	assert.ErrorIs(t, err, fieldusage.ErrResultNotExpected)
	assert.ErrorIs(t, err, fieldusage.ErrClient)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}

func TestCatIndexNames(t *testing.T) {

	srv := estest.NewServer(t, &estest.Fixtures{
		CatIndices: `[{"index": "logs-b", "health": "green"}, {"index": "logs-a", "health": "yellow"}]`,
	})

	names, err := fieldusage.CatIndexNames(context.Background(), srv.NewClient(t), "logs-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs-a", "logs-b"}, names)
}
