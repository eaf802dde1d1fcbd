package prometheus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const vectorData = `{
	"resultType": "vector",
	"result": [
		{"metric": {"__name__": "up", "job": "prometheus"}, "value": [1700000000, "1"]},
		{"metric": {"__name__": "up", "job": "node"}, "value": [1700000000, "0"]}
	]
}`

func TestNormalizeQueryResult(t *testing.T) {
	result, err := normalizeQueryResult(json.RawMessage(vectorData), "")
	require.NoError(t, err)
	require.Equal(t, "vector", result.ResultType)
	require.Nil(t, result.Links)

	var series []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Result, &series))
	require.Len(t, series, 2)
}

func TestNormalizeQueryResultWithLink(t *testing.T) {
	link := instantQueryLink("http://h1", "up", "")
	result, err := normalizeQueryResult(json.RawMessage(vectorData), link)
	require.NoError(t, err)
	require.Len(t, result.Links, 1)
	require.Equal(t, link, result.Links[0].Href)
	require.Equal(t, "prometheus-ui", result.Links[0].Rel)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	link := instantQueryLink("http://h1", "up", "2023-01-01T00:00:00Z")

	first, err := normalizeQueryResult(json.RawMessage(vectorData), link)
	require.NoError(t, err)
	second, err := normalizeQueryResult(json.RawMessage(vectorData), link)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, firstJSON, secondJSON, "same input must yield byte-identical output")
}

func TestNormalizeScalarResult(t *testing.T) {
	data := `{"resultType": "scalar", "result": [1700000000, "42"]}`
	result, err := normalizeQueryResult(json.RawMessage(data), "")
	require.NoError(t, err)
	require.Equal(t, "scalar", result.ResultType)
}

func TestNormalizeMalformedData(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"result": []}`,
		`[]`,
	} {
		_, err := normalizeQueryResult(json.RawMessage(data), "")
		var derr *DispatchError
		require.ErrorAs(t, err, &derr, "input: %s", data)
		require.Equal(t, MalformedResponse, derr.Kind)
	}
}

func TestInstantQueryLink(t *testing.T) {
	link := instantQueryLink("http://h1/", `up{job="node"}`, "2023-01-01T00:00:00Z")
	require.Contains(t, link, "http://h1/graph?")
	require.Contains(t, link, "g0.expr=up%7Bjob%3D%22node%22%7D")
	require.Contains(t, link, "g0.moment_input=2023-01-01T00%3A00%3A00Z")

	// No time parameter, no moment input.
	link = instantQueryLink("http://h1", "up", "")
	require.NotContains(t, link, "g0.moment_input")
}

func TestRangeQueryLink(t *testing.T) {
	link := rangeQueryLink("http://h1", "up", "2023-01-01T00:00:00Z", "2023-01-01T01:00:00Z", "1m")
	require.Contains(t, link, "http://h1/graph?")
	require.Contains(t, link, "g0.step_input=1m")
	require.Contains(t, link, "g0.range_input=")
}

func TestPaginateMetrics(t *testing.T) {
	names := []string{"http_requests_total", "http_errors_total", "node_cpu_seconds", "up"}

	t.Run("no limit returns everything", func(t *testing.T) {
		page := paginateMetrics(names, -1, 0, "")
		require.Equal(t, names, page.Metrics)
		require.Equal(t, 4, page.TotalCount)
		require.Equal(t, 4, page.ReturnedCount)
		require.False(t, page.HasMore)
	})

	t.Run("limit and offset", func(t *testing.T) {
		page := paginateMetrics(names, 2, 1, "")
		require.Equal(t, []string{"http_errors_total", "node_cpu_seconds"}, page.Metrics)
		require.Equal(t, 4, page.TotalCount)
		require.Equal(t, 2, page.ReturnedCount)
		require.Equal(t, 1, page.Offset)
		require.True(t, page.HasMore)
	})

	t.Run("filter is case-insensitive", func(t *testing.T) {
		page := paginateMetrics(names, -1, 0, "HTTP")
		require.Equal(t, []string{"http_requests_total", "http_errors_total"}, page.Metrics)
		require.Equal(t, 2, page.TotalCount)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page := paginateMetrics(names, 10, 100, "")
		require.Empty(t, page.Metrics)
		require.Equal(t, 0, page.ReturnedCount)
		require.False(t, page.HasMore)
	})

	t.Run("zero limit returns nothing but reports totals", func(t *testing.T) {
		page := paginateMetrics(names, 0, 0, "")
		require.Empty(t, page.Metrics)
		require.Equal(t, 4, page.TotalCount)
		require.True(t, page.HasMore)
	})
}
