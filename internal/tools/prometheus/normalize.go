package prometheus

import (
	"encoding/json"
	"net/url"
	"strings"
)

// apiEnvelope is the standard Prometheus HTTP API response wrapper.
type apiEnvelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"errorType,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// QueryResult is the tool-facing shape of an instant or range query:
// the backend result type tag (vector, matrix, scalar, string) and the
// series/samples exactly as the backend ordered them.
type QueryResult struct {
	ResultType string          `json:"resultType"`
	Result     json.RawMessage `json:"result"`
	Links      []Link          `json:"links,omitempty"`
}

// Link is a deep link into the backend web UI, attached to query results
// unless links are disabled.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Title string `json:"title"`
}

// MetricsPage is the paginated result of the list_metrics tool.
type MetricsPage struct {
	Metrics       []string `json:"metrics"`
	TotalCount    int      `json:"total_count"`
	ReturnedCount int      `json:"returned_count"`
	Offset        int      `json:"offset"`
	HasMore       bool     `json:"has_more"`
}

// TargetsResult holds active and dropped scrape targets as the backend
// reported them.
type TargetsResult struct {
	ActiveTargets  json.RawMessage `json:"activeTargets"`
	DroppedTargets json.RawMessage `json:"droppedTargets"`
}

// HealthStatus is the result of the health_check tool.
type HealthStatus struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Tenant     string `json:"tenant,omitempty"`
	BackendURL string `json:"prometheus_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TenantList is the result of the list_tenants tool.
type TenantList struct {
	Tenants       []TenantSummary `json:"tenants"`
	DefaultTenant string          `json:"default_tenant,omitempty"`
}

// normalizeQueryResult shapes the raw `data` field of a query response
// into a QueryResult, attaching the UI link when one is given. It is a
// pure function: identical input always yields identical output.
func normalizeQueryResult(data json.RawMessage, link string) (*QueryResult, error) {
	var decoded struct {
		ResultType string          `json:"resultType"`
		Result     json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, dispatchErrorf(MalformedResponse, "query result does not match the expected shape: %v", err)
	}
	if decoded.ResultType == "" {
		return nil, dispatchErrorf(MalformedResponse, "query result is missing resultType")
	}

	result := &QueryResult{
		ResultType: decoded.ResultType,
		Result:     decoded.Result,
	}
	if link != "" {
		result.Links = []Link{{
			Href:  link,
			Rel:   "prometheus-ui",
			Title: "View in Prometheus UI",
		}}
	}
	return result, nil
}

// paginateMetrics applies the optional case-insensitive substring filter,
// then offset/limit pagination, to the full metric name list. A negative
// limit means no limit.
func paginateMetrics(names []string, limit, offset int, filter string) *MetricsPage {
	if filter != "" {
		needle := strings.ToLower(filter)
		filtered := make([]string, 0, len(names))
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), needle) {
				filtered = append(filtered, name)
			}
		}
		names = filtered
	}

	total := len(names)
	if offset < 0 {
		offset = 0
	}
	start := offset
	if start > total {
		start = total
	}
	end := total
	if limit >= 0 && start+limit < total {
		end = start + limit
	}

	return &MetricsPage{
		Metrics:       names[start:end],
		TotalCount:    total,
		ReturnedCount: end - start,
		Offset:        offset,
		HasMore:       end < total,
	}
}

// instantQueryLink builds the Prometheus UI deep link for an instant
// query against the tenant's base URL.
func instantQueryLink(baseURL, query, ts string) string {
	params := url.Values{}
	params.Set("g0.expr", query)
	params.Set("g0.tab", "0")
	if ts != "" {
		params.Set("g0.moment_input", ts)
	}
	return strings.TrimRight(baseURL, "/") + "/graph?" + params.Encode()
}

// rangeQueryLink builds the Prometheus UI deep link for a range query.
func rangeQueryLink(baseURL, query, start, end, step string) string {
	params := url.Values{}
	params.Set("g0.expr", query)
	params.Set("g0.tab", "0")
	params.Set("g0.range_input", start+" to "+end)
	params.Set("g0.step_input", step)
	return strings.TrimRight(baseURL, "/") + "/graph?" + params.Encode()
}
