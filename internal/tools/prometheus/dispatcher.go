package prometheus

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shyoon1991/prometheus-mcp-server/internal/server"
)

const (
	serviceName = "prometheus-mcp-server"

	// maxBodyExcerpt bounds how much of a rejected response body is
	// carried into the error message.
	maxBodyExcerpt = 512
)

// Prometheus HTTP API endpoints used by the dispatcher.
const (
	endpointQuery      = "/api/v1/query"
	endpointQueryRange = "/api/v1/query_range"
	endpointMetrics    = "/api/v1/label/__name__/values"
	endpointMetadata   = "/api/v1/metadata"
	endpointTargets    = "/api/v1/targets"
)

// QueryArgs are the validated arguments of the execute_query tool.
type QueryArgs struct {
	Query  string
	Time   string
	Tenant string
}

// RangeQueryArgs are the validated arguments of the execute_range_query tool.
type RangeQueryArgs struct {
	Query  string
	Start  string
	End    string
	Step   string
	Tenant string
}

// ListMetricsArgs are the validated arguments of the list_metrics tool.
// A negative Limit returns all metrics.
type ListMetricsArgs struct {
	Tenant string
	Filter string
	Limit  int
	Offset int
}

// MetadataResult is the payload of the get_metric_metadata tool.
type MetadataResult struct {
	Metric   string          `json:"metric"`
	Metadata json.RawMessage `json:"metadata"`
}

// Dispatcher routes tool calls to the correct tenant backend and maps
// every outcome, including transport failures, into a ToolResult. It is
// stateless per call and safe for concurrent use.
type Dispatcher struct {
	registry     *Registry
	pool         *ClientPool
	timeout      time.Duration
	disableLinks bool
	logger       server.Logger
	tracer       trace.Tracer
}

// NewDispatcher wires a dispatcher over the given registry and pool.
func NewDispatcher(registry *Registry, pool *ClientPool, cfg *server.Config, logger server.Logger) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		pool:         pool,
		timeout:      cfg.RequestTimeout,
		disableLinks: cfg.DisableLinks,
		logger:       logger,
		tracer:       otel.Tracer(serviceName),
	}
}

// ExecuteQuery runs a PromQL instant query.
func (d *Dispatcher) ExecuteQuery(ctx context.Context, args QueryArgs) ToolResult {
	params := url.Values{}
	params.Set("query", args.Query)
	if args.Time != "" {
		params.Set("time", args.Time)
	}

	data, tenant, err := d.do(ctx, "execute_query", args.Tenant, endpointQuery, params)
	if err != nil {
		return failure(err)
	}

	link := ""
	if !d.disableLinks {
		link = instantQueryLink(tenant.URL, args.Query, args.Time)
	}
	result, nerr := normalizeQueryResult(data, link)
	if nerr != nil {
		return failure(nerr)
	}
	return success(result)
}

// ExecuteRangeQuery runs a PromQL range query over a time window.
func (d *Dispatcher) ExecuteRangeQuery(ctx context.Context, args RangeQueryArgs) ToolResult {
	params := url.Values{}
	params.Set("query", args.Query)
	params.Set("start", args.Start)
	params.Set("end", args.End)
	params.Set("step", args.Step)

	data, tenant, err := d.do(ctx, "execute_range_query", args.Tenant, endpointQueryRange, params)
	if err != nil {
		return failure(err)
	}

	link := ""
	if !d.disableLinks {
		link = rangeQueryLink(tenant.URL, args.Query, args.Start, args.End, args.Step)
	}
	result, nerr := normalizeQueryResult(data, link)
	if nerr != nil {
		return failure(nerr)
	}
	return success(result)
}

// ListMetrics fetches all metric names and applies filter and pagination
// locally; the label-values endpoint has no server-side pagination.
func (d *Dispatcher) ListMetrics(ctx context.Context, args ListMetricsArgs) ToolResult {
	data, _, err := d.do(ctx, "list_metrics", args.Tenant, endpointMetrics, nil)
	if err != nil {
		return failure(err)
	}

	var names []string
	if uerr := json.Unmarshal(data, &names); uerr != nil {
		return failure(dispatchErrorf(MalformedResponse, "metric name list does not match the expected shape: %v", uerr))
	}
	return success(paginateMetrics(names, args.Limit, args.Offset, args.Filter))
}

// GetMetricMetadata fetches metadata for one metric.
func (d *Dispatcher) GetMetricMetadata(ctx context.Context, metric, tenant string) ToolResult {
	params := url.Values{}
	params.Set("metric", metric)

	data, _, err := d.do(ctx, "get_metric_metadata", tenant, endpointMetadata, params)
	if err != nil {
		return failure(err)
	}

	var byMetric map[string]json.RawMessage
	if uerr := json.Unmarshal(data, &byMetric); uerr != nil {
		return failure(dispatchErrorf(MalformedResponse, "metadata response does not match the expected shape: %v", uerr))
	}
	entries, ok := byMetric[metric]
	if !ok {
		return failure(&DispatchError{
			Kind:    BackendRejected,
			Status:  http.StatusNotFound,
			Message: "no metadata found for metric " + metric,
		})
	}
	return success(&MetadataResult{Metric: metric, Metadata: entries})
}

// GetTargets fetches the scrape target discovery state.
func (d *Dispatcher) GetTargets(ctx context.Context, tenant string) ToolResult {
	data, _, err := d.do(ctx, "get_targets", tenant, endpointTargets, nil)
	if err != nil {
		return failure(err)
	}

	var targets TargetsResult
	if uerr := json.Unmarshal(data, &targets); uerr != nil {
		return failure(dispatchErrorf(MalformedResponse, "targets response does not match the expected shape: %v", uerr))
	}
	return success(&targets)
}

// HealthCheck probes backend liveness with a trivial instant query. A
// failing backend yields status "error" in the payload rather than a tool
// error; only an unresolvable tenant fails the call itself.
func (d *Dispatcher) HealthCheck(ctx context.Context, tenant string) ToolResult {
	resolved, err := d.registry.Resolve(tenant)
	if err != nil {
		return failure(err)
	}

	params := url.Values{}
	params.Set("query", "up")
	if _, _, derr := d.do(ctx, "health_check", tenant, endpointQuery, params); derr != nil {
		return success(&HealthStatus{
			Status:     "error",
			Service:    serviceName,
			Tenant:     resolved.Name,
			BackendURL: resolved.URL,
			Error:      derr.Error(),
		})
	}
	return success(&HealthStatus{
		Status:     "ok",
		Service:    serviceName,
		Tenant:     resolved.Name,
		BackendURL: resolved.URL,
	})
}

// ListTenants reports the configured tenants without touching the network.
func (d *Dispatcher) ListTenants(includeURLs bool) ToolResult {
	list := &TenantList{
		Tenants:       d.registry.List(includeURLs),
		DefaultTenant: d.registry.DefaultTenant(),
	}
	return success(list)
}

// do resolves the tenant, executes one GET against its backend and
// returns the `data` field of the API envelope. Every failure mode comes
// back as a *ResolutionError or *DispatchError; nothing is retried.
func (d *Dispatcher) do(ctx context.Context, tool, selector, endpoint string, params url.Values) (json.RawMessage, *TenantConfig, error) {
	tenant, err := d.registry.Resolve(selector)
	if err != nil {
		d.logger.Warn("Tenant resolution failed", "tool", tool, "selector", selector, "error", err)
		return nil, nil, err
	}

	ctx, span := d.tracer.Start(ctx, "prometheus.dispatch",
		trace.WithAttributes(
			attribute.String("mcp.tool", tool),
			attribute.String("prometheus.tenant", tenant.Name),
			attribute.String("prometheus.endpoint", endpoint),
		))
	defer span.End()

	client, err := d.pool.Get(tenant)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, tenant, dispatchErrorf(Unreachable, "%v", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	u := client.URL(endpoint, nil)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, tenant, dispatchErrorf(Unreachable, "failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	d.logger.Debug("Dispatching Prometheus API request", "tool", tool, "tenant", tenant.Name, "url", u.Redacted())

	resp, body, err := client.Do(callCtx, req)
	if err != nil {
		derr := classifyTransportError(err)
		span.SetStatus(codes.Error, derr.Error())
		d.logger.Error("Prometheus API request failed", "tool", tool, "tenant", tenant.Name, "kind", string(derr.Kind), "error", err)
		return nil, tenant, derr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		derr := &DispatchError{
			Kind:    BackendRejected,
			Status:  resp.StatusCode,
			Message: bodyExcerpt(body),
		}
		span.SetStatus(codes.Error, derr.Error())
		d.logger.Error("Prometheus API rejected request", "tool", tool, "tenant", tenant.Name, "status", resp.StatusCode)
		return nil, tenant, derr
	}

	var envelope apiEnvelope
	if uerr := json.Unmarshal(body, &envelope); uerr != nil {
		derr := dispatchErrorf(MalformedResponse, "response is not valid Prometheus API JSON: %v", uerr)
		span.SetStatus(codes.Error, derr.Error())
		return nil, tenant, derr
	}
	if envelope.Status != "success" {
		derr := &DispatchError{
			Kind:    BackendRejected,
			Status:  resp.StatusCode,
			Message: envelope.ErrorType + ": " + envelope.Error,
		}
		span.SetStatus(codes.Error, derr.Error())
		return nil, tenant, derr
	}

	return envelope.Data, tenant, nil
}

// classifyTransportError maps a failed round trip to Timeout or
// Unreachable. Context deadline and net timeouts are timeouts; every
// other dial, DNS or TLS failure means the backend was unreachable.
func classifyTransportError(err error) *DispatchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return dispatchErrorf(Timeout, "request exceeded the configured timeout")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return dispatchErrorf(Timeout, "request exceeded the configured timeout")
	}
	return dispatchErrorf(Unreachable, "%v", err)
}

func bodyExcerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt]) + "..."
	}
	return string(body)
}
