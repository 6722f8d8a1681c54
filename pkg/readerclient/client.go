package readerclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ReportQueryClient queries the reports exposed by the reader GraphQL API.
type ReportQueryClient struct {
	Url    string
	Retry  RetryPolicy
	client graphql.Client
	sleep  sleepFunc
}

// NewReportQueryClient binds a client to the reader endpoint. A nil
// httpClient falls back to http.DefaultClient.
func NewReportQueryClient(url string, httpClient graphql.Doer) *ReportQueryClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ReportQueryClient{
		Url:    url,
		Retry:  DefaultRetryPolicy(),
		client: graphql.NewClient(url, httpClient),
		sleep:  sleepContext,
	}
}

// ListReports fetches reports in server order, restricted to one input when
// inputIndex is non-nil. Absent data and error payloads both yield an empty
// slice; only transport failures are returned as errors. A single attempt
// is made, with no retry.
func (c *ReportQueryClient) ListReports(
	ctx context.Context,
	inputIndex *int,
) ([]PartialReport, error) {
	if inputIndex != nil {
		return c.listReportsByInput(ctx, *inputIndex)
	}
	return c.listAllReports(ctx)
}

func (c *ReportQueryClient) listAllReports(ctx context.Context) ([]PartialReport, error) {
	req := &graphql.Request{
		OpName: "reports",
		Query:  reportsQuery,
	}
	out, err := runQuery(ctx, c.client, req, func(data reportsData) bool {
		return data.Reports == nil
	})
	if err != nil {
		return nil, err
	}
	if out.kind != outcomeOk {
		logEmptyList(out.errs)
		return []PartialReport{}, nil
	}
	return out.data.Reports.nodes(), nil
}

func (c *ReportQueryClient) listReportsByInput(
	ctx context.Context,
	inputIndex int,
) ([]PartialReport, error) {
	req := &graphql.Request{
		OpName: "reportsByInput",
		Query:  reportsByInputQuery,
		Variables: map[string]any{
			"inputIndex": inputIndex,
		},
	}
	out, err := runQuery(ctx, c.client, req, func(data reportsByInputData) bool {
		return data.Input == nil || data.Input.Reports == nil
	})
	if err != nil {
		return nil, err
	}
	if out.kind != outcomeOk {
		logEmptyList(out.errs)
		return []PartialReport{}, nil
	}
	return out.data.Input.Reports.nodes(), nil
}

// GetReport fetches the report identified by (inputIndex, reportIndex).
// Error payloads from the reader are treated as "report not yet available"
// and re-attempted under the client's RetryPolicy; after the budget is
// exhausted the failure surfaces as a ReaderError carrying the reader's
// last message. Transport failures propagate immediately.
func (c *ReportQueryClient) GetReport(
	ctx context.Context,
	inputIndex int,
	reportIndex int,
) (*Report, error) {
	req := &graphql.Request{
		OpName: "report",
		Query:  reportQuery,
		Variables: map[string]any{
			"inputIndex":  inputIndex,
			"reportIndex": reportIndex,
		},
	}
	report, err := runWithRetry(ctx, c.Retry, c.sleep,
		func(ctx context.Context) (*Report, error) {
			out, err := runQuery(ctx, c.client, req, func(data reportData) bool {
				return data.Report == nil
			})
			if err != nil {
				return nil, err
			}
			switch out.kind {
			case outcomeErr:
				return nil, out.errs
			case outcomeEmpty:
				return nil, &ReaderError{}
			default:
				return out.data.Report, nil
			}
		})
	if err != nil {
		var errs gqlerror.List
		if errors.As(err, &errs) {
			slog.Debug("readerclient: report fetch failed",
				"url", c.Url,
				"inputIndex", inputIndex,
				"reportIndex", reportIndex,
				"error", err)
			return nil, &ReaderError{Message: lastMessage(errs)}
		}
		return nil, err
	}
	return report, nil
}

func logEmptyList(errs gqlerror.List) {
	if len(errs) > 0 {
		slog.Debug("readerclient: reader returned errors, listing no reports",
			"error", errs)
	}
}
