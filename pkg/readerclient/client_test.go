package readerclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calindra/readerclient/internal/commons"
	"github.com/stretchr/testify/suite"
)

//
// Test suite
//

type ReportClientSuite struct {
	suite.Suite
	stub   *readerStub
	server *httptest.Server
	client *ReportQueryClient
	waits  []time.Duration
}

// readerStub scripts the reader endpoint: one canned body per attempt, the
// last body repeating. Every request body is recorded for assertions.
type readerStub struct {
	responses []string
	requests  []graphqlRequest
}

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

func (r *readerStub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var request graphqlRequest
	if err := json.Unmarshal(body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	attempt := len(r.requests)
	r.requests = append(r.requests, request)
	if attempt >= len(r.responses) {
		attempt = len(r.responses) - 1
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(r.responses[attempt]))
}

func (s *ReportClientSuite) SetupTest() {
	commons.ConfigureLog(slog.LevelDebug)
	s.stub = &readerStub{}
	s.server = httptest.NewServer(s.stub)
	s.client = NewReportQueryClient(s.server.URL, nil)
	s.waits = nil
	s.client.sleep = func(ctx context.Context, d time.Duration) error {
		s.waits = append(s.waits, d)
		return nil
	}
}

func (s *ReportClientSuite) TearDownTest() {
	s.server.Close()
}

func TestReportClientSuite(t *testing.T) {
	suite.Run(t, new(ReportClientSuite))
}

//
// ListReports
//

func (s *ReportClientSuite) TestListReportsByInput() {
	s.stub.responses = []string{`{
		"data": {
			"input": {
				"reports": {
					"edges": [
						{"node": {"__typename": "Report", "index": 0, "payload": "0xdeadbeef", "input": {"index": 3}}},
						{"node": null},
						{"node": {"__typename": "Report", "index": 1, "payload": "0xcafe", "input": {"index": 3}}}
					]
				}
			}
		}
	}`}
	inputIndex := 3
	reports, err := s.client.ListReports(context.Background(), &inputIndex)
	s.NoError(err)
	s.Len(reports, 2)
	s.Equal(0, reports[0].Index)
	s.Equal(1, reports[1].Index)
	s.Equal("0xdeadbeef", reports[0].Payload)
	s.Equal("Report", reports[0].Typename)
	for _, report := range reports {
		s.Equal(3, report.Input.Index)
	}

	s.Len(s.stub.requests, 1)
	s.Equal("reportsByInput", s.stub.requests[0].OperationName)
	s.Contains(s.stub.requests[0].Query, "input(index: $inputIndex)")
	s.EqualValues(3, s.stub.requests[0].Variables["inputIndex"])
}

func (s *ReportClientSuite) TestListAllReports() {
	s.stub.responses = []string{`{
		"data": {
			"reports": {
				"edges": [
					{"node": {"__typename": "Report", "index": 0, "payload": "0x01", "input": {"index": 0}}},
					{"node": {"__typename": "Report", "index": 0, "payload": "0x02", "input": {"index": 1}}}
				]
			}
		}
	}`}
	reports, err := s.client.ListReports(context.Background(), nil)
	s.NoError(err)
	s.Len(reports, 2)
	s.Equal(0, reports[0].Input.Index)
	s.Equal(1, reports[1].Input.Index)

	s.Len(s.stub.requests, 1)
	s.Equal("reports", s.stub.requests[0].OperationName)
	s.Nil(s.stub.requests[0].Variables)
}

func (s *ReportClientSuite) TestListReportsNoData() {
	s.stub.responses = []string{`{"data": null}`}
	reports, err := s.client.ListReports(context.Background(), nil)
	s.NoError(err)
	s.Empty(reports)

	s.stub.responses = []string{`{"data": {"reports": null}}`}
	reports, err = s.client.ListReports(context.Background(), nil)
	s.NoError(err)
	s.Empty(reports)

	inputIndex := 7
	s.stub.responses = []string{`{"data": {"input": null}}`}
	reports, err = s.client.ListReports(context.Background(), &inputIndex)
	s.NoError(err)
	s.Empty(reports)
}

func (s *ReportClientSuite) TestListReportsQueryError() {
	s.stub.responses = []string{`{
		"data": null,
		"errors": [{"message": "input not found"}]
	}`}
	inputIndex := 999
	reports, err := s.client.ListReports(context.Background(), &inputIndex)
	s.NoError(err)
	s.Empty(reports)
	s.Len(s.stub.requests, 1)
}

func (s *ReportClientSuite) TestListReportsTransportError() {
	s.server.Close()
	_, err := s.client.ListReports(context.Background(), nil)
	s.Error(err)
	s.False(IsQueryError(err))
}

//
// GetReport
//

const reportBody = `{
	"data": {
		"report": {
			"__typename": "Report",
			"index": 1,
			"payload": "0xdeadbeef",
			"input": {
				"__typename": "Input",
				"index": 5,
				"status": "ACCEPTED",
				"msgSender": "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
				"timestamp": "1700000000",
				"blockNumber": "42"
			}
		}
	}
}`

func (s *ReportClientSuite) TestGetReport() {
	s.stub.responses = []string{reportBody}
	report, err := s.client.GetReport(context.Background(), 5, 1)
	s.NoError(err)
	s.Equal(1, report.Index)
	s.Equal("0xdeadbeef", report.Payload)
	s.Equal(5, report.Input.Index)
	s.Equal("ACCEPTED", report.Input.Status)
	s.Equal("42", report.Input.BlockNumber)
	s.Empty(s.waits)

	s.Len(s.stub.requests, 1)
	s.Equal("report", s.stub.requests[0].OperationName)
	s.EqualValues(5, s.stub.requests[0].Variables["inputIndex"])
	s.EqualValues(1, s.stub.requests[0].Variables["reportIndex"])
}

func (s *ReportClientSuite) TestGetReportRetriesUntilAvailable() {
	notFound := `{"data": null, "errors": [{"message": "report not found"}]}`
	s.stub.responses = []string{notFound, notFound, reportBody}
	report, err := s.client.GetReport(context.Background(), 5, 1)
	s.NoError(err)
	s.Equal(1, report.Index)
	s.Len(s.stub.requests, 3)
	s.Equal([]time.Duration{2 * time.Second, 2 * time.Second}, s.waits)
}

func (s *ReportClientSuite) TestGetReportExhaustsRetries() {
	s.stub.responses = []string{
		`{"data": null, "errors": [{"message": "report not found"}]}`,
		`{"data": null, "errors": [{"message": "report not found"}]}`,
		`{"data": null, "errors": [{"message": "report 1 of input 5 is missing"}]}`,
	}
	_, err := s.client.GetReport(context.Background(), 5, 1)
	s.Error(err)
	var readerErr *ReaderError
	s.ErrorAs(err, &readerErr)
	s.Equal("report 1 of input 5 is missing", err.Error())
	s.Len(s.stub.requests, 3)
	s.Len(s.waits, 2)
}

func (s *ReportClientSuite) TestGetReportEmptyResponse() {
	s.stub.responses = []string{`{"data": {"report": null}}`}
	_, err := s.client.GetReport(context.Background(), 5, 1)
	s.Error(err)
	var readerErr *ReaderError
	s.ErrorAs(err, &readerErr)
	s.Equal("", err.Error())
	s.Len(s.stub.requests, 1)
	s.Empty(s.waits)
}

func (s *ReportClientSuite) TestGetReportTransportError() {
	s.server.Close()
	_, err := s.client.GetReport(context.Background(), 5, 1)
	s.Error(err)
	var readerErr *ReaderError
	s.False(errors.As(err, &readerErr))
	s.Empty(s.waits)
}

func (s *ReportClientSuite) TestGetReportCanceledDuringWait() {
	s.client.sleep = sleepContext
	s.client.Retry.Delay = 500 * time.Millisecond
	s.stub.responses = []string{
		`{"data": null, "errors": [{"message": "report not found"}]}`,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.client.GetReport(ctx, 5, 1)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Len(s.stub.requests, 1)
}
