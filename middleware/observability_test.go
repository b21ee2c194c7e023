package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudharbor/s3front/requestctx"
	"github.com/cloudharbor/s3front/testutils"
	"github.com/prometheus/client_golang/prometheus"
)

func TestLogMiddlewareProvidesRequestCtx(t *testing.T) {
	var seenRequestID string
	handler := func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = requestctx.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	mw := LogMiddleware(slog.LevelInfo, NewPingPongHealthCheck(slog.LevelDebug), nil)
	r := httptest.NewRequest(http.MethodGet, "/bucket/key", nil)
	rr := httptest.NewRecorder()

	mw(handler)(rr, r)

	if seenRequestID == "" {
		t.Errorf("Handler should have seen a request ID")
	}
}

func TestLogMiddlewareShortCircuitsHealthChecks(t *testing.T) {
	handlerCalled := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}

	mw := LogMiddleware(slog.LevelInfo, NewPingPongHealthCheck(slog.LevelDebug), nil)
	r := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()

	mw(handler)(rr, r)

	if handlerCalled {
		t.Errorf("Health checks should not reach the wrapped handler")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("Expected healthy ping, got %d", rr.Code)
	}
	if rr.Body.String() != "pong" {
		t.Errorf("Expected pong, got %q", rr.Body.String())
	}
}

func getLogEntryByMsg(t testing.TB, entries testutils.StructuredLogEntries, msg string) testutils.StructuredLogEntry {
	t.Helper()
	for _, entry := range entries {
		if entry.GetStringField(t, "msg") == msg {
			return entry
		}
	}
	t.Errorf("No log entry with msg %q in %v", msg, entries)
	t.FailNow()
	return nil
}

func TestAccessLogCarriesRequestIdAndInfoGroups(t *testing.T) {
	teardown, getCapturedLogEntries := testutils.CaptureStructuredLogsFixture(t, slog.LevelInfo, nil)
	defer teardown()

	handler := func(w http.ResponseWriter, r *http.Request) {
		rCtx, ok := requestctx.FromContext(r.Context())
		if !ok {
			t.Errorf("Handler should have a requestctx")
			t.FailNow()
		}
		rCtx.AddAccessLogInfo("s3", slog.String("Bucket", "my-bucket"), slog.String("Key", "hello.txt"))
		w.WriteHeader(http.StatusOK)
	}

	var testReqID = "cafecafe-cafe-cafe-cafe-cafecafecafe"
	mw := LogMiddleware(slog.LevelInfo, NewPingPongHealthCheck(slog.LevelDebug), nil)
	r := httptest.NewRequest(http.MethodGet, "/my-bucket/hello.txt", nil)
	r.Header.Set(requestctx.XRequestID, testReqID)
	mw(handler)(httptest.NewRecorder(), r)

	endEntry := getLogEntryByMsg(t, getCapturedLogEntries(), "Request end")
	if got := endEntry.GetStringField(t, "RequestId"); got != strings.ToUpper(testReqID) {
		t.Errorf("Expected RequestId %s on access log record, got %q", strings.ToUpper(testReqID), got)
	}
	s3Group, ok := endEntry["s3"].(map[string]any)
	if !ok {
		t.Errorf("Expected an s3 group on the access log record, got %v", endEntry)
		t.FailNow()
	}
	if s3Group["Bucket"] != "my-bucket" || s3Group["Key"] != "hello.txt" {
		t.Errorf("Unexpected s3 access log info %v", s3Group)
	}
}

func TestLogMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	mw := LogMiddleware(slog.LevelInfo, NewPingPongHealthCheck(slog.LevelDebug), reg)
	wrapped := mw(handler)
	for i := 0; i < 3; i++ {
		wrapped(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bucket/missing", nil))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Errorf("Could not gather metrics: %s", err)
		t.FailNow()
	}
	if len(families) != 1 {
		t.Errorf("Expected one metric family, got %d", len(families))
		t.FailNow()
	}
	metrics := families[0].GetMetric()
	if len(metrics) != 1 {
		t.Errorf("Expected one labelled series, got %d", len(metrics))
		t.FailNow()
	}
	if got := metrics[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("Expected 3 counted requests, got %f", got)
	}
}
