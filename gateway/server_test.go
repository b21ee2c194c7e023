package gateway

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudharbor/s3front/constants"
	"github.com/cloudharbor/s3front/middleware"
	"github.com/cloudharbor/s3front/s3api"
	"github.com/cloudharbor/s3front/testutils"
)

//Spin up a gateway over a posix-staged bucket with the full middleware chain
//in front, like the real server would run it.
func buildTestGateway(t testing.TB, bucketName string) *httptest.Server {
	rootDir := testutils.StageBucketInTempDir(t, bucketName, testBucketObjects)
	configFile := testutils.TempYamlFile(t, bucketConfigForRoot(bucketName, rootDir))
	catalog, err := LoadBackendCatalog(context.Background(), configFile)
	if err != nil {
		t.Fatalf("Could not load backend catalog: %s", err)
	}
	t.Cleanup(catalog.Close)

	mws := []middleware.Middleware{
		middleware.LogMiddleware(slog.LevelDebug, middleware.NewPingPongHealthCheck(slog.LevelDebug), nil),
	}
	s, err := newGatewayServer(0, nil, "", "", catalog, mws)
	if err != nil {
		t.Fatalf("Could not create gateway server: %s", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func checkCommonHeaders(t testing.TB, resp *http.Response) {
	t.Helper()
	if got := resp.Header.Get("Server"); got != constants.AmzServerName {
		t.Errorf("Expected Server header %s got %q", constants.AmzServerName, got)
	}
	if resp.Header.Get(constants.AmzRequestIDKey) == "" {
		t.Error("Expected a request id header")
	}
	if resp.Header.Get(constants.AmzID2Key) == "" {
		t.Error("Expected an id-2 header")
	}
}

func TestGatewayGetObject(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/my-bucket/hello.txt")
	if err != nil {
		t.Fatalf("Could not get object: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 got %d", resp.StatusCode)
	}
	checkCommonHeaders(t, resp)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	if string(body) != "Hello world!" {
		t.Errorf("Unexpected body %q", string(body))
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type %q", got)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("Expected an ETag header")
	}
}

func TestGatewayGetObjectHonorsResponseOverrides(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/my-bucket/hello.txt" +
		"?response-content-type=application/x-custom&response-content-disposition=attachment")
	if err != nil {
		t.Fatalf("Could not get object: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/x-custom" {
		t.Errorf("Expected overridden content type got %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != "attachment" {
		t.Errorf("Expected overridden content disposition got %q", got)
	}
}

func TestGatewayGetMissingObject(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/my-bucket/no-such.txt")
	if err != nil {
		t.Fatalf("Could not do request: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected status 404 got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	errResp := s3api.ErrorResponse{}
	if err := xml.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Could not parse error document %q: %s", string(body), err)
	}
	if errResp.Code != s3api.ErrNoSuchKey {
		t.Errorf("Expected error code %s got %s", s3api.ErrNoSuchKey, errResp.Code)
	}
	if errResp.RequestID != resp.Header.Get(constants.AmzRequestIDKey) {
		t.Errorf("Error document request id %s differs from header %s",
			errResp.RequestID, resp.Header.Get(constants.AmzRequestIDKey))
	}
}

func TestGatewayHeadObject(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Head(ts.URL + "/my-bucket/hello.txt")
	if err != nil {
		t.Fatalf("Could not head object: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 got %d", resp.StatusCode)
	}
	checkCommonHeaders(t, resp)
	if got := resp.Header.Get("Content-Length"); got != "12" {
		t.Errorf("Expected object content length got %q", got)
	}
	if resp.Header.Get("Last-Modified") == "" {
		t.Error("Expected a Last-Modified header")
	}
}

func TestGatewayHeadBucket(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Head(ts.URL + "/my-bucket")
	if err != nil {
		t.Fatalf("Could not head bucket: %s", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 got %d", resp.StatusCode)
	}

	resp, err = http.Head(ts.URL + "/absent-bucket")
	if err != nil {
		t.Fatalf("Could not head absent bucket: %s", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 got %d", resp.StatusCode)
	}
}

func TestGatewayListBuckets(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("Could not list buckets: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	doc := listAllMyBucketsResult{}
	if err := xml.Unmarshal(body, &doc); err != nil {
		t.Fatalf("Could not parse listing %q: %s", string(body), err)
	}
	if len(doc.Buckets) != 1 || doc.Buckets[0].Name != "my-bucket" {
		t.Errorf("Unexpected bucket listing %v", doc.Buckets)
	}
	if !strings.HasPrefix(string(body), "<?xml") {
		t.Error("Expected an xml header on the listing document")
	}
}

func TestGatewayListObjectsV2(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/my-bucket?list-type=2&prefix=docs/")
	if err != nil {
		t.Fatalf("Could not list objects: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	doc := listBucketResult{}
	if err := xml.Unmarshal(body, &doc); err != nil {
		t.Fatalf("Could not parse listing %q: %s", string(body), err)
	}
	if doc.Name != "my-bucket" {
		t.Errorf("Expected listing for my-bucket got %s", doc.Name)
	}
	if doc.KeyCount != 2 || len(doc.Contents) != 2 {
		t.Fatalf("Expected 2 objects under docs/ got %d", len(doc.Contents))
	}
	if doc.Contents[0].Key != "docs/details.txt" || doc.Contents[1].Key != "docs/readme.txt" {
		t.Errorf("Unexpected listing order %v", doc.Contents)
	}
}

func TestGatewayDeleteObject(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	deleteObject := func() *http.Response {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/my-bucket/hello.txt", nil)
		if err != nil {
			t.Fatalf("Could not build request: %s", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Could not delete object: %s", err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := deleteObject(); resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204 got %d", resp.StatusCode)
	}
	//Deleting what is already gone still reports success
	if resp := deleteObject(); resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204 on repeat delete got %d", resp.StatusCode)
	}
	resp, err := http.Get(ts.URL + "/my-bucket/hello.txt")
	if err != nil {
		t.Fatalf("Could not do request: %s", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected deleted object to be gone got status %d", resp.StatusCode)
	}
}

func TestGatewayUnsupportedOperation(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/my-bucket/hello.txt", strings.NewReader("new content"))
	if err != nil {
		t.Fatalf("Could not build request: %s", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Could not do request: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405 got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	errResp := s3api.ErrorResponse{}
	if err := xml.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Could not parse error document %q: %s", string(body), err)
	}
	if errResp.Code != s3api.ErrMethodNotAllowed {
		t.Errorf("Expected error code %s got %s", s3api.ErrMethodNotAllowed, errResp.Code)
	}
}

func TestGatewayPing(t *testing.T) {
	ts := buildTestGateway(t, "my-bucket")

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("Could not ping: %s", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Could not read body: %s", err)
	}
	if string(body) != "pong" {
		t.Errorf("Expected pong got %q", string(body))
	}
}
