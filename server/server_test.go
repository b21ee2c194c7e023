package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/cloudharbor/s3front/server"
)

func TestCreateAndAwaitHealthyServesHandler(t *testing.T) {
	testPort := 18443
	s := server.NewBasicServer(testPort, "localhost", "", "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("it works"))
		if err != nil {
			t.Errorf("Could not write response body: %s", err)
		}
	})

	wg, srv, err := server.CreateAndAwaitHealthy(s, server.ServerOpts{})
	if err != nil {
		t.Errorf("Could not start server: %s", err)
		t.FailNow()
	}

	res, err := http.Get(fmt.Sprintf("http://localhost:%d/some/path", testPort))
	if err != nil {
		t.Errorf("Could not perform HTTP request: %s", err)
		t.FailNow()
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Errorf("Could not read response body: %s", err)
	}
	if string(body) != "it works" {
		t.Errorf("Expected 'it works', got %q", string(body))
	}

	err = srv.Shutdown(context.Background())
	if err != nil {
		t.Errorf("Got an error on shutdown: %s", err)
	}
	wg.Wait()
}

func TestHealthCheckEndpoint(t *testing.T) {
	testPort := 18444
	s := server.NewBasicServer(testPort, "localhost", "", "", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Health checks must never reach the handler")
	})

	wg, srv, err := server.CreateAndAwaitHealthy(s, server.ServerOpts{})
	if err != nil {
		t.Errorf("Could not start server: %s", err)
		t.FailNow()
	}

	res, err := http.Get(fmt.Sprintf("http://localhost:%d/ping", testPort))
	if err != nil {
		t.Errorf("Could not perform HTTP request: %s", err)
		t.FailNow()
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if string(body) != "pong" {
		t.Errorf("Expected 'pong', got %q", string(body))
	}

	err = srv.Shutdown(context.Background())
	if err != nil {
		t.Errorf("Got an error on shutdown: %s", err)
	}
	wg.Wait()
}
