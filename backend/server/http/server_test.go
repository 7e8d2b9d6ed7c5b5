package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

func newTestServer() *Server {
	logger := zerolog.Nop()
	return NewServer(Config{
		Logger:     &logger,
		ListenAddr: ":0",
	})
}

func TestAckEndpoints(t *testing.T) {
	srv := newTestServer()

	cases := []struct {
		path    string
		message string
	}{
		{"/", "Socket API is running"},
		{"/api/socket", "Socket API is running with new code testing"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tc.path, rec.Code)
		}
		var resp AckResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		if !resp.Success || resp.Message != tc.message {
			t.Errorf("%s: unexpected body %s", tc.path, spew.Sdump(resp))
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: unexpected content type %q", tc.path, ct)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
