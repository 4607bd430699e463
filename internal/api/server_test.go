package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/erlayout/pkg/buildinfo"
	"github.com/matzehuels/erlayout/pkg/cache"
	"github.com/matzehuels/erlayout/pkg/core/er"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/httputil"
	"github.com/matzehuels/erlayout/pkg/observability"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

func schoolDoc() er.Document {
	return er.Document{
		Entities: []er.Entity{{Name: "Student"}, {Name: "Course"}},
		Attributes: []er.Attribute{
			{Entity: "Student", Name: "ID", PrimaryKey: true},
			{Entity: "Course", Name: "ID", PrimaryKey: true},
		},
		Relationships: []er.Relationship{
			{Name: "Takes", Entity1: "Student", Entity2: "Course", Cardinality: er.ManyToMany},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, nil)
	srv := httptest.NewServer(New(runner, nil))
	t.Cleanup(func() {
		srv.Close()
		runner.Close()
	})
	return srv
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(httputil.HeaderRequestID)); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID", resp.Header.Get(httputil.HeaderRequestID))
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" || body["version"] != buildinfo.Get().Version || body["commit"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestTiers(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/tiers")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body := decode[TiersResponse](t, resp)
	if len(body.Tiers) != 3 {
		t.Fatalf("got %d tiers, want 3", len(body.Tiers))
	}
	names := []string{"light", "medium", "heavy"}
	for i, tier := range body.Tiers {
		if tier.Name != names[i] {
			t.Errorf("tiers[%d] = %q, want %q", i, tier.Name, names[i])
		}
		if tier.Config.SpringIterations <= 0 {
			t.Errorf("tier %s has no iterations", tier.Name)
		}
	}
	if body.Thresholds.HeavyNodes <= body.Thresholds.MediumNodes {
		t.Errorf("thresholds = %+v", body.Thresholds)
	}
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/validate", schoolDoc())
	body := decode[ValidateResponse](t, resp)
	if !body.Valid || len(body.Problems) != 0 {
		t.Errorf("valid document reported %+v", body)
	}
	if body.Stats.Entities != 2 || body.Tier != "light" {
		t.Errorf("stats = %+v, tier = %q", body.Stats, body.Tier)
	}

	doc := schoolDoc()
	doc.Attributes = doc.Attributes[:1]
	doc.Relationships[0].Cardinality = "lots"
	resp = postJSON(t, srv.URL+"/api/v1/validate", doc)
	body = decode[ValidateResponse](t, resp)
	if body.Valid {
		t.Fatal("invalid document reported valid")
	}
	if len(body.Problems) < 2 {
		t.Errorf("problems = %v, want missing key and bad cardinality", body.Problems)
	}
}

func TestLayout(t *testing.T) {
	srv := newTestServer(t)
	req := LayoutRequest{
		Document: schoolDoc(),
		Options:  pipeline.Options{Provider: pipeline.ProviderChain},
	}

	resp := postJSON(t, srv.URL+"/api/v1/layout", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[LayoutResponse](t, resp)
	if len(body.Layout.Nodes) != 5 {
		t.Errorf("got %d nodes, want 5", len(body.Layout.Nodes))
	}
	if body.Layout.Tier != "light" {
		t.Errorf("tier = %q", body.Layout.Tier)
	}
	if body.Cached {
		t.Error("first request should not be cached")
	}

	resp = postJSON(t, srv.URL+"/api/v1/layout", req)
	if body := decode[LayoutResponse](t, resp); !body.Cached {
		t.Error("second request should hit the cache")
	}
}

func TestLayoutErrors(t *testing.T) {
	srv := newTestServer(t)
	strict := schoolDoc()
	strict.Attributes = nil

	tests := []struct {
		name   string
		body   any
		status int
		code   errs.Code
	}{
		{"empty document", LayoutRequest{}, http.StatusBadRequest, errs.ErrCodeInvalidDocument},
		{"bad tier", LayoutRequest{Document: schoolDoc(), Options: pipeline.Options{Tier: "huge"}}, http.StatusBadRequest, errs.ErrCodeInvalidTier},
		{"bad provider", LayoutRequest{Document: schoolDoc(), Options: pipeline.Options{Provider: "dot"}}, http.StatusBadRequest, errs.ErrCodeInvalidProvider},
		{"strict", LayoutRequest{Document: strict, Options: pipeline.Options{Strict: true}}, http.StatusBadRequest, errs.ErrCodeInvalidDocument},
		{"unknown field", map[string]any{"doc": map[string]any{}}, http.StatusBadRequest, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/layout", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[httputil.ErrorBody](t, resp)
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
			if body.Error.RequestID != resp.Header.Get(httputil.HeaderRequestID) {
				t.Error("error body should carry the request ID")
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if resp.Header.Get(httputil.HeaderRequestID) == "" {
		t.Error("404 responses should carry a request ID")
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests  int
	responses []int
}

func (h *recordingHTTPHooks) OnRequest(ctx context.Context, method, path string) {
	h.requests++
}

func (h *recordingHTTPHooks) OnResponse(ctx context.Context, method, path string, status int, d time.Duration) {
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := New(nil, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if hooks.requests != 1 || len(hooks.responses) != 1 || hooks.responses[0] != http.StatusOK {
		t.Errorf("hooks saw %d requests, responses %v", hooks.requests, hooks.responses)
	}
}

func TestListenAndServeStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(nil, nil).ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
