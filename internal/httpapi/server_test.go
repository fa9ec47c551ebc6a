package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/navintent/internal/config"
	"github.com/vango-dev/navintent/pkg/deeplink"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return New(opts)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want %q", got, "ok")
	}
}

func TestResolve_Get(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		url      string
		wantCode int
		want     deeplink.Intent
	}{
		{
			url:      "https://shop.example.com/ar/products/55",
			wantCode: http.StatusOK,
			want:     deeplink.Intent{Route: "/product/55", Kind: deeplink.KindProduct, ID: "55", Locale: "ar"},
		},
		{
			url:      "/brands/nike",
			wantCode: http.StatusOK,
			want:     deeplink.Intent{Route: "/brand/nike", Kind: deeplink.KindBrand, ID: "nike"},
		},
		{
			url:      "",
			wantCode: http.StatusOK,
			want:     deeplink.Intent{Route: "/home", Kind: deeplink.KindHome},
		},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			target := "/v1/resolve?url=" + url.QueryEscape(tc.url)
			rec := do(t, s.Handler(), http.MethodGet, target, nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var got deeplink.Intent
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tc.want.Input = tc.url
			if got != tc.want {
				t.Errorf("intent = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolve_GetMissingParameter(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/v1/resolve", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %s, want an error object", rec.Body.String())
	}
}

func TestResolve_Batch(t *testing.T) {
	s := newTestServer(t, Options{})

	body := `{"urls": ["/categories/12", "/en/products/7?ref=ad", "/nothing/here"]}`
	rec := do(t, s.Handler(), http.MethodPost, "/v1/resolve", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"/category/12", "/product/7?ref=ad", "/home"}
	if len(resp.Results) != len(want) {
		t.Fatalf("results = %d, want %d", len(resp.Results), len(want))
	}
	for i, w := range want {
		if got := resp.Results[i].Route; got != w {
			t.Errorf("results[%d].Route = %q, want %q", i, got, w)
		}
	}
}

func TestResolve_BatchLimits(t *testing.T) {
	s := newTestServer(t, Options{})

	urls := make([]string, MaxBatchSize+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("/products/%d", i)
	}
	data, _ := json.Marshal(batchRequest{URLs: urls})
	rec := do(t, s.Handler(), http.MethodPost, "/v1/resolve", bytes.NewReader(data))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, s.Handler(), http.MethodPost, "/v1/resolve", strings.NewReader("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid body status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, s.Handler(), http.MethodPost, "/v1/resolve", strings.NewReader(`{"urls": []}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("empty batch = %d %s, want 200 with empty results", rec.Code, rec.Body.String())
	}
}

func TestOpen_Redirect(t *testing.T) {
	tests := []struct {
		name   string
		scheme string
		target string
		want   string
	}{
		{"bare route", "", "/open/en/products/55", "/product/55"},
		{"app scheme", "shop", "/open/categories/shoes", "shop:///category/shoes"},
		{"scheme with separator", "shop://", "/open/brands/nike", "shop:///brand/nike"},
		{"query kept", "", "/open/products/9?color=red", "/product/9?color=red"},
		{"unknown falls back home", "shop", "/open/about", "shop:///home"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, Options{AppScheme: tc.scheme})
			rec := do(t, s.Handler(), http.MethodGet, tc.target, nil)
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
			}
			if got := rec.Header().Get("Location"); got != tc.want {
				t.Errorf("Location = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{MetricsPath: "/metrics"})

	do(t, s.Handler(), http.MethodGet, "/v1/resolve?url=/products/1", nil)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "navintent_resolutions_total") {
		t.Error("metrics output missing navintent_resolutions_total")
	}

	s = newTestServer(t, Options{})
	if rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without path status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.AppScheme = "shop"
	cfg.Deeplink.Identifiers = "segment"
	cfg.Search.Debounce = "120ms"

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig error: %v", err)
	}
	if opts.Debounce != 120*time.Millisecond {
		t.Errorf("Debounce = %v, want 120ms", opts.Debounce)
	}
	if opts.MetricsPath != "/metrics" {
		t.Errorf("MetricsPath = %q, want /metrics", opts.MetricsPath)
	}

	s := newTestServer(t, opts)
	rec := do(t, s.Handler(), http.MethodGet, "/open/products/55/reviews", nil)
	if got := rec.Header().Get("Location"); got != "shop:///product/55" {
		t.Errorf("Location = %q, want %q", got, "shop:///product/55")
	}
}

func TestNew_ClampsDelays(t *testing.T) {
	s := New(Options{Debounce: time.Minute, MaxDelay: time.Second})
	if s.opts.Debounce != time.Second {
		t.Errorf("Debounce = %v, want clamp to MaxDelay", s.opts.Debounce)
	}

	ms := func(v int64) *int64 { return &v }
	tests := []struct {
		in   *int64
		want time.Duration
	}{
		{nil, time.Second},
		{ms(-5), 0},
		{ms(0), 0},
		{ms(250), 250 * time.Millisecond},
		{ms(60000), time.Second},
	}
	for _, tc := range tests {
		if got := s.delayFor(tc.in); got != tc.want {
			t.Errorf("delayFor(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
