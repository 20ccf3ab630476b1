package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/sentembed/internal/config"
	"github.com/hyperjump/sentembed/internal/embedding"
	"github.com/hyperjump/sentembed/internal/metrics"
	"github.com/hyperjump/sentembed/internal/models"
	"github.com/hyperjump/sentembed/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingEmbedder struct {
	*embedding.MockEmbedder
	panicMsg string
}

func (e *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	return nil, errTestProvider
}

type providerErr string

func (e providerErr) Error() string { return string(e) }

const errTestProvider = providerErr("model weights corrupted")

func newTestServer(t *testing.T, emb embedding.Embedder) (*Server, *metrics.Metrics) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	m := metrics.New()
	svc := service.NewService(emb, cfg.Embedding.MaxBatchSize, service.WithMetrics(m))
	return NewServer(svc, &cfg.Server, zap.NewNop(), m), m
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return out.Detail
}

func TestHandleEmbed_Single(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["hello world"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	var out models.EmbedResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Vectors) != 1 || len(out.Vectors[0]) != 384 {
		t.Errorf("vectors: got %d", len(out.Vectors))
	}
}

func TestHandleEmbed_BlankPlaceholder(t *testing.T) {
	emb := embedding.NewMockEmbedder(384)
	srv, _ := newTestServer(t, emb)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["a", "", "b"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.EmbedResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Vectors) != 3 {
		t.Fatalf("vectors: got %d, want 3", len(out.Vectors))
	}
	blank, _ := emb.Embed(context.Background(), "")
	if !reflect.DeepEqual(out.Vectors[1], blank) {
		t.Error("vectors[1] should equal the embedding of the empty string")
	}
	a, _ := emb.Embed(context.Background(), "a")
	if !reflect.DeepEqual(out.Vectors[0], a) {
		t.Error("vectors[0] should equal the embedding of \"a\"")
	}
}

func TestHandleEmbed_ClientErrors(t *testing.T) {
	tooMany, _ := json.Marshal(models.EmbedRequest{Texts: make([]string, 101)})
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"empty list", `{"texts": []}`, "at least 1"},
		{"missing field", `{}`, "at least 1"},
		{"too many", string(tooMany), "at most 100"},
		{"all blank", `{"texts": ["   "]}`, "all texts are empty"},
		{"malformed json", `{"texts": [`, "invalid request body"},
		{"wrong type", `{"texts": [1, 2]}`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
			w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (%s)", w.Code, w.Body.String())
			}
			if detail := decodeError(t, w); !strings.Contains(detail, tt.detail) {
				t.Errorf("detail %q does not contain %q", detail, tt.detail)
			}
		})
	}
}

func TestHandleEmbed_BodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	srv.config.MaxBodyBytes = 16
	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["this body is longer than sixteen bytes"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if detail := decodeError(t, w); detail != "request body too large" {
		t.Errorf("detail: got %q", detail)
	}
}

func TestHandleEmbed_ProviderError(t *testing.T) {
	srv, _ := newTestServer(t, &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(384)})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["hello"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if detail := decodeError(t, w); !strings.Contains(detail, "model weights corrupted") {
		t.Errorf("detail %q should carry the provider message", detail)
	}
}

func TestHandleEmbed_ProviderErrorLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	emb := &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(384)}
	svc := service.NewService(emb, cfg.Embedding.MaxBatchSize, service.WithLogger(logger))
	srv := NewServer(svc, &cfg.Server, logger, nil)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["hello"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 error log line, got %d: %v", len(entries), entries)
	}
	if entries[0].Message != "embedding provider failed" {
		t.Errorf("message: got %q", entries[0].Message)
	}
}

func TestHandleEmbed_PanicIsMappedTo500(t *testing.T) {
	srv, _ := newTestServer(t, &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(384), panicMsg: "tensor shape mismatch"})
	w := doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["hello"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if detail := decodeError(t, w); !strings.Contains(detail, "tensor shape mismatch") {
		t.Errorf("detail: got %q", detail)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	want := models.HealthResponse{Status: "healthy", Model: embedding.MockModelName, Dimension: 384}
	if out != want {
		t.Errorf("health: got %+v, want %+v", out, want)
	}
}

func TestHealthIgnoresProviderState(t *testing.T) {
	srv, _ := newTestServer(t, &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(384)})
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 even when the provider fails", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	r := httptest.NewRequest(http.MethodOptions, "/embed", nil)
	r.Header.Set("Origin", "https://search.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Custom")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Errorf("Allow-Methods: got %q", got)
	}

	simple := httptest.NewRequest(http.MethodGet, "/health", nil)
	simple.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, simple)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin on simple request: got %q", got)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id: got %q, want caller's id", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	doJSON(t, srv.Handler(), http.MethodPost, "/embed", `{"texts": ["a", " "]}`)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`sentembed_http_requests_total{route="/embed",status="200"} 1`,
		`sentembed_embed_texts_total{kind="blank"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, embedding.NewMockEmbedder(384))
	if w := doJSON(t, srv.Handler(), http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown path: got %d", w.Code)
	}
	w := doJSON(t, srv.Handler(), http.MethodGet, "/embed", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /embed: got %d", w.Code)
	}
	if detail := decodeError(t, w); detail == "" {
		t.Error("expected JSON detail")
	}
}

func TestServer_AddrAndStopBeforeStart(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	svc := service.NewService(embedding.NewMockEmbedder(8), 100)
	srv := NewServer(svc, &cfg.Server, zap.NewNop(), nil)
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("Addr: got %q", srv.Addr())
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}
