package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mapCache struct {
	data map[string]string
}

func (m *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func geminiServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("api key header missing")
		}

		raw, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		} else if len(req.Contents) != 1 || !strings.Contains(req.Contents[0].Parts[0].Text, `"Dipirona"`) {
			t.Errorf("prompt missing product name: %s", raw)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdviceSuccessAndCache(t *testing.T) {
	var calls int32
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"  Descarte em ponto de coleta.  "}]}}]}`, &calls)

	cache := &mapCache{data: map[string]string{}}
	advisor := NewAdvisorService("key", "gemini-test", srv.URL, time.Second, cache, zerolog.Nop())

	got := advisor.Advice(context.Background(), "Dipirona", "Vencido")
	if got != "Descarte em ponto de coleta." {
		t.Errorf("Advice = %q", got)
	}

	again := advisor.Advice(context.Background(), "Dipirona", "Vencido")
	if again != got {
		t.Errorf("cached Advice = %q", again)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAdviceFallbackOnAPIError(t *testing.T) {
	var calls int32
	srv := geminiServer(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"quota"}}`, &calls)

	cache := &mapCache{data: map[string]string{}}
	advisor := NewAdvisorService("key", "gemini-test", srv.URL, time.Second, cache, zerolog.Nop())

	if got := advisor.Advice(context.Background(), "Dipirona", "Vencido"); got != FallbackAdvice {
		t.Errorf("Advice = %q, want fallback", got)
	}
	if len(cache.data) != 0 {
		t.Error("fallback text must not be cached")
	}
}

func TestAdviceFallbackOnEmptyCandidates(t *testing.T) {
	var calls int32
	srv := geminiServer(t, http.StatusOK, `{"candidates":[]}`, &calls)
	advisor := NewAdvisorService("key", "gemini-test", srv.URL, time.Second, nil, zerolog.Nop())

	if got := advisor.Advice(context.Background(), "Dipirona", "Vencido"); got != FallbackAdvice {
		t.Errorf("Advice = %q, want fallback", got)
	}
}

func TestAdviceWithoutKey(t *testing.T) {
	advisor := NewAdvisorService("", "gemini-test", "http://127.0.0.1:1", time.Second, nil, zerolog.Nop())

	if got := advisor.Advice(context.Background(), "Soro", "Seguro (> 35 dias)"); got != FallbackAdvice {
		t.Errorf("Advice = %q", got)
	}
	if _, err := advisor.Generate(context.Background(), "Soro", "x"); err != ErrInvalidAPIKey {
		t.Errorf("Generate err = %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Insulina", "Crítico (<= 35 dias)")
	for _, want := range []string{`"Insulina"`, `"Crítico (<= 35 dias)"`, "descartar", "armazenamento", "máximo 3 tópicos"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
