package app_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/ai/stub"
	httpserver "github.com/hamdani2020/EdAgent-sub002/internal/adapter/httpserver"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/state/memory"
	"github.com/hamdani2020/EdAgent-sub002/internal/app"
	"github.com/hamdani2020/EdAgent-sub002/internal/config"
	"github.com/hamdani2020/EdAgent-sub002/internal/usecase"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.example", []string{"https://a.example"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" , ", []string{"*"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, app.ParseOrigins(tc.in), "input %q", tc.in)
	}
}

func TestBuildRouter_HealthAndSecurityHeaders(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ai := stub.New()
	interviews := usecase.NewInterviewService(ai, log, 0)
	conversations := usecase.NewConversationService(memory.New(), nil, ai,
		usecase.NewAssessmentEngine(ai, log), interviews, usecase.NewLearningPathService(ai, log), log)
	cfg := config.Config{Port: 8080, RateLimitPerMin: 100}
	srv := httpserver.NewServer(cfg, conversations, interviews, nil, nil, nil)

	h := app.BuildRouter(cfg, srv)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
