package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/ai/stub"
	httpserver "github.com/hamdani2020/EdAgent-sub002/internal/adapter/httpserver"
	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/state/memory"
	"github.com/hamdani2020/EdAgent-sub002/internal/config"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
	"github.com/hamdani2020/EdAgent-sub002/internal/usecase"
)

type fakeContexts struct {
	getErr error
	turns  []domain.Turn
}

func (f *fakeContexts) GetUserContext(_ domain.Context, userID string) (domain.UserContext, error) {
	if f.getErr != nil {
		return domain.UserContext{}, f.getErr
	}
	return domain.UserContext{UserID: userID}, nil
}

func (f *fakeContexts) CreateUserContext(_ domain.Context, userID string) (domain.UserContext, error) {
	return domain.UserContext{UserID: userID}, nil
}

func (f *fakeContexts) AppendTurn(_ domain.Context, userID, userText, assistantText string, t domain.ReplyType, md map[string]any) error {
	f.turns = append(f.turns, domain.Turn{UserID: userID, UserText: userText, AssistantText: assistantText, Type: t, Metadata: md})
	return nil
}

func (f *fakeContexts) SaveAssessmentResult(domain.Context, string, domain.SkillResult) error {
	return nil
}

func (f *fakeContexts) UpdateSkills(domain.Context, string, map[string]domain.SkillLevel) error {
	return nil
}

func (f *fakeContexts) History(_ domain.Context, _ string, limit int) ([]domain.Turn, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if limit < len(f.turns) {
		return f.turns[:limit], nil
	}
	return f.turns, nil
}

func newTestServer(t *testing.T) (*httpserver.Server, *fakeContexts) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ai := stub.New()
	contexts := &fakeContexts{}
	assessments := usecase.NewAssessmentEngine(ai, log)
	interviews := usecase.NewInterviewService(ai, log, 0)
	paths := usecase.NewLearningPathService(ai, log)
	conversations := usecase.NewConversationService(memory.New(), contexts, ai, assessments, interviews, paths, log)
	return httpserver.NewServer(config.Config{Port: 8080}, conversations, interviews, contexts, nil, nil), contexts
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any, routeParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rc := chi.NewRouteContext()
	for k, v := range routeParams {
		rc.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func getWithParams(t *testing.T, h http.HandlerFunc, target string, routeParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rc := chi.NewRouteContext()
	for k, v := range routeParams {
		rc.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()
	s, contexts := newTestServer(t)

	rec := postJSON(t, s.MessageHandler(), "/v1/conversations/u1/messages",
		map[string]string{"message": "hello there"}, map[string]string{"userID": "u1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["message"])
	require.Equal(t, "text", body["response_type"])
	require.Len(t, contexts.turns, 1)
}

func TestMessageHandler_InvalidUserID(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.MessageHandler(), "/v1/conversations/x/messages",
		map[string]string{"message": "hello"}, map[string]string{"userID": "bad id!"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "INVALID_INPUT", errObj["code"])
}

func TestMessageHandler_EmptyMessage(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.MessageHandler(), "/v1/conversations/u1/messages",
		map[string]string{"message": ""}, map[string]string{"userID": "u1"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageHandler_MalformedJSON(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/u1/messages", strings.NewReader("{not json"))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("userID", "u1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rec := httptest.NewRecorder()
	s.MessageHandler()(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandler_DefaultAndBadLimit(t *testing.T) {
	t.Parallel()
	s, contexts := newTestServer(t)
	contexts.turns = []domain.Turn{{UserID: "u1", UserText: "hi", AssistantText: "hello"}}

	rec := getWithParams(t, s.HistoryHandler(), "/v1/conversations/u1/history", map[string]string{"userID": "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "u1", body["user_id"])
	turns, ok := body["turns"].([]any)
	require.True(t, ok)
	require.Len(t, turns, 1)

	rec = getWithParams(t, s.HistoryHandler(), "/v1/conversations/u1/history?limit=9999", map[string]string{"userID": "u1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInterviewHandler_Success(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.CreateInterviewHandler(), "/v1/interviews", map[string]any{
		"user_id":        "u1",
		"type":           "behavioral",
		"question_count": 3,
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["id"])
	qs, ok := body["questions"].([]any)
	require.True(t, ok)
	require.Len(t, qs, 3)
}

func TestCreateInterviewHandler_BadType(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.CreateInterviewHandler(), "/v1/interviews", map[string]any{
		"user_id": "u1",
		"type":    "casual",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInterviewFlow_RespondAndComplete(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.CreateInterviewHandler(), "/v1/interviews", map[string]any{
		"user_id":        "u1",
		"type":           "general",
		"question_count": 2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, ok := decodeBody(t, rec)["id"].(string)
	require.True(t, ok)

	for i := 0; i < 2; i++ {
		rec = postJSON(t, s.InterviewResponseHandler(), "/v1/interviews/"+id+"/responses",
			map[string]string{"answer": "I led a migration project and shipped it on time."},
			map[string]string{"id": id})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		fb, ok := body["feedback"].(map[string]any)
		require.True(t, ok)
		require.EqualValues(t, 7.5, fb["score"])
	}

	rec = postJSON(t, s.CompleteInterviewHandler(), "/v1/interviews/"+id+"/complete",
		map[string]string{}, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody(t, rec)
	require.EqualValues(t, 2, sum["total_questions"])
}

func TestInterviewResponseHandler_UnknownSession(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.InterviewResponseHandler(), "/v1/interviews/nope/responses",
		map[string]string{"answer": "an answer"}, map[string]string{"id": "nope"})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteInterviewHandler_NotFinished(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.CreateInterviewHandler(), "/v1/interviews", map[string]any{
		"user_id":        "u1",
		"type":           "technical",
		"question_count": 2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = postJSON(t, s.CompleteInterviewHandler(), "/v1/interviews/"+id+"/complete",
		map[string]string{}, map[string]string{"id": id})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "SESSION_CONFLICT", errObj["code"])
}

func TestPracticeQuestionsHandler_Success(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := postJSON(t, s.PracticeQuestionsHandler(), "/v1/interviews/practice", map[string]any{
		"user_id":     "u1",
		"target_role": "Backend Developer",
		"count":       4,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	qs, ok := body["questions"].([]any)
	require.True(t, ok)
	require.Len(t, qs, 4)
}

func TestPracticeQuestionsHandler_ContextLookupFails(t *testing.T) {
	t.Parallel()
	s, contexts := newTestServer(t)
	contexts.getErr = errors.New("db down")

	rec := postJSON(t, s.PracticeQuestionsHandler(), "/v1/interviews/practice", map[string]any{
		"user_id": "u1",
	}, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGuidanceHandler_Success(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := getWithParams(t, s.GuidanceHandler(), "/v1/guidance/technology", map[string]string{"industry": "technology"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "technology", body["industry"])
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.HealthzHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestReadyzHandler_ChecksSkippedAndFailing(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["ready"])
	checks := body["checks"].(map[string]any)
	require.Equal(t, "skipped", checks["db"])

	s.DBCheck = func(context.Context) error { return errors.New("down") }
	rec = httptest.NewRecorder()
	s.ReadyzHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, false, body["ready"])
}
