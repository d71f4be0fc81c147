package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hamdani2020/EdAgent-sub002/internal/config"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
	"github.com/hamdani2020/EdAgent-sub002/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg           config.Config
	Conversations *usecase.ConversationService
	Interviews    *usecase.InterviewService
	Contexts      domain.ContextStore
	DBCheck       func(ctx context.Context) error
	RedisCheck    func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, conversations *usecase.ConversationService, interviews *usecase.InterviewService, contexts domain.ContextStore, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Conversations: conversations, Interviews: interviews, Contexts: contexts, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	if err := getValidator().Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

type messageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// MessageHandler handles POST /v1/conversations/{userID}/messages.
func (s *Server) MessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if res := ValidateUserID(userID); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput), res.Errors)
			return
		}
		var req messageRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}

		reply, err := s.Conversations.HandleMessage(r.Context(), userID, SanitizeString(req.Message))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// HistoryHandler handles GET /v1/conversations/{userID}/history.
func (s *Server) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if res := ValidateUserID(userID); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput), res.Errors)
			return
		}
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 200 {
				writeError(w, r, fmt.Errorf("%w: limit must be between 1 and 200", domain.ErrInvalidInput), nil)
				return
			}
			limit = n
		}

		turns, err := s.Contexts.History(r.Context(), userID, limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "turns": turns})
	}
}

type createInterviewRequest struct {
	UserID         string `json:"user_id" validate:"required,max=100"`
	Type           string `json:"type" validate:"required,oneof=behavioral technical general"`
	TargetRole     string `json:"target_role" validate:"max=200"`
	TargetIndustry string `json:"target_industry" validate:"max=100"`
	QuestionCount  int    `json:"question_count" validate:"min=0,max=10"`
}

// CreateInterviewHandler handles POST /v1/interviews.
func (s *Server) CreateInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createInterviewRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sess, err := s.Interviews.CreateSession(r.Context(), req.UserID, domain.InterviewType(req.Type),
			SanitizeString(req.TargetRole), SanitizeString(req.TargetIndustry), req.QuestionCount)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

// GetInterviewHandler handles GET /v1/interviews/{id}.
func (s *Server) GetInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidInput), res.Errors)
			return
		}
		sess, err := s.Interviews.GetSession(id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

type interviewResponseRequest struct {
	Answer string `json:"answer" validate:"required,min=1,max=4000"`
}

// InterviewResponseHandler handles POST /v1/interviews/{id}/responses.
func (s *Server) InterviewResponseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidInput), res.Errors)
			return
		}
		var req interviewResponseRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		fb, next, err := s.Interviews.SubmitResponse(r.Context(), id, SanitizeString(req.Answer))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"feedback":      fb,
			"next_question": next,
		})
	}
}

// CompleteInterviewHandler handles POST /v1/interviews/{id}/complete.
func (s *Server) CompleteInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res := ValidateSessionID(id); !res.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid session id", domain.ErrInvalidInput), res.Errors)
			return
		}
		sum, err := s.Interviews.CompleteSession(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

type practiceRequest struct {
	UserID     string `json:"user_id" validate:"required,max=100"`
	TargetRole string `json:"target_role" validate:"max=200"`
	Count      int    `json:"count" validate:"min=0,max=10"`
}

// PracticeQuestionsHandler handles POST /v1/interviews/practice.
func (s *Server) PracticeQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req practiceRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		userCtx, err := s.Contexts.GetUserContext(r.Context(), req.UserID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		qs, err := s.Interviews.GeneratePracticeQuestions(r.Context(), userCtx, SanitizeString(req.TargetRole), req.Count)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	}
}

// GuidanceHandler handles GET /v1/guidance/{industry}.
func (s *Server) GuidanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		industry := SanitizeString(chi.URLParam(r, "industry"))
		g, err := s.Interviews.IndustryGuidance(r.Context(), industry)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports readiness of downstream dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]func(context.Context) error{
			"db":    s.DBCheck,
			"redis": s.RedisCheck,
		}
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if check == nil {
				status[name] = "skipped"
				continue
			}
			if err := check(r.Context()); err != nil {
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{"ready": healthy, "checks": status})
	}
}
