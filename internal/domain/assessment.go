package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state shared by assessment and interview
// sessions. Transitions: active -> completed; completed is terminal.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// QuestionType tags assessment questions.
type QuestionType string

const (
	QuestionOpen           QuestionType = "open"
	QuestionRating         QuestionType = "rating"
	QuestionBoolean        QuestionType = "boolean"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionAdaptive       QuestionType = "adaptive"
	QuestionFallback       QuestionType = "fallback"
)

// AssessmentQuestion is one question in an assessment sequence.
type AssessmentQuestion struct {
	ID    string       `json:"id"`
	Text  string       `json:"text"`
	Type  QuestionType `json:"type"`
	Index int          `json:"index"`
}

// AssessmentResponse is one recorded answer, aligned to a question by both
// index and id.
type AssessmentResponse struct {
	QuestionIndex int       `json:"question_index"`
	QuestionID    string    `json:"question_id"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

// SkillResult is the scored outcome of a completed assessment.
// OverallScore is on a 0-100 scale; ConfidenceScore and the detailed scores
// are fractions in [0,1].
type SkillResult struct {
	SkillArea       string             `json:"skill_area"`
	OverallScore    float64            `json:"overall_score"`
	OverallLevel    string             `json:"overall_level"` // beginner, intermediate, advanced
	ConfidenceScore float64            `json:"confidence_score"`
	Strengths       []string           `json:"strengths,omitempty"`
	Weaknesses      []string           `json:"weaknesses,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	DetailedScores  map[string]float64 `json:"detailed_scores,omitempty"`
}

// AssessmentSession is a multi-turn skill assessment. Questions are
// append-only; Responses are append-only and always target the current
// question index. All index arithmetic lives here so the alignment invariant
// (one response per answered question, CurrentQuestionIndex non-decreasing)
// is enforced in one place.
type AssessmentSession struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"user_id"`
	SkillArea            string               `json:"skill_area"`
	Status               SessionStatus        `json:"status"`
	Questions            []AssessmentQuestion `json:"questions"`
	Responses            []AssessmentResponse `json:"responses"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	StartedAt            time.Time            `json:"started_at"`
	CompletedAt          *time.Time           `json:"completed_at,omitempty"`
	Result               *SkillResult         `json:"result,omitempty"`
}

// NewAssessmentSession creates an active session with no questions yet.
// The skill area starts as "General" and may be refined once early responses
// suggest a specific domain.
func NewAssessmentSession(userID string) *AssessmentSession {
	return &AssessmentSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		SkillArea: "General",
		Status:    StatusActive,
		StartedAt: time.Now().UTC(),
	}
}

// AddQuestion appends a question. Questions may be appended mid-flow (the
// adaptive injection path) but never after completion.
func (s *AssessmentSession) AddQuestion(text string, t QuestionType) error {
	if s.Status == StatusCompleted {
		return fmt.Errorf("op=assessment.add_question: %w", ErrSessionConflict)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("op=assessment.add_question: empty question: %w", ErrInvalidInput)
	}
	s.Questions = append(s.Questions, AssessmentQuestion{
		ID:    uuid.New().String(),
		Text:  text,
		Type:  t,
		Index: len(s.Questions),
	})
	return nil
}

// AddResponse records an answer for the current question and advances the
// pointer by exactly one. Empty or whitespace-only answers are rejected
// without advancing.
func (s *AssessmentSession) AddResponse(text string) error {
	if s.Status == StatusCompleted {
		return fmt.Errorf("op=assessment.add_response: session completed: %w", ErrSessionConflict)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("op=assessment.add_response: %w", ErrInvalidInput)
	}
	if s.CurrentQuestionIndex >= len(s.Questions) {
		return fmt.Errorf("op=assessment.add_response: no question pending: %w", ErrSessionConflict)
	}
	s.Responses = append(s.Responses, AssessmentResponse{
		QuestionIndex: s.CurrentQuestionIndex,
		QuestionID:    s.Questions[s.CurrentQuestionIndex].ID,
		Text:          text,
		Timestamp:     time.Now().UTC(),
	})
	s.CurrentQuestionIndex++
	return nil
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s *AssessmentSession) CurrentQuestion() (AssessmentQuestion, bool) {
	if s.CurrentQuestionIndex < len(s.Questions) {
		return s.Questions[s.CurrentQuestionIndex], true
	}
	return AssessmentQuestion{}, false
}

// IsComplete reports whether every question has been answered.
func (s *AssessmentSession) IsComplete() bool {
	return s.CurrentQuestionIndex >= len(s.Questions) || s.Status == StatusCompleted
}

// Progress is the answered fraction, clamped to [0,1].
func (s *AssessmentSession) Progress() float64 {
	if len(s.Questions) == 0 {
		return 0
	}
	p := float64(s.CurrentQuestionIndex) / float64(len(s.Questions))
	if p > 1 {
		return 1
	}
	return p
}

// ResponseTexts returns the recorded answers in question order.
func (s *AssessmentSession) ResponseTexts() []string {
	out := make([]string, 0, len(s.Responses))
	for _, r := range s.Responses {
		out = append(out, r.Text)
	}
	return out
}

// Complete freezes the session with its scored result. It fails if questions
// remain unanswered or if the session is already completed; callers rely on
// that guard to keep completion idempotent-safe (the scorer must never run
// twice for one session).
func (s *AssessmentSession) Complete(result SkillResult) error {
	if s.Status == StatusCompleted {
		return fmt.Errorf("op=assessment.complete: already completed: %w", ErrSessionConflict)
	}
	if s.CurrentQuestionIndex < len(s.Questions) {
		return fmt.Errorf("op=assessment.complete: questions remain: %w", ErrSessionConflict)
	}
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.Result = &result
	return nil
}
