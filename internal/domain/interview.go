package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InterviewType selects the question style for a mock interview.
type InterviewType string

const (
	InterviewBehavioral InterviewType = "behavioral"
	InterviewTechnical  InterviewType = "technical"
	InterviewGeneral    InterviewType = "general"
)

// Difficulty grades interview and practice questions.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// FeedbackType distinguishes per-answer feedback from session-level feedback.
type FeedbackType string

const (
	FeedbackPerAnswer FeedbackType = "per_answer"
	FeedbackSession   FeedbackType = "session"
)

// InterviewQuestion is one generated (or fallback) interview question.
// KeyPoints, SampleAnswer, and FollowUpQuestions come from the generator;
// curated fallback questions carry only Text and Tags.
type InterviewQuestion struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	Type              InterviewType `json:"type"`
	Difficulty        Difficulty    `json:"difficulty"`
	KeyPoints         []string      `json:"key_points,omitempty"`
	SampleAnswer      string        `json:"sample_answer,omitempty"`
	FollowUpQuestions []string      `json:"follow_up_questions,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	Index             int           `json:"index"`
}

// InterviewFeedback is structured feedback for one answered question.
// Score is on a 0-10 scale; detailed scores are fractions in [0,1].
type InterviewFeedback struct {
	ID             string             `json:"id"`
	QuestionIndex  int                `json:"question_index"`
	Type           FeedbackType       `json:"type"`
	Score          float64            `json:"score"`
	FeedbackText   string             `json:"feedback_text,omitempty"`
	Strengths      []string           `json:"strengths,omitempty"`
	Improvements   []string           `json:"improvements,omitempty"`
	Suggestions    []string           `json:"suggestions,omitempty"`
	DetailedScores map[string]float64 `json:"detailed_scores,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ClampScore forces Score into [0,10] and detailed scores into [0,1].
// AI-produced numbers are not trusted to respect either range.
func (f *InterviewFeedback) ClampScore() {
	f.Score = clamp(f.Score, 0, 10)
	for k, v := range f.DetailedScores {
		f.DetailedScores[k] = clamp(v, 0, 1)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InterviewResponse is one recorded answer in an interview session.
type InterviewResponse struct {
	QuestionIndex int       `json:"question_index"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionSummary is the frozen aggregate computed once at completion.
type SessionSummary struct {
	TotalQuestions  int            `json:"total_questions"`
	AverageScore    float64        `json:"average_score"`
	QuestionTypes   map[string]int `json:"question_types"`
	TopStrengths    []string       `json:"top_strengths,omitempty"`
	KeyImprovements []string       `json:"key_improvements,omitempty"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// InterviewSession is a mock-interview workflow instance. Like
// AssessmentSession it owns all index arithmetic; the service layer never
// touches CurrentQuestionIndex directly.
type InterviewSession struct {
	ID                   string              `json:"id"`
	UserID               string              `json:"user_id"`
	Type                 InterviewType       `json:"type"`
	TargetRole           string              `json:"target_role,omitempty"`
	TargetIndustry       string              `json:"target_industry,omitempty"`
	Status               SessionStatus       `json:"status"`
	Questions            []InterviewQuestion `json:"questions"`
	Responses            []InterviewResponse `json:"responses"`
	Feedback             []InterviewFeedback `json:"feedback"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	StartedAt            time.Time           `json:"started_at"`
	Summary              *SessionSummary     `json:"summary,omitempty"`
}

// NewInterviewSession creates an active session with no questions yet.
func NewInterviewSession(userID string, t InterviewType, role, industry string) *InterviewSession {
	return &InterviewSession{
		ID:             uuid.New().String(),
		UserID:         userID,
		Type:           t,
		TargetRole:     role,
		TargetIndustry: industry,
		Status:         StatusActive,
		StartedAt:      time.Now().UTC(),
	}
}

// AddQuestion appends a question with its positional index assigned here.
func (s *InterviewSession) AddQuestion(q InterviewQuestion) error {
	if s.Status == StatusCompleted {
		return fmt.Errorf("op=interview.add_question: %w", ErrSessionConflict)
	}
	q.Index = len(s.Questions)
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	s.Questions = append(s.Questions, q)
	return nil
}

// AddResponse records an answer for the current question and advances by one.
func (s *InterviewSession) AddResponse(text string) error {
	if s.Status == StatusCompleted {
		return fmt.Errorf("op=interview.add_response: session completed: %w", ErrSessionConflict)
	}
	if text == "" {
		return fmt.Errorf("op=interview.add_response: %w", ErrInvalidInput)
	}
	if s.CurrentQuestionIndex >= len(s.Questions) {
		return fmt.Errorf("op=interview.add_response: no question pending: %w", ErrSessionConflict)
	}
	s.Responses = append(s.Responses, InterviewResponse{
		QuestionIndex: s.CurrentQuestionIndex,
		Text:          text,
		Timestamp:     time.Now().UTC(),
	})
	s.CurrentQuestionIndex++
	return nil
}

// AddFeedback attaches feedback produced for an answered question.
func (s *InterviewSession) AddFeedback(f InterviewFeedback) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	s.Feedback = append(s.Feedback, f)
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s *InterviewSession) CurrentQuestion() (InterviewQuestion, bool) {
	if s.CurrentQuestionIndex < len(s.Questions) {
		return s.Questions[s.CurrentQuestionIndex], true
	}
	return InterviewQuestion{}, false
}

// IsComplete reports whether every question has been answered.
func (s *InterviewSession) IsComplete() bool {
	return s.CurrentQuestionIndex >= len(s.Questions) || s.Status == StatusCompleted
}

// Progress is the answered fraction, clamped to [0,1].
func (s *InterviewSession) Progress() float64 {
	if len(s.Questions) == 0 {
		return 0
	}
	p := float64(s.CurrentQuestionIndex) / float64(len(s.Questions))
	if p > 1 {
		return 1
	}
	return p
}

// Complete freezes the session and computes its summary. Fails while
// questions remain unanswered or if already completed; the computed summary
// never changes afterwards.
func (s *InterviewSession) Complete() (*SessionSummary, error) {
	if s.Status == StatusCompleted {
		return nil, fmt.Errorf("op=interview.complete: already completed: %w", ErrSessionConflict)
	}
	if s.CurrentQuestionIndex < len(s.Questions) {
		return nil, fmt.Errorf("op=interview.complete: questions remain: %w", ErrSessionConflict)
	}
	sum := &SessionSummary{
		TotalQuestions: len(s.Questions),
		QuestionTypes:  map[string]int{},
		CompletedAt:    time.Now().UTC(),
	}
	for _, q := range s.Questions {
		sum.QuestionTypes[string(q.Type)]++
	}
	if len(s.Feedback) > 0 {
		var total float64
		for _, f := range s.Feedback {
			total += f.Score
		}
		sum.AverageScore = total / float64(len(s.Feedback))
	}
	sum.TopStrengths = dedupeHead(collect(s.Feedback, func(f InterviewFeedback) []string { return f.Strengths }), 3)
	sum.KeyImprovements = dedupeHead(collect(s.Feedback, func(f InterviewFeedback) []string { return f.Improvements }), 3)
	s.Status = StatusCompleted
	s.Summary = sum
	return sum, nil
}

func collect(fs []InterviewFeedback, pick func(InterviewFeedback) []string) []string {
	var out []string
	for _, f := range fs {
		out = append(out, pick(f)...)
	}
	return out
}

// dedupeHead keeps first occurrences in order, up to n.
func dedupeHead(in []string, n int) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

// IndustryGuidance is the cached advice bundle for one industry.
type IndustryGuidance struct {
	Industry        string    `json:"industry"`
	CommonQuestions []string  `json:"common_questions,omitempty"`
	KeySkills       []string  `json:"key_skills,omitempty"`
	InterviewFormat string    `json:"interview_format,omitempty"`
	PreparationTips []string  `json:"preparation_tips,omitempty"`
	RedFlags        []string  `json:"red_flags,omitempty"`
	SuccessFactors  []string  `json:"success_factors,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}
