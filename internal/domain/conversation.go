// Package domain holds the core entities and ports of the EdAgent
// conversation engine: per-user conversation state, assessment and interview
// sessions, and the collaborator interfaces (AI model, state store, transcript
// store) the use cases depend on.
package domain

import (
	"context"
	"time"
)

// Context is an alias so ports can be declared without importing std context
// at every call site. Adapters and usecases pass context.Context through.
type Context = context.Context

// Intent is the coarse category inferred from a user message.
type Intent string

const (
	IntentAssessment     Intent = "assessment"
	IntentLearningPath   Intent = "learning_path"
	IntentContent        Intent = "content_recommendation"
	IntentResumeAnalysis Intent = "resume_analysis"
	IntentInterviewPrep  Intent = "interview_preparation"
	IntentGeneral        Intent = "general"
)

// Mode is the structured flow a conversation is currently in. At most one
// structured flow is active per user at a time.
type Mode string

const (
	ModeNone                Mode = "none"
	ModeAssessment          Mode = "assessment"
	ModeLearningPathPending Mode = "learning_path_pending"
)

// ConversationState is the per-user conversation bookkeeping. It owns at most
// one active AssessmentSession and is the sole holder of that reference.
// Invariant: ActiveAssessment != nil implies Mode == ModeAssessment.
type ConversationState struct {
	UserID           string             `json:"user_id"`
	Version          int64              `json:"version"`
	Mode             Mode               `json:"mode"`
	ActiveAssessment *AssessmentSession `json:"active_assessment,omitempty"`
	PendingGoal      string             `json:"pending_goal,omitempty"`
	LastActivity     time.Time          `json:"last_activity"`
	TurnCount        int                `json:"turn_count"`
}

// NewConversationState creates state for a user seen for the first time.
func NewConversationState(userID string) *ConversationState {
	return &ConversationState{UserID: userID, Mode: ModeNone, LastActivity: time.Now().UTC()}
}

// Touch updates activity bookkeeping; called once per inbound message.
func (s *ConversationState) Touch() {
	s.LastActivity = time.Now().UTC()
	s.TurnCount++
}

// InAssessment reports whether an assessment is currently being driven.
func (s *ConversationState) InAssessment() bool {
	return s.Mode == ModeAssessment && s.ActiveAssessment != nil && s.ActiveAssessment.Status == StatusActive
}

// AwaitingGoal reports whether the next message is expected to be a
// learning-path goal.
func (s *ConversationState) AwaitingGoal() bool { return s.Mode == ModeLearningPathPending }

// BeginAssessment attaches a fresh assessment session to the conversation.
// Fails if another structured flow is already active.
func (s *ConversationState) BeginAssessment(sess *AssessmentSession) error {
	if s.InAssessment() || s.AwaitingGoal() {
		return ErrSessionConflict
	}
	s.ActiveAssessment = sess
	s.Mode = ModeAssessment
	return nil
}

// AwaitGoal flips the conversation into learning-path negotiation.
func (s *ConversationState) AwaitGoal() {
	s.Mode = ModeLearningPathPending
	s.PendingGoal = "pending"
}

// ClearFlow detaches any active structured flow. Used both on normal
// completion and as a defensive reset after a state conflict.
func (s *ConversationState) ClearFlow() {
	s.ActiveAssessment = nil
	s.PendingGoal = ""
	s.Mode = ModeNone
}

// ReplyType tags the shape of an assistant reply.
type ReplyType string

const (
	ReplyText         ReplyType = "text"
	ReplyAssessment   ReplyType = "assessment"
	ReplyLearningPath ReplyType = "learning_path"
	ReplyContent      ReplyType = "content_recommendation"
	ReplyResume       ReplyType = "resume_analysis"
	ReplyInterview    ReplyType = "interview_preparation"
)

// Reply is the structured response returned for every inbound message.
type Reply struct {
	Message           string         `json:"message"`
	Type              ReplyType      `json:"response_type"`
	ConfidenceScore   float64        `json:"confidence_score"`
	SuggestedActions  []string       `json:"suggested_actions,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// SkillLevel records one assessed skill for a user.
type SkillLevel struct {
	Level      string    `json:"level"` // beginner, intermediate, advanced
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserContext is the durable per-user profile kept by the transcript store.
type UserContext struct {
	UserID      string                `json:"user_id"`
	Skills      map[string]SkillLevel `json:"skills,omitempty"`
	CareerGoals []string              `json:"career_goals,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Turn is one persisted user/assistant exchange.
type Turn struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	UserText      string         `json:"user_text"`
	AssistantText string         `json:"assistant_text"`
	Type          ReplyType      `json:"type"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Ports

//go:generate mockery --name=AIClient --with-expecter --filename=aiclient_mock.go
//go:generate mockery --name=StateStore --with-expecter --filename=state_store_mock.go
//go:generate mockery --name=ContextStore --with-expecter --filename=context_store_mock.go

// AIClient is the generative-model collaborator. GenerateStructured is
// expected (not guaranteed) to return text containing an embedded JSON
// object; callers must parse defensively and keep a deterministic fallback.
type AIClient interface {
	GenerateText(ctx Context, prompt string) (string, error)
	GenerateStructured(ctx Context, prompt string) (string, error)
}

// StateStore persists ConversationState keyed by user id. Get returns
// ErrNotFound for users with no state yet.
type StateStore interface {
	Get(ctx Context, userID string) (*ConversationState, error)
	Put(ctx Context, state *ConversationState) error
}

// ContextStore is the transcript/profile collaborator. Its failures are
// logged by callers and never fail a user-visible turn.
type ContextStore interface {
	GetUserContext(ctx Context, userID string) (UserContext, error)
	CreateUserContext(ctx Context, userID string) (UserContext, error)
	AppendTurn(ctx Context, userID, userText, assistantText string, t ReplyType, metadata map[string]any) error
	SaveAssessmentResult(ctx Context, userID string, result SkillResult) error
	UpdateSkills(ctx Context, userID string, skills map[string]SkillLevel) error
	History(ctx Context, userID string, limit int) ([]Turn, error)
}
