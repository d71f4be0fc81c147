package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

func newConversationService(aiClient *fakeAI) (*ConversationService, *fakeStateStore, *fakeContextStore) {
	log := testLogger()
	states := newFakeStateStore()
	contexts := newFakeContextStore()
	svc := NewConversationService(
		states,
		contexts,
		aiClient,
		NewAssessmentEngine(aiClient, log),
		NewInterviewService(aiClient, log, 0),
		NewLearningPathService(aiClient, log),
		log,
	)
	return svc, states, contexts
}

func TestConversationService_RejectsEmptyInput(t *testing.T) {
	t.Parallel()
	svc, _, _ := newConversationService(&fakeAI{})
	_, err := svc.HandleMessage(context.Background(), "", "hello")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.HandleMessage(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConversationService_GeneralIntent(t *testing.T) {
	t.Parallel()
	svc, states, contexts := newConversationService(&fakeAI{text: "Happy to help with your career."})
	reply, err := svc.HandleMessage(context.Background(), "u1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyText, reply.Type)
	assert.Equal(t, "Happy to help with your career.", reply.Message)

	// State and transcript were persisted.
	st, err := states.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.TurnCount)
	require.Len(t, contexts.turns, 1)
	assert.Equal(t, "hello there", contexts.turns[0].UserText)
}

func TestConversationService_GeneralIntentFallback(t *testing.T) {
	t.Parallel()
	svc, _, _ := newConversationService(&fakeAI{textErr: domain.ErrAIUnavailable})
	reply, err := svc.HandleMessage(context.Background(), "u1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyText, reply.Type)
	assert.Contains(t, reply.Message, "skill assessments")
}

func TestConversationService_AssessmentFlow(t *testing.T) {
	t.Parallel()
	aiClient := &fakeAI{structured: []string{
		`{"questions": ["adaptive one", "adaptive two"]}`,
		`{"overall_score": 85, "overall_level": "advanced", "confidence_score": 0.9}`,
	}}
	svc, states, contexts := newConversationService(aiClient)
	ctx := context.Background()

	reply, err := svc.HandleMessage(ctx, "u1", "please assess my skills")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAssessment, reply.Type)
	assert.Contains(t, reply.Message, "Question 1 of 5")

	st, err := states.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.InAssessment())

	// Control characters sanitize to nothing; mid-assessment that re-asks the
	// current question rather than failing the turn.
	reply, err = svc.HandleMessage(ctx, "u1", "\x07\x07")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "didn't catch an answer")

	answers := []string{
		"I code python daily", "three years of software work", "built several coding projects",
		"debugging tricky issues", "I want to go deeper", "adaptive answer one", "adaptive answer two",
	}
	var last domain.Reply
	for _, a := range answers {
		last, err = svc.HandleMessage(ctx, "u1", a)
		require.NoError(t, err)
	}

	assert.Contains(t, last.Message, "assessment is complete")
	assert.Contains(t, last.Message, "advanced")
	st, err = states.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, st.InAssessment())
	assert.Equal(t, domain.ModeNone, st.Mode)

	require.Len(t, contexts.savedResults, 1)
	assert.Equal(t, 85.0, contexts.savedResults[0].OverallScore)
	require.Len(t, contexts.skillUpdates, 1)
	assert.Contains(t, contexts.skillUpdates[0], "Programming")
}

func TestConversationService_AssessmentReprompt(t *testing.T) {
	t.Parallel()
	svc, states, _ := newConversationService(&fakeAI{structuredErr: domain.ErrAIUnavailable})
	ctx := context.Background()
	_, err := svc.HandleMessage(ctx, "u1", "assess me")
	require.NoError(t, err)

	// A whitespace-only answer mid-assessment is a re-prompt, not an error,
	// and the question pointer does not advance.
	reply, err := svc.HandleMessage(ctx, "u1", "   \t  ")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAssessment, reply.Type)
	assert.Contains(t, reply.Message, "didn't catch an answer")
	st, err := states.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.InAssessment())
	assert.Equal(t, 0, st.ActiveAssessment.CurrentQuestionIndex)

	reply, err = svc.HandleMessage(ctx, "u1", "a real answer")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "Question 2 of 5")
}

func TestConversationService_LearningPathNegotiation(t *testing.T) {
	t.Parallel()
	aiClient := &fakeAI{structured: []string{
		`{"difficulty": "intermediate", "milestones": [{"title": "Learn Go", "estimated_days": 30}]}`,
	}}
	svc, states, _ := newConversationService(aiClient)
	ctx := context.Background()

	reply, err := svc.HandleMessage(ctx, "u1", "I need a learning path")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyLearningPath, reply.Type)
	st, _ := states.Get(ctx, "u1")
	assert.True(t, st.AwaitingGoal())

	// A too-short goal re-prompts and keeps the pending mode.
	reply, err = svc.HandleMessage(ctx, "u1", "dev")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "bit more")
	st, _ = states.Get(ctx, "u1")
	assert.True(t, st.AwaitingGoal())

	reply, err = svc.HandleMessage(ctx, "u1", "become a golang backend developer")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyLearningPath, reply.Type)
	assert.Contains(t, reply.Message, "Learn Go")
	st, _ = states.Get(ctx, "u1")
	assert.False(t, st.AwaitingGoal())
}

func TestConversationService_IntentPriority(t *testing.T) {
	t.Parallel()
	svc, states, _ := newConversationService(&fakeAI{structuredErr: domain.ErrAIUnavailable})
	reply, err := svc.HandleMessage(context.Background(), "u1", "assess my interview skills")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAssessment, reply.Type)
	st, _ := states.Get(context.Background(), "u1")
	assert.True(t, st.InAssessment())
}

func TestConversationService_InterviewIntent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newConversationService(&fakeAI{})
	reply, err := svc.HandleMessage(context.Background(), "u1", "I want interview practice")
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyInterview, reply.Type)
	assert.NotEmpty(t, reply.SuggestedActions)
}

func TestConversationService_PanicRecovery(t *testing.T) {
	t.Parallel()
	svc, states, _ := newConversationService(&fakeAI{})
	// A nil AI client makes the general-intent turn panic inside dispatch.
	svc.AI = nil

	reply, err := svc.HandleMessage(context.Background(), "u1", "hello there")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(reply.Message), "sorry")

	// The turn still persisted state and left no wedged flow behind.
	st, err := states.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeNone, st.Mode)
	assert.Equal(t, 1, st.TurnCount)
}

func TestConversationService_PersistFailureDoesNotFailTurn(t *testing.T) {
	t.Parallel()
	aiClient := &fakeAI{text: "hello!"}
	svc, states, contexts := newConversationService(aiClient)
	states.putErr = domain.ErrPersistence
	contexts.appendErr = domain.ErrPersistence

	reply, err := svc.HandleMessage(context.Background(), "u1", "good morning")
	require.NoError(t, err)
	assert.Equal(t, "hello!", reply.Message)
}
