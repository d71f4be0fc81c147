package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
	"github.com/hamdani2020/EdAgent-sub002/pkg/textx"
)

const minGoalLength = 5

// ConversationService is the orchestrator: it owns per-user serialization,
// state loading, mode routing, and the guarantee that every inbound message
// produces a Reply no matter what fails underneath.
type ConversationService struct {
	States      domain.StateStore
	Contexts    domain.ContextStore
	AI          domain.AIClient
	Assessments *AssessmentEngine
	Interviews  *InterviewService
	Paths       *LearningPathService
	Log         *slog.Logger

	locks sync.Map // userID -> *sync.Mutex
}

func NewConversationService(
	states domain.StateStore,
	contexts domain.ContextStore,
	aiClient domain.AIClient,
	assessments *AssessmentEngine,
	interviews *InterviewService,
	paths *LearningPathService,
	log *slog.Logger,
) *ConversationService {
	return &ConversationService{
		States:      states,
		Contexts:    contexts,
		AI:          aiClient,
		Assessments: assessments,
		Interviews:  interviews,
		Paths:       paths,
		Log:         log,
	}
}

func (s *ConversationService) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleMessage processes one user message end to end. Messages for the same
// user are serialized; state is loaded, routed by mode, and persisted
// best-effort. Persistence failures are logged and never surface to the user
// as long as a reply was computed.
func (s *ConversationService) HandleMessage(ctx domain.Context, userID, message string) (domain.Reply, error) {
	message = textx.SanitizeText(message)
	if userID == "" {
		return domain.Reply{}, fmt.Errorf("op=conversation.handle_message: %w", domain.ErrInvalidInput)
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.States.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Reply{}, fmt.Errorf("op=conversation.handle_message: load state: %w", err)
		}
		if message == "" {
			return domain.Reply{}, fmt.Errorf("op=conversation.handle_message: %w", domain.ErrInvalidInput)
		}
		state = domain.NewConversationState(userID)
		if _, cerr := s.Contexts.CreateUserContext(ctx, userID); cerr != nil {
			s.Log.WarnContext(ctx, "user context creation failed", slog.String("user_id", userID), slog.Any("error", cerr))
		}
	}
	// An empty message mid-flow is not an error: the active flow re-prompts
	// in place (the assessment re-asks its current question, the goal
	// negotiation asks again). Outside a flow there is nothing to re-prompt.
	if message == "" && !state.InAssessment() && !state.AwaitingGoal() {
		return domain.Reply{}, fmt.Errorf("op=conversation.handle_message: %w", domain.ErrInvalidInput)
	}
	state.Touch()

	reply := s.dispatch(ctx, state, message)

	if err := s.Contexts.AppendTurn(ctx, userID, message, reply.Message, reply.Type, reply.Metadata); err != nil {
		s.Log.WarnContext(ctx, "transcript append failed", slog.String("user_id", userID), slog.Any("error", err))
	}
	state.Version++
	if err := s.States.Put(ctx, state); err != nil {
		s.Log.WarnContext(ctx, "state persist failed", slog.String("user_id", userID), slog.Any("error", err))
	}
	observability.RecordMessage(string(reply.Type))
	return reply, nil
}

// dispatch routes by conversation mode, converting panics and internal errors
// into an apologetic reply so the conversational surface never 500s for a
// computable message.
func (s *ConversationService) dispatch(ctx domain.Context, state *domain.ConversationState, message string) (reply domain.Reply) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.ErrorContext(ctx, "panic during message handling",
				slog.String("user_id", state.UserID), slog.Any("panic", r))
			state.ClearFlow()
			reply = apology()
		}
	}()

	switch {
	case state.InAssessment():
		return s.assessmentTurn(ctx, state, message)
	case state.AwaitingGoal():
		return s.goalTurn(ctx, state, message)
	default:
		return s.intentTurn(ctx, state, message)
	}
}

// assessmentTurn feeds one answer into the active assessment. Invalid input
// re-asks the current question without advancing; a state conflict resets the
// flow rather than stranding the user in a wedged session.
func (s *ConversationService) assessmentTurn(ctx domain.Context, state *domain.ConversationState, message string) domain.Reply {
	sess := state.ActiveAssessment
	turn, err := s.Assessments.HandleResponse(ctx, sess, message)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		q, _ := sess.CurrentQuestion()
		return domain.Reply{
			Message:         "I didn't catch an answer there. " + q.Text,
			Type:            domain.ReplyAssessment,
			ConfidenceScore: 1,
			Metadata:        assessmentMeta(sess),
		}
	case errors.Is(err, domain.ErrSessionConflict):
		s.Log.WarnContext(ctx, "assessment state conflict, resetting flow",
			slog.String("user_id", state.UserID), slog.String("session_id", sess.ID), slog.Any("error", err))
		state.ClearFlow()
		return apology()
	case err != nil:
		s.Log.ErrorContext(ctx, "assessment turn failed", slog.String("user_id", state.UserID), slog.Any("error", err))
		state.ClearFlow()
		return apology()
	}

	if turn.Result != nil {
		return s.finishAssessment(ctx, state, sess, *turn.Result)
	}

	msg := fmt.Sprintf("Thanks! Question %d of %d: %s",
		sess.CurrentQuestionIndex+1, len(sess.Questions), turn.NextQuestion.Text)
	return domain.Reply{
		Message:         msg,
		Type:            domain.ReplyAssessment,
		ConfidenceScore: 1,
		Metadata:        assessmentMeta(sess),
	}
}

func (s *ConversationService) finishAssessment(ctx domain.Context, state *domain.ConversationState, sess *domain.AssessmentSession, result domain.SkillResult) domain.Reply {
	if err := s.Contexts.SaveAssessmentResult(ctx, state.UserID, result); err != nil {
		s.Log.WarnContext(ctx, "assessment result persist failed", slog.String("user_id", state.UserID), slog.Any("error", err))
	}
	skills := map[string]domain.SkillLevel{
		result.SkillArea: {Level: result.OverallLevel, Confidence: result.ConfidenceScore, UpdatedAt: *sess.CompletedAt},
	}
	if err := s.Contexts.UpdateSkills(ctx, state.UserID, skills); err != nil {
		s.Log.WarnContext(ctx, "skill update failed", slog.String("user_id", state.UserID), slog.Any("error", err))
	}
	state.ClearFlow()

	msg := fmt.Sprintf("%s Your %s assessment is complete: %s level (score %.0f/100).",
		encouragement(result.OverallScore), result.SkillArea, result.OverallLevel, result.OverallScore)
	return domain.Reply{
		Message:         msg,
		Type:            domain.ReplyAssessment,
		ConfidenceScore: result.ConfidenceScore,
		SuggestedActions: []string{
			"Ask for a learning path to keep improving",
			"Try a mock interview to practice talking about this skill",
		},
		Metadata: map[string]any{
			"session_id": sess.ID,
			"result":     result,
		},
	}
}

func encouragement(score float64) string {
	switch {
	case score >= 80:
		return "Excellent work!"
	case score >= 60:
		return "Great job!"
	default:
		return "Thanks for completing the assessment."
	}
}

// goalTurn handles learning-path goal negotiation. Goals shorter than five
// characters after trimming get a re-prompt and the pending mode survives.
func (s *ConversationService) goalTurn(ctx domain.Context, state *domain.ConversationState, message string) domain.Reply {
	if len(message) < minGoalLength {
		return domain.Reply{
			Message:         "Could you tell me a bit more about your goal? For example: \"become a backend developer\".",
			Type:            domain.ReplyLearningPath,
			ConfidenceScore: 1,
		}
	}

	path, err := s.Paths.Generate(ctx, state.UserID, message)
	if err != nil {
		s.Log.ErrorContext(ctx, "learning path generation failed", slog.String("user_id", state.UserID), slog.Any("error", err))
		state.ClearFlow()
		return apology()
	}
	state.ClearFlow()

	msg := fmt.Sprintf("Here's a %d-step path toward %q:\n", len(path.Milestones), path.Goal)
	for _, m := range path.Milestones {
		msg += fmt.Sprintf("%d. %s", m.Order+1, m.Title)
		if m.EstimatedDays > 0 {
			msg += fmt.Sprintf(" (~%d days)", m.EstimatedDays)
		}
		msg += "\n"
	}
	return domain.Reply{
		Message:         msg,
		Type:            domain.ReplyLearningPath,
		ConfidenceScore: 0.9,
		Metadata:        map[string]any{"path": path},
	}
}

// intentTurn classifies a free message and starts the matching flow.
func (s *ConversationService) intentTurn(ctx domain.Context, state *domain.ConversationState, message string) domain.Reply {
	intent := ClassifyIntent(message)
	switch intent {
	case domain.IntentAssessment:
		return s.startAssessment(ctx, state)
	case domain.IntentLearningPath:
		state.AwaitGoal()
		return domain.Reply{
			Message:         "Happy to build you a learning path. What career goal are you working toward?",
			Type:            domain.ReplyLearningPath,
			ConfidenceScore: 1,
		}
	case domain.IntentContent:
		return s.aiTextReply(ctx, message, domain.ReplyContent,
			"Recommend learning resources for this request, with one line per suggestion:",
			"I can suggest resources once you tell me which skill or topic you're focused on.")
	case domain.IntentResumeAnalysis:
		return s.aiTextReply(ctx, message, domain.ReplyResume,
			"The user wants resume advice. Give concise, actionable feedback on:",
			"Paste the resume section you'd like feedback on and I'll take a look.")
	case domain.IntentInterviewPrep:
		return domain.Reply{
			Message: "Let's get you interview-ready. I can run a mock interview (behavioral, technical, or general), or share how interviews typically work in your target industry.",
			Type:    domain.ReplyInterview,
			SuggestedActions: []string{
				"Start a behavioral mock interview",
				"Start a technical mock interview",
				"Ask about interviews in a specific industry",
			},
			ConfidenceScore: 1,
		}
	default:
		return s.aiTextReply(ctx, message, domain.ReplyText,
			"You are a friendly career coach. Reply helpfully to:",
			"I'm here to help with skill assessments, learning paths, resumes, and interview prep. What would you like to work on?")
	}
}

func (s *ConversationService) startAssessment(ctx domain.Context, state *domain.ConversationState) domain.Reply {
	sess, err := s.Assessments.Start(state.UserID)
	if err == nil {
		err = state.BeginAssessment(sess)
	}
	if err != nil {
		s.Log.WarnContext(ctx, "assessment start failed", slog.String("user_id", state.UserID), slog.Any("error", err))
		state.ClearFlow()
		return apology()
	}
	q, _ := sess.CurrentQuestion()
	return domain.Reply{
		Message:         "Let's assess your skills. Question 1 of " + fmt.Sprint(len(sess.Questions)) + ": " + q.Text,
		Type:            domain.ReplyAssessment,
		ConfidenceScore: 1,
		Metadata:        assessmentMeta(sess),
	}
}

// aiTextReply answers a free-text intent through the text model with a static
// fallback, so these intents degrade gracefully rather than erroring.
func (s *ConversationService) aiTextReply(ctx domain.Context, message string, t domain.ReplyType, promptPrefix, fallback string) domain.Reply {
	text, err := s.AI.GenerateText(ctx, promptPrefix+"\n\n"+message)
	if err != nil || text == "" {
		if err != nil {
			s.Log.WarnContext(ctx, "text generation failed, using static fallback", slog.Any("error", err))
		}
		observability.RecordAIFallback("conversation_text")
		return domain.Reply{Message: fallback, Type: t, ConfidenceScore: 0.5}
	}
	return domain.Reply{Message: text, Type: t, ConfidenceScore: 0.8}
}

func assessmentMeta(sess *domain.AssessmentSession) map[string]any {
	return map[string]any{
		"session_id": sess.ID,
		"skill_area": sess.SkillArea,
		"progress":   sess.Progress(),
	}
}

func apology() domain.Reply {
	return domain.Reply{
		Message:         "Sorry, something went wrong on my end. Let's start over - what would you like to work on?",
		Type:            domain.ReplyText,
		ConfidenceScore: 0,
	}
}
