package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

const (
	fixedQuestionCount   = 5
	adaptiveTriggerCount = 3
	maxAdaptiveQuestions = 2
)

// initialQuestions opens every assessment regardless of skill area; the flow
// only specializes after the adaptive injection point.
var initialQuestions = []string{
	"What specific skills or areas would you like to assess today?",
	"How would you describe your current experience level in this area?",
	"What projects or hands-on work have you done related to this skill?",
	"What challenges do you run into most often when working in this area?",
	"What are your goals for improving this skill?",
}

// skillAreaKeywords drives deterministic skill-area inference from early
// responses. Scoring is a plain hit count across all answers.
var skillAreaKeywords = map[string][]string{
	"Programming":     {"programming", "coding", "python", "java", "golang", "software", "algorithm", "code"},
	"Web Development": {"web", "frontend", "backend", "html", "css", "javascript", "react", "api"},
	"Data Science":    {"data", "machine learning", "statistics", "analytics", "pandas", "sql", "model"},
	"Design":          {"design", "ui", "ux", "figma", "prototype", "wireframe", "visual"},
	"Marketing":       {"marketing", "seo", "campaign", "social media", "brand", "advertising"},
	"Business":        {"business", "management", "strategy", "finance", "operations", "sales"},
}

// AssessmentEngine drives the fixed-then-adaptive assessment workflow. It is
// stateless; all session state lives in the AssessmentSession it is handed.
type AssessmentEngine struct {
	AI  domain.AIClient
	Log *slog.Logger
}

func NewAssessmentEngine(aiClient domain.AIClient, log *slog.Logger) *AssessmentEngine {
	return &AssessmentEngine{AI: aiClient, Log: log}
}

// AssessmentTurn is the outcome of recording one answer: either the next
// question to ask, or (on the final answer) the scored result.
type AssessmentTurn struct {
	NextQuestion *domain.AssessmentQuestion
	Result       *domain.SkillResult
	Injected     int
}

// Start creates a session pre-loaded with the fixed opening questions.
func (e *AssessmentEngine) Start(userID string) (*domain.AssessmentSession, error) {
	sess := domain.NewAssessmentSession(userID)
	for _, q := range initialQuestions {
		if err := sess.AddQuestion(q, domain.QuestionOpen); err != nil {
			return nil, fmt.Errorf("op=assessment.start: %w", err)
		}
	}
	return sess, nil
}

// HandleResponse records one answer and advances the workflow. The adaptive
// injection fires exactly once, on the turn where the third answer lands
// while the question list still holds only the five fixed questions; retries
// after a partial failure can never re-trigger it because the question count
// has already grown.
func (e *AssessmentEngine) HandleResponse(ctx domain.Context, sess *domain.AssessmentSession, text string) (AssessmentTurn, error) {
	if err := sess.AddResponse(text); err != nil {
		return AssessmentTurn{}, fmt.Errorf("op=assessment.handle_response: %w", err)
	}

	var turn AssessmentTurn
	if len(sess.Responses) == adaptiveTriggerCount && len(sess.Questions) == fixedQuestionCount {
		turn.Injected = e.injectAdaptive(ctx, sess)
	}

	if !sess.IsComplete() {
		q, _ := sess.CurrentQuestion()
		turn.NextQuestion = &q
		return turn, nil
	}

	result := e.scoreSession(ctx, sess)
	if err := sess.Complete(result); err != nil {
		return AssessmentTurn{}, fmt.Errorf("op=assessment.handle_response: %w", err)
	}
	observability.RecordSessionCompleted("assessment")
	turn.Result = sess.Result
	return turn, nil
}

// injectAdaptive refines the skill area from the answers so far and appends
// up to two follow-up questions, AI-generated when possible and curated
// otherwise. Returns how many questions were added.
func (e *AssessmentEngine) injectAdaptive(ctx domain.Context, sess *domain.AssessmentSession) int {
	if area := InferSkillArea(sess.ResponseTexts()); sess.SkillArea == "General" && area != "General" {
		sess.SkillArea = area
	}

	questions, err := e.adaptiveFromAI(ctx, sess)
	qType := domain.QuestionAdaptive
	if err != nil {
		e.Log.WarnContext(ctx, "adaptive generation failed, using curated bank",
			slog.String("session_id", sess.ID), slog.String("skill_area", sess.SkillArea), slog.Any("error", err))
		observability.RecordAIFallback("assessment_adaptive")
		questions = adaptiveFallback(sess.SkillArea)
		qType = domain.QuestionFallback
	}
	if len(questions) > maxAdaptiveQuestions {
		questions = questions[:maxAdaptiveQuestions]
	}

	added := 0
	for _, q := range questions {
		if err := sess.AddQuestion(q, qType); err != nil {
			e.Log.WarnContext(ctx, "skipping adaptive question", slog.Any("error", err))
			continue
		}
		added++
	}
	return added
}

func (e *AssessmentEngine) adaptiveFromAI(ctx domain.Context, sess *domain.AssessmentSession) ([]string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a career-skills assessor. The candidate is being assessed on %s.\n", sess.SkillArea)
	b.WriteString("Based on their answers so far, produce up to 2 targeted follow-up questions.\n")
	b.WriteString("Respond with JSON only: {\"questions\": [\"...\"]}\n\nAnswers so far:\n")
	for i, r := range sess.ResponseTexts() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	raw, err := e.AI.GenerateStructured(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("op=assessment.adaptive: %w", err)
	}
	var payload struct {
		Questions []string `json:"questions"`
	}
	if err := ExtractJSONObject(raw, &payload); err != nil {
		return nil, fmt.Errorf("op=assessment.adaptive: %w", err)
	}
	var out []string
	for _, q := range payload.Questions {
		if strings.TrimSpace(q) != "" {
			out = append(out, strings.TrimSpace(q))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("op=assessment.adaptive: empty question list: %w", domain.ErrMalformedAIOutput)
	}
	return out, nil
}

// scoreSession asks the AI to grade the full transcript, falling back to a
// deterministic neutral result. It is called exactly once per session, from
// the completing turn.
func (e *AssessmentEngine) scoreSession(ctx domain.Context, sess *domain.AssessmentSession) domain.SkillResult {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this %s skill assessment transcript.\n", sess.SkillArea)
	b.WriteString("Respond with JSON only: {\"overall_score\": 0-100, \"overall_level\": \"beginner|intermediate|advanced\", ")
	b.WriteString("\"confidence_score\": 0-1, \"strengths\": [], \"weaknesses\": [], \"recommendations\": [], \"detailed_scores\": {}}\n\n")
	for i, q := range sess.Questions {
		b.WriteString("Q: " + q.Text + "\n")
		if i < len(sess.Responses) {
			b.WriteString("A: " + sess.Responses[i].Text + "\n")
		}
	}

	raw, err := e.AI.GenerateStructured(ctx, b.String())
	if err == nil {
		var result domain.SkillResult
		if perr := ExtractJSONObject(raw, &result); perr == nil {
			result.SkillArea = sess.SkillArea
			normalizeResult(&result)
			return result
		}
		err = domain.ErrMalformedAIOutput
	}
	e.Log.WarnContext(ctx, "scoring failed, using neutral result",
		slog.String("session_id", sess.ID), slog.Any("error", err))
	observability.RecordAIFallback("assessment_scoring")
	return neutralResult(sess.SkillArea)
}

func normalizeResult(r *domain.SkillResult) {
	if r.OverallScore < 0 {
		r.OverallScore = 0
	}
	if r.OverallScore > 100 {
		r.OverallScore = 100
	}
	if r.ConfidenceScore < 0 {
		r.ConfidenceScore = 0
	}
	if r.ConfidenceScore > 1 {
		r.ConfidenceScore = 1
	}
	for k, v := range r.DetailedScores {
		if v < 0 {
			r.DetailedScores[k] = 0
		} else if v > 1 {
			r.DetailedScores[k] = 1
		}
	}
	switch r.OverallLevel {
	case "beginner", "intermediate", "advanced":
	default:
		switch {
		case r.OverallScore >= 75:
			r.OverallLevel = "advanced"
		case r.OverallScore >= 45:
			r.OverallLevel = "intermediate"
		default:
			r.OverallLevel = "beginner"
		}
	}
}

func neutralResult(skillArea string) domain.SkillResult {
	return domain.SkillResult{
		SkillArea:       skillArea,
		OverallScore:    50,
		OverallLevel:    "beginner",
		ConfidenceScore: 0.5,
		Recommendations: []string{
			"Keep practicing with small, regular projects.",
			"Retake the assessment later for a more detailed evaluation.",
		},
	}
}

// InferSkillArea scores each known skill area by keyword hits across the
// responses and returns the highest scorer, or "General" on a shutout.
// Deterministic: ties resolve to the area checked first in a fixed order.
func InferSkillArea(responses []string) string {
	joined := strings.ToLower(strings.Join(responses, " "))
	best, bestScore := "General", 0
	// Fixed iteration order keeps tie-breaking stable.
	for _, area := range []string{"Programming", "Web Development", "Data Science", "Design", "Marketing", "Business"} {
		score := 0
		for _, kw := range skillAreaKeywords[area] {
			score += strings.Count(joined, kw)
		}
		if score > bestScore {
			best, bestScore = area, score
		}
	}
	return best
}
