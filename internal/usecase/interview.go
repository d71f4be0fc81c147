package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

const (
	defaultQuestionCount = 5
	maxQuestionCount     = 10
	fallbackScore        = 6.0
)

// industryRules maps career-goal phrases to a target industry for
// practice-question generation. Checked in order so matches are stable when a
// goal mentions several industries.
var industryRules = []struct {
	industry string
	keywords []string
}{
	{"technology", []string{"developer", "engineer", "software", "tech", "programmer", "data"}},
	{"finance", []string{"finance", "banking", "accountant", "investment", "trader"}},
	{"healthcare", []string{"health", "medical", "nurse", "doctor", "clinical"}},
	{"marketing", []string{"marketing", "brand", "advertising", "growth", "seo"}},
	{"education", []string{"teacher", "education", "instructor", "academic", "tutor"}},
}

// InterviewService owns mock-interview sessions, per-answer feedback, and the
// industry guidance cache. Sessions live in memory; the registry lock also
// serializes mutations of any one session.
type InterviewService struct {
	AI          domain.AIClient
	Log         *slog.Logger
	GuidanceTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*domain.InterviewSession

	cacheMu  sync.Mutex
	guidance map[string]guidanceEntry

	// now is swapped in tests to step the guidance cache clock.
	now func() time.Time
}

type guidanceEntry struct {
	value     domain.IndustryGuidance
	expiresAt time.Time
}

func NewInterviewService(aiClient domain.AIClient, log *slog.Logger, guidanceTTL time.Duration) *InterviewService {
	if guidanceTTL <= 0 {
		guidanceTTL = 24 * time.Hour
	}
	return &InterviewService{
		AI:          aiClient,
		Log:         log,
		GuidanceTTL: guidanceTTL,
		sessions:    make(map[string]*domain.InterviewSession),
		guidance:    make(map[string]guidanceEntry),
		now:         time.Now,
	}
}

// CreateSession generates n questions for a new mock interview. AI output is
// truncated to n; on AI failure the curated bank for the interview type is
// cycled until n questions exist, so the fallback is deterministic for any
// (type, n) pair.
func (s *InterviewService) CreateSession(ctx domain.Context, userID string, t domain.InterviewType, role, industry string, n int) (*domain.InterviewSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("op=interview.create_session: empty user id: %w", domain.ErrInvalidInput)
	}
	switch t {
	case domain.InterviewBehavioral, domain.InterviewTechnical, domain.InterviewGeneral:
	default:
		return nil, fmt.Errorf("op=interview.create_session: unknown type %q: %w", t, domain.ErrInvalidInput)
	}
	if n <= 0 {
		n = defaultQuestionCount
	}
	if n > maxQuestionCount {
		n = maxQuestionCount
	}

	sess := domain.NewInterviewSession(userID, t, role, industry)

	questions, err := s.questionsFromAI(ctx, t, role, industry, n)
	if err != nil {
		s.Log.WarnContext(ctx, "question generation failed, using curated bank",
			slog.String("type", string(t)), slog.Any("error", err))
		observability.RecordAIFallback("interview_questions")
		bank := interviewFallback(t)
		questions = questions[:0]
		for i := 0; i < n; i++ {
			questions = append(questions, domain.InterviewQuestion{
				Text: bank[i%len(bank)],
				Tags: []string{"fallback", string(t)},
			})
		}
	}
	if len(questions) > n {
		questions = questions[:n]
	}
	for _, q := range questions {
		q.Type = t
		q.Difficulty = domain.DifficultyIntermediate
		if err := sess.AddQuestion(q); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// questionEnvelope is the per-question object shape the generator is asked
// for. Plain-string entries are also accepted, since smaller models tend to
// collapse the envelope to a string list.
type questionEnvelope struct {
	Question          string   `json:"question"`
	KeyPoints         []string `json:"key_points"`
	SampleAnswer      string   `json:"sample_answer"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Tags              []string `json:"tags"`
}

func (s *InterviewService) questionsFromAI(ctx domain.Context, t domain.InterviewType, role, industry string, n int) ([]domain.InterviewQuestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d %s interview questions", n, t)
	if role != "" {
		fmt.Fprintf(&b, " for a %s role", role)
	}
	if industry != "" {
		fmt.Fprintf(&b, " in the %s industry", industry)
	}
	b.WriteString(".\nFor each question include 3-5 key points a good answer should cover, a short sample answer, and 1-2 follow-up questions.\n")
	b.WriteString("Respond with JSON only: {\"questions\": [{\"question\": \"...\", \"key_points\": [], \"sample_answer\": \"\", \"follow_up_questions\": [], \"tags\": []}]}\n")

	raw, err := s.AI.GenerateStructured(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("op=interview.questions: %w", err)
	}
	var payload struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := ExtractJSONObject(raw, &payload); err != nil {
		return nil, fmt.Errorf("op=interview.questions: %w", err)
	}
	var out []domain.InterviewQuestion
	for _, rawQ := range payload.Questions {
		var text string
		if err := json.Unmarshal(rawQ, &text); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				out = append(out, domain.InterviewQuestion{Text: text})
			}
			continue
		}
		var env questionEnvelope
		if err := json.Unmarshal(rawQ, &env); err != nil {
			continue
		}
		if env.Question = strings.TrimSpace(env.Question); env.Question == "" {
			continue
		}
		out = append(out, domain.InterviewQuestion{
			Text:              env.Question,
			KeyPoints:         env.KeyPoints,
			SampleAnswer:      env.SampleAnswer,
			FollowUpQuestions: env.FollowUpQuestions,
			Tags:              env.Tags,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("op=interview.questions: empty question list: %w", domain.ErrMalformedAIOutput)
	}
	return out, nil
}

// GetSession looks up a session by id.
func (s *InterviewService) GetSession(id string) (*domain.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("op=interview.get_session: id=%s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// SubmitResponse records an answer, produces feedback for it, and returns the
// feedback plus the next question (nil when the interview is out of
// questions).
func (s *InterviewService) SubmitResponse(ctx domain.Context, sessionID, answer string) (domain.InterviewFeedback, *domain.InterviewQuestion, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return domain.InterviewFeedback{}, nil, fmt.Errorf("op=interview.submit_response: id=%s: %w", sessionID, domain.ErrNotFound)
	}
	// AddResponse fails when no question is pending, so the zero-value
	// question can never leak into feedback.
	question, _ := sess.CurrentQuestion()
	if err := sess.AddResponse(answer); err != nil {
		s.mu.Unlock()
		return domain.InterviewFeedback{}, nil, fmt.Errorf("op=interview.submit_response: %w", err)
	}
	s.mu.Unlock()

	fb := s.feedbackFor(ctx, question, answer)
	observability.RecordFeedbackScore(fb.Score)

	s.mu.Lock()
	sess.AddFeedback(fb)
	var next *domain.InterviewQuestion
	if q, ok := sess.CurrentQuestion(); ok {
		next = &q
	}
	s.mu.Unlock()
	return fb, next, nil
}

// feedbackFor asks the AI to grade one answer; on any failure it returns the
// neutral fallback so an interview never stalls on a grading error.
func (s *InterviewService) feedbackFor(ctx domain.Context, q domain.InterviewQuestion, answer string) domain.InterviewFeedback {
	var b strings.Builder
	b.WriteString("Grade this interview answer on a 0-10 scale.\n")
	b.WriteString("Respond with JSON only: {\"score\": 0-10, \"feedback_text\": \"\", \"strengths\": [], \"improvements\": [], \"suggestions\": [], \"detailed_scores\": {}}\n\n")
	b.WriteString("Question: " + q.Text + "\n")
	if len(q.KeyPoints) > 0 {
		b.WriteString("Key points a good answer covers: " + strings.Join(q.KeyPoints, "; ") + "\n")
	}
	b.WriteString("Answer: " + answer + "\n")

	raw, err := s.AI.GenerateStructured(ctx, b.String())
	if err == nil {
		var fb domain.InterviewFeedback
		if perr := ExtractJSONObject(raw, &fb); perr == nil {
			fb.QuestionIndex = q.Index
			fb.Type = domain.FeedbackPerAnswer
			fb.ClampScore()
			return fb
		}
		err = domain.ErrMalformedAIOutput
	}
	s.Log.WarnContext(ctx, "feedback generation failed, using neutral fallback",
		slog.Int("question_index", q.Index), slog.Any("error", err))
	observability.RecordAIFallback("interview_feedback")
	return domain.InterviewFeedback{
		QuestionIndex: q.Index,
		Type:          domain.FeedbackPerAnswer,
		Score:         fallbackScore,
		FeedbackText:  "Thanks for your answer. Adding a concrete example with the outcome would make it stronger.",
		Suggestions:   []string{"Structure your answer around the situation, your action, and the result."},
	}
}

// CompleteSession freezes the session and returns its summary.
func (s *InterviewService) CompleteSession(ctx domain.Context, sessionID string) (*domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("op=interview.complete_session: id=%s: %w", sessionID, domain.ErrNotFound)
	}
	sum, err := sess.Complete()
	if err != nil {
		return nil, fmt.Errorf("op=interview.complete_session: %w", err)
	}
	observability.RecordSessionCompleted("interview")
	return sum, nil
}

// IndustryGuidance returns advice for an industry, cached for GuidanceTTL.
// Failed generations are served from the deterministic fallback and are NOT
// cached, so the next caller retries the AI path.
func (s *InterviewService) IndustryGuidance(ctx domain.Context, industry string) (domain.IndustryGuidance, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if industry == "" {
		return domain.IndustryGuidance{}, fmt.Errorf("op=interview.guidance: empty industry: %w", domain.ErrInvalidInput)
	}

	s.cacheMu.Lock()
	if e, ok := s.guidance[industry]; ok && s.now().Before(e.expiresAt) {
		s.cacheMu.Unlock()
		return e.value, nil
	}
	s.cacheMu.Unlock()

	g, err := s.guidanceFromAI(ctx, industry)
	if err != nil {
		s.Log.WarnContext(ctx, "guidance generation failed, serving fallback uncached",
			slog.String("industry", industry), slog.Any("error", err))
		observability.RecordAIFallback("industry_guidance")
		return fallbackGuidance(industry, s.now()), nil
	}

	s.cacheMu.Lock()
	s.guidance[industry] = guidanceEntry{value: g, expiresAt: s.now().Add(s.GuidanceTTL)}
	s.cacheMu.Unlock()
	return g, nil
}

func (s *InterviewService) guidanceFromAI(ctx domain.Context, industry string) (domain.IndustryGuidance, error) {
	prompt := fmt.Sprintf(
		"Describe interview expectations in the %s industry: commonly asked questions, valued skills, typical format, preparation tips, mistakes to avoid, and what makes candidates succeed.\n"+
			"Respond with JSON only: {\"common_questions\": [], \"key_skills\": [], \"interview_format\": \"\", \"preparation_tips\": [], \"red_flags\": [], \"success_factors\": []}\n",
		industry)
	raw, err := s.AI.GenerateStructured(ctx, prompt)
	if err != nil {
		return domain.IndustryGuidance{}, fmt.Errorf("op=interview.guidance: %w", err)
	}
	var g domain.IndustryGuidance
	if err := ExtractJSONObject(raw, &g); err != nil {
		return domain.IndustryGuidance{}, fmt.Errorf("op=interview.guidance: %w", err)
	}
	g.Industry = industry
	g.GeneratedAt = s.now().UTC()
	return g, nil
}

func fallbackGuidance(industry string, now time.Time) domain.IndustryGuidance {
	return domain.IndustryGuidance{
		Industry: industry,
		CommonQuestions: []string{
			"Why are you interested in this industry?",
			"What do you know about our company?",
			"How do you stay current with industry trends?",
		},
		KeySkills:       []string{"communication", "problem solving", "industry knowledge", "adaptability"},
		InterviewFormat: "Most processes run a screening call, one or two skills rounds, and a final conversation with the hiring manager.",
		PreparationTips: []string{
			"Research the company and prepare questions of your own.",
			"Practice answers out loud, not just in your head.",
		},
		RedFlags:       []string{"showing up without research", "answers with no specific examples"},
		SuccessFactors: []string{"thorough preparation", "clear communication", "specific, relevant examples"},
		GeneratedAt:    now.UTC(),
	}
}

// GeneratePracticeQuestions derives difficulty and industry from the user's
// profile and returns a mixed practice set. Technical questions only appear
// for roles that plausibly involve engineering work.
func (s *InterviewService) GeneratePracticeQuestions(ctx domain.Context, userCtx domain.UserContext, targetRole string, n int) ([]domain.InterviewQuestion, error) {
	if n <= 0 {
		n = defaultQuestionCount
	}
	if n > maxQuestionCount {
		n = maxQuestionCount
	}
	difficulty := deriveDifficulty(userCtx.Skills)
	industry := deriveIndustry(userCtx.CareerGoals)

	secondType := domain.InterviewGeneral
	if roleIsTechnical(targetRole) {
		secondType = domain.InterviewTechnical
	}

	behavioralCount := n / 2
	if behavioralCount == 0 && n > 0 {
		behavioralCount = 1
	}

	var out []domain.InterviewQuestion
	appendSet := func(t domain.InterviewType, count int) {
		questions, err := s.questionsFromAI(ctx, t, targetRole, industry, count)
		if err != nil {
			observability.RecordAIFallback("practice_questions")
			bank := interviewFallback(t)
			questions = questions[:0]
			for i := 0; i < count; i++ {
				questions = append(questions, domain.InterviewQuestion{
					Text: bank[i%len(bank)],
					Tags: []string{"fallback", string(t)},
				})
			}
		}
		if len(questions) > count {
			questions = questions[:count]
		}
		for _, q := range questions {
			q.Type = t
			q.Difficulty = difficulty
			out = append(out, q)
		}
	}
	appendSet(domain.InterviewBehavioral, behavioralCount)
	appendSet(secondType, n-behavioralCount)
	for i := range out {
		out[i].Index = i
	}
	return out, nil
}

// deriveDifficulty grades practice questions from the skill-level mix:
// half advanced skills or more means advanced, at least 30% intermediate
// means intermediate, anything else beginner.
func deriveDifficulty(skills map[string]domain.SkillLevel) domain.Difficulty {
	if len(skills) == 0 {
		return domain.DifficultyBeginner
	}
	var advanced, intermediate int
	for _, lvl := range skills {
		switch lvl.Level {
		case "advanced":
			advanced++
		case "intermediate":
			intermediate++
		}
	}
	total := float64(len(skills))
	if float64(advanced)/total >= 0.5 {
		return domain.DifficultyAdvanced
	}
	if float64(intermediate)/total >= 0.3 {
		return domain.DifficultyIntermediate
	}
	return domain.DifficultyBeginner
}

func deriveIndustry(goals []string) string {
	joined := strings.ToLower(strings.Join(goals, " "))
	for _, rule := range industryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(joined, kw) {
				return rule.industry
			}
		}
	}
	return "general"
}

func roleIsTechnical(role string) bool {
	r := strings.ToLower(role)
	return strings.Contains(r, "developer") || strings.Contains(r, "engineer")
}
