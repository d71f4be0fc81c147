// Package usecase implements the conversation engine: intent classification,
// the assessment and interview workflows, learning-path generation, and the
// orchestrating ConversationService that ties them together.
package usecase

import (
	"strings"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

// intentRules is evaluated in order; the first rule with a keyword hit wins.
// Order is the priority contract: a message mentioning both assessment and
// interviews ("assess my interview skills") classifies as assessment.
var intentRules = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentAssessment, []string{
		"assessment", "assess", "evaluate my", "skill level", "test my", "quiz", "how good am i",
	}},
	{domain.IntentLearningPath, []string{
		"learning path", "roadmap", "study plan", "curriculum", "learn", "course plan", "become a",
	}},
	{domain.IntentContent, []string{
		"recommend", "recommendation", "course", "tutorial", "video", "resource", "material", "what should i watch",
	}},
	{domain.IntentResumeAnalysis, []string{
		"resume", "cv", "cover letter",
	}},
	{domain.IntentInterviewPrep, []string{
		"interview", "mock interview", "behavioral question", "technical question", "hiring process",
	}},
}

// ClassifyIntent maps a raw user message to a coarse intent. Matching is
// case-insensitive substring search; messages with no keyword hit fall
// through to IntentGeneral.
func ClassifyIntent(message string) domain.Intent {
	m := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(m, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentGeneral
}
