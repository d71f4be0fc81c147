package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

// LearningPathService turns a stated career goal into a milestone plan.
type LearningPathService struct {
	AI  domain.AIClient
	Log *slog.Logger
}

func NewLearningPathService(aiClient domain.AIClient, log *slog.Logger) *LearningPathService {
	return &LearningPathService{AI: aiClient, Log: log}
}

// Generate builds a learning path for a goal, AI-backed with a deterministic
// starter-path fallback so goal negotiation always produces something.
func (s *LearningPathService) Generate(ctx domain.Context, userID, goal string) (*domain.LearningPath, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("op=learning.generate: empty goal: %w", domain.ErrInvalidInput)
	}

	path := domain.NewLearningPath(userID, goal)

	milestones, difficulty, err := s.pathFromAI(ctx, goal)
	if err != nil {
		s.Log.WarnContext(ctx, "path generation failed, using starter path",
			slog.String("goal", goal), slog.Any("error", err))
		observability.RecordAIFallback("learning_path")
		milestones, difficulty = starterPath(goal)
	}
	path.Difficulty = difficulty
	for _, m := range milestones {
		path.AddMilestone(m)
	}
	return path, nil
}

func (s *LearningPathService) pathFromAI(ctx domain.Context, goal string) ([]domain.Milestone, domain.Difficulty, error) {
	prompt := fmt.Sprintf(
		"Create a learning path for the goal: %q.\n"+
			"Respond with JSON only: {\"difficulty\": \"beginner|intermediate|advanced\", "+
			"\"milestones\": [{\"title\": \"\", \"description\": \"\", \"estimated_days\": 0, \"resources\": []}]}\n",
		goal)
	raw, err := s.AI.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, "", fmt.Errorf("op=learning.path: %w", err)
	}
	var payload struct {
		Difficulty string             `json:"difficulty"`
		Milestones []domain.Milestone `json:"milestones"`
	}
	if err := ExtractJSONObject(raw, &payload); err != nil {
		return nil, "", fmt.Errorf("op=learning.path: %w", err)
	}
	if len(payload.Milestones) == 0 {
		return nil, "", fmt.Errorf("op=learning.path: no milestones: %w", domain.ErrMalformedAIOutput)
	}
	difficulty := domain.Difficulty(payload.Difficulty)
	switch difficulty {
	case domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced:
	default:
		difficulty = domain.DifficultyBeginner
	}
	return payload.Milestones, difficulty, nil
}

func starterPath(goal string) ([]domain.Milestone, domain.Difficulty) {
	return []domain.Milestone{
		{Title: "Clarify the goal", Description: fmt.Sprintf("Break %q into concrete skills to learn.", goal), EstimatedDays: 7},
		{Title: "Learn the fundamentals", Description: "Work through an introductory course or book on the core skill.", EstimatedDays: 30},
		{Title: "Build a small project", Description: "Apply what you learned to a project you can show.", EstimatedDays: 21},
		{Title: "Get feedback and iterate", Description: "Share the project, gather feedback, and fill the gaps it reveals.", EstimatedDays: 14},
	}, domain.DifficultyBeginner
}
