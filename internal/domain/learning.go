package domain

import (
	"time"

	"github.com/google/uuid"
)

// Milestone is one step of a learning path.
type Milestone struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	EstimatedDays int      `json:"estimated_days,omitempty"`
	Resources     []string `json:"resources,omitempty"`
	Order         int      `json:"order"`
}

// LearningPath is a generated study plan toward a stated career goal.
type LearningPath struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Goal       string      `json:"goal"`
	Difficulty Difficulty  `json:"difficulty"`
	Milestones []Milestone `json:"milestones"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewLearningPath creates an empty path for a goal.
func NewLearningPath(userID, goal string) *LearningPath {
	return &LearningPath{
		ID:        uuid.New().String(),
		UserID:    userID,
		Goal:      goal,
		CreatedAt: time.Now().UTC(),
	}
}

// AddMilestone appends a milestone with its order assigned here.
func (p *LearningPath) AddMilestone(m Milestone) {
	m.Order = len(p.Milestones)
	p.Milestones = append(p.Milestones, m)
}
