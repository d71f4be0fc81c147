// Package stub is a fast, deterministic AI client for development and tests.
// It sniffs the prompt to decide which canned JSON envelope to return, so the
// whole service runs end to end without credentials.
package stub

import (
	"encoding/json"
	"strings"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

type Client struct{}

func New() *Client { return &Client{} }

// GenerateText returns a short canned coaching reply.
func (c *Client) GenerateText(_ domain.Context, prompt string) (string, error) {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "resume"):
		return "Lead each bullet with a measurable result, and keep the summary to two lines.", nil
	case strings.Contains(p, "recommend"):
		return "Start with a hands-on course, then reinforce it with a small project of your own.", nil
	default:
		return "Happy to help with that. Tell me more about where you are today and where you want to be.", nil
	}
}

// GenerateStructured returns a canned JSON envelope matching whichever schema
// the prompt asks for.
func (c *Client) GenerateStructured(_ domain.Context, prompt string) (string, error) {
	p := strings.ToLower(prompt)
	var payload map[string]any
	switch {
	case strings.Contains(p, "follow-up questions"):
		payload = map[string]any{
			"questions": []string{
				"Which part of this skill do you use most at work?",
				"What would you build next to stretch yourself?",
			},
		}
	case strings.Contains(p, "interview questions"):
		question := func(text string, points []string, sample string, followUps []string) map[string]any {
			return map[string]any{
				"question":            text,
				"key_points":          points,
				"sample_answer":       sample,
				"follow_up_questions": followUps,
				"tags":                []string{"stub"},
			}
		}
		payload = map[string]any{
			"questions": []map[string]any{
				question("Tell me about a project you are proud of.",
					[]string{"concrete outcome", "your specific role"},
					"I led the rewrite of our billing pipeline and cut invoice errors by half.",
					[]string{"What would you do differently?"}),
				question("How do you handle disagreements about technical direction?",
					[]string{"listening first", "data over opinion"},
					"I ask for the constraint behind the position, then we prototype both options.",
					[]string{"Tell me about a time you were wrong."}),
				question("Describe a time you had to learn a tool under pressure.",
					[]string{"learning strategy", "result"},
					"I picked up Terraform over a weekend to unblock a launch.",
					[]string{"How do you retain what you learn?"}),
				question("What does success look like in your first three months?",
					[]string{"concrete milestones", "relationship building"},
					"Shipping one meaningful change and knowing who owns what.",
					[]string{"And in the first year?"}),
				question("How do you keep your skills current?",
					[]string{"specific habits", "applied practice"},
					"I rebuild one small tool from scratch each quarter.",
					[]string{"What did you learn most recently?"}),
			},
		}
	case strings.Contains(p, "grade this interview answer"):
		payload = map[string]any{
			"score":           7.5,
			"feedback_text":   "Solid answer with a clear structure; the outcome could be more quantified.",
			"strengths":       []string{"clear structure", "concrete example"},
			"improvements":    []string{"quantify the outcome"},
			"suggestions":     []string{"Close with what you learned."},
			"detailed_scores": map[string]float64{"clarity": 0.8, "relevance": 0.7},
		}
	case strings.Contains(p, "interview expectations"):
		payload = map[string]any{
			"common_questions": []string{"Why this industry?", "How do you stay current?"},
			"key_skills":       []string{"communication", "problem solving"},
			"interview_format": "Screening call, two skills rounds, final conversation.",
			"preparation_tips": []string{"Prepare questions of your own."},
			"red_flags":        []string{"no questions for the interviewer"},
			"success_factors":  []string{"specific examples", "preparation"},
		}
	case strings.Contains(p, "learning path"):
		payload = map[string]any{
			"difficulty": "beginner",
			"milestones": []map[string]any{
				{"title": "Cover the fundamentals", "estimated_days": 21},
				{"title": "Build a portfolio project", "estimated_days": 30},
				{"title": "Get feedback from practitioners", "estimated_days": 14},
			},
		}
	default:
		// Assessment scoring envelope.
		payload = map[string]any{
			"overall_score":    68,
			"overall_level":    "intermediate",
			"confidence_score": 0.75,
			"strengths":        []string{"consistent practice", "clear motivation"},
			"weaknesses":       []string{"limited production experience"},
			"recommendations":  []string{"Ship a project used by someone other than you."},
			"detailed_scores":  map[string]float64{"depth": 0.6, "breadth": 0.7},
		}
	}
	b, _ := json.Marshal(payload)
	return string(b), nil
}
