// Package postgres provides the PostgreSQL transcript and profile store.
//
// It persists user contexts, conversation turns, assessment results, and
// assessed skill levels. Conversation state itself lives in the state store;
// this repo only holds the durable history.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

//go:generate mockery --name=PgxPool --with-expecter --filename=pgx_pool_mock.go

// PgxPool is a minimal subset of pgxpool used by the repo for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ContextRepo implements the ContextStore port on PostgreSQL.
type ContextRepo struct{ Pool PgxPool }

// NewContextRepo constructs a ContextRepo with the given pool.
func NewContextRepo(p PgxPool) *ContextRepo { return &ContextRepo{Pool: p} }

// GetUserContext loads a user profile with its assessed skills.
func (r *ContextRepo) GetUserContext(ctx domain.Context, userID string) (domain.UserContext, error) {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.GetUserContext")
	defer span.End()

	q := `SELECT user_id, career_goals, created_at FROM user_contexts WHERE user_id=$1`
	row := r.Pool.QueryRow(ctx, q, userID)
	var uc domain.UserContext
	var goals []byte
	if err := row.Scan(&uc.UserID, &goals, &uc.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.UserContext{}, fmt.Errorf("op=contexts.get: %w", domain.ErrNotFound)
		}
		return domain.UserContext{}, fmt.Errorf("op=contexts.get: %w", err)
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &uc.CareerGoals); err != nil {
			return domain.UserContext{}, fmt.Errorf("op=contexts.get: decode goals: %w", err)
		}
	}

	uc.Skills = map[string]domain.SkillLevel{}
	rows, err := r.Pool.Query(ctx, `SELECT skill_area, level, confidence, updated_at FROM user_skills WHERE user_id=$1`, userID)
	if err != nil {
		return domain.UserContext{}, fmt.Errorf("op=contexts.get: skills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var area string
		var lvl domain.SkillLevel
		if err := rows.Scan(&area, &lvl.Level, &lvl.Confidence, &lvl.UpdatedAt); err != nil {
			return domain.UserContext{}, fmt.Errorf("op=contexts.get: scan skill: %w", err)
		}
		uc.Skills[area] = lvl
	}
	if err := rows.Err(); err != nil {
		return domain.UserContext{}, fmt.Errorf("op=contexts.get: rows: %w", err)
	}
	return uc, nil
}

// CreateUserContext inserts an empty profile; re-creating an existing user is
// a no-op and returns the stored profile.
func (r *ContextRepo) CreateUserContext(ctx domain.Context, userID string) (domain.UserContext, error) {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.CreateUserContext")
	defer span.End()

	q := `INSERT INTO user_contexts (user_id, career_goals, created_at) VALUES ($1, '[]', $2)
	      ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, userID, time.Now().UTC()); err != nil {
		return domain.UserContext{}, fmt.Errorf("op=contexts.create: %w", err)
	}
	return r.GetUserContext(ctx, userID)
}

// AppendTurn records one user/assistant exchange.
func (r *ContextRepo) AppendTurn(ctx domain.Context, userID, userText, assistantText string, t domain.ReplyType, metadata map[string]any) error {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.AppendTurn")
	defer span.End()

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("op=contexts.append_turn: encode metadata: %w", err)
	}
	q := `INSERT INTO conversation_turns (id, user_id, user_text, assistant_text, reply_type, metadata, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, uuid.New().String(), userID, userText, assistantText, string(t), meta, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=contexts.append_turn: %w", err)
	}
	return nil
}

// SaveAssessmentResult stores one completed assessment outcome.
func (r *ContextRepo) SaveAssessmentResult(ctx domain.Context, userID string, result domain.SkillResult) error {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.SaveAssessmentResult")
	defer span.End()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("op=contexts.save_result: encode: %w", err)
	}
	q := `INSERT INTO assessment_results (id, user_id, skill_area, overall_score, overall_level, result, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, uuid.New().String(), userID, result.SkillArea, result.OverallScore, result.OverallLevel, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=contexts.save_result: %w", err)
	}
	return nil
}

// UpdateSkills upserts assessed skill levels for a user.
func (r *ContextRepo) UpdateSkills(ctx domain.Context, userID string, skills map[string]domain.SkillLevel) error {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.UpdateSkills")
	defer span.End()

	q := `INSERT INTO user_skills (user_id, skill_area, level, confidence, updated_at)
	      VALUES ($1,$2,$3,$4,$5)
	      ON CONFLICT (user_id, skill_area)
	      DO UPDATE SET level=EXCLUDED.level, confidence=EXCLUDED.confidence, updated_at=EXCLUDED.updated_at`
	for area, lvl := range skills {
		ts := lvl.UpdatedAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := r.Pool.Exec(ctx, q, userID, area, lvl.Level, lvl.Confidence, ts); err != nil {
			return fmt.Errorf("op=contexts.update_skills: area=%s: %w", area, err)
		}
	}
	return nil
}

// History returns the most recent turns for a user, oldest first.
func (r *ContextRepo) History(ctx domain.Context, userID string, limit int) ([]domain.Turn, error) {
	tracer := otel.Tracer("repo.contexts")
	ctx, span := tracer.Start(ctx, "contexts.History")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, user_id, user_text, assistant_text, reply_type, metadata, created_at
	      FROM (
	        SELECT * FROM conversation_turns WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2
	      ) t ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("op=contexts.history: %w", err)
	}
	defer rows.Close()

	var out []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var meta []byte
		var rt string
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.UserText, &turn.AssistantText, &rt, &meta, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=contexts.history: scan: %w", err)
		}
		turn.Type = domain.ReplyType(rt)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("op=contexts.history: decode metadata: %w", err)
			}
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=contexts.history: rows: %w", err)
	}
	return out, nil
}
