package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
)

// GoalRepository implements ports.GoalRepository
type GoalRepository struct {
	db ports.DBTX
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db ports.DBPort) *GoalRepository {
	return &GoalRepository{db: db.GetDB()}
}

func (r *GoalRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db
}

// GetByID returns (nil, nil) when no goal has the id
func (r *GoalRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Goal, error) {
	goalID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	var (
		goal  domain.Goal
		gid   uuid.UUID
		orgID uuid.UUID
	)
	err = r.conn(db).QueryRow(ctx, `
		SELECT id, organization_id, title, is_active, created_at
		FROM donation_goals WHERE id = $1`, goalID,
	).Scan(&gid, &orgID, &goal.Title, &goal.IsActive, &goal.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal by id: %w", err)
	}
	goal.ID = gid.String()
	goal.OrganizationID = orgID.String()
	return &goal, nil
}

// Upsert inserts a goal or updates title and active flag of an existing one
func (r *GoalRepository) Upsert(ctx context.Context, db ports.DBTX, goal *domain.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	goalID, err := uuid.Parse(goal.ID)
	if err != nil {
		return fmt.Errorf("invalid goal ID: %w", err)
	}
	orgID, err := uuid.Parse(goal.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization ID: %w", err)
	}

	err = r.conn(db).QueryRow(ctx, `
		INSERT INTO donation_goals (id, organization_id, title, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, is_active = EXCLUDED.is_active
		RETURNING created_at`,
		goalID, orgID, goal.Title, goal.IsActive,
	).Scan(&goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}
