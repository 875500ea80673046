package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmorales/projectboard/internal/model"
)

// UpsertProjects inserts or replaces a batch of project snapshots.
func (s *SQLiteCache) UpsertProjects(ctx context.Context, projects []model.Project) error {
	if len(projects) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO projects (
			id, name, description, status, status_display,
			priority, priority_display, start_date, end_date,
			owner, owner_name, progress_percentage,
			members_count, tasks_count, created_at, updated_at,
			can_user_edit, can_user_delete, fetched_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range projects {
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Name, p.Description, p.Status, p.StatusDisplay,
			p.Priority, p.PriorityDisplay, p.StartDate, p.EndDate,
			p.Owner, p.OwnerName, p.ProgressPercentage,
			p.MembersCount, p.TasksCount, p.CreatedAt, p.UpdatedAt,
			boolToInt(p.CanUserEdit), boolToInt(p.CanUserDelete), now,
		)
		if err != nil {
			return fmt.Errorf("upserting project %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetProjects returns all cached projects, most recently updated first.
func (s *SQLiteCache) GetProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.SelectContext(ctx, &projects,
		"SELECT * FROM projects ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// GetProjectByID returns a single cached project, or nil when absent.
func (s *SQLiteCache) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.db.GetContext(ctx, &p, "SELECT * FROM projects WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %d: %w", id, err)
	}
	return &p, nil
}

// DeleteProject removes a project snapshot and its cached tasks.
func (s *SQLiteCache) DeleteProject(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project = ?", id); err != nil {
		return fmt.Errorf("deleting tasks of project %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting project %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
