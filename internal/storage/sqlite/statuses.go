package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pmtrack/internal/models"
)

const statusColumns = `id, project_id, code, name, "order", created_at, updated_at`

// StatusOrder assigns a new position to one status.
type StatusOrder struct {
	StatusID int64
	Order    int
}

func scanStatus(row rowScanner) (models.TaskStatus, error) {
	var st models.TaskStatus
	err := row.Scan(&st.ID, &st.ProjectID, &st.Code, &st.Name, &st.Order, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// ListStatuses returns the statuses of a project in board order.
func (s *Store) ListStatuses(ctx context.Context, projectID int64) ([]models.TaskStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statusColumns+` FROM task_status
        WHERE project_id = ? ORDER BY "order" ASC, id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []models.TaskStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetStatus fetches a status by id.
func (s *Store) GetStatus(ctx context.Context, id int64) (models.TaskStatus, error) {
	st, err := scanStatus(s.db.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM task_status WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskStatus{}, notFound("task status", id)
	}
	if err != nil {
		return models.TaskStatus{}, fmt.Errorf("get status: %w", err)
	}
	return st, nil
}

// CreateStatus appends a status to the end of the project board. A code
// already used in the same project yields ErrConflict.
func (s *Store) CreateStatus(ctx context.Context, projectID int64, code, name string) (models.TaskStatus, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return models.TaskStatus{}, fmt.Errorf("status code and name are required: %w", ErrInvalid)
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return models.TaskStatus{}, err
	}

	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX("order") FROM task_status WHERE project_id = ?`, projectID).Scan(&last); err != nil {
		return models.TaskStatus{}, fmt.Errorf("select order: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO task_status(project_id, code, name, "order") VALUES(?, ?, ?, ?)`,
		projectID, code, name, last.Int64+1)
	if err != nil {
		return models.TaskStatus{}, wrap("insert status", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TaskStatus{}, fmt.Errorf("status id: %w", err)
	}
	return s.GetStatus(ctx, id)
}

// ReorderStatuses moves the given statuses of a project to new positions
// in one transaction. Every status must belong to the project.
func (s *Store) ReorderStatuses(ctx context.Context, projectID int64, items []StatusOrder) ([]models.TaskStatus, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("reorder: empty list: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		res, err := tx.ExecContext(ctx, `UPDATE task_status SET "order" = ?, updated_at = CURRENT_TIMESTAMP
            WHERE id = ? AND project_id = ?`, it.Order, it.StatusID, projectID)
		if err != nil {
			return nil, wrap("reorder status", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, notFound("task status", it.StatusID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListStatuses(ctx, projectID)
}

// firstStatus returns the leftmost status of a project, if any.
func (s *Store) firstStatus(ctx context.Context, projectID int64) (*models.TaskStatus, error) {
	st, err := scanStatus(s.db.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM task_status
        WHERE project_id = ? ORDER BY "order" ASC, id ASC LIMIT 1`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first status: %w", err)
	}
	return &st, nil
}
