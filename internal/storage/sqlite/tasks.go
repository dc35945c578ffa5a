package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pmtrack/internal/models"
)

const taskColumns = `id, project_id, sprint_id, status_id, assignee_id, title, description, priority, position,
    estimated_hours, due_date, completed_at, created_at, updated_at`

// TaskUpdate carries the fields to change on a task; nil leaves a field as is.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Priority       *string
	StatusID       *int64
	AssigneeID     *int64
	SprintID       *int64
	EstimatedHours *float64
	DueDate        *time.Time
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                        models.Task
		sprint, status, assignee sql.NullInt64
		due, completed           sql.NullTime
	)
	err := row.Scan(&t.ID, &t.ProjectID, &sprint, &status, &assignee, &t.Title, &t.Description, &t.Priority,
		&t.Position, &t.EstimatedHours, &due, &completed, &t.CreatedAt, &t.UpdatedAt)
	t.SprintID = int64Ptr(sprint)
	t.StatusID = int64Ptr(status)
	t.AssigneeID = int64Ptr(assignee)
	t.DueDate = timePtr(due)
	t.CompletedAt = timePtr(completed)
	return t, err
}

// ListTasks returns tasks for the given project ordered by status and position.
func (s *Store) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+`
        FROM tasks WHERE project_id = ? ORDER BY status_id, position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, notFound("task", id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task into a project column. Without a status the
// task lands in the first column of the board.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty: %w", ErrInvalid)
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return models.Task{}, err
	}

	var status *models.TaskStatus
	var err error
	if t.StatusID == nil {
		status, err = s.firstStatus(ctx, t.ProjectID)
	} else {
		status, err = s.projectStatus(ctx, t.ProjectID, *t.StatusID)
	}
	if err != nil {
		return models.Task{}, err
	}

	var completedAt any
	if status != nil {
		t.StatusID = &status.ID
		if status.IsDone() {
			completedAt = time.Now().UTC()
		}
	}

	pos, err := s.nextPosition(ctx, t.ProjectID, t.StatusID)
	if err != nil {
		return models.Task{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(project_id, sprint_id, status_id, assignee_id, title, description,
        priority, position, estimated_hours, due_date, completed_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, int64Arg(t.SprintID), int64Arg(t.StatusID), int64Arg(t.AssigneeID), t.Title,
		strings.TrimSpace(t.Description), t.Priority, pos, t.EstimatedHours, dateArg(t.DueDate), completedAt)
	if err != nil {
		return models.Task{}, wrap("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// UpdateTask updates task fields and moves the task between columns when
// needed. Moving into a done status stamps completed_at; moving out clears it.
func (s *Store) UpdateTask(ctx context.Context, id int64, u TaskUpdate) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	next := current

	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		next.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		next.Description = strings.TrimSpace(*u.Description)
	}
	if u.Priority != nil && *u.Priority != "" {
		next.Priority = *u.Priority
	}
	if u.AssigneeID != nil {
		next.AssigneeID = u.AssigneeID
	}
	if u.SprintID != nil {
		next.SprintID = u.SprintID
	}
	if u.EstimatedHours != nil {
		next.EstimatedHours = *u.EstimatedHours
	}
	if u.DueDate != nil {
		next.DueDate = u.DueDate
	}

	if u.StatusID != nil && (current.StatusID == nil || *u.StatusID != *current.StatusID) {
		status, err := s.projectStatus(ctx, current.ProjectID, *u.StatusID)
		if err != nil {
			return models.Task{}, err
		}
		next.StatusID = &status.ID
		pos, err := s.nextPosition(ctx, current.ProjectID, next.StatusID)
		if err != nil {
			return models.Task{}, err
		}
		next.Position = pos
		switch {
		case status.IsDone() && current.CompletedAt == nil:
			now := time.Now().UTC()
			next.CompletedAt = &now
		case !status.IsDone():
			next.CompletedAt = nil
		}
	}

	var completedAt any
	if next.CompletedAt != nil {
		completedAt = *next.CompletedAt
	}
	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, priority = ?, status_id = ?, assignee_id = ?,
        sprint_id = ?, position = ?, estimated_hours = ?, due_date = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?`,
		next.Title, next.Description, next.Priority, int64Arg(next.StatusID), int64Arg(next.AssigneeID),
		int64Arg(next.SprintID), next.Position, next.EstimatedHours, dateArg(next.DueDate), completedAt, id)
	if err != nil {
		return models.Task{}, wrap("update task", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id together with its attachments, comments
// and hours.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return wrap("delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound("task", id)
	}
	return nil
}

// deleteChunk bounds the placeholders of one DELETE statement; SQLite caps
// bound variables per statement.
const deleteChunk = 500

// DeleteTasks removes several tasks in one transaction and reports how many
// existed. Unknown ids are ignored.
func (s *Store) DeleteTasks(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("delete tasks: empty id list: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var affected int64
	for start := 0; start < len(ids); start += deleteChunk {
		chunk := ids[start:min(start+deleteChunk, len(ids))]
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return 0, wrap("delete tasks", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		affected += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("tasks deleted", "requested", len(ids), "deleted", affected)
	return affected, nil
}

func (s *Store) projectStatus(ctx context.Context, projectID, statusID int64) (*models.TaskStatus, error) {
	st, err := s.GetStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if st.ProjectID != projectID {
		return nil, fmt.Errorf("status %d belongs to another project: %w", statusID, ErrInvalid)
	}
	return &st, nil
}

func (s *Store) nextPosition(ctx context.Context, projectID int64, statusID *int64) (int64, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE project_id = ? AND status_id IS ?`,
		projectID, int64Arg(statusID)).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return position.Int64 + 1, nil
	}
	return 0, nil
}
