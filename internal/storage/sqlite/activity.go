package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pmtrack/internal/models"
)

// LogHours records time spent on a task. Without an explicit user the
// hours are booked on the task assignee.
func (s *Store) LogHours(ctx context.Context, e models.TaskHoursEntry) (models.TaskHoursEntry, error) {
	if e.Hours <= 0 || e.Hours > 24 {
		return models.TaskHoursEntry{}, fmt.Errorf("hours must be within (0, 24]: %w", ErrInvalid)
	}
	if e.EntryDate.IsZero() {
		return models.TaskHoursEntry{}, fmt.Errorf("entry date is required: %w", ErrInvalid)
	}
	task, err := s.GetTask(ctx, e.TaskID)
	if err != nil {
		return models.TaskHoursEntry{}, err
	}
	if e.UserID == nil {
		e.UserID = task.AssigneeID
	}
	e.ReasonCode = strings.TrimSpace(e.ReasonCode)

	res, err := s.db.ExecContext(ctx, `INSERT INTO task_hours_history(task_id, user_id, hours, reason_code, entry_date)
        VALUES(?, ?, ?, ?, ?)`, e.TaskID, int64Arg(e.UserID), e.Hours, e.ReasonCode, dateArg(&e.EntryDate))
	if err != nil {
		return models.TaskHoursEntry{}, wrap("insert hours", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TaskHoursEntry{}, fmt.Errorf("hours id: %w", err)
	}
	return scanHours(s.db.QueryRowContext(ctx, `SELECT id, task_id, user_id, hours, reason_code, entry_date, created_at
        FROM task_hours_history WHERE id = ?`, id))
}

// ListHours returns the hours history of a task, newest day first.
func (s *Store) ListHours(ctx context.Context, taskID int64) ([]models.TaskHoursEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, user_id, hours, reason_code, entry_date, created_at
        FROM task_hours_history WHERE task_id = ? ORDER BY entry_date DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list hours: %w", err)
	}
	defer rows.Close()

	var out []models.TaskHoursEntry
	for rows.Next() {
		e, err := scanHours(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hours: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanHours(row rowScanner) (models.TaskHoursEntry, error) {
	var (
		e    models.TaskHoursEntry
		user sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.TaskID, &user, &e.Hours, &e.ReasonCode, &e.EntryDate, &e.CreatedAt)
	e.UserID = int64Ptr(user)
	return e, err
}

// AddComment appends a comment to a task.
func (s *Store) AddComment(ctx context.Context, c models.TaskComment) (models.TaskComment, error) {
	c.Body = strings.TrimSpace(c.Body)
	if c.Body == "" {
		return models.TaskComment{}, fmt.Errorf("comment body must not be empty: %w", ErrInvalid)
	}
	if _, err := s.GetTask(ctx, c.TaskID); err != nil {
		return models.TaskComment{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO task_comments(task_id, author_id, body) VALUES(?, ?, ?)`,
		c.TaskID, int64Arg(c.AuthorID), c.Body)
	if err != nil {
		return models.TaskComment{}, wrap("insert comment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TaskComment{}, fmt.Errorf("comment id: %w", err)
	}
	return scanComment(s.db.QueryRowContext(ctx, `SELECT id, task_id, author_id, body, created_at FROM task_comments WHERE id = ?`, id))
}

// ListComments returns the comments of a task in posting order.
func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, author_id, body, created_at
        FROM task_comments WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []models.TaskComment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row rowScanner) (models.TaskComment, error) {
	var (
		c      models.TaskComment
		author sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.TaskID, &author, &c.Body, &c.CreatedAt)
	c.AuthorID = int64Ptr(author)
	return c, err
}

// AddAttachment links a file to a task.
func (s *Store) AddAttachment(ctx context.Context, a models.TaskAttachment) (models.TaskAttachment, error) {
	a.FileName = strings.TrimSpace(a.FileName)
	a.URL = strings.TrimSpace(a.URL)
	if a.FileName == "" || a.URL == "" {
		return models.TaskAttachment{}, fmt.Errorf("attachment file name and url are required: %w", ErrInvalid)
	}
	if _, err := s.GetTask(ctx, a.TaskID); err != nil {
		return models.TaskAttachment{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO task_attachments(task_id, file_name, url, size_bytes) VALUES(?, ?, ?, ?)`,
		a.TaskID, a.FileName, a.URL, a.SizeBytes)
	if err != nil {
		return models.TaskAttachment{}, wrap("insert attachment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TaskAttachment{}, fmt.Errorf("attachment id: %w", err)
	}
	var out models.TaskAttachment
	err = s.db.QueryRowContext(ctx, `SELECT id, task_id, file_name, url, size_bytes, created_at FROM task_attachments WHERE id = ?`, id).
		Scan(&out.ID, &out.TaskID, &out.FileName, &out.URL, &out.SizeBytes, &out.CreatedAt)
	if err != nil {
		return models.TaskAttachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return out, nil
}

// ListAttachments returns the files linked to a task.
func (s *Store) ListAttachments(ctx context.Context, taskID int64) ([]models.TaskAttachment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, file_name, url, size_bytes, created_at
        FROM task_attachments WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []models.TaskAttachment
	for rows.Next() {
		var a models.TaskAttachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileName, &a.URL, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
