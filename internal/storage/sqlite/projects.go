package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pmtrack/internal/models"
)

const projectColumns = `id, name, description, status, health, color, start_date, end_date, created_at, updated_at`

// ProjectUpdate carries the fields to change on a project; nil leaves a field as is.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
	Health      *string
	Color       *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p          models.Project
		start, end sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Health, &p.Color, &start, &end, &p.CreatedAt, &p.UpdatedAt)
	p.StartDate = timePtr(start)
	p.EndDate = timePtr(end)
	return p, err
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, notFound("project", id)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// CreateProject persists a new project together with its default statuses.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty: %w", ErrInvalid)
	}
	if p.Color == "" {
		p.Color = randomPaletteColor()
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Health == "" {
		p.Health = "on_track"
	}
	if err := validateProjectEnums(p.Status, p.Health); err != nil {
		return models.Project{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Project{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO projects(name, description, status, health, color, start_date, end_date)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		p.Name, strings.TrimSpace(p.Description), p.Status, p.Health, p.Color, dateArg(p.StartDate), dateArg(p.EndDate))
	if err != nil {
		return models.Project{}, wrap("insert project", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}

	for i, st := range models.DefaultTaskStatuses {
		_, err := tx.ExecContext(ctx, `INSERT INTO task_status(project_id, code, name, "order") VALUES(?, ?, ?, ?)`,
			id, st.Code, st.Name, i+1)
		if err != nil {
			return models.Project{}, wrap("seed task status", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Project{}, fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("project created", "id", id, "name", p.Name)
	return s.GetProject(ctx, id)
}

// UpdateProject changes the given fields of an existing project.
func (s *Store) UpdateProject(ctx context.Context, id int64, u ProjectUpdate) (models.Project, error) {
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return models.Project{}, fmt.Errorf("project name must not be empty: %w", ErrInvalid)
		}
		current.Name = name
	}
	if u.Description != nil {
		current.Description = strings.TrimSpace(*u.Description)
	}
	if u.Status != nil {
		current.Status = *u.Status
	}
	if u.Health != nil {
		current.Health = *u.Health
	}
	if u.Color != nil && *u.Color != "" {
		current.Color = *u.Color
	}
	if u.StartDate != nil {
		current.StartDate = u.StartDate
	}
	if u.EndDate != nil {
		current.EndDate = u.EndDate
	}
	if err := validateProjectEnums(current.Status, current.Health); err != nil {
		return models.Project{}, err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE projects SET name = ?, description = ?, status = ?, health = ?, color = ?,
        start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Name, current.Description, current.Status, current.Health, current.Color,
		dateArg(current.StartDate), dateArg(current.EndDate), id)
	if err != nil {
		return models.Project{}, wrap("update project", err)
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project; tasks, sprints and statuses go with it
// and teams are detached.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return wrap("delete project", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound("project", id)
	}
	return nil
}

// ProjectStats counts total and completed tasks per project.
func (s *Store) ProjectStats(ctx context.Context) (map[int64]models.ProjectStats, error) {
	var rows []models.ProjectStats
	err := s.orm.WithContext(ctx).
		Table("tasks").
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN completed_at IS NOT NULL THEN 1 ELSE 0 END) AS done").
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	out := make(map[int64]models.ProjectStats, len(rows))
	for _, r := range rows {
		out[r.ProjectID] = r
	}
	return out, nil
}

func validateProjectEnums(status, health string) error {
	if _, ok := models.ValidProjectStatuses[status]; !ok {
		return fmt.Errorf("unknown project status %q: %w", status, ErrInvalid)
	}
	if _, ok := models.ValidProjectHealth[health]; !ok {
		return fmt.Errorf("unknown project health %q: %w", health, ErrInvalid)
	}
	return nil
}

func randomPaletteColor() string {
	palette := []string{
		"#2563eb", // blue-600
		"#7c3aed", // violet-600
		"#dc2626", // red-600
		"#059669", // green-600
		"#ea580c", // orange-600
		"#d97706", // amber-600
		"#0ea5e9", // sky-500
	}
	return palette[rand.Intn(len(palette))]
}
