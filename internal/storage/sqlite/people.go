package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pmtrack/internal/models"
)

const userColumns = `id, name, email, role, supervisor_id, work_days, daily_work_hours, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var (
		u          models.User
		supervisor sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &supervisor, &u.WorkDays, &u.DailyWorkHours, &u.CreatedAt, &u.UpdatedAt)
	u.SupervisorID = int64Ptr(supervisor)
	return u, err
}

// ListUsers returns every user ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, notFound("user", id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateUser persists a user. Work schedule fields fall back to the
// default five day, eight hour week.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Name == "" || u.Email == "" {
		return models.User{}, fmt.Errorf("user name and email are required: %w", ErrInvalid)
	}
	if u.Role == "" {
		u.Role = "member"
	}
	if u.WorkDays == "" {
		u.WorkDays = models.DefaultWorkDays
	}
	if u.DailyWorkHours <= 0 {
		u.DailyWorkHours = models.DefaultDailyWorkHours
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(name, email, role, supervisor_id, work_days, daily_work_hours)
        VALUES(?, ?, ?, ?, ?, ?)`, u.Name, u.Email, u.Role, int64Arg(u.SupervisorID), u.WorkDays, u.DailyWorkHours)
	if err != nil {
		return models.User{}, wrap("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// ListTeams returns every team ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, project_id, created_at, updated_at FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var (
			t       models.Team
			project sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &project, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		t.ProjectID = int64Ptr(project)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTeam persists a team, optionally bound to a project.
func (s *Store) CreateTeam(ctx context.Context, name string, projectID *int64) (models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Team{}, fmt.Errorf("team name must not be empty: %w", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO teams(name, project_id) VALUES(?, ?)`, name, int64Arg(projectID))
	if err != nil {
		return models.Team{}, wrap("insert team", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Team{}, fmt.Errorf("team id: %w", err)
	}

	var (
		t       models.Team
		project sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx, `SELECT id, name, project_id, created_at, updated_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &project, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Team{}, fmt.Errorf("get team: %w", err)
	}
	t.ProjectID = int64Ptr(project)
	return t, nil
}

// ListSprints returns the sprints of a project ordered by start date.
func (s *Store) ListSprints(ctx context.Context, projectID int64) ([]models.Sprint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, name, goal, start_date, end_date, updated_at
        FROM sprints WHERE project_id = ? ORDER BY start_date, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer rows.Close()

	var out []models.Sprint
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// CreateSprint persists a sprint in a project.
func (s *Store) CreateSprint(ctx context.Context, sp models.Sprint) (models.Sprint, error) {
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return models.Sprint{}, fmt.Errorf("sprint name must not be empty: %w", ErrInvalid)
	}
	if sp.StartDate != nil && sp.EndDate != nil && sp.EndDate.Before(*sp.StartDate) {
		return models.Sprint{}, fmt.Errorf("sprint ends before it starts: %w", ErrInvalid)
	}
	if _, err := s.GetProject(ctx, sp.ProjectID); err != nil {
		return models.Sprint{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO sprints(project_id, name, goal, start_date, end_date) VALUES(?, ?, ?, ?, ?)`,
		sp.ProjectID, sp.Name, strings.TrimSpace(sp.Goal), dateArg(sp.StartDate), dateArg(sp.EndDate))
	if err != nil {
		return models.Sprint{}, wrap("insert sprint", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Sprint{}, fmt.Errorf("sprint id: %w", err)
	}
	return scanSprint(s.db.QueryRowContext(ctx, `SELECT id, project_id, name, goal, start_date, end_date, updated_at
        FROM sprints WHERE id = ?`, id))
}

func scanSprint(row rowScanner) (models.Sprint, error) {
	var (
		sp         models.Sprint
		start, end sql.NullTime
	)
	err := row.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Goal, &start, &end, &sp.UpdatedAt)
	sp.StartDate = timePtr(start)
	sp.EndDate = timePtr(end)
	return sp, err
}
