package sqlite

import (
	"context"
	"fmt"
	"time"

	"pmtrack/internal/reports"
)

// ReportFilter narrows report inputs; nil fields do not filter.
type ReportFilter struct {
	ProjectID  *int64
	AssigneeID *int64
}

// ReportTasks loads the tasks an overview is computed over. A task belongs
// to the team with the lowest id among the teams of its project.
func (s *Store) ReportTasks(ctx context.Context, f ReportFilter) ([]reports.TaskRecord, error) {
	type row struct {
		ID             int64
		Title          string
		ProjectID      int64
		ProjectName    string
		TeamID         *int64
		TeamName       string
		AssigneeID     *int64
		AssigneeName   string
		EstimatedHours float64
		DueDate        *time.Time
		CompletedAt    *time.Time
	}
	q := s.orm.WithContext(ctx).
		Table("tasks AS t").
		Select(`t.id, t.title, t.project_id, p.name AS project_name, tm.id AS team_id, COALESCE(tm.name, '') AS team_name,
            t.assignee_id, COALESCE(u.name, '') AS assignee_name, t.estimated_hours, t.due_date, t.completed_at`).
		Joins("JOIN projects p ON p.id = t.project_id").
		Joins("LEFT JOIN teams tm ON tm.id = (SELECT MIN(id) FROM teams WHERE project_id = t.project_id)").
		Joins("LEFT JOIN users u ON u.id = t.assignee_id")
	if f.ProjectID != nil {
		q = q.Where("t.project_id = ?", *f.ProjectID)
	}
	if f.AssigneeID != nil {
		q = q.Where("t.assignee_id = ?", *f.AssigneeID)
	}

	var rows []row
	if err := q.Order("t.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("report tasks: %w", err)
	}
	out := make([]reports.TaskRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, reports.TaskRecord(r))
	}
	return out, nil
}

// TimeEntries loads the hours logged inside the window. Hours are
// attributed to the user who logged them.
func (s *Store) TimeEntries(ctx context.Context, w reports.Window, f ReportFilter) ([]reports.TimeEntry, error) {
	type row struct {
		TaskID       int64
		AssigneeID   int64
		AssigneeName string
		EntryDate    time.Time
		Hours        float64
	}
	q := s.orm.WithContext(ctx).
		Table("task_hours_history AS h").
		Select(`h.task_id, COALESCE(h.user_id, 0) AS assignee_id, COALESCE(u.name, '') AS assignee_name,
            h.entry_date, h.hours`).
		Joins("LEFT JOIN users u ON u.id = h.user_id").
		Where("h.entry_date BETWEEN ? AND ?", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
	if f.ProjectID != nil {
		q = q.Joins("JOIN tasks t ON t.id = h.task_id").Where("t.project_id = ?", *f.ProjectID)
	}
	if f.AssigneeID != nil {
		q = q.Where("h.user_id = ?", *f.AssigneeID)
	}

	var rows []row
	if err := q.Order("h.entry_date, h.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("time entries: %w", err)
	}
	out := make([]reports.TimeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, reports.TimeEntry{
			TaskID:       r.TaskID,
			AssigneeID:   r.AssigneeID,
			AssigneeName: r.AssigneeName,
			Date:         r.EntryDate,
			Hours:        r.Hours,
		})
	}
	return out, nil
}

// Assignees loads users with their work schedule. Without ids every user
// is returned.
func (s *Store) Assignees(ctx context.Context, ids ...int64) ([]reports.Assignee, error) {
	type row struct {
		ID             int64
		Name           string
		WorkDays       string
		DailyWorkHours float64
	}
	q := s.orm.WithContext(ctx).Table("users").Select("id, name, work_days, daily_work_hours")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}

	var rows []row
	if err := q.Order("id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("assignees: %w", err)
	}
	out := make([]reports.Assignee, 0, len(rows))
	for _, r := range rows {
		days, err := reports.ParseWorkDays(r.WorkDays)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", r.ID, err)
		}
		out = append(out, reports.Assignee{
			ID:             r.ID,
			Name:           r.Name,
			WorkDays:       days,
			DailyWorkHours: r.DailyWorkHours,
		})
	}
	return out, nil
}

// DailyHoursReport builds the coverage tables of every user, or of the
// filtered assignee, over the window.
func (s *Store) DailyHoursReport(ctx context.Context, w reports.Window, f ReportFilter) ([]reports.DailyHoursReportDto, error) {
	var ids []int64
	if f.AssigneeID != nil {
		ids = append(ids, *f.AssigneeID)
	}
	assignees, err := s.Assignees(ctx, ids...)
	if err != nil {
		return nil, err
	}
	if f.AssigneeID != nil && len(assignees) == 0 {
		return nil, notFound("user", *f.AssigneeID)
	}
	entries, err := s.TimeEntries(ctx, w, f)
	if err != nil {
		return nil, err
	}
	return reports.BuildDailyHours(assignees, entries, w), nil
}

// OverviewReport aggregates hours, delays and completion over the window
// as of asOf.
func (s *Store) OverviewReport(ctx context.Context, w reports.Window, f ReportFilter, asOf time.Time) (reports.ReportsOverview, error) {
	if f.ProjectID != nil {
		if _, err := s.GetProject(ctx, *f.ProjectID); err != nil {
			return reports.ReportsOverview{}, err
		}
	}
	tasks, err := s.ReportTasks(ctx, f)
	if err != nil {
		return reports.ReportsOverview{}, err
	}
	entries, err := s.TimeEntries(ctx, w, ReportFilter{ProjectID: f.ProjectID})
	if err != nil {
		return reports.ReportsOverview{}, err
	}
	return reports.Overview(tasks, entries, w, asOf), nil
}
