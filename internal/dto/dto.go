// Package dto holds the request shapes accepted by the HTTP API together
// with their validation rules. Rules live in `binding` tags so gin's
// ShouldBindJSON and Validate enforce the same constraints.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pmtrack/internal/models"
	"pmtrack/internal/storage/sqlite"
)

// ErrInvalidDate is returned when a date field is not "YYYY-MM-DD".
var ErrInvalidDate = errors.New("date must look like 2006-01-02")

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the day as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// Ptr returns the wrapped time, or nil for a nil date.
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// DeleteTasksBulkDto removes up to 1000 tasks at once.
type DeleteTasksBulkDto struct {
	TaskIDs []int64 `json:"taskIds" binding:"required,min=1,max=1000,dive,gt=0"`
}

// StatusOrderItem moves one status to a new position.
type StatusOrderItem struct {
	StatusID *int64 `json:"statusId" binding:"required,gt=0"`
	NewOrder *int   `json:"newOrder" binding:"required,gte=0"`
}

// ReorderStatusDto rearranges the columns of a project board.
type ReorderStatusDto struct {
	Items []StatusOrderItem `json:"items" binding:"required,min=1,dive"`
}

// Orders converts the request into storage input.
func (d ReorderStatusDto) Orders() []sqlite.StatusOrder {
	out := make([]sqlite.StatusOrder, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, sqlite.StatusOrder{StatusID: *it.StatusID, Order: *it.NewOrder})
	}
	return out
}

// CreateProjectDto creates a project; empty status, health and color take defaults.
type CreateProjectDto struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=2000"`
	Status      string `json:"status" binding:"omitempty,oneof=active on_hold completed archived"`
	Health      string `json:"health" binding:"omitempty,oneof=on_track at_risk off_track"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	StartDate   *Date  `json:"startDate"`
	EndDate     *Date  `json:"endDate"`
}

// Model converts the request into a project row.
func (d CreateProjectDto) Model() models.Project {
	return models.Project{
		Name:        d.Name,
		Description: d.Description,
		Status:      d.Status,
		Health:      d.Health,
		Color:       d.Color,
		StartDate:   d.StartDate.Ptr(),
		EndDate:     d.EndDate.Ptr(),
	}
}

// UpdateProjectDto changes the fields that are present.
type UpdateProjectDto struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,oneof=active on_hold completed archived"`
	Health      *string `json:"health" binding:"omitempty,oneof=on_track at_risk off_track"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	StartDate   *Date   `json:"startDate"`
	EndDate     *Date   `json:"endDate"`
}

// Update converts the request into storage input.
func (d UpdateProjectDto) Update() sqlite.ProjectUpdate {
	return sqlite.ProjectUpdate{
		Name:        d.Name,
		Description: d.Description,
		Status:      d.Status,
		Health:      d.Health,
		Color:       d.Color,
		StartDate:   d.StartDate.Ptr(),
		EndDate:     d.EndDate.Ptr(),
	}
}

// CreateStatusDto appends a column to a project board.
type CreateStatusDto struct {
	Code string `json:"code" binding:"required,max=64"`
	Name string `json:"name" binding:"required,max=120"`
}

// CreateTaskDto creates a task; without statusId it lands in the first column.
type CreateTaskDto struct {
	Title          string  `json:"title" binding:"required,max=200"`
	Description    string  `json:"description" binding:"max=10000"`
	Priority       string  `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StatusID       *int64  `json:"statusId" binding:"omitempty,gt=0"`
	AssigneeID     *int64  `json:"assigneeId" binding:"omitempty,gt=0"`
	SprintID       *int64  `json:"sprintId" binding:"omitempty,gt=0"`
	EstimatedHours float64 `json:"estimatedHours" binding:"gte=0"`
	DueDate        *Date   `json:"dueDate"`
}

// Model converts the request into a task of projectID.
func (d CreateTaskDto) Model(projectID int64) models.Task {
	return models.Task{
		ProjectID:      projectID,
		Title:          d.Title,
		Description:    d.Description,
		Priority:       d.Priority,
		StatusID:       d.StatusID,
		AssigneeID:     d.AssigneeID,
		SprintID:       d.SprintID,
		EstimatedHours: d.EstimatedHours,
		DueDate:        d.DueDate.Ptr(),
	}
}

// UpdateTaskDto changes the fields that are present.
type UpdateTaskDto struct {
	Title          *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string  `json:"description" binding:"omitempty,max=10000"`
	Priority       *string  `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	StatusID       *int64   `json:"statusId" binding:"omitempty,gt=0"`
	AssigneeID     *int64   `json:"assigneeId" binding:"omitempty,gt=0"`
	SprintID       *int64   `json:"sprintId" binding:"omitempty,gt=0"`
	EstimatedHours *float64 `json:"estimatedHours" binding:"omitempty,gte=0"`
	DueDate        *Date    `json:"dueDate"`
}

// Update converts the request into storage input.
func (d UpdateTaskDto) Update() sqlite.TaskUpdate {
	return sqlite.TaskUpdate{
		Title:          d.Title,
		Description:    d.Description,
		Priority:       d.Priority,
		StatusID:       d.StatusID,
		AssigneeID:     d.AssigneeID,
		SprintID:       d.SprintID,
		EstimatedHours: d.EstimatedHours,
		DueDate:        d.DueDate.Ptr(),
	}
}

// LogHoursDto books time on a task. Without userId the hours go to the
// task assignee.
type LogHoursDto struct {
	Hours      float64 `json:"hours" binding:"required,gt=0,lte=24"`
	EntryDate  *Date   `json:"entryDate" binding:"required"`
	UserID     *int64  `json:"userId" binding:"omitempty,gt=0"`
	ReasonCode string  `json:"reasonCode" binding:"max=64"`
}

// Model converts the request into an hours entry of taskID.
func (d LogHoursDto) Model(taskID int64) models.TaskHoursEntry {
	e := models.TaskHoursEntry{
		TaskID:     taskID,
		UserID:     d.UserID,
		Hours:      d.Hours,
		ReasonCode: d.ReasonCode,
	}
	if d.EntryDate != nil {
		e.EntryDate = d.EntryDate.Time
	}
	return e
}

// AddCommentDto posts a comment on a task.
type AddCommentDto struct {
	Body     string `json:"body" binding:"required,max=5000"`
	AuthorID *int64 `json:"authorId" binding:"omitempty,gt=0"`
}

// AddAttachmentDto links a file to a task.
type AddAttachmentDto struct {
	FileName  string `json:"fileName" binding:"required,max=255"`
	URL       string `json:"url" binding:"required,url"`
	SizeBytes int64  `json:"sizeBytes" binding:"gte=0"`
}

// CreateTeamDto creates a team, optionally bound to a project.
type CreateTeamDto struct {
	Name      string `json:"name" binding:"required,max=120"`
	ProjectID *int64 `json:"projectId" binding:"omitempty,gt=0"`
}

// CreateUserDto creates a user with an optional work schedule.
type CreateUserDto struct {
	Name           string  `json:"name" binding:"required,max=120"`
	Email          string  `json:"email" binding:"required,email"`
	Role           string  `json:"role" binding:"omitempty,oneof=member manager admin"`
	SupervisorID   *int64  `json:"supervisorId" binding:"omitempty,gt=0"`
	WorkDays       string  `json:"workDays" binding:"omitempty,workdays"`
	DailyWorkHours float64 `json:"dailyWorkHours" binding:"omitempty,gt=0,lte=24"`
}

// Model converts the request into a user row.
func (d CreateUserDto) Model() models.User {
	return models.User{
		Name:           d.Name,
		Email:          d.Email,
		Role:           d.Role,
		SupervisorID:   d.SupervisorID,
		WorkDays:       d.WorkDays,
		DailyWorkHours: d.DailyWorkHours,
	}
}

// CreateSprintDto adds a sprint to a project.
type CreateSprintDto struct {
	Name      string `json:"name" binding:"required,max=120"`
	Goal      string `json:"goal" binding:"max=2000"`
	StartDate *Date  `json:"startDate"`
	EndDate   *Date  `json:"endDate"`
}

// Model converts the request into a sprint of projectID.
func (d CreateSprintDto) Model(projectID int64) models.Sprint {
	return models.Sprint{
		ProjectID: projectID,
		Name:      d.Name,
		Goal:      d.Goal,
		StartDate: d.StartDate.Ptr(),
		EndDate:   d.EndDate.Ptr(),
	}
}

// ReportQuery selects the window and scope of a report.
type ReportQuery struct {
	From       string `form:"from" json:"from" binding:"required,datetime=2006-01-02"`
	To         string `form:"to" json:"to" binding:"required,datetime=2006-01-02"`
	ProjectID  *int64 `form:"projectId" json:"projectId" binding:"omitempty,gt=0"`
	AssigneeID *int64 `form:"assigneeId" json:"assigneeId" binding:"omitempty,gt=0"`
}

// Filter returns the optional project and assignee scope.
func (q ReportQuery) Filter() sqlite.ReportFilter {
	return sqlite.ReportFilter{ProjectID: q.ProjectID, AssigneeID: q.AssigneeID}
}
