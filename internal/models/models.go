package models

import "time"

// Project groups tasks, sprints, statuses and optionally teams.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Health      string     `json:"health"`
	Color       string     `json:"color"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProjectStats holds task counters used by project cards.
type ProjectStats struct {
	ProjectID int64 `json:"projectId"`
	Total     int   `json:"total"`
	Done      int   `json:"done"`
}

// User is a person that can be assigned tasks and log hours.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	SupervisorID   *int64    `json:"supervisorId,omitempty"`
	WorkDays       string    `json:"workDays"`
	DailyWorkHours float64   `json:"dailyWorkHours"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Team is a group of people, optionally bound to a project.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ProjectID *int64    `json:"projectId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sprint is a time box inside a project.
type Sprint struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"projectId"`
	Name      string     `json:"name"`
	Goal      string     `json:"goal"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TaskStatus is a board column of a project. Codes are unique per project.
type TaskStatus struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsDone reports whether tasks in this status count as completed.
func (s TaskStatus) IsDone() bool {
	_, ok := DoneStatusCodes[s.Code]
	return ok
}

// Task represents a single card in the project board.
type Task struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"projectId"`
	SprintID       *int64     `json:"sprintId,omitempty"`
	StatusID       *int64     `json:"statusId,omitempty"`
	AssigneeID     *int64     `json:"assigneeId,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Position       int64      `json:"position"`
	EstimatedHours float64    `json:"estimatedHours"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TaskAttachment is a file linked to a task. Removed together with the task.
type TaskAttachment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskComment is a discussion entry on a task.
type TaskComment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	AuthorID  *int64    `json:"authorId,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskHoursEntry records time spent on a task on a given day.
// ReasonCode is free text ("work", "meeting", "correction", ...).
type TaskHoursEntry struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"taskId"`
	UserID     *int64    `json:"userId,omitempty"`
	Hours      float64   `json:"hours"`
	ReasonCode string    `json:"reasonCode"`
	EntryDate  time.Time `json:"entryDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DefaultStatus describes a status seeded for every new project.
type DefaultStatus struct {
	Code string
	Name string
}

// DefaultTaskStatuses are created, in this order, for every new project.
var DefaultTaskStatuses = []DefaultStatus{
	{Code: "todo", Name: "To Do"},
	{Code: "in_progress", Name: "In Progress"},
	{Code: "blocked", Name: "Blocked"},
	{Code: "completed", Name: "Completed"},
}

// DoneStatusCodes enumerates status codes that mark a task as completed.
var DoneStatusCodes = map[string]struct{}{
	"completed": {},
	"done":      {},
}

// ValidProjectStatuses enumerates the lifecycle states of a project.
var ValidProjectStatuses = map[string]struct{}{
	"active":    {},
	"on_hold":   {},
	"completed": {},
	"archived":  {},
}

// ValidProjectHealth enumerates the health flags of a project.
var ValidProjectHealth = map[string]struct{}{
	"on_track":  {},
	"at_risk":   {},
	"off_track": {},
}

// DefaultWorkDays is the work week assumed for users without an explicit schedule.
const DefaultWorkDays = "mon,tue,wed,thu,fri"

// DefaultDailyWorkHours is the expected daily load on a work day.
const DefaultDailyWorkHours = 8.0
