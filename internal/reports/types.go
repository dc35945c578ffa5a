package reports

import "time"

// Assignee is a person whose hours are reported, with the work schedule
// that defines the expected load.
type Assignee struct {
	ID             int64
	Name           string
	WorkDays       []time.Weekday
	DailyWorkHours float64
}

// TimeEntry is one logged block of hours.
// AssigneeID 0 means the hours were booked without a user.
type TimeEntry struct {
	TaskID       int64
	AssigneeID   int64
	AssigneeName string
	Date         time.Time
	Hours        float64
}

// TaskRecord is the per task input of the overview.
type TaskRecord struct {
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

// DailyHoursEntry is the coverage of one calendar day.
type DailyHoursEntry struct {
	Date          string  `json:"date"`
	Weekday       string  `json:"weekday"`
	IsWorkDay     bool    `json:"isWorkDay"`
	ExpectedHours float64 `json:"expectedHours"`
	LoggedHours   float64 `json:"loggedHours"`
	HasGap        bool    `json:"hasGap"`
}

// DailyHoursReportDto is the daily coverage table of one assignee.
type DailyHoursReportDto struct {
	AssigneeID     int64             `json:"assigneeId"`
	AssigneeName   string            `json:"assigneeName"`
	From           string            `json:"from"`
	To             string            `json:"to"`
	WorkDays       []string          `json:"workDays"`
	DailyWorkHours float64           `json:"dailyWorkHours"`
	TotalExpected  float64           `json:"totalExpected"`
	TotalLogged    float64           `json:"totalLogged"`
	GapDays        int               `json:"gapDays"`
	Days           []DailyHoursEntry `json:"days"`
}

// HoursGroup is logged time aggregated over one dimension value.
type HoursGroup struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
	TaskCount  int     `json:"taskCount"`
}

// DelayGroup counts due tasks of one dimension value.
type DelayGroup struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Delayed   int     `json:"delayed"`
	OnTime    int     `json:"onTime"`
	Total     int     `json:"total"`
	DelayRate float64 `json:"delayRate"`
}

// DelaySummary counts due tasks overall and per dimension.
type DelaySummary struct {
	Delayed    int          `json:"delayed"`
	OnTime     int          `json:"onTime"`
	Total      int          `json:"total"`
	ByProject  []DelayGroup `json:"byProject"`
	ByAssignee []DelayGroup `json:"byAssignee"`
}

// TaskHoursItem compares logged with estimated hours for one task.
type TaskHoursItem struct {
	TaskID         int64   `json:"taskId"`
	Title          string  `json:"title"`
	ProjectName    string  `json:"projectName"`
	AssigneeName   string  `json:"assigneeName"`
	EstimatedHours float64 `json:"estimatedHours"`
	LoggedHours    float64 `json:"loggedHours"`
	Variance       float64 `json:"variance"`
}

// ReportsOverview is the aggregate shown on the reports page.
type ReportsOverview struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	TotalHours      float64         `json:"totalHours"`
	TotalTasks      int             `json:"totalTasks"`
	CompletedTasks  int             `json:"completedTasks"`
	CompletionRate  float64         `json:"completionRate"`
	HoursByProject  []HoursGroup    `json:"hoursByProject"`
	HoursByTeam     []HoursGroup    `json:"hoursByTeam"`
	HoursByAssignee []HoursGroup    `json:"hoursByAssignee"`
	Delays          DelaySummary    `json:"delays"`
	TopTasks        []TaskHoursItem `json:"topTasks"`
}
