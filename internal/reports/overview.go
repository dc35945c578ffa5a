package reports

import (
	"sort"
	"time"
)

// TopTasksLimit caps the number of tasks listed in an overview.
const TopTasksLimit = 10

const unassigned = "Unassigned"

type hoursAcc struct {
	id    int64
	name  string
	hours float64
	tasks map[int64]struct{}
}

type groupHours map[int64]*hoursAcc

func (g groupHours) add(id int64, name string, taskID int64, hours float64) {
	acc, ok := g[id]
	if !ok {
		if name == "" {
			name = unassigned
		}
		acc = &hoursAcc{id: id, name: name, tasks: map[int64]struct{}{}}
		g[id] = acc
	}
	acc.hours += hours
	acc.tasks[taskID] = struct{}{}
}

func (g groupHours) groups(total float64) []HoursGroup {
	out := make([]HoursGroup, 0, len(g))
	for _, acc := range g {
		out = append(out, HoursGroup{
			ID:         acc.id,
			Name:       acc.name,
			Hours:      round2(acc.hours),
			Percentage: percent(acc.hours, total),
			TaskCount:  len(acc.tasks),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type delayAcc map[int64]*DelayGroup

func (d delayAcc) add(id int64, name string, delayed bool) {
	g, ok := d[id]
	if !ok {
		if name == "" {
			name = unassigned
		}
		g = &DelayGroup{ID: id, Name: name}
		d[id] = g
	}
	g.Total++
	if delayed {
		g.Delayed++
	} else {
		g.OnTime++
	}
}

func (d delayAcc) groups() []DelayGroup {
	out := make([]DelayGroup, 0, len(d))
	for _, g := range d {
		g.DelayRate = percent(float64(g.Delayed), float64(g.Total))
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Delayed != out[j].Delayed {
			return out[i].Delayed > out[j].Delayed
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsDelayed reports whether a task missed its due date: it was completed
// on a later day, or it is still open on a day after the due date.
// Tasks without a due date are never delayed.
func IsDelayed(t TaskRecord, asOf time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	due := Day(*t.DueDate)
	if t.CompletedAt != nil {
		return Day(*t.CompletedAt).After(due)
	}
	return Day(asOf).After(due)
}

// Overview aggregates hours logged inside the window and the delay and
// completion state of the given tasks as of asOf. Hours booked on tasks
// missing from tasks are ignored.
func Overview(tasks []TaskRecord, entries []TimeEntry, w Window, asOf time.Time) ReportsOverview {
	byID := make(map[int64]TaskRecord, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var (
		total      float64
		byProject  = groupHours{}
		byTeam     = groupHours{}
		byAssignee = groupHours{}
		perTask    = map[int64]float64{}
	)
	for _, e := range entries {
		t, ok := byID[e.TaskID]
		if !ok || !w.Contains(e.Date) {
			continue
		}
		total += e.Hours
		perTask[t.ID] += e.Hours
		byProject.add(t.ProjectID, t.ProjectName, t.ID, e.Hours)
		var teamID int64
		if t.TeamID != nil {
			teamID = *t.TeamID
		}
		byTeam.add(teamID, t.TeamName, t.ID, e.Hours)
		byAssignee.add(e.AssigneeID, e.AssigneeName, t.ID, e.Hours)
	}

	o := ReportsOverview{
		From:            w.From.Format(time.DateOnly),
		To:              w.To.Format(time.DateOnly),
		TotalHours:      round2(total),
		TotalTasks:      len(tasks),
		HoursByProject:  byProject.groups(total),
		HoursByTeam:     byTeam.groups(total),
		HoursByAssignee: byAssignee.groups(total),
	}

	delaysByProject, delaysByAssignee := delayAcc{}, delayAcc{}
	for _, t := range tasks {
		if t.CompletedAt != nil {
			o.CompletedTasks++
		}
		if t.DueDate == nil {
			continue
		}
		delayed := IsDelayed(t, asOf)
		o.Delays.Total++
		if delayed {
			o.Delays.Delayed++
		} else {
			o.Delays.OnTime++
		}
		delaysByProject.add(t.ProjectID, t.ProjectName, delayed)
		var assigneeID int64
		if t.AssigneeID != nil {
			assigneeID = *t.AssigneeID
		}
		delaysByAssignee.add(assigneeID, t.AssigneeName, delayed)
	}
	o.CompletionRate = percent(float64(o.CompletedTasks), float64(o.TotalTasks))
	o.Delays.ByProject = delaysByProject.groups()
	o.Delays.ByAssignee = delaysByAssignee.groups()
	o.TopTasks = topTasks(byID, perTask)
	return o
}

func topTasks(tasks map[int64]TaskRecord, logged map[int64]float64) []TaskHoursItem {
	out := make([]TaskHoursItem, 0, len(logged))
	for id, hours := range logged {
		t := tasks[id]
		name := t.AssigneeName
		if t.AssigneeID == nil {
			name = unassigned
		}
		out = append(out, TaskHoursItem{
			TaskID:         id,
			Title:          t.Title,
			ProjectName:    t.ProjectName,
			AssigneeName:   name,
			EstimatedHours: t.EstimatedHours,
			LoggedHours:    round2(hours),
			Variance:       round2(hours - t.EstimatedHours),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoggedHours != out[j].LoggedHours {
			return out[i].LoggedHours > out[j].LoggedHours
		}
		return out[i].TaskID < out[j].TaskID
	})
	if len(out) > TopTasksLimit {
		out = out[:TopTasksLimit]
	}
	return out
}
