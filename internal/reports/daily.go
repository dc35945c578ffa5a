package reports

import (
	"sort"
	"time"
)

// DailyHours builds the coverage table of one assignee over the window.
// Entries of other assignees and outside the window are ignored.
func DailyHours(a Assignee, entries []TimeEntry, w Window) DailyHoursReportDto {
	logged := make(map[string]float64)
	for _, e := range entries {
		if e.AssigneeID != a.ID || !w.Contains(e.Date) {
			continue
		}
		logged[Day(e.Date).Format(time.DateOnly)] += e.Hours
	}

	workDays := make(map[time.Weekday]bool, len(a.WorkDays))
	codes := make([]string, 0, len(a.WorkDays))
	for _, wd := range a.WorkDays {
		workDays[wd] = true
		codes = append(codes, weekdayCode(wd))
	}

	r := DailyHoursReportDto{
		AssigneeID:     a.ID,
		AssigneeName:   a.Name,
		From:           w.From.Format(time.DateOnly),
		To:             w.To.Format(time.DateOnly),
		WorkDays:       codes,
		DailyWorkHours: a.DailyWorkHours,
		Days:           make([]DailyHoursEntry, 0, w.Days()),
	}
	for d := w.From; !d.After(w.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		day := DailyHoursEntry{
			Date:        key,
			Weekday:     weekdayCode(d.Weekday()),
			IsWorkDay:   workDays[d.Weekday()],
			LoggedHours: logged[key],
		}
		if day.IsWorkDay {
			day.ExpectedHours = a.DailyWorkHours
		}
		day.HasGap = day.IsWorkDay && day.LoggedHours < day.ExpectedHours

		r.TotalExpected += day.ExpectedHours
		r.TotalLogged += day.LoggedHours
		if day.HasGap {
			r.GapDays++
		}
		r.Days = append(r.Days, day)
	}
	return r
}

// BuildDailyHours returns one coverage table per assignee ordered by id.
func BuildDailyHours(assignees []Assignee, entries []TimeEntry, w Window) []DailyHoursReportDto {
	sorted := append([]Assignee(nil), assignees...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]DailyHoursReportDto, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, DailyHours(a, entries, w))
	}
	return out
}
