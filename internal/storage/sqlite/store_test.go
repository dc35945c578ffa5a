package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"pmtrack/internal/models"
	"pmtrack/internal/reports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "data", "pmtrack.db"), logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustProject(t *testing.T, s *Store, name string) models.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), models.Project{Name: name})
	if err != nil {
		t.Fatalf("CreateProject(%q): %v", name, err)
	}
	return p
}

func mustUser(t *testing.T, s *Store, name, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{Name: name, Email: email})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", name, err)
	}
	return u
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	states, err := s.Migrations().Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range states {
		if !st.Applied {
			t.Errorf("migration %s not applied", st.ID)
		}
	}
	schema, err := s.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if _, ok := schema["schedules"]; ok {
		t.Error("schedules should have been dropped")
	}
	if _, ok := schema["task_status"]; !ok {
		t.Error("task_status missing")
	}
}

func TestCreateProject_SeedsDefaultStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	if p.Status != "active" || p.Health != "on_track" || p.Color == "" {
		t.Errorf("defaults not applied: %+v", p)
	}

	statuses, err := s.ListStatuses(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	want := []string{"todo", "in_progress", "blocked", "completed"}
	if len(statuses) != len(want) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(want))
	}
	for i, st := range statuses {
		if st.Code != want[i] || st.Order != i+1 {
			t.Errorf("status %d = (%s,%d), want (%s,%d)", i, st.Code, st.Order, want[i], i+1)
		}
	}
}

func TestCreateProject_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustProject(t, s, "Apollo")

	if _, err := s.CreateProject(ctx, models.Project{Name: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name: got %v, want ErrInvalid", err)
	}
	if _, err := s.CreateProject(ctx, models.Project{Name: "Zephyr", Status: "paused"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad status: got %v, want ErrInvalid", err)
	}
	if _, err := s.CreateProject(ctx, models.Project{Name: "Apollo"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate name: got %v, want ErrConflict", err)
	}
}

func TestUpdateAndDeleteProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	health := "at_risk"
	end := day("2024-12-31")
	got, err := s.UpdateProject(ctx, p.ID, ProjectUpdate{Health: &health, EndDate: &end})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if got.Health != "at_risk" || got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := s.DeleteProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	statuses, err := s.ListStatuses(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("statuses survived project delete: %d", len(statuses))
	}
}

func TestCreateStatus_CodeUniquePerProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustProject(t, s, "Apollo")
	b := mustProject(t, s, "Zephyr")

	st, err := s.CreateStatus(ctx, a.ID, "review", "Review")
	if err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}
	if st.Order != 5 {
		t.Errorf("appended status order = %d, want 5", st.Order)
	}
	if _, err := s.CreateStatus(ctx, a.ID, "review", "Review again"); !errors.Is(err, ErrConflict) {
		t.Errorf("same code, same project: got %v, want ErrConflict", err)
	}
	if _, err := s.CreateStatus(ctx, b.ID, "review", "Review"); err != nil {
		t.Errorf("same code, other project: %v", err)
	}
	if _, err := s.CreateStatus(ctx, 999, "review", "Review"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown project: got %v, want ErrNotFound", err)
	}
}

func TestReorderStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustProject(t, s, "Apollo")
	b := mustProject(t, s, "Zephyr")

	statuses, err := s.ListStatuses(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	items := make([]StatusOrder, 0, len(statuses))
	for i, st := range statuses {
		items = append(items, StatusOrder{StatusID: st.ID, Order: len(statuses) - i})
	}
	got, err := s.ReorderStatuses(ctx, a.ID, items)
	if err != nil {
		t.Fatalf("ReorderStatuses: %v", err)
	}
	if got[0].Code != "completed" || got[3].Code != "todo" {
		t.Errorf("order after reverse: %s .. %s", got[0].Code, got[3].Code)
	}

	other, err := s.ListStatuses(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	_, err = s.ReorderStatuses(ctx, a.ID, []StatusOrder{
		{StatusID: statuses[0].ID, Order: 1},
		{StatusID: other[0].ID, Order: 2},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign status: got %v, want ErrNotFound", err)
	}
	after, err := s.ListStatuses(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	if after[0].Code != "completed" {
		t.Error("failed reorder must not change the board")
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")
	statuses, err := s.ListStatuses(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}

	first, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: "Write schema"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if first.StatusID == nil || *first.StatusID != statuses[0].ID {
		t.Errorf("new task should land in the first column, got %v", first.StatusID)
	}
	if first.Priority != "medium" || first.CompletedAt != nil {
		t.Errorf("unexpected defaults: %+v", first)
	}
	second, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: "Write report"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if second.Position != first.Position+1 {
		t.Errorf("position = %d, want %d", second.Position, first.Position+1)
	}

	done := statuses[3].ID
	moved, err := s.UpdateTask(ctx, first.ID, TaskUpdate{StatusID: &done})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if moved.CompletedAt == nil {
		t.Error("moving to completed should stamp completed_at")
	}
	back := statuses[1].ID
	reopened, err := s.UpdateTask(ctx, first.ID, TaskUpdate{StatusID: &back})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Error("moving out of completed should clear completed_at")
	}

	other := mustProject(t, s, "Zephyr")
	foreign, err := s.ListStatuses(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	if _, err := s.UpdateTask(ctx, first.ID, TaskUpdate{StatusID: &foreign[0].ID}); !errors.Is(err, ErrInvalid) {
		t.Errorf("status of another project: got %v, want ErrInvalid", err)
	}
	if _, err := s.CreateTask(ctx, models.Task{ProjectID: 999, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown project: got %v, want ErrNotFound", err)
	}
}

func TestDeleteTasks_Bulk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		task, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: title})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		ids = append(ids, task.ID)
	}

	n, err := s.DeleteTasks(ctx, []int64{ids[0], ids[2], 12345})
	if err != nil {
		t.Fatalf("DeleteTasks: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	left, err := s.ListTasks(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(left) != 1 || left[0].ID != ids[1] {
		t.Errorf("remaining tasks = %+v", left)
	}
	if _, err := s.DeleteTasks(ctx, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty list: got %v, want ErrInvalid", err)
	}
}

func TestDeleteTasks_ManyIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	var kept, gone int64
	for i, title := range []string{"keep", "drop"} {
		task, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: title})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if i == 0 {
			kept = task.ID
		} else {
			gone = task.ID
		}
	}

	// More ids than one statement may bind; the real one sits in the last chunk.
	ids := make([]int64, 0, 40001)
	for i := int64(0); i < 40000; i++ {
		ids = append(ids, 1_000_000+i)
	}
	ids = append(ids, gone)

	n, err := s.DeleteTasks(ctx, ids)
	if err != nil {
		t.Fatalf("DeleteTasks: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := s.GetTask(ctx, gone); !errors.Is(err, ErrNotFound) {
		t.Errorf("task %d survived: %v", gone, err)
	}
	if _, err := s.GetTask(ctx, kept); err != nil {
		t.Errorf("task %d removed: %v", kept, err)
	}
}

func TestActivity_CascadesWithTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")
	u := mustUser(t, s, "Ada", "ada@example.com")
	task, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: "Write schema", AssigneeID: &u.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	entry, err := s.LogHours(ctx, models.TaskHoursEntry{TaskID: task.ID, Hours: 2.5, ReasonCode: "work", EntryDate: day("2024-06-03")})
	if err != nil {
		t.Fatalf("LogHours: %v", err)
	}
	if entry.UserID == nil || *entry.UserID != u.ID {
		t.Errorf("hours should default to the assignee, got %v", entry.UserID)
	}
	if !entry.EntryDate.Equal(day("2024-06-03")) {
		t.Errorf("entry date = %v", entry.EntryDate)
	}
	if _, err := s.LogHours(ctx, models.TaskHoursEntry{TaskID: task.ID, Hours: 25, EntryDate: day("2024-06-03")}); !errors.Is(err, ErrInvalid) {
		t.Errorf("25 hours: got %v, want ErrInvalid", err)
	}
	if _, err := s.AddComment(ctx, models.TaskComment{TaskID: task.ID, AuthorID: &u.ID, Body: "looks good"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := s.AddAttachment(ctx, models.TaskAttachment{TaskID: task.ID, FileName: "erd.png", URL: "https://files.example.com/erd.png"}); err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	hours, err := s.ListHours(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListHours: %v", err)
	}
	comments, err := s.ListComments(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	files, err := s.ListAttachments(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if len(hours)+len(comments)+len(files) != 0 {
		t.Errorf("children survived: %d hours, %d comments, %d attachments", len(hours), len(comments), len(files))
	}
}

func TestTeamsAndSupervisors_SetNull(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	team, err := s.CreateTeam(ctx, "Core", &p.ID)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.ProjectID == nil || *team.ProjectID != p.ID {
		t.Errorf("team project = %v", team.ProjectID)
	}
	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	teams, err := s.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].ProjectID != nil {
		t.Errorf("team should survive with a null project: %+v", teams)
	}

	boss := mustUser(t, s, "Grace", "grace@example.com")
	report, err := s.CreateUser(ctx, models.User{Name: "Ada", Email: "ada@example.com", SupervisorID: &boss.ID})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if report.WorkDays != models.DefaultWorkDays || report.DailyWorkHours != models.DefaultDailyWorkHours {
		t.Errorf("work schedule defaults = %q/%v", report.WorkDays, report.DailyWorkHours)
	}
	if _, err := s.CreateUser(ctx, models.User{Name: "Ada 2", Email: "ADA@example.com"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: got %v, want ErrConflict", err)
	}
}

func TestSprints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")

	start, end := day("2024-06-03"), day("2024-06-14")
	if _, err := s.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint 1", StartDate: &end, EndDate: &start}); !errors.Is(err, ErrInvalid) {
		t.Errorf("reversed dates: got %v, want ErrInvalid", err)
	}
	sp, err := s.CreateSprint(ctx, models.Sprint{ProjectID: p.ID, Name: "Sprint 1", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("CreateSprint: %v", err)
	}
	sprints, err := s.ListSprints(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListSprints: %v", err)
	}
	if len(sprints) != 1 || sprints[0].ID != sp.ID || !sprints[0].StartDate.Equal(start) {
		t.Errorf("sprints = %+v", sprints)
	}
}

func TestReports_LoadersFeedPureFunctions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "Apollo")
	team, err := s.CreateTeam(ctx, "Core", &p.ID)
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	ada := mustUser(t, s, "Ada", "ada@example.com")
	due := day("2024-06-05")
	task, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: "Schema", AssigneeID: &ada.ID, EstimatedHours: 6, DueDate: &due})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	for _, e := range []struct {
		date  string
		hours float64
	}{{"2024-06-03", 8}, {"2024-06-04", 3}, {"2024-07-01", 4}} {
		if _, err := s.LogHours(ctx, models.TaskHoursEntry{TaskID: task.ID, Hours: e.hours, EntryDate: day(e.date)}); err != nil {
			t.Fatalf("LogHours: %v", err)
		}
	}

	w, err := reports.ParseWindow("2024-06-03", "2024-06-07", 0)
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}

	records, err := s.ReportTasks(ctx, ReportFilter{})
	if err != nil {
		t.Fatalf("ReportTasks: %v", err)
	}
	if len(records) != 1 || records[0].TeamID == nil || *records[0].TeamID != team.ID || records[0].AssigneeName != "Ada" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].DueDate == nil || !records[0].DueDate.Equal(due) {
		t.Errorf("due date = %v", records[0].DueDate)
	}

	entries, err := s.TimeEntries(ctx, w, ReportFilter{ProjectID: &p.ID})
	if err != nil {
		t.Fatalf("TimeEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].AssigneeID != ada.ID {
		t.Fatalf("entries = %+v", entries)
	}

	daily, err := s.DailyHoursReport(ctx, w, ReportFilter{AssigneeID: &ada.ID})
	if err != nil {
		t.Fatalf("DailyHoursReport: %v", err)
	}
	if len(daily) != 1 || daily[0].TotalLogged != 11 || daily[0].TotalExpected != 40 || daily[0].GapDays != 4 {
		t.Errorf("daily = %+v", daily)
	}
	missing := int64(999)
	if _, err := s.DailyHoursReport(ctx, w, ReportFilter{AssigneeID: &missing}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown assignee: got %v, want ErrNotFound", err)
	}

	o, err := s.OverviewReport(ctx, w, ReportFilter{}, day("2024-06-10"))
	if err != nil {
		t.Fatalf("OverviewReport: %v", err)
	}
	if o.TotalHours != 11 || o.Delays.Delayed != 1 || len(o.HoursByTeam) != 1 || o.HoursByTeam[0].Name != "Core" {
		t.Errorf("overview = %+v", o)
	}
}
