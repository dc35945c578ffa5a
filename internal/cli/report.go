package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pmtrack/internal/reports"
	"pmtrack/internal/storage/sqlite"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	gapStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	offDayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
)

// reportFlags are shared by every report subcommand.
type reportFlags struct {
	from     string
	to       string
	project  int64
	assignee int64
	asJSON   bool
	progress string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of the window (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&f.project, "project", 0, "limit to one project id")
	cmd.Flags().Int64Var(&f.assignee, "assignee", 0, "limit to one assignee id")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&f.progress, "progress", "", "show a loading indicator: spinner, dots or bar")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (f *reportFlags) filter() sqlite.ReportFilter {
	var out sqlite.ReportFilter
	if f.project > 0 {
		out.ProjectID = &f.project
	}
	if f.assignee > 0 {
		out.AssigneeID = &f.assignee
	}
	return out
}

func (a *app) newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print time and delivery reports",
	}

	var daily reportFlags
	dailyCmd := &cobra.Command{
		Use:   "daily",
		Short: "Expected versus logged hours per assignee and day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := reports.ParseWindow(daily.from, daily.to, a.cfg.Reports.MaxWindowDays)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var out []reports.DailyHoursReportDto
			err = withIndicator(cmd.Context(), cmd.ErrOrStderr(), daily.progress, "building report", func(ctx context.Context) error {
				out, err = store.DailyHoursReport(ctx, w, daily.filter())
				return err
			})
			if err != nil {
				return err
			}
			if daily.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printDaily(cmd.OutOrStdout(), out)
			return nil
		},
	}
	daily.register(dailyCmd)

	var overview reportFlags
	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Hours, delays and completion across projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := reports.ParseWindow(overview.from, overview.to, a.cfg.Reports.MaxWindowDays)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var out reports.ReportsOverview
			err = withIndicator(cmd.Context(), cmd.ErrOrStderr(), overview.progress, "building report", func(ctx context.Context) error {
				out, err = store.OverviewReport(ctx, w, overview.filter(), time.Now())
				return err
			})
			if err != nil {
				return err
			}
			if overview.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printOverview(cmd.OutOrStdout(), out)
			return nil
		},
	}
	overview.register(overviewCmd)

	cmd.AddCommand(dailyCmd, overviewCmd)
	return cmd
}

func printDaily(w io.Writer, rs []reports.DailyHoursReportDto) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "no assignees")
		return
	}
	for i, r := range rs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%s (#%d)", r.AssigneeName, r.AssigneeID)))
		fmt.Fprintf(w, "%s .. %s  work days %s  %.2fh/day\n", r.From, r.To, strings.Join(r.WorkDays, ","), r.DailyWorkHours)
		for _, d := range r.Days {
			line := fmt.Sprintf("  %s %s %6.2f / %6.2f", d.Date, d.Weekday, d.LoggedHours, d.ExpectedHours)
			switch {
			case d.HasGap:
				line = gapStyle.Render(line + "  gap")
			case !d.IsWorkDay:
				line = offDayStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "  total %.2f / %.2f, %d gap day(s)\n", r.TotalLogged, r.TotalExpected, r.GapDays)
	}
}

func printOverview(w io.Writer, o reports.ReportsOverview) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Overview %s .. %s", o.From, o.To)))
	fmt.Fprintf(w, "hours %.2f  tasks %d  completed %d (%.2f%%)\n", o.TotalHours, o.TotalTasks, o.CompletedTasks, o.CompletionRate)
	fmt.Fprintf(w, "delays %d of %d tasks with a due date\n", o.Delays.Delayed, o.Delays.Total)

	printGroups(w, "By project", o.HoursByProject)
	printGroups(w, "By team", o.HoursByTeam)
	printGroups(w, "By assignee", o.HoursByAssignee)

	if len(o.TopTasks) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Top tasks"))
		for _, t := range o.TopTasks {
			fmt.Fprintf(w, "  #%-5d %-32s %7.2fh (est %.2f, %+.2f)\n", t.TaskID, t.Title, t.LoggedHours, t.EstimatedHours, t.Variance)
		}
	}
}

func printGroups(w io.Writer, title string, groups []reports.HoursGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render(title))
	for _, g := range groups {
		fmt.Fprintf(w, "  %-32s %7.2fh %6.2f%%\n", g.Name, g.Hours, g.Percentage)
	}
}
