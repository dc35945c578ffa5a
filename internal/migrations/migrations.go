// Package migrations holds the versioned schema of the tracker database and
// the runner that applies it.
//
// Migrations are applied in ID order, one at a time, without a transaction
// around the whole run: the first failure stops the sequence and leaves the
// already applied steps recorded. Every migration has a paired rollback.
package migrations

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var (
	// ErrStatusesWithoutProject is returned when task statuses still lack a
	// project at the point the column becomes required.
	ErrStatusesWithoutProject = errors.New("task statuses without project")
	// ErrDuplicateStatusCodes is returned when a rollback would recreate the
	// global unique index on task_status.code over duplicated codes.
	ErrDuplicateStatusCodes = errors.New("task status codes repeat across projects")
)

// Definitions returns the ordered migration set.
func Definitions(logger *slog.Logger) []*gormigrate.Migration {
	if logger == nil {
		logger = slog.Default()
	}

	return []*gormigrate.Migration{
		createTableMigration("20240105090000_create_projects", projectsV1),
		createTableMigration("20240105090100_create_users", usersV1),
		createTableMigration("20240105090200_create_teams", teamsV1),
		createTableMigration("20240105090300_create_sprints", sprintsV1),
		createTableMigration("20240105090400_create_task_status", taskStatusV1),
		createTableMigration("20240105090500_create_tasks", tasksV1),
		createTableMigration("20240105090600_create_task_attachments", taskAttachmentsV1),
		createTableMigration("20240105090700_create_task_comments", taskCommentsV1),
		createTableMigration("20240105090800_create_task_hours_history", taskHoursHistoryV1),
		createTableMigration("20240105090900_create_schedules", schedulesV1),
		createTableMigration("20240105091000_create_chat_sessions", chatSessionsV1),
		{
			ID: "20240212100000_add_project_to_teams",
			Migrate: func(tx *gorm.DB) error {
				if err := addColumn(tx, "teams", teamsProjectColumn); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_teams_project ON teams(project_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return rebuildTable(tx, teamsV1)
			},
		},
		{
			ID: "20240212100100_add_supervisor_to_users",
			Migrate: func(tx *gorm.DB) error {
				return addColumn(tx, "users", usersSupervisorColumn)
			},
			Rollback: func(tx *gorm.DB) error {
				return rebuildTable(tx, usersV1)
			},
		},
		{
			ID: "20240304110000_add_project_to_task_status",
			Migrate: func(tx *gorm.DB) error {
				return addColumn(tx, "task_status", taskStatusProjectColumn)
			},
			Rollback: func(tx *gorm.DB) error {
				return rebuildTable(tx, taskStatusV1)
			},
		},
		{
			ID:      "20240304110100_backfill_task_status_order",
			Migrate: backfillStatusOrder,
			// The previous values of "order" are not kept.
			Rollback: func(*gorm.DB) error { return nil },
		},
		{
			ID:       "20240304110200_task_status_code_unique_per_project",
			Migrate:  requireStatusProject,
			Rollback: restoreGlobalStatusCodes,
		},
		{
			ID:       "20240415093000_narrow_sprints",
			Migrate:  narrowSprints,
			Rollback: widenSprints,
		},
		{
			ID: "20240520080000_add_work_schedule_to_users",
			Migrate: func(tx *gorm.DB) error {
				if err := addColumn(tx, "users", usersWorkDaysColumn); err != nil {
					return err
				}
				return addColumn(tx, "users", usersDailyHoursColumn)
			},
			Rollback: func(tx *gorm.DB) error {
				if err := dropColumn(tx, "users", "daily_work_hours"); err != nil {
					return err
				}
				return dropColumn(tx, "users", "work_days")
			},
		},
		{
			ID: "20240520080100_drop_schedules_team_fk",
			Migrate: func(tx *gorm.DB) error {
				return dropSchedulesTeamFK(tx, logger)
			},
			Rollback: func(tx *gorm.DB) error {
				return rebuildTable(tx, schedulesV1)
			},
		},
		{
			ID: "20240520080200_drop_schedules",
			Migrate: func(tx *gorm.DB) error {
				return dropTable(tx, "schedules")
			},
			Rollback: func(tx *gorm.DB) error {
				return createTable(tx, schedulesV2)
			},
		},
	}
}

func createTableMigration(id string, t table) *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: id,
		Migrate: func(tx *gorm.DB) error {
			return createTable(tx, t)
		},
		Rollback: func(tx *gorm.DB) error {
			return dropTable(tx, t.name)
		},
	}
}

// backfillStatusOrder renumbers "order" within each project as 1, 2, 3, ...
// following ascending id.
func backfillStatusOrder(tx *gorm.DB) error {
	err := tx.Exec(`UPDATE task_status SET "order" = (
            SELECT COUNT(*) FROM task_status AS prev
            WHERE prev.project_id IS task_status.project_id AND prev.id <= task_status.id
        )`).Error
	if err != nil {
		return fmt.Errorf("backfill task_status order: %w", err)
	}
	return nil
}

func requireStatusProject(tx *gorm.DB) error {
	var orphans int64
	if err := tx.Raw(`SELECT COUNT(*) FROM task_status WHERE project_id IS NULL`).Scan(&orphans).Error; err != nil {
		return fmt.Errorf("count task statuses without project: %w", err)
	}
	if orphans > 0 {
		return fmt.Errorf("%w: %d rows must be assigned to a project first", ErrStatusesWithoutProject, orphans)
	}
	if err := tx.Exec(`DROP INDEX IF EXISTS uq_task_status_code`).Error; err != nil {
		return fmt.Errorf("drop uq_task_status_code: %w", err)
	}
	return rebuildTable(tx, taskStatusV3)
}

func restoreGlobalStatusCodes(tx *gorm.DB) error {
	var dupes int64
	err := tx.Raw(`SELECT COUNT(*) FROM (
            SELECT code FROM task_status GROUP BY code HAVING COUNT(*) > 1
        )`).Scan(&dupes).Error
	if err != nil {
		return fmt.Errorf("count duplicated status codes: %w", err)
	}
	if dupes > 0 {
		return fmt.Errorf("%w: %d codes", ErrDuplicateStatusCodes, dupes)
	}
	return rebuildTable(tx, taskStatusV2)
}

func narrowSprints(tx *gorm.DB) error {
	if err := tx.Exec(`UPDATE sprints SET name = name_sprint WHERE name = ''`).Error; err != nil {
		return fmt.Errorf("backfill sprint names: %w", err)
	}
	if err := dropColumn(tx, "sprints", "name_sprint"); err != nil {
		return err
	}
	return dropColumn(tx, "sprints", "created_at")
}

func widenSprints(tx *gorm.DB) error {
	if err := rebuildTable(tx, sprintsV1); err != nil {
		return err
	}
	if err := tx.Exec(`UPDATE sprints SET name_sprint = name`).Error; err != nil {
		return fmt.Errorf("restore sprint names: %w", err)
	}
	return nil
}

// dropSchedulesTeamFK treats a missing constraint as already removed.
func dropSchedulesTeamFK(tx *gorm.DB, logger *slog.Logger) error {
	exists, err := hasTable(tx, "schedules")
	if err != nil {
		return err
	}
	if exists {
		exists, err = hasNamedConstraint(tx, "schedules", "fk_schedules_team")
		if err != nil {
			return err
		}
	}
	if !exists {
		logger.Warn("constraint not found, skipping",
			slog.String("table", "schedules"),
			slog.String("constraint", "fk_schedules_team"))
		return nil
	}
	return rebuildTable(tx, schedulesV2)
}
