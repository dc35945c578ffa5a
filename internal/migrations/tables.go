package migrations

// Table shapes, one variable per version a migration creates or rebuilds to.
// Column definitions that are added with ALTER TABLE and later restored by a
// rebuild are shared constants so both paths produce the same schema.

const (
	teamsProjectColumn      = "project_id INTEGER REFERENCES projects(id) ON DELETE SET NULL ON UPDATE NO ACTION"
	usersSupervisorColumn   = "supervisor_id INTEGER REFERENCES users(id) ON DELETE SET NULL"
	taskStatusProjectColumn = "project_id INTEGER REFERENCES projects(id) ON DELETE CASCADE"
	usersWorkDaysColumn     = "work_days TEXT NOT NULL DEFAULT 'mon,tue,wed,thu,fri'"
	usersDailyHoursColumn   = "daily_work_hours REAL NOT NULL DEFAULT 8"
)

var projectsV1 = table{
	name: "projects",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"name TEXT NOT NULL UNIQUE",
		"description TEXT NOT NULL DEFAULT ''",
		"status TEXT NOT NULL DEFAULT 'active'",
		"health TEXT NOT NULL DEFAULT 'on_track'",
		"color TEXT NOT NULL DEFAULT '#2563eb'",
		"start_date DATE",
		"end_date DATE",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
}

var usersV1 = table{
	name: "users",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"name TEXT NOT NULL",
		"email TEXT NOT NULL UNIQUE",
		"role TEXT NOT NULL DEFAULT 'member'",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
}

var teamsV1 = table{
	name: "teams",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"name TEXT NOT NULL",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
}

var sprintsV1 = table{
	name: "sprints",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE",
		"name TEXT NOT NULL DEFAULT ''",
		"name_sprint TEXT NOT NULL DEFAULT ''",
		"goal TEXT NOT NULL DEFAULT ''",
		"start_date DATE",
		"end_date DATE",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_sprints_project ON sprints(project_id)`,
	},
}

var taskStatusV1 = table{
	name: "task_status",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"code TEXT NOT NULL",
		"name TEXT NOT NULL",
		`"order" INTEGER NOT NULL DEFAULT 0`,
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_task_status_code ON task_status(code)`,
	},
}

// taskStatusV2 is V1 plus the nullable project column.
var taskStatusV2 = table{
	name:    "task_status",
	columns: append(append([]string{}, taskStatusV1.columns...), taskStatusProjectColumn),
	indexes: taskStatusV1.indexes,
}

// taskStatusV3 requires a project and makes codes unique per project.
var taskStatusV3 = table{
	name: "task_status",
	columns: append(append([]string{}, taskStatusV1.columns...),
		"project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE"),
	indexes: []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_task_status_code_project ON task_status(code, project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_status_project ON task_status(project_id)`,
	},
}

var tasksV1 = table{
	name: "tasks",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE",
		"sprint_id INTEGER REFERENCES sprints(id) ON DELETE SET NULL",
		"status_id INTEGER REFERENCES task_status(id) ON DELETE SET NULL",
		"assignee_id INTEGER REFERENCES users(id) ON DELETE SET NULL",
		"title TEXT NOT NULL",
		"description TEXT NOT NULL DEFAULT ''",
		"priority TEXT NOT NULL DEFAULT 'medium'",
		"position INTEGER NOT NULL DEFAULT 0",
		"estimated_hours REAL NOT NULL DEFAULT 0",
		"due_date DATE",
		"completed_at DATETIME",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
	},
}

var taskAttachmentsV1 = table{
	name: "task_attachments",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE",
		"file_name TEXT NOT NULL",
		"url TEXT NOT NULL",
		"size_bytes INTEGER NOT NULL DEFAULT 0",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_task_attachments_task ON task_attachments(task_id)`,
	},
}

var taskCommentsV1 = table{
	name: "task_comments",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE",
		"author_id INTEGER REFERENCES users(id) ON DELETE SET NULL",
		"body TEXT NOT NULL",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_task_comments_task ON task_comments(task_id)`,
	},
}

var taskHoursHistoryV1 = table{
	name: "task_hours_history",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE",
		"user_id INTEGER REFERENCES users(id) ON DELETE SET NULL",
		"hours REAL NOT NULL",
		"reason_code TEXT NOT NULL DEFAULT ''",
		"entry_date DATE NOT NULL",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_task_hours_task ON task_hours_history(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_hours_user_date ON task_hours_history(user_id, entry_date)`,
	},
}

var schedulesV1 = table{
	name: "schedules",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE",
		"team_id INTEGER",
		"work_days TEXT NOT NULL DEFAULT 'mon,tue,wed,thu,fri'",
		"daily_work_hours REAL NOT NULL DEFAULT 8",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	constraints: []string{
		"CONSTRAINT fk_schedules_team FOREIGN KEY (team_id) REFERENCES teams(id) ON DELETE NO ACTION ON UPDATE NO ACTION",
	},
}

// schedulesV2 keeps team_id as a plain column.
var schedulesV2 = table{
	name:    schedulesV1.name,
	columns: schedulesV1.columns,
}

var chatSessionsV1 = table{
	name: "chat_sessions",
	columns: []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE",
		"title TEXT NOT NULL DEFAULT ''",
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	},
	indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions(user_id)`,
	},
}
