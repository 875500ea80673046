package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id                  INTEGER PRIMARY KEY,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'pending',
	status_display      TEXT NOT NULL DEFAULT '',
	priority            TEXT NOT NULL DEFAULT 'medium',
	priority_display    TEXT NOT NULL DEFAULT '',
	start_date          TEXT NOT NULL DEFAULT '',
	end_date            TEXT NOT NULL DEFAULT '',
	owner               INTEGER NOT NULL DEFAULT 0,
	owner_name          TEXT NOT NULL DEFAULT '',
	progress_percentage INTEGER NOT NULL DEFAULT 0,
	members_count       INTEGER NOT NULL DEFAULT 0,
	tasks_count         INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL,
	can_user_edit       INTEGER NOT NULL DEFAULT 0,
	can_user_delete     INTEGER NOT NULL DEFAULT 0,
	fetched_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'pending',
	status_display   TEXT NOT NULL DEFAULT '',
	priority         TEXT NOT NULL DEFAULT 'medium',
	priority_display TEXT NOT NULL DEFAULT '',
	due_date         TEXT NOT NULL DEFAULT '',
	completed_at     DATETIME,
	project          INTEGER NOT NULL,
	project_name     TEXT NOT NULL DEFAULT '',
	assigned_to      INTEGER NOT NULL DEFAULT 0,
	assigned_to_name TEXT NOT NULL DEFAULT '',
	created_by       INTEGER NOT NULL DEFAULT 0,
	created_by_name  TEXT NOT NULL DEFAULT '',
	is_overdue       INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	fetched_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           INTEGER PRIMARY KEY,
	type         TEXT NOT NULL,
	type_display TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0,
	project_ref  TEXT NOT NULL DEFAULT '',
	task_ref     TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
