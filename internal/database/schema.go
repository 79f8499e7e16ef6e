package database

const schema = `
CREATE TABLE maintenance_history (
	store TEXT NOT NULL,
	kind TEXT NOT NULL,
	run_id TEXT NOT NULL,
	checks INTEGER NOT NULL DEFAULT 0,
	found INTEGER NOT NULL DEFAULT 0,
	fixed INTEGER NOT NULL DEFAULT 0,
	remaining INTEGER NOT NULL DEFAULT 0,
	last_check TEXT NOT NULL,
	PRIMARY KEY (store, kind)
);

CREATE INDEX idx_maintenance_last_check ON maintenance_history(last_check);
`

// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
