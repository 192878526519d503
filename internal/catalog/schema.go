package catalog

// schemaSQL is the catalog's idempotent schema script. Each
// statement is safe to re-run: tables use IF NOT EXISTS and indexes are
// named so repeated CREATE INDEX IF NOT EXISTS calls are no-ops. Statements
// run in order inside a single transaction at Open, in the style of
// lrcat-go's schema.go.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS hashes (
		id     INTEGER PRIMARY KEY,
		digest TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS root_paths (
		id   INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS rel_paths (
		id      INTEGER PRIMARY KEY,
		path    TEXT NOT NULL,
		root_id INTEGER NOT NULL REFERENCES root_paths(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_rel_paths_path_root ON rel_paths(path, root_id)`,

	`CREATE TABLE IF NOT EXISTS exclude_dirs (
		id      INTEGER PRIMARY KEY,
		pattern TEXT NOT NULL,
		root_id INTEGER REFERENCES root_paths(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_exclude_dirs_pattern_root ON exclude_dirs(pattern, root_id)`,

	`CREATE TABLE IF NOT EXISTS metadata_fields (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS keywords (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS files (
		id               INTEGER PRIMARY KEY,
		rel_path_id      INTEGER NOT NULL REFERENCES rel_paths(id),
		name             TEXT NOT NULL,
		hash_id          INTEGER NOT NULL REFERENCES hashes(id),
		original_hash_id INTEGER NOT NULL REFERENCES hashes(id),
		size             INTEGER NOT NULL,
		mtime            INTEGER NOT NULL,
		date_taken       INTEGER,
		date_field_id    INTEGER REFERENCES metadata_fields(id),
		symbolic_link    INTEGER NOT NULL DEFAULT 0,
		deduplicated     INTEGER NOT NULL DEFAULT 0,
		deleted_at       INTEGER
	)`,
	// At most one live (deleted_at IS NULL) row may exist per (rel_path,
	// name); multiple soft-deleted rows for the same name are allowed.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_files_live_path_name ON files(rel_path_id, name) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_original_hash ON files(original_hash_id)`,

	`CREATE TABLE IF NOT EXISTS file_keywords (
		file_id    INTEGER NOT NULL REFERENCES files(id),
		keyword_id INTEGER NOT NULL REFERENCES keywords(id),
		PRIMARY KEY (file_id, keyword_id)
	)`,

	`CREATE TABLE IF NOT EXISTS file_dates (
		id      INTEGER PRIMARY KEY,
		file_id INTEGER NOT NULL REFERENCES files(id),
		field_id INTEGER NOT NULL REFERENCES metadata_fields(id),
		value   INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_file_dates_file_field ON file_dates(file_id, field_id)`,

	`CREATE TABLE IF NOT EXISTS path_priorities (
		id        INTEGER PRIMARY KEY,
		path_a_id INTEGER NOT NULL REFERENCES rel_paths(id),
		path_b_id INTEGER NOT NULL REFERENCES rel_paths(id),
		winner_id INTEGER NOT NULL REFERENCES rel_paths(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_path_priorities_pair ON path_priorities(path_a_id, path_b_id)`,
}
