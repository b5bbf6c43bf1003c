package bootstrap

import (
	"fmt"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Notice{},
	)
}

type migration struct {
	version int
	sql     string
}

// sqliteMigrations must stay sequential from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notices (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	category        TEXT NOT NULL,
	urgency         TEXT NOT NULL CHECK(urgency IN ('low', 'medium', 'high')),
	subject         TEXT NOT NULL,
	dependency      INTEGER NOT NULL DEFAULT 0 CHECK(dependency IN (0, 1)),
	deadline        DATETIME,
	additional_info TEXT,
	status          TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'hidden', 'expired')),
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME,
	hidden_at       DATETIME,
	restored_at     DATETIME,
	expired_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_notices_status ON notices(status);
CREATE INDEX IF NOT EXISTS idx_notices_category ON notices(category);
CREATE INDEX IF NOT EXISTS idx_notices_subject ON notices(subject);
CREATE INDEX IF NOT EXISTS idx_notices_deadline ON notices(deadline);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// MigrateSQLite applies every migration newer than the recorded schema version.
func MigrateSQLite(db *sqlx.DB) error {
	currentVersion := 0

	var tableCount int
	err := db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		if err := db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}
