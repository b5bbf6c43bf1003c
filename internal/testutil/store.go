package testutil

import (
	"testing"

	"github.com/Dnl30T/Avisos-FOA/internal/bootstrap"
	noticeRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/repository"
	userRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	"github.com/Dnl30T/Avisos-FOA/pkg/database"
	"github.com/jmoiron/sqlx"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It is closed when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	if err := bootstrap.MigrateSQLite(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

func NewNoticeRepository(t *testing.T) noticeRepo.NoticeRepository {
	t.Helper()
	return noticeRepo.NewSQLiteNoticeRepository(NewTestDB(t))
}

func NewUserRepository(t *testing.T) userRepo.UserRepository {
	t.Helper()
	return userRepo.NewSQLiteUserRepository(NewTestDB(t))
}
