package bootstrap

import (
	"context"
	"testing"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	userRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateSQLite_Idempotent(t *testing.T) {
	db := openDB(t)

	require.NoError(t, MigrateSQLite(db))
	require.NoError(t, MigrateSQLite(db))

	var version int
	require.NoError(t, db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	assert.Equal(t, len(sqliteMigrations), version)

	var rows int
	require.NoError(t, db.Get(&rows, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, len(sqliteMigrations), rows)
}

func TestMigrateSQLite_EnforcesStatus(t *testing.T) {
	db := openDB(t)
	require.NoError(t, MigrateSQLite(db))

	_, err := db.Exec(`INSERT INTO notices (id, title, description, category, urgency, subject, status, created_at)
		VALUES ('x', 't', 'd', 'exams', 'low', 'Math', 'archived', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestSeedAdminUsers(t *testing.T) {
	db := openDB(t)
	require.NoError(t, MigrateSQLite(db))
	users := userRepo.NewSQLiteUserRepository(db)
	ctx := context.Background()

	existingHash, err := bcrypt.GenerateFromPassword([]byte("kept-password"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &entity.User{Email: "head@school.edu", PasswordHash: string(existingHash)}))

	require.NoError(t, SeedAdminUsers(ctx, users, []string{"head@school.edu", "deputy@school.edu"}, "seeded-password"))

	head, err := users.FindByEmail(ctx, "head@school.edu")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(head.PasswordHash), []byte("kept-password")),
		"existing accounts keep their password")

	deputy, err := users.FindByEmail(ctx, "deputy@school.edu")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(deputy.PasswordHash), []byte("seeded-password")))
}

func TestSeedAdminUsers_NoPassword(t *testing.T) {
	db := openDB(t)
	require.NoError(t, MigrateSQLite(db))
	users := userRepo.NewSQLiteUserRepository(db)

	require.NoError(t, SeedAdminUsers(context.Background(), users, []string{"head@school.edu"}, ""))

	_, err := users.FindByEmail(context.Background(), "head@school.edu")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
