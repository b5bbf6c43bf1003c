package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const noticeColumns = `id, title, description, category, urgency, subject, dependency,
	deadline, additional_info, status, created_at, updated_at, hidden_at, restored_at, expired_at`

type sqliteNoticeRepository struct {
	db *sqlx.DB
}

// NewSQLiteNoticeRepository stores notices in an embedded SQLite database. The schema
// must already exist (bootstrap.MigrateSQLite).
func NewSQLiteNoticeRepository(db *sqlx.DB) NoticeRepository {
	return &sqliteNoticeRepository{db: db}
}

func (r *sqliteNoticeRepository) Create(ctx context.Context, n *entity.Notice) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		n.ID = id
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notices (`+noticeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Description, n.Category, n.Urgency, n.Subject, n.Dependency,
		n.Deadline, n.AdditionalInfo, n.Status, n.CreatedAt, n.UpdatedAt,
		n.HiddenAt, n.RestoredAt, n.ExpiredAt,
	)
	if err != nil {
		return fmt.Errorf("creating notice: %w", err)
	}
	return nil
}

func (r *sqliteNoticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notice, error) {
	var n entity.Notice
	err := r.db.GetContext(ctx, &n, "SELECT "+noticeColumns+" FROM notices WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting notice %s: %w", id, err)
	}
	return &n, nil
}

func (r *sqliteNoticeRepository) FindAll(ctx context.Context) ([]*entity.Notice, error) {
	var notices []*entity.Notice
	err := r.db.SelectContext(ctx, &notices, "SELECT "+noticeColumns+" FROM notices ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing notices: %w", err)
	}
	return notices, nil
}

func (r *sqliteNoticeRepository) FindByStatus(ctx context.Context, status entity.NoticeStatus, filter entity.NoticeFilter) ([]*entity.Notice, error) {
	where := []string{"status = ?"}
	args := []interface{}{status}

	if filter.Category != nil && *filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Urgency != nil && *filter.Urgency != "" {
		where = append(where, "urgency = ?")
		args = append(args, *filter.Urgency)
	}
	if filter.Subject != nil && *filter.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, *filter.Subject)
	}
	if filter.Dependency != nil {
		where = append(where, "dependency = ?")
		args = append(args, *filter.Dependency)
	}

	query := "SELECT " + noticeColumns + " FROM notices WHERE " +
		strings.Join(where, " AND ") + " ORDER BY created_at DESC"

	var notices []*entity.Notice
	if err := r.db.SelectContext(ctx, &notices, query, args...); err != nil {
		return nil, fmt.Errorf("listing %s notices: %w", status, err)
	}
	return notices, nil
}

func (r *sqliteNoticeRepository) Update(ctx context.Context, n *entity.Notice) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notices SET
			title = ?, description = ?, category = ?, urgency = ?, subject = ?,
			dependency = ?, deadline = ?, additional_info = ?, updated_at = ?
		WHERE id = ?`,
		n.Title, n.Description, n.Category, n.Urgency, n.Subject,
		n.Dependency, n.Deadline, n.AdditionalInfo, n.UpdatedAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating notice %s: %w", n.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating notice %s: %w", n.ID, err)
	}
	if rows == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *sqliteNoticeRepository) UpdateStatus(ctx context.Context, n *entity.Notice, from entity.NoticeStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notices SET
			status = ?, hidden_at = ?, restored_at = ?, expired_at = ?
		WHERE id = ? AND status = ?`,
		n.Status, n.HiddenAt, n.RestoredAt, n.ExpiredAt,
		n.ID, from,
	)
	if err != nil {
		return false, fmt.Errorf("updating status of notice %s: %w", n.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating status of notice %s: %w", n.ID, err)
	}
	return rows > 0, nil
}

func (r *sqliteNoticeRepository) DistinctSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := r.db.SelectContext(ctx, &subjects,
		"SELECT DISTINCT subject FROM notices WHERE subject <> '' ORDER BY subject")
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	return subjects, nil
}
