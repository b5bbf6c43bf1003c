package repository

import (
	"context"
	"errors"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoticeRepository is the raw notice store. Missing rows are reported as
// apperror.ErrNotFound; every other error is the driver's own.
type NoticeRepository interface {
	Create(ctx context.Context, notice *entity.Notice) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Notice, error)
	FindAll(ctx context.Context) ([]*entity.Notice, error)
	FindByStatus(ctx context.Context, status entity.NoticeStatus, filter entity.NoticeFilter) ([]*entity.Notice, error)
	// Update writes the editable fields and UpdatedAt. Status and transition stamps
	// are left alone.
	Update(ctx context.Context, notice *entity.Notice) error
	// UpdateStatus writes Status and the transition stamps only if the stored status
	// is still from. It reports whether a row changed.
	UpdateStatus(ctx context.Context, notice *entity.Notice, from entity.NoticeStatus) (bool, error)
	DistinctSubjects(ctx context.Context) ([]string, error)
}

type noticeRepository struct {
	db *gorm.DB
}

func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) Create(ctx context.Context, notice *entity.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notice, error) {
	var notice entity.Notice
	if err := r.db.WithContext(ctx).First(&notice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepository) FindAll(ctx context.Context) ([]*entity.Notice, error) {
	var notices []*entity.Notice
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&notices).Error; err != nil {
		return nil, err
	}
	return notices, nil
}

func (r *noticeRepository) FindByStatus(ctx context.Context, status entity.NoticeStatus, filter entity.NoticeFilter) ([]*entity.Notice, error) {
	var notices []*entity.Notice
	query := r.db.WithContext(ctx).Where("status = ?", status)

	if filter.Category != nil && *filter.Category != "" {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Urgency != nil && *filter.Urgency != "" {
		query = query.Where("urgency = ?", *filter.Urgency)
	}
	if filter.Subject != nil && *filter.Subject != "" {
		query = query.Where("subject = ?", *filter.Subject)
	}
	if filter.Dependency != nil {
		query = query.Where("dependency = ?", *filter.Dependency)
	}

	if err := query.Order("created_at DESC").Find(&notices).Error; err != nil {
		return nil, err
	}
	return notices, nil
}

func (r *noticeRepository) Update(ctx context.Context, notice *entity.Notice) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Notice{}).
		Where("id = ?", notice.ID).
		Updates(map[string]interface{}{
			"title":           notice.Title,
			"description":     notice.Description,
			"category":        notice.Category,
			"urgency":         notice.Urgency,
			"subject":         notice.Subject,
			"dependency":      notice.Dependency,
			"deadline":        notice.Deadline,
			"additional_info": notice.AdditionalInfo,
			"updated_at":      notice.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *noticeRepository) UpdateStatus(ctx context.Context, notice *entity.Notice, from entity.NoticeStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Notice{}).
		Where("id = ? AND status = ?", notice.ID, from).
		Updates(map[string]interface{}{
			"status":      notice.Status,
			"hidden_at":   notice.HiddenAt,
			"restored_at": notice.RestoredAt,
			"expired_at":  notice.ExpiredAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *noticeRepository) DistinctSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := r.db.WithContext(ctx).
		Model(&entity.Notice{}).
		Distinct("subject").
		Where("subject <> ''").
		Order("subject").
		Pluck("subject", &subjects).Error
	return subjects, err
}
