package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/internal/modules/notice/dto"
	"github.com/Dnl30T/Avisos-FOA/internal/modules/notice/repository"
	search "github.com/Dnl30T/Avisos-FOA/internal/modules/search/service"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/sanitize"
	"github.com/Dnl30T/Avisos-FOA/pkg/validator"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	subjectsCacheKey = "notices:subjects"
	searchLimit      = 20
)

// Service is the gateway every reader and writer of notices goes through.
type Service interface {
	Create(ctx context.Context, req dto.CreateNoticeRequest) (uuid.UUID, error)
	FetchAll(ctx context.Context) (*GroupedNotices, error)
	// FetchActive returns the active notices matching filter, unordered.
	FetchActive(ctx context.Context, filter entity.NoticeFilter) ([]*entity.Notice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Notice, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateNoticeRequest) error
	SetStatus(ctx context.Context, id uuid.UUID, status entity.NoticeStatus) error
	Hide(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	DistinctSubjects(ctx context.Context) ([]string, error)
	History(ctx context.Context) ([]*entity.Notice, error)
	Search(ctx context.Context, query string) ([]*entity.Notice, error)
}

// GroupedNotices is every notice partitioned by status.
type GroupedNotices struct {
	Active  []*entity.Notice
	Hidden  []*entity.Notice
	Expired []*entity.Notice
}

// Options carries the optional collaborators of the gateway. Zero values disable the
// matching feature.
type Options struct {
	Index       search.NoticeIndex
	Redis       *redis.Client
	SubjectsTTL time.Duration
	Now         func() time.Time
}

type service struct {
	repo        repository.NoticeRepository
	index       search.NoticeIndex
	redisClient *redis.Client
	subjectsTTL time.Duration
	now         func() time.Time
	validate    *playground.Validate
}

func NewService(repo repository.NoticeRepository, opts Options) Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        repo,
		index:       opts.Index,
		redisClient: opts.Redis,
		subjectsTTL: opts.SubjectsTTL,
		now:         now,
		validate:    validator.New(),
	}
}

func (s *service) Create(ctx context.Context, req dto.CreateNoticeRequest) (uuid.UUID, error) {
	req.Title = sanitize.Text(req.Title)
	req.Description = sanitize.Text(req.Description)
	req.Subject = sanitize.Text(req.Subject)
	req.AdditionalInfo = sanitize.Text(req.AdditionalInfo)

	now := s.now()
	fields := s.validateStruct(req)
	if req.Deadline != nil && !req.Deadline.After(now) {
		fields = append(fields, deadlineInPast())
	}
	if len(fields) > 0 {
		return uuid.Nil, apperror.NewValidationError(fields...)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}

	notice := &entity.Notice{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Category:    entity.Category(req.Category),
		Urgency:     entity.Urgency(req.Urgency),
		Subject:     req.Subject,
		Dependency:  req.Dependency,
		Deadline:    utc(req.Deadline),
		Status:      entity.StatusActive,
		CreatedAt:   now,
	}
	if req.AdditionalInfo != "" {
		notice.AdditionalInfo = &req.AdditionalInfo
	}

	if err := s.repo.Create(ctx, notice); err != nil {
		return uuid.Nil, apperror.Store(err)
	}

	s.invalidateSubjects(ctx)
	s.indexNotice(notice)
	return notice.ID, nil
}

func (s *service) FetchAll(ctx context.Context) (*GroupedNotices, error) {
	notices, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Store(err)
	}

	grouped := &GroupedNotices{
		Active:  []*entity.Notice{},
		Hidden:  []*entity.Notice{},
		Expired: []*entity.Notice{},
	}
	for _, n := range notices {
		switch n.Status {
		case entity.StatusActive:
			grouped.Active = append(grouped.Active, n)
		case entity.StatusHidden:
			grouped.Hidden = append(grouped.Hidden, n)
		case entity.StatusExpired:
			grouped.Expired = append(grouped.Expired, n)
		default:
			log.Printf("[notice] notice %s has unknown status %q", n.ID, n.Status)
		}
	}
	return grouped, nil
}

func (s *service) FetchActive(ctx context.Context, filter entity.NoticeFilter) ([]*entity.Notice, error) {
	notices, err := s.repo.FindByStatus(ctx, entity.StatusActive, filter)
	if err != nil {
		return nil, apperror.Store(err)
	}
	return FilterNotices(notices, filter), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notice, error) {
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("notice %s: %w", id, apperror.ErrNotFound)
		}
		return nil, apperror.Store(err)
	}
	return notice, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req dto.UpdateNoticeRequest) error {
	req.Title = sanitizePtr(req.Title)
	req.Description = sanitizePtr(req.Description)
	req.Subject = sanitizePtr(req.Subject)
	req.AdditionalInfo = sanitizePtr(req.AdditionalInfo)

	now := s.now()
	fields := s.validateStruct(req)
	if req.Deadline != nil {
		if req.ClearDeadline {
			fields = append(fields, apperror.FieldError{
				Field:   "deadline",
				Message: "deadline cannot be set and cleared at the same time",
			})
		} else if !req.Deadline.After(now) {
			fields = append(fields, deadlineInPast())
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields...)
	}

	notice, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.Title != nil {
		notice.Title = *req.Title
	}
	if req.Description != nil {
		notice.Description = *req.Description
	}
	if req.Category != nil {
		notice.Category = entity.Category(*req.Category)
	}
	if req.Urgency != nil {
		notice.Urgency = entity.Urgency(*req.Urgency)
	}
	if req.Subject != nil {
		notice.Subject = *req.Subject
	}
	if req.Dependency != nil {
		notice.Dependency = *req.Dependency
	}
	if req.Deadline != nil {
		notice.Deadline = utc(req.Deadline)
	}
	if req.ClearDeadline {
		notice.Deadline = nil
	}
	if req.AdditionalInfo != nil {
		if *req.AdditionalInfo == "" {
			notice.AdditionalInfo = nil
		} else {
			notice.AdditionalInfo = req.AdditionalInfo
		}
	}
	notice.UpdatedAt = &now

	if err := s.repo.Update(ctx, notice); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("notice %s: %w", id, apperror.ErrNotFound)
		}
		return apperror.Store(err)
	}

	s.invalidateSubjects(ctx)
	s.indexNotice(notice)
	return nil
}

// SetStatus applies one lifecycle transition. The write only lands if the stored status
// is still the one that was read, so racing writers cannot undo each other.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status entity.NoticeStatus) error {
	if !status.Valid() {
		return apperror.NewValidationError(apperror.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", status),
		})
	}

	notice, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	from := notice.Status
	if err := notice.TransitionTo(status, s.now()); err != nil {
		return err
	}

	changed, err := s.repo.UpdateStatus(ctx, notice, from)
	if err != nil {
		return apperror.Store(err)
	}
	if !changed {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			return apperror.ErrAlreadyInStatus
		}
		return fmt.Errorf("%w: notice %s moved to %s concurrently", apperror.ErrInvalidTransition, id, current.Status)
	}

	s.indexNotice(notice)
	return nil
}

func (s *service) Hide(ctx context.Context, id uuid.UUID) error {
	return s.SetStatus(ctx, id, entity.StatusHidden)
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) error {
	return s.SetStatus(ctx, id, entity.StatusActive)
}

func (s *service) DistinctSubjects(ctx context.Context) ([]string, error) {
	if subjects, ok := s.cachedSubjects(ctx); ok {
		return subjects, nil
	}

	subjects, err := s.repo.DistinctSubjects(ctx)
	if err != nil {
		return nil, apperror.Store(err)
	}
	if subjects == nil {
		subjects = []string{}
	}
	slices.Sort(subjects)

	s.cacheSubjects(ctx, subjects)
	return subjects, nil
}

// History lists hidden and expired notices, the most recently removed from the feed first.
func (s *service) History(ctx context.Context) ([]*entity.Notice, error) {
	hidden, err := s.repo.FindByStatus(ctx, entity.StatusHidden, entity.NoticeFilter{})
	if err != nil {
		return nil, apperror.Store(err)
	}
	expired, err := s.repo.FindByStatus(ctx, entity.StatusExpired, entity.NoticeFilter{})
	if err != nil {
		return nil, apperror.Store(err)
	}

	history := append(hidden, expired...)
	slices.SortStableFunc(history, func(a, b *entity.Notice) int {
		return leftFeedAt(b).Compare(leftFeedAt(a))
	})
	return history, nil
}

func (s *service) Search(ctx context.Context, query string) ([]*entity.Notice, error) {
	if s.index == nil {
		return nil, apperror.ErrSearchUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewValidationError(apperror.FieldError{Field: "q", Message: "q is required"})
	}

	ids, err := s.index.SearchNotices(ctx, query, searchLimit)
	if err != nil {
		log.Printf("[notice] search for %q failed: %v", query, err)
		return nil, fmt.Errorf("%w: %w", apperror.ErrSearchUnavailable, err)
	}

	notices := make([]*entity.Notice, 0, len(ids))
	for _, id := range ids {
		notice, err := s.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		// The index may lag behind a status change.
		if notice.Status != entity.StatusActive {
			continue
		}
		notices = append(notices, notice)
	}
	return notices, nil
}

func (s *service) validateStruct(v interface{}) []apperror.FieldError {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErr *apperror.ValidationError
	if errors.As(validator.ToAppError(err), &validationErr) {
		return validationErr.Fields
	}
	return []apperror.FieldError{{Field: "body", Message: err.Error()}}
}

func (s *service) indexNotice(notice *entity.Notice) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexNotice(notice); err != nil {
		log.Printf("[notice] failed to index notice %s: %v", notice.ID, err)
	}
}

func (s *service) cachedSubjects(ctx context.Context) ([]string, bool) {
	if s.redisClient == nil || s.subjectsTTL <= 0 {
		return nil, false
	}

	raw, err := s.redisClient.Get(ctx, subjectsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[notice] failed to read subjects cache: %v", err)
		}
		return nil, false
	}

	var subjects []string
	if err := json.Unmarshal(raw, &subjects); err != nil {
		log.Printf("[notice] discarding corrupt subjects cache: %v", err)
		return nil, false
	}
	return subjects, true
}

func (s *service) cacheSubjects(ctx context.Context, subjects []string) {
	if s.redisClient == nil || s.subjectsTTL <= 0 {
		return
	}

	raw, err := json.Marshal(subjects)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, subjectsCacheKey, raw, s.subjectsTTL).Err(); err != nil {
		log.Printf("[notice] failed to cache subjects: %v", err)
	}
}

func (s *service) invalidateSubjects(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, subjectsCacheKey).Err(); err != nil {
		log.Printf("[notice] failed to invalidate subjects cache: %v", err)
	}
}

func deadlineInPast() apperror.FieldError {
	return apperror.FieldError{Field: "deadline", Message: "deadline must be in the future"}
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitize.Text(*s)
	return &clean
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// leftFeedAt falls back to the creation time for rows written before transitions were
// stamped.
func leftFeedAt(n *entity.Notice) time.Time {
	if at := n.LeftFeedAt(); at != nil {
		return *at
	}
	return n.CreatedAt
}
