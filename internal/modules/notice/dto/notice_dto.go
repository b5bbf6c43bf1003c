package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/google/uuid"
)

type CreateNoticeRequest struct {
	Title          string     `json:"title" binding:"required,min=5,max=200"`
	Description    string     `json:"description" binding:"required,min=10,max=5000"`
	Category       string     `json:"category" binding:"required,oneof=exams assignments announcements news promotion"`
	Urgency        string     `json:"urgency" binding:"required,oneof=low medium high"`
	Subject        string     `json:"subject" binding:"required,max=100"`
	Dependency     bool       `json:"dependency"`
	Deadline       *time.Time `json:"deadline"`
	AdditionalInfo string     `json:"additional_info" binding:"max=2000"`
}

// UpdateNoticeRequest carries a partial edit: nil fields are left as they are.
type UpdateNoticeRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=5,max=200"`
	Description    *string    `json:"description" binding:"omitempty,min=10,max=5000"`
	Category       *string    `json:"category" binding:"omitempty,oneof=exams assignments announcements news promotion"`
	Urgency        *string    `json:"urgency" binding:"omitempty,oneof=low medium high"`
	Subject        *string    `json:"subject" binding:"omitempty,min=1,max=100"`
	Dependency     *bool      `json:"dependency"`
	Deadline       *time.Time `json:"deadline"`
	ClearDeadline  bool       `json:"clear_deadline"`
	AdditionalInfo *string    `json:"additional_info" binding:"omitempty,max=2000"`
}

// NoticeFilterQuery is the feed's query string. Empty values impose no constraint.
type NoticeFilterQuery struct {
	Category   string `form:"category" binding:"omitempty,oneof=exams assignments announcements news promotion"`
	Urgency    string `form:"urgency" binding:"omitempty,oneof=low medium high"`
	Subject    string `form:"subject"`
	Dependency string `form:"dependency"`
}

// ToFilter coerces the raw query values into a typed filter.
func (q NoticeFilterQuery) ToFilter() (entity.NoticeFilter, error) {
	var f entity.NoticeFilter
	if q.Category != "" {
		c := entity.Category(q.Category)
		f.Category = &c
	}
	if q.Urgency != "" {
		u := entity.Urgency(q.Urgency)
		f.Urgency = &u
	}
	if s := strings.TrimSpace(q.Subject); s != "" {
		f.Subject = &s
	}
	if q.Dependency != "" {
		dep, err := strconv.ParseBool(q.Dependency)
		if err != nil {
			return f, apperror.NewValidationError(apperror.FieldError{
				Field:   "dependency",
				Message: "dependency must be true or false",
			})
		}
		f.Dependency = &dep
	}
	return f, nil
}

type SearchQuery struct {
	Q string `form:"q" binding:"required,max=200"`
}

type NoticeResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	Urgency          string     `json:"urgency"`
	EffectiveUrgency string     `json:"effective_urgency"`
	Subject          string     `json:"subject"`
	Dependency       bool       `json:"dependency"`
	Deadline         *time.Time `json:"deadline"`
	DeadlineNear     bool       `json:"deadline_near"`
	AdditionalInfo   *string    `json:"additional_info,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	HiddenAt         *time.Time `json:"hidden_at,omitempty"`
	RestoredAt       *time.Time `json:"restored_at,omitempty"`
	ExpiredAt        *time.Time `json:"expired_at,omitempty"`
}

func NewNoticeResponse(n *entity.Notice, now time.Time) NoticeResponse {
	return NoticeResponse{
		ID:               n.ID,
		Title:            n.Title,
		Description:      n.Description,
		Category:         string(n.Category),
		Urgency:          string(n.Urgency),
		EffectiveUrgency: string(n.EffectiveUrgency(now)),
		Subject:          n.Subject,
		Dependency:       n.Dependency,
		Deadline:         n.Deadline,
		DeadlineNear:     n.IsDeadlineNear(now),
		AdditionalInfo:   n.AdditionalInfo,
		Status:           string(n.Status),
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
		HiddenAt:         n.HiddenAt,
		RestoredAt:       n.RestoredAt,
		ExpiredAt:        n.ExpiredAt,
	}
}

func NewNoticeResponses(notices []*entity.Notice, now time.Time) []NoticeResponse {
	out := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, NewNoticeResponse(n, now))
	}
	return out
}

type ListMeta struct {
	TotalItems int `json:"total_items"`
}

type NoticeListResponse struct {
	Data []NoticeResponse `json:"data"`
	Meta ListMeta         `json:"meta"`
}

type StatusCounts struct {
	Active  int `json:"active"`
	Hidden  int `json:"hidden"`
	Expired int `json:"expired"`
}

type GroupedNoticesResponse struct {
	Active  []NoticeResponse `json:"active"`
	Hidden  []NoticeResponse `json:"hidden"`
	Expired []NoticeResponse `json:"expired"`
	Counts  StatusCounts     `json:"counts"`
}

type CreateNoticeResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

type SubjectsResponse struct {
	Data []string `json:"data"`
}

type SweepResponse struct {
	Checked int         `json:"checked"`
	Expired []uuid.UUID `json:"expired"`
	Failed  int         `json:"failed"`
}
