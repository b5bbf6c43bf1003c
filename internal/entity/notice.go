package entity

import (
	"fmt"
	"time"

	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoticeStatus string

const (
	StatusActive  NoticeStatus = "active"
	StatusHidden  NoticeStatus = "hidden"
	StatusExpired NoticeStatus = "expired"
)

var Statuses = []NoticeStatus{StatusActive, StatusHidden, StatusExpired}

func (s NoticeStatus) Valid() bool {
	switch s {
	case StatusActive, StatusHidden, StatusExpired:
		return true
	}
	return false
}

// transitions is the complete lifecycle graph. Expired notices never leave expired.
var transitions = map[NoticeStatus][]NoticeStatus{
	StatusActive: {StatusHidden, StatusExpired},
	StatusHidden: {StatusActive},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to NoticeStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	urgencyBumpWindow  = 24 * time.Hour
	deadlineNearWindow = 48 * time.Hour
)

type Notice struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id" db:"id"`
	Title          string       `gorm:"size:200;not null" json:"title" db:"title"`
	Description    string       `gorm:"type:text;not null" json:"description" db:"description"`
	Category       Category     `gorm:"size:30;not null;index" json:"category" db:"category"`
	Urgency        Urgency      `gorm:"size:10;not null" json:"urgency" db:"urgency"`
	Subject        string       `gorm:"size:100;not null;index" json:"subject" db:"subject"`
	Dependency     bool         `gorm:"not null;default:false" json:"dependency" db:"dependency"`
	Deadline       *time.Time   `gorm:"index" json:"deadline,omitempty" db:"deadline"`
	AdditionalInfo *string      `gorm:"type:text" json:"additional_info,omitempty" db:"additional_info"`
	Status         NoticeStatus `gorm:"size:10;not null;default:active;index" json:"status" db:"status"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time   `gorm:"autoUpdateTime:false" json:"updated_at,omitempty" db:"updated_at"`
	HiddenAt       *time.Time   `json:"hidden_at,omitempty" db:"hidden_at"`
	RestoredAt     *time.Time   `json:"restored_at,omitempty" db:"restored_at"`
	ExpiredAt      *time.Time   `json:"expired_at,omitempty" db:"expired_at"`
}

func (n *Notice) TableName() string {
	return "notices"
}

func (n *Notice) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// TransitionTo moves the notice along one lifecycle edge and stamps the matching
// timestamp. HiddenAt survives a restore.
func (n *Notice) TransitionTo(to NoticeStatus, at time.Time) error {
	if n.Status == to {
		return apperror.ErrAlreadyInStatus
	}
	if !CanTransition(n.Status, to) {
		return fmt.Errorf("%w: %s -> %s", apperror.ErrInvalidTransition, n.Status, to)
	}

	switch to {
	case StatusHidden:
		n.HiddenAt = &at
	case StatusExpired:
		n.ExpiredAt = &at
	case StatusActive:
		n.RestoredAt = &at
	}
	n.Status = to
	return nil
}

func (n *Notice) HasDeadline() bool {
	return n.Deadline != nil
}

// DeadlinePassed reports whether the deadline lies strictly before now.
func (n *Notice) DeadlinePassed(now time.Time) bool {
	return n.Deadline != nil && n.Deadline.Before(now)
}

// EffectiveUrgency raises the urgency one level when the deadline is less than a day away.
func (n *Notice) EffectiveUrgency(now time.Time) Urgency {
	if n.Deadline == nil {
		return n.Urgency
	}
	left := n.Deadline.Sub(now)
	if left > 0 && left <= urgencyBumpWindow {
		return n.Urgency.Raise()
	}
	return n.Urgency
}

// IsDeadlineNear is true while the deadline is less than two days away.
func (n *Notice) IsDeadlineNear(now time.Time) bool {
	if n.Deadline == nil {
		return false
	}
	left := n.Deadline.Sub(now)
	return left > 0 && left <= deadlineNearWindow
}

// LeftFeedAt is when the notice stopped being active, or nil for active notices.
func (n *Notice) LeftFeedAt() *time.Time {
	switch n.Status {
	case StatusHidden:
		return n.HiddenAt
	case StatusExpired:
		return n.ExpiredAt
	}
	return nil
}

// NoticeFilter narrows a notice list. A nil or empty field imposes no constraint.
type NoticeFilter struct {
	Category   *Category
	Urgency    *Urgency
	Subject    *string
	Dependency *bool
}

func (f NoticeFilter) IsEmpty() bool {
	return f.category() == "" && f.urgency() == "" && f.subject() == "" && f.Dependency == nil
}

func (f NoticeFilter) Matches(n *Notice) bool {
	if c := f.category(); c != "" && n.Category != c {
		return false
	}
	if u := f.urgency(); u != "" && n.Urgency != u {
		return false
	}
	if s := f.subject(); s != "" && n.Subject != s {
		return false
	}
	if f.Dependency != nil && n.Dependency != *f.Dependency {
		return false
	}
	return true
}

func (f NoticeFilter) category() Category {
	if f.Category == nil {
		return ""
	}
	return *f.Category
}

func (f NoticeFilter) urgency() Urgency {
	if f.Urgency == nil {
		return ""
	}
	return *f.Urgency
}

func (f NoticeFilter) subject() string {
	if f.Subject == nil {
		return ""
	}
	return *f.Subject
}
