package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account able to sign in. Administrative capability is not stored here;
// it is granted by the configured allow-list.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" db:"id"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email" db:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-" db:"password_hash"`
	DisplayName  string    `gorm:"size:100" json:"display_name" db:"display_name"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at" db:"created_at"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Principal is the identity behind an authenticated session.
type Principal struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
