package dto

import (
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	Principal   *entity.Principal `json:"principal"`
	IsAdmin     bool              `json:"is_admin"`
}

type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	IsAdmin   bool      `json:"is_admin"`
}

func NewSessionResponse(p *entity.Principal, isAdmin bool) SessionResponse {
	return SessionResponse{
		UserID:    p.UserID.String(),
		Email:     p.Email,
		ExpiresAt: p.ExpiresAt,
		IsAdmin:   isAdmin,
	}
}
