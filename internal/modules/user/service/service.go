package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/internal/modules/user/dto"
	"github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/ratelimiter"
	"github.com/Dnl30T/Avisos-FOA/pkg/validator"
	playground "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const loginAction = "login"

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)

// SessionChange is delivered to listeners on every sign-in and sign-out. Current is nil
// after a sign-out; Previous is nil for a fresh sign-in.
type SessionChange struct {
	Current  *entity.Principal
	Previous *entity.Principal
}

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, principal *entity.Principal) error
	Authenticate(ctx context.Context, token string) (*entity.Principal, error)
	IsAdmin(principal *entity.Principal) bool
	OnSessionChange(listener func(SessionChange))
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	// LoginThrottle is both the window failures are counted over and the lock length
	// once MaxLoginFailures is reached.
	LoginThrottle    time.Duration
	MaxLoginFailures int
}

type authService struct {
	repo        repository.UserRepository
	authorizer  Authorizer
	revocations RevocationStore
	redisClient *redis.Client
	secret      []byte
	tokenTTL    time.Duration
	throttle    time.Duration
	maxFailures int
	validate    *playground.Validate
	now         func() time.Time

	mu        sync.RWMutex
	listeners []func(SessionChange)
}

func NewAuthService(repo repository.UserRepository, authorizer Authorizer, revocations RevocationStore, redisClient *redis.Client, cfg AuthConfig) AuthService {
	secret := cfg.Secret
	if secret == "" {
		secret = "change-me"
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	maxFailures := cfg.MaxLoginFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}

	return &authService{
		repo:        repo,
		authorizer:  authorizer,
		revocations: revocations,
		redisClient: redisClient,
		secret:      []byte(secret),
		tokenTTL:    ttl,
		throttle:    cfg.LoginThrottle,
		maxFailures: maxFailures,
		validate:    validator.New(),
		now:         time.Now,
	}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		return nil, validator.ToAppError(err)
	}

	if err := s.checkThrottle(ctx, input.Email); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.recordFailure(ctx, input.Email)
			return nil, errInvalidCredentials
		}
		return nil, apperror.Store(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, input.Email)
		return nil, errInvalidCredentials
	}

	token, principal, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	if err := ratelimiter.ClearRateLimit(ctx, s.redisClient, input.Email, loginAction); err != nil {
		log.Printf("[auth] failed to clear login throttle for %s: %v", input.Email, err)
	}
	s.notify(SessionChange{Current: principal})

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		Principal:   principal,
		IsAdmin:     s.IsAdmin(principal),
	}, nil
}

func (s *authService) Logout(ctx context.Context, principal *entity.Principal) error {
	if principal == nil {
		return apperror.ErrUnauthorized
	}
	if err := s.revocations.Revoke(ctx, principal.SessionID, principal.ExpiresAt); err != nil {
		return apperror.Store(err)
	}
	s.notify(SessionChange{Previous: principal})
	return nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*entity.Principal, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", apperror.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: invalid token claims", apperror.ErrUnauthorized)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Store(err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session has ended", apperror.ErrUnauthorized)
	}

	return &entity.Principal{
		UserID:    userID,
		Email:     claims.Email,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) IsAdmin(principal *entity.Principal) bool {
	if s.authorizer == nil {
		return false
	}
	return s.authorizer.IsAdmin(principal)
}

func (s *authService) OnSessionChange(listener func(SessionChange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *authService) notify(change SessionChange) {
	s.mu.RLock()
	listeners := make([]func(SessionChange), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}

func (s *authService) generateToken(user *entity.User) (string, *entity.Principal, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	sessionID := uuid.NewString()

	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, &entity.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// checkThrottle rejects a login while the email is locked after repeated failures.
// Redis trouble lets the attempt through.
func (s *authService) checkThrottle(ctx context.Context, email string) error {
	ttl, err := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, email, loginAction)
	if err != nil {
		log.Printf("[auth] failed to read login throttle for %s: %v", email, err)
		return nil
	}
	if ttl > 0 {
		return &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("too many login attempts, retry in %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}
	return nil
}

func (s *authService) recordFailure(ctx context.Context, email string) {
	locked, err := ratelimiter.RecordFailure(ctx, s.redisClient, email, loginAction, s.maxFailures, s.throttle)
	if err != nil {
		log.Printf("[auth] failed to record login failure for %s: %v", email, err)
	}
	if locked {
		log.Printf("[auth] %s locked for %s after %d failed logins", email, s.throttle, s.maxFailures)
	}
}
