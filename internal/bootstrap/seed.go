package bootstrap

import (
	"context"
	"errors"
	"log"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	userRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

// SeedAdminUsers creates an account for every allow-listed email that has none yet,
// all sharing password. Existing accounts are left untouched.
func SeedAdminUsers(ctx context.Context, users userRepo.UserRepository, emails []string, password string) error {
	if password == "" {
		log.Println("[bootstrap] SEED_ADMIN_PASSWORD is empty, skipping admin seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, email := range emails {
		_, err := users.FindByEmail(ctx, email)
		if err == nil {
			log.Printf("[bootstrap] admin %s already exists, skipping seed", email)
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		admin := &entity.User{
			Email:        email,
			PasswordHash: string(hashedPasswordBytes),
			DisplayName:  "Administrator",
		}
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
		log.Printf("[bootstrap] admin %s seeded successfully", email)
	}

	return nil
}
