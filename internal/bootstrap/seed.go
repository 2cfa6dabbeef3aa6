package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minSeedPasswordLen = 8

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Account{},
		&entity.Department{},
		&entity.Classroom{},
		&entity.Subject{},
		&entity.Submission{},
		&entity.Correction{},
		&entity.Request{},
		&entity.Notification{},
		&entity.StoredFile{},
	)
}

// SeedSuperAdmin creates the first SUPER_ADMIN account. It does nothing when
// email is empty or the account already exists.
func SeedSuperAdmin(ctx context.Context, accounts accountRepo.AccountRepository, email, password string, hashCost int) error {
	if email == "" {
		log.Println("[bootstrap] SEED_SUPER_ADMIN_EMAIL not set, skipping seed")
		return nil
	}

	_, err := accounts.FindByEmail(ctx, email)
	if err == nil {
		log.Println("[bootstrap] super admin already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if len(password) < minSeedPasswordLen {
		return fmt.Errorf("SEED_SUPER_ADMIN_PASSWORD must be at least %d characters", minSeedPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return err
	}

	admin := &entity.Account{
		FirstName:    "Super",
		LastName:     "Admin",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entity.RoleSuperAdmin,
	}
	if err := accounts.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("[bootstrap] super admin %s seeded", email)
	return nil
}
