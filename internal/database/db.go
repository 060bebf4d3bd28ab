package database

import (
	"context"
	"log"

	"tracker/internal/config"
	"tracker/internal/model"
	"tracker/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError lets duplicate-key violations surface as
// gorm.ErrDuplicatedKey, which the services treat as the authoritative
// conflict signal.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the three tracker tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.LocationSample{},
	)
}

// SeedAdmin inserts the bootstrap admin account when no users exist.
// Runs once at startup; a populated users table makes it a no-op.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		ID:           uuid.New(),
		Username:     cfg.Username,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("seeded initial admin user %q", cfg.Username)
	return nil
}
