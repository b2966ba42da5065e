package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	pginfra "github.com/oksasatya/user-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// Seeds a verified development user. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool)

	hash, err := helpers.HashPassword("DevSeed#2024", cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &entity.User{
		Email:     "dev@example.com",
		Password:  hash,
		FirstName: "Dev",
		LastName:  "User",
	}
	if err := repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrEmailExists) {
			log.Printf("seed user already exists, skipping")
			return
		}
		log.Fatalf("create seed user: %v", err)
	}
	if _, err := repo.SetVerified(ctx, u.ID); err != nil {
		log.Fatalf("verify seed user: %v", err)
	}
	log.Printf("seeded user %s (%s)", u.ID, u.Email)
}
