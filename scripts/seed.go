//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/database"
	"github.com/hugh/go-contacts/pkg/config"
	"github.com/hugh/go-contacts/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	ctx := context.Background()

	db, err := database.Connect(&cfg.Database, logger, false)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(ctx, db, logger); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create a verified demo user
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Expiry())
	if err != nil {
		log.Fatalf("failed to create jwt service: %v", err)
	}
	authService := auth.NewService(db, jwtService, nil, nil, logger)

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "demo123!"
	}

	user, err := authService.Register(ctx, auth.RegisterInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Printf("Demo user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create demo user: %v", err)
	}
	if _, err := authService.VerifyEmail(ctx, user.ID.String()); err != nil {
		log.Fatalf("failed to verify demo user: %v", err)
	}

	// A few contacts, one with a birthday later this week
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())
	soon := time.Now().AddDate(-30, 0, 3)
	seeds := []contacts.Fields{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+441234567890", Birthday: time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Phone: "+441234567891", Birthday: time.Date(1912, 6, 23, 0, 0, 0, 0, time.UTC)},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Phone: "+12025550123", Birthday: time.Date(soon.Year(), soon.Month(), soon.Day(), 0, 0, 0, 0, time.UTC)},
	}
	for _, f := range seeds {
		if _, err := repo.Create(ctx, user.ID, f); err != nil {
			log.Fatalf("failed to create contact: %v", err)
		}
	}

	token, err := jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Printf("Demo user created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Contacts: %d\n", len(seeds))
	fmt.Printf("Token: %s\n", token)
}
