package main

import (
	"log"
	"os"
	"time"

	"aidly-widget-be/internal/model"
	"aidly-widget-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions GORM AutoMigrate doesn't handle
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.RenewalToken{},
		&model.Workspace{},
		&model.Bot{},
		&model.WidgetToken{},
		&model.ChatSession{},
		&model.Message{},
		&model.SystemLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Seed the bootstrap admin account when requested
	if username := os.Getenv("SEED_ADMIN_USERNAME"); username != "" {
		seedAdmin(db, username, os.Getenv("SEED_ADMIN_PASSWORD"))
	}

	log.Println("Migration complete.")
}

func seedAdmin(db *gorm.DB, username, password string) {
	if password == "" {
		log.Fatal("Error: SEED_ADMIN_PASSWORD must be set with SEED_ADMIN_USERNAME")
	}

	var count int64
	db.Model(&model.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		log.Printf("Admin %q already exists, skipping seed", username)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash admin password: %v", err)
	}

	admin := &model.User{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsAdmin:      true,
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(admin).Error; err != nil {
		log.Fatalf("Error: Failed to seed admin: %v", err)
	}
	log.Printf("Seeded admin account %q", username)
}
