package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/auth"
	"github.com/reviewdb-dev/reviewdb/internal/handlers"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/reviewdb-dev/reviewdb/internal/router"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := ensureAdminUser(); err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	handlers.InitMailer()

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminUser creates the initial admin from ADMIN_USERNAME/ADMIN_EMAIL
// when no user holds that username yet.
func ensureAdminUser() error {
	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")

	if username == "" || email == "" {
		return nil
	}

	var user models.User

	err := db.DB.Where("username = ?", username).First(&user).Error

	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleAdmin,
	}

	return db.DB.Create(&admin).Error
}
