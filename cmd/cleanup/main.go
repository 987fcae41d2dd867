package main

import (
	"log"
	"time"

	"github.com/exam-system/backend/internal/config"
	"github.com/exam-system/backend/internal/database"
	"github.com/exam-system/backend/internal/models"
)

// Deletes refresh tokens that are expired or revoked. Intended to run as a
// periodic job.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	result := db.Where("expires_at < ? OR revoked = ?", time.Now(), true).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		log.Fatal("Failed to delete stale refresh tokens:", result.Error)
	}

	log.Printf("Deleted %d stale refresh tokens", result.RowsAffected)
}
