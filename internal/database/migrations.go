package database

import (
	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Client{},
		&models.Hunt{},
		&models.CronJob{},
		&models.StoreEntry{},
		&models.Notification{},
		&models.GlobalNotification{},
	)
}

// SeedData inserts demo subjects so a fresh install has something to
// request access against. Existing rows are left untouched.
func SeedData(db *gorm.DB) error {
	clients := []models.Client{
		{ID: "C.1000000000000000", Hostname: "workstation-01", OS: "linux"},
		{ID: "C.2000000000000000", Hostname: "fileserver-02", OS: "windows"},
	}
	for _, client := range clients {
		if err := db.Where(models.Client{ID: client.ID}).Attrs(client).FirstOrCreate(&models.Client{}).Error; err != nil {
			return err
		}
	}

	hunt := models.Hunt{
		ID:          "H.00000001",
		Description: "Baseline browser history sweep",
		Creator:     "system",
		State:       "PAUSED",
	}
	if err := db.Where(models.Hunt{ID: hunt.ID}).Attrs(hunt).FirstOrCreate(&models.Hunt{}).Error; err != nil {
		return err
	}

	cronJob := models.CronJob{
		ID:       "InterrogateClients",
		Schedule: "@weekly",
		Flow:     "Interrogate",
		Enabled:  true,
	}
	if err := db.Where(models.CronJob{ID: cronJob.ID}).Attrs(cronJob).FirstOrCreate(&models.CronJob{}).Error; err != nil {
		return err
	}

	return nil
}
