package database

import (
	"errors"
	"os"

	"github.com/thereayou/globalchat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	d.db = db

	return nil
}

// Migrate выполняет автомиграцию всех моделей
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.Destination{},
		&models.RoomPermission{},
		&models.RelayedMessage{},
		&models.Category{},
		&models.CategorySubscription{},
		&models.AdminUser{},
	)
}
