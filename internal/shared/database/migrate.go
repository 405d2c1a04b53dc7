package database

import (
	"roomly/internal/pricing"
	"roomly/internal/reservations"
	"roomly/internal/rooms"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&rooms.Room{},
		&rooms.RoomAvailabilityOverride{},
		&pricing.RoomPricingRule{},
		&pricing.HolidayCalendar{},
		&pricing.RoomPriceCache{},
	}
	models = append(models, reservations.Models()...)
	return db.AutoMigrate(models...)
}
