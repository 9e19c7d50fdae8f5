package db

import (
	"gorm.io/gorm"

	"github.com/tripsync/internal/calendar"
)

// Pin categories.
const (
	PinRestaurant = "restaurant"
	PinAttraction = "attraction"
	PinHotel      = "hotel"
	PinActivity   = "activity"
	PinOther      = "other"
)

// Pin is a map marker on a trip, optionally tied to one day.
type Pin struct {
	gorm.Model
	TripID      uint    `gorm:"index;not null"`
	CreatedByID uint    `gorm:"index;not null"`
	CreatedBy   User    `gorm:"constraint:OnDelete:CASCADE"`
	Lat         float64 `gorm:"not null"`
	Lng         float64 `gorm:"not null"`
	Title       string  `gorm:"not null"`
	Description string
	Category    string `gorm:"size:16;not null;default:other"`
	Day         *calendar.Day
}
