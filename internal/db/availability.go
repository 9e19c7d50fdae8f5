package db

import (
	"time"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/calendar"
)

// Availability is one member's vote on one day. The unique index makes the
// upsert atomic; rows are hard-deleted so a cleared day has no row at all.
type Availability struct {
	ID        uint                `gorm:"primarykey"`
	TripID    uint                `gorm:"not null;uniqueIndex:idx_availability_trip_user_date,priority:1;index"`
	UserID    uint                `gorm:"not null;uniqueIndex:idx_availability_trip_user_date,priority:2"`
	Date      calendar.Day        `gorm:"not null;uniqueIndex:idx_availability_trip_user_date,priority:3"`
	Status    availability.Status `gorm:"size:16;not null"`
	User      User                `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table the unique index belongs to.
func (Availability) TableName() string {
	return "availabilities"
}
