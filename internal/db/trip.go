package db

import (
	"gorm.io/gorm"

	"github.com/tripsync/internal/calendar"
)

// Trip is a planned journey. StartDate..EndDate is the travel window that
// availability voting is restricted to.
type Trip struct {
	gorm.Model
	Name        string       `gorm:"not null"`
	Destination string       `gorm:"not null"`
	OwnerID     uint         `gorm:"index;not null"`
	Owner       User         `gorm:"constraint:OnDelete:CASCADE"`
	StartDate   calendar.Day `gorm:"not null"`
	EndDate     calendar.Day `gorm:"not null"`
	PlanText    string
	Members     []TripMember `gorm:"constraint:OnDelete:CASCADE"`
}

// TripMember links a user to a trip. The owner is always a member.
type TripMember struct {
	ID     uint `gorm:"primarykey"`
	TripID uint `gorm:"not null;uniqueIndex:idx_trip_member"`
	UserID uint `gorm:"not null;uniqueIndex:idx_trip_member;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`
}
