package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/calendar"
	"github.com/tripsync/internal/db"
)

var pinCategories = map[string]bool{
	db.PinRestaurant: true,
	db.PinAttraction: true,
	db.PinHotel:      true,
	db.PinActivity:   true,
	db.PinOther:      true,
}

// PinService manages map pins. Any member may read and create; only the
// creator may change or delete a pin.
type PinService struct {
	db    *gorm.DB
	guard availability.AccessGuard
}

// PinInput is the editable part of a pin. Lat, Lng and Title are required.
type PinInput struct {
	Lat         *float64
	Lng         *float64
	Title       string
	Description string
	Category    string
	Day         string
}

// NewPinService constructs PinService.
func NewPinService(gdb *gorm.DB, guard availability.AccessGuard) *PinService {
	return &PinService{db: gdb, guard: guard}
}

// List returns the trip's pins, optionally only those on day.
func (s *PinService) List(ctx context.Context, tripID, callerID uint, day string) ([]db.Pin, error) {
	var filter *calendar.Day
	if strings.TrimSpace(day) != "" {
		parsed, err := calendar.Parse(day)
		if err != nil {
			return nil, invalidField("day", "must be a YYYY-MM-DD date")
		}
		filter = &parsed
	}

	if _, err := s.authorize(ctx, tripID, callerID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Preload("CreatedBy").Where("trip_id = ?", tripID)
	if filter != nil {
		query = query.Where("day = ?", *filter)
	}

	var pins []db.Pin
	if err := query.Order("created_at ASC").Find(&pins).Error; err != nil {
		return nil, fmt.Errorf("list pins: %w", err)
	}
	return pins, nil
}

// Create adds a pin on behalf of callerID.
func (s *PinService) Create(ctx context.Context, tripID, callerID uint, input PinInput) (*db.Pin, error) {
	pin := db.Pin{TripID: tripID, CreatedByID: callerID}
	if err := applyPinInput(&pin, input); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, tripID, callerID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("CreatedBy").Create(&pin).Error; err != nil {
		return nil, fmt.Errorf("create pin: %w", err)
	}
	return s.get(ctx, tripID, pin.ID)
}

// Update replaces a pin's fields. Creator only.
func (s *PinService) Update(ctx context.Context, tripID, pinID, callerID uint, input PinInput) (*db.Pin, error) {
	pin, err := s.owned(ctx, tripID, pinID, callerID)
	if err != nil {
		return nil, err
	}
	if err := applyPinInput(pin, input); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("CreatedBy").Save(pin).Error; err != nil {
		return nil, fmt.Errorf("update pin: %w", err)
	}
	return s.get(ctx, tripID, pin.ID)
}

// Delete removes a pin. Creator only.
func (s *PinService) Delete(ctx context.Context, tripID, pinID, callerID uint) error {
	pin, err := s.owned(ctx, tripID, pinID, callerID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&db.Pin{}, pin.ID).Error; err != nil {
		return fmt.Errorf("delete pin: %w", err)
	}
	return nil
}

func (s *PinService) authorize(ctx context.Context, tripID, callerID uint) (availability.Trip, error) {
	trip, access, err := s.guard.CanAccess(ctx, tripID, callerID)
	if err != nil {
		return availability.Trip{}, err
	}
	if !access.Read {
		return availability.Trip{}, fmt.Errorf("%w: user %d on trip %d", availability.ErrAccessDenied, callerID, tripID)
	}
	return trip, nil
}

func (s *PinService) owned(ctx context.Context, tripID, pinID, callerID uint) (*db.Pin, error) {
	if _, err := s.authorize(ctx, tripID, callerID); err != nil {
		return nil, err
	}
	pin, err := s.get(ctx, tripID, pinID)
	if err != nil {
		return nil, err
	}
	if pin.CreatedByID != callerID {
		return nil, ErrNotPinCreator
	}
	return pin, nil
}

func (s *PinService) get(ctx context.Context, tripID, pinID uint) (*db.Pin, error) {
	var pin db.Pin
	if err := s.db.WithContext(ctx).Preload("CreatedBy").Where("trip_id = ?", tripID).First(&pin, pinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPinNotFound
		}
		return nil, fmt.Errorf("get pin: %w", err)
	}
	return &pin, nil
}

func applyPinInput(pin *db.Pin, input PinInput) error {
	title := strings.TrimSpace(input.Title)
	switch {
	case input.Lat == nil:
		return invalidField("lat", "is required")
	case input.Lng == nil:
		return invalidField("lng", "is required")
	case title == "":
		return invalidField("title", "is required")
	case *input.Lat < -90 || *input.Lat > 90:
		return invalidField("lat", "must be between -90 and 90")
	case *input.Lng < -180 || *input.Lng > 180:
		return invalidField("lng", "must be between -180 and 180")
	}

	category := strings.ToLower(strings.TrimSpace(input.Category))
	if category == "" {
		category = db.PinOther
	}
	if !pinCategories[category] {
		return invalidField("category", "must be one of restaurant, attraction, hotel, activity, other")
	}

	var day *calendar.Day
	if strings.TrimSpace(input.Day) != "" {
		parsed, err := calendar.Parse(input.Day)
		if err != nil {
			return invalidField("day", "must be a YYYY-MM-DD date")
		}
		day = &parsed
	}

	pin.Lat = *input.Lat
	pin.Lng = *input.Lng
	pin.Title = title
	pin.Description = strings.TrimSpace(input.Description)
	pin.Category = category
	pin.Day = day
	return nil
}
