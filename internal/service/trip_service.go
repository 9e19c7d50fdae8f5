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

// TripService manages trips, their members and plan text. It is also the
// availability.AccessGuard: owners and members may read and write.
type TripService struct {
	db *gorm.DB
}

var _ availability.AccessGuard = (*TripService)(nil)

// TripInput is used for both create and update.
type TripInput struct {
	Name        string
	Destination string
	StartDate   string
	EndDate     string
}

// Plan is a trip's free-form plan with its rendered form.
type Plan struct {
	Text string
	HTML string
}

// NewTripService constructs TripService.
func NewTripService(gdb *gorm.DB) *TripService {
	return &TripService{db: gdb}
}

// CanAccess loads the trip first so a missing trip is NotFound for everyone.
func (s *TripService) CanAccess(ctx context.Context, tripID, callerID uint) (availability.Trip, availability.Access, error) {
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return availability.Trip{}, availability.Access{}, err
	}

	view := availability.Trip{
		ID:      trip.ID,
		OwnerID: trip.OwnerID,
		Window:  calendar.Range{Start: trip.StartDate, End: trip.EndDate},
		Members: make([]availability.Member, 0, len(trip.Members)),
	}
	for _, member := range trip.Members {
		view.Members = append(view.Members, availability.Member{
			ID:    member.UserID,
			Name:  member.User.Name,
			Email: member.User.Email,
		})
	}

	if isMember(trip, callerID) {
		return view, availability.Access{Read: true, Write: true}, nil
	}
	return view, availability.Access{}, nil
}

// List returns trips the user owns or belongs to, newest first.
func (s *TripService) List(ctx context.Context, userID uint) ([]db.Trip, error) {
	var trips []db.Trip
	memberOf := s.db.Model(&db.TripMember{}).Select("trip_id").Where("user_id = ?", userID)
	if err := s.db.WithContext(ctx).
		Preload("Members", orderMembers).
		Preload("Members.User").
		Preload("Owner").
		Where("owner_id = ? OR id IN (?)", userID, memberOf).
		Order("created_at DESC").
		Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// Get returns the trip if callerID is the owner or a member.
func (s *TripService) Get(ctx context.Context, tripID, callerID uint) (*db.Trip, error) {
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !isMember(trip, callerID) {
		return nil, fmt.Errorf("%w: user %d on trip %d", availability.ErrAccessDenied, callerID, tripID)
	}
	return trip, nil
}

// Create stores a trip with ownerID as owner and first member.
func (s *TripService) Create(ctx context.Context, ownerID uint, input TripInput) (*db.Trip, error) {
	normalized, window, err := validateTripInput(input)
	if err != nil {
		return nil, err
	}

	trip := db.Trip{
		Name:        normalized.Name,
		Destination: normalized.Destination,
		OwnerID:     ownerID,
		StartDate:   window.Start,
		EndDate:     window.End,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Members").Create(&trip).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(&db.TripMember{TripID: trip.ID, UserID: ownerID}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	return s.load(ctx, trip.ID)
}

// Update changes name, destination and window. Owner only.
func (s *TripService) Update(ctx context.Context, tripID, callerID uint, input TripInput) (*db.Trip, error) {
	normalized, window, err := validateTripInput(input)
	if err != nil {
		return nil, err
	}

	trip, err := s.ownedBy(ctx, tripID, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&db.Trip{}).Where("id = ?", trip.ID).Updates(map[string]any{
		"name":        normalized.Name,
		"destination": normalized.Destination,
		"start_date":  window.Start,
		"end_date":    window.End,
	}).Error; err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	return s.load(ctx, tripID)
}

// Delete removes the trip with its members, availability and pins. Owner only.
func (s *TripService) Delete(ctx context.Context, tripID, callerID uint) error {
	if _, err := s.ownedBy(ctx, tripID, callerID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", tripID).Delete(&db.Availability{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("trip_id = ?", tripID).Delete(&db.Pin{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&db.TripMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Trip{}, tripID).Error
	})
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return nil
}

// AddMember invites an existing user by email. Owner only.
func (s *TripService) AddMember(ctx context.Context, tripID, callerID uint, email string) (*db.Trip, error) {
	email = db.NormalizeEmail(email)
	if email == "" {
		return nil, invalidField("email", "is required")
	}

	trip, err := s.ownedBy(ctx, tripID, callerID)
	if err != nil {
		return nil, err
	}

	var user db.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if isMember(trip, user.ID) {
		return nil, ErrAlreadyMember
	}

	if err := s.db.WithContext(ctx).Omit("User").Create(&db.TripMember{TripID: tripID, UserID: user.ID}).Error; err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return s.load(ctx, tripID)
}

// RemoveMember drops a member and their availability. Owner only; the
// owner stays.
func (s *TripService) RemoveMember(ctx context.Context, tripID, callerID, userID uint) (*db.Trip, error) {
	trip, err := s.ownedBy(ctx, tripID, callerID)
	if err != nil {
		return nil, err
	}
	if userID == trip.OwnerID {
		return nil, ErrOwnerNotRemovable
	}
	if !isMember(trip, userID) {
		return nil, ErrUserNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ? AND user_id = ?", tripID, userID).Delete(&db.Availability{}).Error; err != nil {
			return err
		}
		return tx.Where("trip_id = ? AND user_id = ?", tripID, userID).Delete(&db.TripMember{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	return s.load(ctx, tripID)
}

// GetPlan returns the plan text and its HTML. Owner or member.
func (s *TripService) GetPlan(ctx context.Context, tripID, callerID uint) (Plan, error) {
	trip, err := s.Get(ctx, tripID, callerID)
	if err != nil {
		return Plan{}, err
	}
	return renderPlan(trip.PlanText)
}

// SetPlan replaces the plan text. Owner or member.
func (s *TripService) SetPlan(ctx context.Context, tripID, callerID uint, text string) (Plan, error) {
	if _, err := s.Get(ctx, tripID, callerID); err != nil {
		return Plan{}, err
	}
	if err := s.db.WithContext(ctx).Model(&db.Trip{}).Where("id = ?", tripID).Update("plan_text", text).Error; err != nil {
		return Plan{}, fmt.Errorf("update plan: %w", err)
	}
	return renderPlan(text)
}

// ClearPlan empties the plan text.
func (s *TripService) ClearPlan(ctx context.Context, tripID, callerID uint) error {
	_, err := s.SetPlan(ctx, tripID, callerID, "")
	return err
}

func (s *TripService) load(ctx context.Context, tripID uint) (*db.Trip, error) {
	var trip db.Trip
	if err := s.db.WithContext(ctx).
		Preload("Members", orderMembers).
		Preload("Members.User").
		Preload("Owner").
		First(&trip, tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("%w: load trip: %w", availability.ErrStoreUnavailable, err)
	}
	return &trip, nil
}

func (s *TripService) ownedBy(ctx context.Context, tripID, callerID uint) (*db.Trip, error) {
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OwnerID != callerID {
		return nil, ErrNotTripOwner
	}
	return trip, nil
}

func orderMembers(tx *gorm.DB) *gorm.DB {
	return tx.Order("id ASC")
}

func isMember(trip *db.Trip, userID uint) bool {
	if trip.OwnerID == userID {
		return true
	}
	for _, member := range trip.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

func renderPlan(text string) (Plan, error) {
	html, err := RenderMarkdown(text)
	if err != nil {
		return Plan{}, fmt.Errorf("render plan: %w", err)
	}
	return Plan{Text: text, HTML: html}, nil
}

func validateTripInput(input TripInput) (TripInput, calendar.Range, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Destination = strings.TrimSpace(input.Destination)
	if input.Name == "" {
		return input, calendar.Range{}, invalidField("name", "is required")
	}
	if input.Destination == "" {
		return input, calendar.Range{}, invalidField("destination", "is required")
	}

	start, err := calendar.Parse(input.StartDate)
	if err != nil {
		return input, calendar.Range{}, invalidField("startDate", "must be a YYYY-MM-DD date")
	}
	end, err := calendar.Parse(input.EndDate)
	if err != nil {
		return input, calendar.Range{}, invalidField("endDate", "must be a YYYY-MM-DD date")
	}
	if !end.After(start) {
		return input, calendar.Range{}, invalidField("endDate", "must be after startDate")
	}

	return input, calendar.Range{Start: start, End: end}, nil
}
