package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/db"
)

// AvailabilityStore is the gorm implementation of availability.Store.
type AvailabilityStore struct {
	db *gorm.DB
}

var _ availability.Store = (*AvailabilityStore)(nil)

// NewAvailabilityStore constructs AvailabilityStore.
func NewAvailabilityStore(gdb *gorm.DB) *AvailabilityStore {
	return &AvailabilityStore{db: gdb}
}

func (s *AvailabilityStore) FindByTripAndUserAndDate(ctx context.Context, key availability.Key) (availability.Record, bool, error) {
	var row db.Availability
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("trip_id = ? AND user_id = ? AND date = ?", key.TripID, key.UserID, key.Date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return availability.Record{}, false, nil
	}
	if err != nil {
		return availability.Record{}, false, err
	}
	return toRecord(row), true, nil
}

// UpsertByTripUserDate relies on idx_availability_trip_user_date: concurrent
// writers for one key collapse onto a single row and the last write wins.
func (s *AvailabilityStore) UpsertByTripUserDate(ctx context.Context, key availability.Key, status availability.Status) (availability.Record, error) {
	row := db.Availability{
		TripID: key.TripID,
		UserID: key.UserID,
		Date:   key.Date,
		Status: status,
	}

	tx := s.db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trip_id"}, {Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Omit("User").Create(&row).Error; err != nil {
		return availability.Record{}, err
	}

	rec, found, err := s.FindByTripAndUserAndDate(ctx, key)
	if err != nil {
		return availability.Record{}, err
	}
	if !found {
		return availability.Record{}, errors.New("availability vanished after upsert")
	}
	return rec, nil
}

// DeleteByTripUserDate succeeds whether or not a row existed.
func (s *AvailabilityStore) DeleteByTripUserDate(ctx context.Context, key availability.Key) error {
	return s.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ? AND date = ?", key.TripID, key.UserID, key.Date).
		Delete(&db.Availability{}).Error
}

func (s *AvailabilityStore) FindAllByTrip(ctx context.Context, tripID uint) ([]availability.Record, error) {
	var rows []db.Availability
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("trip_id = ?", tripID).
		Order("date ASC, user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]availability.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

func toRecord(row db.Availability) availability.Record {
	return availability.Record{
		TripID: row.TripID,
		UserID: row.UserID,
		Voter: availability.Voter{
			ID:    row.User.ID,
			Name:  row.User.Name,
			Email: row.User.Email,
		},
		Date:      row.Date,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
