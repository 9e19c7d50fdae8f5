package availability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tripsync/internal/calendar"
)

var errDiskFull = errors.New("disk full")

type memoryStore struct {
	mu        sync.Mutex
	records   map[Key]Record
	mutations int
	failOn    map[calendar.Day]error
	listErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[Key]Record{}, failOn: map[calendar.Day]error{}}
}

func (m *memoryStore) FindByTripAndUserAndDate(_ context.Context, key Key) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok, nil
}

func (m *memoryStore) UpsertByTripUserDate(_ context.Context, key Key, status Status) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[key.Date]; err != nil {
		return Record{}, err
	}
	m.mutations++
	now := time.Now()
	rec, ok := m.records[key]
	if !ok {
		rec = Record{TripID: key.TripID, UserID: key.UserID, Date: key.Date, CreatedAt: now}
	}
	rec.Status = status
	rec.UpdatedAt = now
	m.records[key] = rec
	return rec, nil
}

func (m *memoryStore) DeleteByTripUserDate(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[key.Date]; err != nil {
		return err
	}
	m.mutations++
	delete(m.records, key)
	return nil
}

func (m *memoryStore) FindAllByTrip(_ context.Context, tripID uint) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Record
	for _, rec := range m.records {
		if rec.TripID == tripID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) count(tripID uint) int {
	records, _ := m.FindAllByTrip(context.Background(), tripID)
	return len(records)
}

// staticGuard knows a fixed set of trips; members may read and write.
type staticGuard struct {
	trips map[uint]Trip
}

func (g staticGuard) CanAccess(_ context.Context, tripID, callerID uint) (Trip, Access, error) {
	trip, ok := g.trips[tripID]
	if !ok {
		return Trip{}, Access{}, ErrNotFound
	}
	if trip.OwnerID == callerID {
		return trip, Access{Read: true, Write: true}, nil
	}
	for _, member := range trip.Members {
		if member.ID == callerID {
			return trip, Access{Read: true, Write: true}, nil
		}
	}
	return trip, Access{}, nil
}
