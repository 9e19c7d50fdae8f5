package availability

import (
	"context"
	"time"

	"github.com/tripsync/internal/calendar"
)

// Key identifies a record. At most one record exists per key.
type Key struct {
	TripID uint
	UserID uint
	Date   calendar.Day
}

// Voter is the display identity attached to a record.
type Voter struct {
	ID    uint
	Name  string
	Email string
}

// Record is one member's status for one day of one trip.
type Record struct {
	TripID    uint
	UserID    uint
	Voter     Voter
	Date      calendar.Day
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the record's identity.
func (r Record) Key() Key {
	return Key{TripID: r.TripID, UserID: r.UserID, Date: r.Date}
}

// Store persists records. Implementations must make UpsertByTripUserDate an
// atomic upsert on the unique key (last writer wins) and must treat a
// delete of a missing key as success.
type Store interface {
	FindByTripAndUserAndDate(ctx context.Context, key Key) (Record, bool, error)
	UpsertByTripUserDate(ctx context.Context, key Key, status Status) (Record, error)
	DeleteByTripUserDate(ctx context.Context, key Key) error
	FindAllByTrip(ctx context.Context, tripID uint) ([]Record, error)
}

// Member is a trip participant as seen by the core.
type Member struct {
	ID    uint
	Name  string
	Email string
}

// Trip carries the access-control and window facts the core needs.
type Trip struct {
	ID      uint
	OwnerID uint
	Window  calendar.Range
	Members []Member
}

// MemberCount is never below 1 so it is safe as a divisor.
func (t Trip) MemberCount() int {
	if len(t.Members) == 0 {
		return 1
	}
	return len(t.Members)
}

// Access is the caller's permission on a trip. Write implies Read.
type Access struct {
	Read  bool
	Write bool
}

// AccessGuard resolves a trip and the caller's access to it. A missing trip
// yields ErrNotFound before any access rule is evaluated.
type AccessGuard interface {
	CanAccess(ctx context.Context, tripID, callerID uint) (Trip, Access, error)
}
