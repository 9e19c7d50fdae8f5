package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/calendar"
	"github.com/tripsync/internal/db"
)

func TestTripServiceCreateValidates(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	trips := NewTripService(gdb)
	ctx := context.Background()

	cases := []struct {
		name  string
		input TripInput
		field string
	}{
		{name: "missing name", input: TripInput{Destination: "Rome", StartDate: "2025-01-01", EndDate: "2025-01-02"}, field: "name"},
		{name: "missing destination", input: TripInput{Name: "Trip", StartDate: "2025-01-01", EndDate: "2025-01-02"}, field: "destination"},
		{name: "bad start", input: TripInput{Name: "Trip", Destination: "Rome", StartDate: "soon", EndDate: "2025-01-02"}, field: "startDate"},
		{name: "end not after start", input: TripInput{Name: "Trip", Destination: "Rome", StartDate: "2025-01-02", EndDate: "2025-01-02"}, field: "endDate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := trips.Create(ctx, alice.ID, tc.input)
			assert.ErrorIs(t, err, availability.ErrInvalidInput)
			assert.Equal(t, tc.field, availability.FieldOf(err))
		})
	}
}

func TestTripServiceCreateMakesOwnerAMember(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	trips := NewTripService(gdb)

	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05")
	require.Len(t, trip.Members, 1)
	assert.Equal(t, alice.ID, trip.Members[0].UserID)
	assert.Equal(t, "2025-01-05", trip.EndDate.String())

	guarded, access, err := trips.CanAccess(context.Background(), trip.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, access.Write)
	assert.Equal(t, 5, guarded.Window.Len())
	assert.Equal(t, 1, guarded.MemberCount())
}

func TestTripServiceAccess(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	bob := createUser(t, gdb, "Bob")
	eve := createUser(t, gdb, "Eve")
	trips := NewTripService(gdb)
	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05", bob)
	ctx := context.Background()

	_, access, err := trips.CanAccess(ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, availability.Access{Read: true, Write: true}, access)

	_, access, err = trips.CanAccess(ctx, trip.ID, eve.ID)
	require.NoError(t, err)
	assert.False(t, access.Read)

	_, _, err = trips.CanAccess(ctx, trip.ID+1, alice.ID)
	assert.ErrorIs(t, err, ErrTripNotFound)

	_, err = trips.Get(ctx, trip.ID, eve.ID)
	assert.ErrorIs(t, err, availability.ErrAccessDenied)

	listed, err := trips.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Alice", listed[0].Owner.Name)

	listed, err = trips.List(ctx, eve.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestTripServiceOwnerOnlyOperations(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	bob := createUser(t, gdb, "Bob")
	carol := createUser(t, gdb, "Carol")
	trips := NewTripService(gdb)
	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05", bob)
	ctx := context.Background()

	input := TripInput{Name: "Porto", Destination: "Porto", StartDate: "2025-01-02", EndDate: "2025-01-09"}
	_, err := trips.Update(ctx, trip.ID, bob.ID, input)
	assert.ErrorIs(t, err, ErrNotTripOwner)

	updated, err := trips.Update(ctx, trip.ID, alice.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Porto", updated.Name)
	assert.Equal(t, "2025-01-09", updated.EndDate.String())

	_, err = trips.AddMember(ctx, trip.ID, bob.ID, carol.Email)
	assert.ErrorIs(t, err, ErrNotTripOwner)

	_, err = trips.AddMember(ctx, trip.ID, alice.ID, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, availability.KindNotFound, availability.KindOf(err))

	_, err = trips.AddMember(ctx, trip.ID, alice.ID, " BOB@example.com ")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = trips.RemoveMember(ctx, trip.ID, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrOwnerNotRemovable)

	assert.ErrorIs(t, trips.Delete(ctx, trip.ID, bob.ID), ErrNotTripOwner)
}

func TestTripServiceRemoveMemberDropsTheirVotes(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	bob := createUser(t, gdb, "Bob")
	trips := NewTripService(gdb)
	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05", bob)
	store := NewAvailabilityStore(gdb)
	ctx := context.Background()

	_, err := store.UpsertByTripUserDate(ctx, availability.Key{TripID: trip.ID, UserID: bob.ID, Date: calendar.MustParse("2025-01-02")}, availability.Can)
	require.NoError(t, err)

	updated, err := trips.RemoveMember(ctx, trip.ID, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Members, 1)

	records, err := store.FindAllByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = trips.RemoveMember(ctx, trip.ID, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTripServiceDeleteCascades(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	trips := NewTripService(gdb)
	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05")
	ctx := context.Background()

	_, err := NewAvailabilityStore(gdb).UpsertByTripUserDate(ctx, availability.Key{TripID: trip.ID, UserID: alice.ID, Date: calendar.MustParse("2025-01-02")}, availability.Maybe)
	require.NoError(t, err)
	lat, lng := 38.7, -9.1
	_, err = NewPinService(gdb, trips).Create(ctx, trip.ID, alice.ID, PinInput{Lat: &lat, Lng: &lng, Title: "Tram 28"})
	require.NoError(t, err)

	require.NoError(t, trips.Delete(ctx, trip.ID, alice.ID))

	for _, model := range []any{&db.Trip{}, &db.TripMember{}, &db.Availability{}, &db.Pin{}} {
		var count int64
		require.NoError(t, gdb.Unscoped().Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}

	_, _, err = trips.CanAccess(ctx, trip.ID, alice.ID)
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestTripServicePlan(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "Alice")
	bob := createUser(t, gdb, "Bob")
	eve := createUser(t, gdb, "Eve")
	trips := NewTripService(gdb)
	trip := createTrip(t, trips, alice, "2025-01-01", "2025-01-05", bob)
	ctx := context.Background()

	plan, err := trips.SetPlan(ctx, trip.ID, bob.ID, "# Day 1\n\n- Belem <script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, plan.HTML, "<h1>Day 1</h1>")
	assert.NotContains(t, plan.HTML, "<script>")

	got, err := trips.GetPlan(ctx, trip.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Text, got.Text)

	_, err = trips.GetPlan(ctx, trip.ID, eve.ID)
	assert.ErrorIs(t, err, availability.ErrAccessDenied)

	require.NoError(t, trips.ClearPlan(ctx, trip.ID, alice.ID))
	got, err = trips.GetPlan(ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Text)
	assert.Empty(t, got.HTML)
}
