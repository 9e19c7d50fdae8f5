package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/internal/calendar"
)

const (
	alice uint = 1
	bob   uint = 2
	carol uint = 3
	dave  uint = 4
)

func newFixture(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	guard := staticGuard{trips: map[uint]Trip{
		1: {
			ID:      1,
			OwnerID: alice,
			Window:  window("2025-01-01", "2025-01-05"),
			Members: []Member{{ID: alice, Name: "Alice"}, {ID: bob, Name: "Bob"}, {ID: carol, Name: "Carol"}},
		},
		2: {
			ID:      2,
			OwnerID: alice,
			Window:  window("2025-01-01", "2025-12-31"),
			Members: []Member{{ID: alice, Name: "Alice"}},
		},
	}}
	return NewService(store, guard, NewEngine(DefaultWeights, DefaultMaxDays), zerolog.Nop()), store
}

func set(t *testing.T, svc *Service, user uint, date, status string) Record {
	t.Helper()
	rec, err := svc.SetAvailability(context.Background(), SetInput{TripID: 1, ActorID: user, Date: date, Status: status})
	require.NoError(t, err)
	return rec
}

func TestSetAvailabilityKeepsOneRecordPerKey(t *testing.T) {
	svc, store := newFixture(t)

	set(t, svc, alice, "2025-01-02", "can")
	rec := set(t, svc, alice, "2025-01-02", "cannot")

	assert.Equal(t, Cannot, rec.Status)
	assert.Equal(t, 1, store.count(1))

	status, err := svc.GetUserStatus(context.Background(), 1, bob, alice, "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, Cannot, status)
}

func TestConcurrentSetsConvergeToOneRecord(t *testing.T) {
	svc, store := newFixture(t)

	var wg sync.WaitGroup
	for _, status := range []string{"can", "maybe", "cannot", "can", "maybe"} {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			_, err := svc.SetAvailability(context.Background(), SetInput{TripID: 1, ActorID: bob, Date: "2025-01-03", Status: status})
			assert.NoError(t, err)
		}(status)
	}
	wg.Wait()

	assert.Equal(t, 1, store.count(1))
}

func TestSetAvailabilityRejectsBadInput(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	_, err := svc.SetAvailability(ctx, SetInput{TripID: 1, ActorID: alice, Date: "2025-01-02", Status: "perhaps"})
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "status", FieldOf(err))

	_, err = svc.SetAvailability(ctx, SetInput{TripID: 1, ActorID: alice, Date: "02/01/2025", Status: "can"})
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "date", FieldOf(err))

	assert.Zero(t, store.mutations)
}

func TestAccessRules(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	_, err := svc.SetAvailability(ctx, SetInput{TripID: 1, ActorID: dave, Date: "2025-01-02", Status: "can"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetAvailability(ctx, 1, dave)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetAvailability(ctx, 99, alice)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetAvailability(ctx, SetInput{TripID: 1, ActorID: bob, UserID: alice, Date: "2025-01-02", Status: "can"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = svc.ClearAvailability(ctx, ClearInput{TripID: 1, ActorID: bob, UserID: alice, Date: "2025-01-02"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.Zero(t, store.mutations)
}

func TestClearAvailabilityIsIdempotent(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	set(t, svc, alice, "2025-01-02", "maybe")
	input := ClearInput{TripID: 1, ActorID: alice, Date: "2025-01-02"}
	require.NoError(t, svc.ClearAvailability(ctx, input))
	require.NoError(t, svc.ClearAvailability(ctx, input))

	assert.Equal(t, 0, store.count(1))
	status, err := svc.GetUserStatus(ctx, 1, alice, alice, "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, NoResponse, status)
}

func TestApplyStatusToRange(t *testing.T) {
	svc, store := newFixture(t)

	result, err := svc.ApplyStatusToRange(context.Background(), RangeInput{
		TripID: 1, ActorID: carol, StartDate: "2025-01-02", EndDate: "2025-01-04", Status: "maybe",
	})
	require.NoError(t, err)

	assert.True(t, result.Complete())
	assert.Len(t, result.Applied, 3)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, 3, store.count(1))
	for _, rec := range result.Records {
		assert.Equal(t, Maybe, rec.Status)
		assert.Equal(t, carol, rec.UserID)
	}
	assert.Equal(t, "2025-01-02", result.Applied[0].String())
	assert.Equal(t, "2025-01-04", result.Applied[2].String())
}

func TestApplyStatusToRangeSingleDayAndClear(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	result, err := svc.ApplyStatusToRange(ctx, RangeInput{TripID: 1, ActorID: alice, StartDate: "2025-01-05", EndDate: "2025-01-05", Status: "can"})
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)
	assert.Equal(t, 1, store.count(1))

	result, err = svc.ApplyStatusToRange(ctx, RangeInput{TripID: 1, ActorID: alice, StartDate: "2025-01-01", EndDate: "2025-01-05", Status: "clear"})
	require.NoError(t, err)
	assert.Len(t, result.Applied, 5)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, store.count(1))
}

func TestApplyStatusToRangeWritesNothingOnInvalidRange(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RangeInput
		kind  Kind
	}{
		{name: "reversed", input: RangeInput{TripID: 1, ActorID: alice, StartDate: "2025-01-04", EndDate: "2025-01-02", Status: "can"}, kind: KindInvalidInput},
		{name: "outside window", input: RangeInput{TripID: 1, ActorID: alice, StartDate: "2025-01-04", EndDate: "2025-01-06", Status: "can"}, kind: KindInvalidInput},
		{name: "bad status", input: RangeInput{TripID: 1, ActorID: alice, StartDate: "2025-01-01", EndDate: "2025-01-02", Status: "later"}, kind: KindInvalidInput},
		{name: "other member", input: RangeInput{TripID: 1, ActorID: alice, UserID: bob, StartDate: "2025-01-01", EndDate: "2025-01-02", Status: "can"}, kind: KindAccessDenied},
		{name: "stranger", input: RangeInput{TripID: 1, ActorID: dave, StartDate: "2025-01-01", EndDate: "2025-01-02", Status: "can"}, kind: KindAccessDenied},
		{name: "missing trip", input: RangeInput{TripID: 42, ActorID: alice, StartDate: "2025-01-01", EndDate: "2025-01-02", Status: "can"}, kind: KindNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyStatusToRange(ctx, tc.input)
			assert.Equal(t, tc.kind, KindOf(err))
		})
	}
	assert.Zero(t, store.mutations)
}

func TestApplyStatusToRangeEnforcesDayCap(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	// 2025-01-01 + 89 days = 2025-03-31
	result, err := svc.ApplyStatusToRange(ctx, RangeInput{TripID: 2, ActorID: alice, StartDate: "2025-01-01", EndDate: "2025-03-31", Status: "can"})
	require.NoError(t, err)
	assert.Len(t, result.Applied, DefaultMaxDays)
	before := store.mutations

	_, err = svc.ApplyStatusToRange(ctx, RangeInput{TripID: 2, ActorID: alice, StartDate: "2025-01-01", EndDate: "2025-04-01", Status: "can"})
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "endDate", FieldOf(err))
	assert.Equal(t, before, store.mutations)
}

func TestApplyStatusToRangeReportsPartialFailure(t *testing.T) {
	svc, store := newFixture(t)
	store.failOn[calendar.MustParse("2025-01-03")] = errDiskFull

	result, err := svc.ApplyStatusToRange(context.Background(), RangeInput{
		TripID: 1, ActorID: bob, StartDate: "2025-01-01", EndDate: "2025-01-05", Status: "can",
	})
	require.Error(t, err)

	var partial *PartialError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Applied)
	assert.Equal(t, "2025-01-03", partial.Failed.String())
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, KindStoreUnavailable, KindOf(err))
	assert.True(t, KindOf(err).Retryable())

	assert.False(t, result.Complete())
	assert.Len(t, result.Applied, 2)
	require.Len(t, result.Pending, 3)
	assert.Equal(t, "2025-01-03", result.Pending[0].String())
	assert.Equal(t, 2, store.count(1))

	delete(store.failOn, calendar.MustParse("2025-01-03"))
	retry, err := svc.ApplyStatusToRange(context.Background(), RangeInput{
		TripID: 1, ActorID: bob, StartDate: result.Pending[0].String(), EndDate: "2025-01-05", Status: "can",
	})
	require.NoError(t, err)
	assert.Len(t, retry.Applied, 3)
	assert.Equal(t, 5, store.count(1))
}

func TestApplyStatusToRangeStopsWhenCanceled(t *testing.T) {
	svc, store := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.ApplyStatusToRange(ctx, RangeInput{TripID: 1, ActorID: bob, StartDate: "2025-01-01", EndDate: "2025-01-05", Status: "can"})
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.Empty(t, result.Applied)
	assert.Len(t, result.Pending, 5)
	assert.Zero(t, store.mutations)
}

func TestStoreFailuresAreClassified(t *testing.T) {
	svc, store := newFixture(t)
	store.listErr = errDiskFull

	_, err := svc.GetAvailability(context.Background(), 1, alice)
	assert.Equal(t, KindStoreUnavailable, KindOf(err))

	_, err = svc.TopDates(context.Background(), 1, alice, 3)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGroupScheduleScenario(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	set(t, svc, alice, "2025-01-02", "can")
	set(t, svc, bob, "2025-01-02", "can")
	set(t, svc, carol, "2025-01-02", "cannot")
	set(t, svc, alice, "2025-01-03", "maybe")
	set(t, svc, bob, "2025-01-04", "can")

	top, err := svc.TopDates(ctx, 1, carol, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "2025-01-02", top[0].Date.String())
	assert.Equal(t, 4, top[0].Score)
	assert.Equal(t, "2025-01-04", top[1].Date.String())
	assert.Equal(t, 3, top[1].Score)
	assert.Equal(t, "2025-01-03", top[2].Date.String())
	assert.Equal(t, 1, top[2].Score)
	assert.Equal(t, TierGood, top[0].Heat.Tier)

	again, err := svc.TopDates(ctx, 1, alice, 3)
	require.NoError(t, err)
	assert.Equal(t, top, again)
}

func TestThreeMemberScenarioTiesSilentDays(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	set(t, svc, alice, "2025-01-02", "can")
	set(t, svc, alice, "2025-01-03", "can")
	set(t, svc, bob, "2025-01-02", "maybe")
	set(t, svc, bob, "2025-01-03", "cannot")

	top, err := svc.TopDates(ctx, 1, carol, 3)
	require.NoError(t, err)

	got := make([]string, 0, len(top))
	for _, r := range top {
		got = append(got, fmt.Sprintf("%s=%d", r.Date, r.Score))
	}
	assert.Equal(t, []string{"2025-01-02=4", "2025-01-03=1", "2025-01-01=0"}, got)
	assert.Equal(t, TierGood, top[0].Heat.Tier)
	assert.Equal(t, TierWeak, top[1].Heat.Tier)
	assert.Equal(t, TierNone, top[2].Heat.Tier)
}

func TestOverview(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	set(t, svc, alice, "2025-01-01", "can")
	set(t, svc, bob, "2025-01-01", "cannot")

	overview, err := svc.Overview(ctx, 1, bob, 2)
	require.NoError(t, err)

	assert.False(t, overview.Truncated)
	require.Len(t, overview.Days, 5)
	first := overview.Days[0]
	assert.Equal(t, 1, first.Score)
	assert.Equal(t, Cannot, first.Mine)
	require.Len(t, first.Statuses, 3)
	assert.Equal(t, Can, first.Statuses[0].Status)
	assert.Equal(t, Cannot, first.Statuses[1].Status)
	assert.Equal(t, NoResponse, first.Statuses[2].Status)
	assert.Len(t, overview.Top, 2)
	assert.Equal(t, DefaultWeights, overview.Weights)

	long, err := svc.Overview(ctx, 2, alice, 3)
	require.NoError(t, err)
	assert.True(t, long.Truncated)
	assert.Len(t, long.Days, DefaultMaxDays)
}
