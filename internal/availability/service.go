package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripsync/internal/calendar"
)

// Service is the availability business logic, independent of transport.
// It validates input, asks the AccessGuard for a decision, and talks to the
// Store; it keeps no state between calls.
type Service struct {
	store  Store
	guard  AccessGuard
	engine *Engine
	log    zerolog.Logger
}

// NewService wires a Service. A nil engine uses the default weights and cap.
func NewService(store Store, guard AccessGuard, engine *Engine, logger zerolog.Logger) *Service {
	if engine == nil {
		engine = NewEngine(DefaultWeights, DefaultMaxDays)
	}
	return &Service{
		store:  store,
		guard:  guard,
		engine: engine,
		log:    logger.With().Str("component", "availability").Logger(),
	}
}

// Engine exposes the scoring engine for presentation helpers.
func (s *Service) Engine() *Engine {
	return s.engine
}

// SetInput is a single-day vote. UserID defaults to ActorID and must equal
// it: members only ever mutate their own records.
type SetInput struct {
	TripID  uint
	ActorID uint
	UserID  uint
	Date    string
	Status  string
}

// ClearInput removes a single-day vote.
type ClearInput struct {
	TripID  uint
	ActorID uint
	UserID  uint
	Date    string
}

// RangeInput applies one status (or "clear") to every day from StartDate to
// EndDate inclusive.
type RangeInput struct {
	TripID    uint
	ActorID   uint
	UserID    uint
	StartDate string
	EndDate   string
	Status    string
}

// RangeResult describes what a range application did. It is not atomic:
// Applied days stay applied when the run stops at Failed; Pending lists the
// days still to do, Failed included, in ascending order.
type RangeResult struct {
	Range   calendar.Range
	Status  Status
	Applied []calendar.Day
	Records []Record
	Failed  calendar.Day
	Pending []calendar.Day
}

// Complete reports whether every day was applied.
func (r RangeResult) Complete() bool {
	return r.Failed.IsZero() && len(r.Pending) == 0
}

// GetAvailability returns every record of the trip, in no particular order.
func (s *Service) GetAvailability(ctx context.Context, tripID, callerID uint) ([]Record, error) {
	if _, err := s.authorize(ctx, tripID, callerID, false); err != nil {
		return nil, err
	}

	records, err := s.store.FindAllByTrip(ctx, tripID)
	if err != nil {
		return nil, storeFailure("list availability", err)
	}
	return records, nil
}

// SetAvailability upserts the caller's status for one day. Exactly one
// record is created or updated.
func (s *Service) SetAvailability(ctx context.Context, input SetInput) (rec Record, err error) {
	defer func() { observeMutation("set", err) }()

	day, err := parseDay("date", input.Date)
	if err != nil {
		return Record{}, err
	}
	status, err := ParseStatus(input.Status)
	if err != nil {
		return Record{}, err
	}

	userID, err := s.authorizeMutation(ctx, input.TripID, input.ActorID, input.UserID)
	if err != nil {
		return Record{}, err
	}

	rec, err = s.store.UpsertByTripUserDate(ctx, Key{TripID: input.TripID, UserID: userID, Date: day}, status)
	if err != nil {
		return Record{}, storeFailure("set availability", err)
	}
	return rec, nil
}

// ClearAvailability deletes the caller's record for one day. Clearing a day
// without a record succeeds.
func (s *Service) ClearAvailability(ctx context.Context, input ClearInput) (err error) {
	defer func() { observeMutation("clear", err) }()

	day, err := parseDay("date", input.Date)
	if err != nil {
		return err
	}

	userID, err := s.authorizeMutation(ctx, input.TripID, input.ActorID, input.UserID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByTripUserDate(ctx, Key{TripID: input.TripID, UserID: userID, Date: day}); err != nil {
		return storeFailure("clear availability", err)
	}
	return nil
}

// ApplyStatusToRange validates the whole range first (order, day cap, trip
// window) and writes nothing if any check fails. It then applies each day
// in ascending order as an independent upsert or delete. A failure part way
// leaves earlier days applied; the result and a *PartialError describe
// where it stopped. Retrying the pending days is safe.
func (s *Service) ApplyStatusToRange(ctx context.Context, input RangeInput) (result RangeResult, err error) {
	defer func() { observeMutation("range", err) }()

	start, err := parseDay("startDate", input.StartDate)
	if err != nil {
		return RangeResult{}, err
	}
	end, err := parseDay("endDate", input.EndDate)
	if err != nil {
		return RangeResult{}, err
	}
	status, err := parseRangeStatus(input.Status)
	if err != nil {
		return RangeResult{}, err
	}

	span, err := calendar.NewRange(start, end)
	if err != nil {
		return RangeResult{}, invalid("endDate", "must not be before startDate")
	}
	if span.Len() > s.engine.MaxDays() {
		return RangeResult{}, invalid("endDate", fmt.Sprintf("range of %d days exceeds the %d day limit", span.Len(), s.engine.MaxDays()))
	}

	trip, err := s.authorize(ctx, input.TripID, input.ActorID, true)
	if err != nil {
		return RangeResult{}, err
	}
	userID, err := ownRecords(input.ActorID, input.UserID)
	if err != nil {
		return RangeResult{}, err
	}
	if !trip.Window.Covers(span) {
		return RangeResult{}, invalid("range", fmt.Sprintf("%s is outside the trip window %s", span, trip.Window))
	}

	days := span.Days()
	result = RangeResult{Range: span, Status: status, Applied: make([]calendar.Day, 0, len(days))}
	logger := s.log.With().
		Uint("trip_id", input.TripID).
		Uint("user_id", userID).
		Str("range", span.String()).
		Str("status", status.String()).
		Logger()

	defer func() { rangeDaysApplied.Observe(float64(len(result.Applied))) }()

	for i, day := range days {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.stopRange(logger, result, days[i:], ctxErr)
		}

		key := Key{TripID: input.TripID, UserID: userID, Date: day}
		if status == NoResponse {
			err = s.store.DeleteByTripUserDate(ctx, key)
		} else {
			var rec Record
			rec, err = s.store.UpsertByTripUserDate(ctx, key, status)
			if err == nil {
				result.Records = append(result.Records, rec)
			}
		}
		if err != nil {
			return s.stopRange(logger, result, days[i:], storeFailure("apply range", err))
		}
		result.Applied = append(result.Applied, day)
	}

	logger.Info().Int("applied", len(result.Applied)).Msg("range applied")
	return result, nil
}

func (s *Service) stopRange(logger zerolog.Logger, result RangeResult, pending []calendar.Day, cause error) (RangeResult, error) {
	result.Failed = pending[0]
	result.Pending = append([]calendar.Day(nil), pending...)
	logger.Warn().
		Err(cause).
		Int("applied", len(result.Applied)).
		Str("failed", result.Failed.String()).
		Msg("range stopped part way")
	return result, &PartialError{Applied: len(result.Applied), Failed: result.Failed, Err: cause}
}

// GetUserStatus returns userID's status for one day, or NoResponse.
func (s *Service) GetUserStatus(ctx context.Context, tripID, callerID, userID uint, date string) (Status, error) {
	day, err := parseDay("date", date)
	if err != nil {
		return NoResponse, err
	}
	if _, err := s.authorize(ctx, tripID, callerID, false); err != nil {
		return NoResponse, err
	}

	rec, found, err := s.store.FindByTripAndUserAndDate(ctx, Key{TripID: tripID, UserID: userID, Date: day})
	if err != nil {
		return NoResponse, storeFailure("find availability", err)
	}
	if !found {
		return NoResponse, nil
	}
	return rec.Status, nil
}

// RankedDate is a ranked candidate day with its display heat.
type RankedDate struct {
	DateScore
	Heat Heat
}

// TopDates ranks the trip's candidate days and returns the best n.
func (s *Service) TopDates(ctx context.Context, tripID, callerID uint, n int) ([]RankedDate, error) {
	trip, records, err := s.load(ctx, tripID, callerID)
	if err != nil {
		return nil, err
	}
	rankingsTotal.Inc()
	return s.decorate(s.engine.Rank(records, trip.Window, n), trip.MemberCount()), nil
}

// MemberStatus pairs a member with their status on one day.
type MemberStatus struct {
	Member Member
	Status Status
}

// DayBreakdown is the per-day view of a trip's availability.
type DayBreakdown struct {
	Date     calendar.Day
	Score    int
	Heat     Heat
	Mine     Status
	Statuses []MemberStatus
}

// Overview is every candidate day with its breakdown, plus the top dates.
type Overview struct {
	Window    calendar.Range
	Truncated bool
	Days      []DayBreakdown
	Top       []RankedDate
	Weights   Weights
	Generated time.Time
}

// Overview builds the full availability board for the caller.
func (s *Service) Overview(ctx context.Context, tripID, callerID uint, top int) (Overview, error) {
	trip, records, err := s.load(ctx, tripID, callerID)
	if err != nil {
		return Overview{}, err
	}
	rankingsTotal.Inc()

	type voteKey struct {
		user uint
		day  calendar.Day
	}
	votes := make(map[voteKey]Status, len(records))
	for _, rec := range records {
		votes[voteKey{user: rec.UserID, day: rec.Date}] = rec.Status
	}

	memberCount := trip.MemberCount()
	scores := s.engine.Scores(records, trip.Window)
	days := make([]DayBreakdown, 0, len(scores))
	for _, score := range scores {
		statuses := make([]MemberStatus, 0, len(trip.Members))
		for _, member := range trip.Members {
			statuses = append(statuses, MemberStatus{Member: member, Status: votes[voteKey{user: member.ID, day: score.Date}]})
		}
		days = append(days, DayBreakdown{
			Date:     score.Date,
			Score:    score.Score,
			Heat:     s.engine.Heat(score.Score, memberCount),
			Mine:     votes[voteKey{user: callerID, day: score.Date}],
			Statuses: statuses,
		})
	}

	return Overview{
		Window:    trip.Window,
		Truncated: trip.Window.Len() > s.engine.MaxDays(),
		Days:      days,
		Top:       s.decorate(s.engine.Rank(records, trip.Window, top), memberCount),
		Weights:   s.engine.Weights(),
		Generated: time.Now().UTC(),
	}, nil
}

func (s *Service) load(ctx context.Context, tripID, callerID uint) (Trip, []Record, error) {
	trip, err := s.authorize(ctx, tripID, callerID, false)
	if err != nil {
		return Trip{}, nil, err
	}
	records, err := s.store.FindAllByTrip(ctx, tripID)
	if err != nil {
		return Trip{}, nil, storeFailure("list availability", err)
	}
	return trip, records, nil
}

func (s *Service) decorate(scores []DateScore, memberCount int) []RankedDate {
	ranked := make([]RankedDate, 0, len(scores))
	for _, score := range scores {
		ranked = append(ranked, RankedDate{DateScore: score, Heat: s.engine.Heat(score.Score, memberCount)})
	}
	return ranked
}

func (s *Service) authorize(ctx context.Context, tripID, callerID uint, write bool) (Trip, error) {
	trip, access, err := s.guard.CanAccess(ctx, tripID, callerID)
	if err != nil {
		return Trip{}, err
	}
	if !access.Read || (write && !access.Write) {
		return Trip{}, fmt.Errorf("%w: user %d on trip %d", ErrAccessDenied, callerID, tripID)
	}
	return trip, nil
}

func (s *Service) authorizeMutation(ctx context.Context, tripID, actorID, userID uint) (uint, error) {
	if _, err := s.authorize(ctx, tripID, actorID, true); err != nil {
		return 0, err
	}
	return ownRecords(actorID, userID)
}

func ownRecords(actorID, userID uint) (uint, error) {
	if userID == 0 {
		return actorID, nil
	}
	if userID != actorID {
		return 0, fmt.Errorf("%w: user %d cannot change availability of user %d", ErrAccessDenied, actorID, userID)
	}
	return userID, nil
}

func parseDay(field, value string) (calendar.Day, error) {
	day, err := calendar.Parse(value)
	if err != nil {
		if value == "" {
			return calendar.Day{}, invalid(field, "is required")
		}
		return calendar.Day{}, invalid(field, fmt.Sprintf("%q is not a calendar day", value))
	}
	return day, nil
}
