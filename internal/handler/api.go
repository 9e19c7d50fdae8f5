package handler

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/service"
)

// Options carries the settings NewAPI needs beyond the database.
type Options struct {
	Weights      availability.Weights
	MaxRangeDays int
	TopDates     int
	AI           service.AISettings
	Flights      service.FlightConfig
	Logger       zerolog.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db              *gorm.DB
	users           *service.UserService
	trips           *service.TripService
	availability    *availability.Service
	pins            *service.PinService
	flights         *service.FlightService
	recommendations *service.RecommendationService
	topDates        int
	log             zerolog.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	trips := service.NewTripService(gdb)
	engine := availability.NewEngine(opts.Weights, opts.MaxRangeDays)

	topDates := opts.TopDates
	if topDates <= 0 {
		topDates = 3
	}

	return &API{
		db:              gdb,
		users:           service.NewUserService(gdb),
		trips:           trips,
		availability:    availability.NewService(service.NewAvailabilityStore(gdb), trips, engine, opts.Logger),
		pins:            service.NewPinService(gdb, trips),
		flights:         service.NewFlightService(opts.Flights, opts.Logger),
		recommendations: service.NewRecommendationService(trips, opts.AI, opts.Logger),
		topDates:        topDates,
		log:             opts.Logger,
	}
}

// DB exposes the underlying gorm instance for health checks.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Recommendations exposes the recommendation service so callers can swap
// its HTTP client.
func (a *API) Recommendations() *service.RecommendationService {
	return a.recommendations
}
