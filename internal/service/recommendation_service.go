package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripsync/internal/calendar"
)

const (
	recommendationDays        = 14
	recommendationTemperature = 0.6
	maxPlanContextRunes       = 4000
	recommendationSystem      = "You are a concise travel planner."
	noIdeasFallback           = "No ideas generated."
)

// RecommendationInput carries optional traveller preferences.
type RecommendationInput struct {
	Preferences string
}

// Recommendation is generated itinerary text and its HTML.
type Recommendation struct {
	Ideas            string
	IdeasHTML        string
	Window           calendar.Range
	PromptTokens     int
	CompletionTokens int
}

// RecommendationService asks a chat model for a day-by-day itinerary
// covering the first two weeks of a trip.
type RecommendationService struct {
	trips  *TripService
	client *aiChatClient
	log    zerolog.Logger
}

// NewRecommendationService constructs RecommendationService.
func NewRecommendationService(trips *TripService, settings AISettings, logger zerolog.Logger) *RecommendationService {
	return &RecommendationService{
		trips:  trips,
		client: newAIChatClient(settings),
		log:    logger.With().Str("component", "recommendations").Logger(),
	}
}

// SetHTTPClient overrides the HTTP client, mainly for tests.
func (s *RecommendationService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// Generate builds the prompt from the trip and asks the configured provider.
func (s *RecommendationService) Generate(ctx context.Context, tripID, callerID uint, input RecommendationInput) (Recommendation, error) {
	trip, err := s.trips.Get(ctx, tripID, callerID)
	if err != nil {
		return Recommendation{}, err
	}

	window := calendar.Range{Start: trip.StartDate, End: trip.EndDate}.Truncate(recommendationDays)
	prompt := buildItineraryPrompt(trip.Destination, len(trip.Members), window,
		truncateRunes(trip.PlanText, maxPlanContextRunes), strings.TrimSpace(input.Preferences))
	logAIExchange(s.log, "ITINERARY", "prompt", prompt)

	result, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: recommendationSystem,
		UserPrompt:   prompt,
		Temperature:  recommendationTemperature,
	})
	if err != nil {
		s.log.Warn().Err(err).Uint("trip_id", tripID).Msg("recommendation failed")
		return Recommendation{}, err
	}
	logAIExchange(s.log, "ITINERARY", "response", result.Content)

	ideas := result.Content
	if ideas == "" {
		ideas = noIdeasFallback
	}
	html, err := RenderMarkdown(ideas)
	if err != nil {
		return Recommendation{}, fmt.Errorf("render ideas: %w", err)
	}

	return Recommendation{
		Ideas:            ideas,
		IdeasHTML:        html,
		Window:           window,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	}, nil
}

func buildItineraryPrompt(destination string, members int, window calendar.Range, plan, preferences string) string {
	if members < 1 {
		members = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an enthusiastic travel planner. Build a realistic day-by-day itinerary near %q for %d people, covering the first %d days (or until the trip ends) from %s to %s.\n",
		destination, members, recommendationDays, window.Start, window.End)
	if plan != "" {
		fmt.Fprintf(&b, "Avoid repeating anything already in the plan:\n%s\n\n", plan)
	}
	b.WriteString("For EACH day, include:\n")
	b.WriteString("- Morning activity with a popular place name + short address/cross-streets, category, and 1-2 line tip.\n")
	b.WriteString("- Afternoon activity (same details).\n")
	b.WriteString("- Evening activity (same details).\n")
	b.WriteString("- 3 restaurants (name + short address and 1-line tip).\n")
	b.WriteString("Keep entries concise (no long paragraphs). Include \"Arrival day\" if the start date is the first travel day, and keep pacing realistic (nearby spots).")
	if preferences != "" {
		fmt.Fprintf(&b, " Traveler preferences: %s", preferences)
	}
	return b.String()
}

func truncateRunes(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return string(runes[:limit])
}
