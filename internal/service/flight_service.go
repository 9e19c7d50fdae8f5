package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tripsync/internal/calendar"
)

const (
	flightTokenPath   = "/v1/security/oauth2/token"
	flightOffersPath  = "/v2/shopping/flight-offers"
	flightPricingPath = "/v1/shopping/flight-offers/pricing"
	maxFlightOffers   = 10
	maxAdults         = 9
)

var travelClasses = map[string]bool{
	"ECONOMY":         true,
	"PREMIUM_ECONOMY": true,
	"BUSINESS":        true,
	"FIRST":           true,
}

// ErrFlightAPI marks an upstream failure that survived retries.
var ErrFlightAPI error = &kindedError{"flight api request failed", ErrFlightsUnavailable}

// FlightConfig configures the flight offers client.
type FlightConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRetries   uint64
	RetryBackoff time.Duration
}

// FlightSearchInput is a one-way or return search.
type FlightSearchInput struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	TravelClass   string
}

// FlightSearchResult passes the provider's offers through untouched.
type FlightSearchResult struct {
	Flights []json.RawMessage `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
}

// FlightService searches and prices flight offers. Access tokens come from
// an injected oauth2.TokenSource which refreshes on expiry; nothing about
// the token lives in package state.
type FlightService struct {
	client  *resty.Client
	tokens  oauth2.TokenSource
	retries uint64
	backoff time.Duration
	log     zerolog.Logger
}

// NewFlightService builds a client-credentials token source from cfg. With
// no credentials the service reports ErrFlightsUnavailable.
func NewFlightService(cfg FlightConfig, logger zerolog.Logger) *FlightService {
	base := strings.TrimRight(firstNonEmpty(cfg.BaseURL, "https://test.api.amadeus.com"), "/")

	var tokens oauth2.TokenSource
	if strings.TrimSpace(cfg.ClientID) != "" && strings.TrimSpace(cfg.ClientSecret) != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     base + flightTokenPath,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		tokens = cc.TokenSource(context.Background())
	}
	return NewFlightServiceWithTokenSource(base, tokens, cfg, logger)
}

// NewFlightServiceWithTokenSource uses tokens as is.
func NewFlightServiceWithTokenSource(baseURL string, tokens oauth2.TokenSource, cfg FlightConfig, logger zerolog.Logger) *FlightService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	wait := cfg.RetryBackoff
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &FlightService{
		client:  client,
		tokens:  tokens,
		retries: retries,
		backoff: wait,
		log:     logger.With().Str("component", "flights").Logger(),
	}
}

// Search queries up to ten offers. IATA codes are upper-cased and cut to
// three letters; adults defaults to 1 and class to ECONOMY.
func (s *FlightService) Search(ctx context.Context, input FlightSearchInput) (FlightSearchResult, error) {
	params, err := searchParams(input)
	if err != nil {
		return FlightSearchResult{}, err
	}
	if s.tokens == nil {
		return FlightSearchResult{}, ErrFlightsUnavailable
	}

	body, err := s.do(ctx, "search", func(req *resty.Request) (*resty.Response, error) {
		return req.SetQueryParams(params).Get(flightOffersPath)
	})
	if err != nil {
		return FlightSearchResult{}, err
	}

	var result FlightSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return FlightSearchResult{}, fmt.Errorf("decode flight offers: %w", err)
	}
	if result.Flights == nil {
		result.Flights = []json.RawMessage{}
	}
	return result, nil
}

// Price confirms the current price of one offer from Search.
func (s *FlightService) Price(ctx context.Context, offer json.RawMessage) (json.RawMessage, error) {
	if len(strings.TrimSpace(string(offer))) == 0 || string(offer) == "null" {
		return nil, invalidField("flightOffer", "is required")
	}
	if s.tokens == nil {
		return nil, ErrFlightsUnavailable
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []json.RawMessage{offer},
		},
	}
	body, err := s.do(ctx, "price", func(req *resty.Request) (*resty.Response, error) {
		return req.SetHeader("Content-Type", "application/json").SetBody(payload).Post(flightPricingPath)
	})
	if err != nil {
		return nil, err
	}

	var priced struct {
		Data struct {
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &priced); err != nil {
		return nil, fmt.Errorf("decode flight price: %w", err)
	}
	if len(priced.Data.FlightOffers) == 0 {
		return nil, fmt.Errorf("%w: pricing returned no offers", ErrFlightAPI)
	}
	return priced.Data.FlightOffers[0], nil
}

// do runs send with a fresh bearer token, retrying transport errors, 429
// and 5xx with exponential backoff. 4xx responses are not retried.
func (s *FlightService) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) ([]byte, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.backoff
	exp.Multiplier = 2
	exp.MaxInterval = 8 * s.backoff
	exp.Reset()

	var body []byte
	attempts := 0
	operation := func() error {
		attempts++
		token, err := s.tokens.Token()
		if err != nil {
			return fmt.Errorf("%w: token: %w", ErrFlightAPI, err)
		}

		resp, err := send(s.client.R().SetContext(ctx).SetAuthToken(token.AccessToken))
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %w", ErrFlightAPI, err)
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusBadRequest:
			return backoff.Permanent(invalidField("search", "invalid search parameters; check airport codes and dates"))
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: status %d", ErrFlightAPI, code)
		case code >= http.StatusMultipleChoices:
			return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrFlightAPI, code, truncateRunes(resp.String(), 256)))
		}
		body = resp.Body()
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(exp, s.retries), ctx))
	if err != nil {
		event := s.log.Warn()
		if !errors.Is(err, ErrFlightAPI) {
			event = s.log.Debug()
		}
		event.Err(err).Str("op", op).Int("attempts", attempts).Msg("flight api call failed")
		return nil, err
	}
	return body, nil
}

func searchParams(input FlightSearchInput) (map[string]string, error) {
	origin := iataCode(input.Origin)
	destination := iataCode(input.Destination)
	switch {
	case origin == "":
		return nil, invalidField("origin", "is required")
	case destination == "":
		return nil, invalidField("destination", "is required")
	case strings.TrimSpace(input.DepartureDate) == "":
		return nil, invalidField("departureDate", "is required")
	}

	departure, err := calendar.Parse(input.DepartureDate)
	if err != nil {
		return nil, invalidField("departureDate", "must be a YYYY-MM-DD date")
	}

	adults := input.Adults
	if adults == 0 {
		adults = 1
	}
	if adults < 1 || adults > maxAdults {
		return nil, invalidField("adults", fmt.Sprintf("must be between 1 and %d", maxAdults))
	}

	class := strings.ToUpper(strings.TrimSpace(input.TravelClass))
	if class == "" {
		class = "ECONOMY"
	}
	if !travelClasses[class] {
		return nil, invalidField("travelClass", "must be ECONOMY, PREMIUM_ECONOMY, BUSINESS or FIRST")
	}

	params := map[string]string{
		"originLocationCode":      origin,
		"destinationLocationCode": destination,
		"departureDate":           departure.String(),
		"adults":                  fmt.Sprint(adults),
		"travelClass":             class,
		"nonStop":                 "false",
		"max":                     fmt.Sprint(maxFlightOffers),
	}

	if strings.TrimSpace(input.ReturnDate) != "" {
		ret, err := calendar.Parse(input.ReturnDate)
		if err != nil {
			return nil, invalidField("returnDate", "must be a YYYY-MM-DD date")
		}
		if ret.Before(departure) {
			return nil, invalidField("returnDate", "must not be before departureDate")
		}
		params["returnDate"] = ret.String()
	}
	return params, nil
}

func iataCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}
