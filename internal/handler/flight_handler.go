package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/service"
)

type flightSearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Adults        int    `json:"adults"`
	TravelClass   string `json:"travelClass"`
}

type flightPriceRequest struct {
	FlightOffer json.RawMessage `json:"flightOffer"`
}

type recommendationRequest struct {
	Preferences string `json:"preferences"`
}

func (a *API) SearchFlights(c *gin.Context) {
	var req flightSearchRequest
	if !bindJSON(c, &req, "invalid flight search payload") {
		return
	}
	result, err := a.flights.Search(c.Request.Context(), service.FlightSearchInput{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Adults,
		TravelClass:   req.TravelClass,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": result.Flights, "meta": result.Meta})
}

func (a *API) PriceFlight(c *gin.Context) {
	var req flightPriceRequest
	if !bindJSON(c, &req, "invalid flight price payload") {
		return
	}
	offer, err := a.flights.Price(c.Request.Context(), req.FlightOffer)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flightOffer": offer})
}

// Recommend asks the AI provider for itinerary ideas.
func (a *API) Recommend(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req recommendationRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid recommendation payload") {
		return
	}
	rec, err := a.recommendations.Generate(c.Request.Context(), tripID, currentUserID(c), service.RecommendationInput{
		Preferences: req.Preferences,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ideas":     rec.Ideas,
		"ideasHtml": rec.IdeasHTML,
		"startDate": rec.Window.Start,
		"endDate":   rec.Window.End,
	})
}
