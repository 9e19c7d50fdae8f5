package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/db"
	"github.com/tripsync/internal/service"
)

type pinRequest struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Day         string   `json:"day"`
}

func (r pinRequest) input() service.PinInput {
	return service.PinInput{
		Lat:         r.Lat,
		Lng:         r.Lng,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Day:         r.Day,
	}
}

func serializePin(pin db.Pin) gin.H {
	payload := gin.H{
		"id":          pin.ID,
		"tripId":      pin.TripID,
		"lat":         pin.Lat,
		"lng":         pin.Lng,
		"title":       pin.Title,
		"description": pin.Description,
		"category":    pin.Category,
		"day":         nil,
		"createdBy":   serializeUser(pin.CreatedBy),
		"createdAt":   pin.CreatedAt,
	}
	if pin.Day != nil {
		payload["day"] = pin.Day.String()
	}
	return payload
}

func (a *API) ListPins(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	pins, err := a.pins.List(c.Request.Context(), tripID, currentUserID(c), c.Query("day"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	payload := make([]gin.H, 0, len(pins))
	for _, pin := range pins {
		payload = append(payload, serializePin(pin))
	}
	c.JSON(http.StatusOK, gin.H{"pins": payload})
}

func (a *API) CreatePin(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req pinRequest
	if !bindJSON(c, &req, "invalid pin payload") {
		return
	}
	pin, err := a.pins.Create(c.Request.Context(), tripID, currentUserID(c), req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pin": serializePin(*pin)})
}

func (a *API) UpdatePin(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	pinID, err := parseUintParam(c, "pinId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	var req pinRequest
	if !bindJSON(c, &req, "invalid pin payload") {
		return
	}
	pin, err := a.pins.Update(c.Request.Context(), tripID, pinID, currentUserID(c), req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pin": serializePin(*pin)})
}

func (a *API) DeletePin(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	pinID, err := parseUintParam(c, "pinId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.pins.Delete(c.Request.Context(), tripID, pinID, currentUserID(c)); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pin deleted"})
}
