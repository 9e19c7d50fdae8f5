package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/calendar"
)

type setAvailabilityRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type clearAvailabilityRequest struct {
	Date string `json:"date"`
}

type rangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
}

func serializeRecord(rec availability.Record) gin.H {
	return gin.H{
		"tripId": rec.TripID,
		"userId": rec.UserID,
		"user": gin.H{
			"id":    rec.Voter.ID,
			"name":  rec.Voter.Name,
			"email": rec.Voter.Email,
		},
		"date":      rec.Date,
		"status":    rec.Status,
		"createdAt": rec.CreatedAt,
		"updatedAt": rec.UpdatedAt,
	}
}

func serializeRecords(records []availability.Record) []gin.H {
	payload := make([]gin.H, 0, len(records))
	for _, rec := range records {
		payload = append(payload, serializeRecord(rec))
	}
	return payload
}

func serializeRanked(ranked []availability.RankedDate) []gin.H {
	payload := make([]gin.H, 0, len(ranked))
	for _, r := range ranked {
		payload = append(payload, gin.H{
			"date":       r.Date,
			"score":      r.Score,
			"percentage": r.Heat.Percentage,
			"tier":       r.Heat.Tier,
		})
	}
	return payload
}

func days(list []calendar.Day) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		out = append(out, d.String())
	}
	return out
}

func (a *API) GetAvailability(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	records, err := a.availability.GetAvailability(c.Request.Context(), tripID, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilities": serializeRecords(records)})
}

// SetAvailability upserts the caller's status for one day.
func (a *API) SetAvailability(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req setAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	rec, err := a.availability.SetAvailability(c.Request.Context(), availability.SetInput{
		TripID:  tripID,
		ActorID: currentUserID(c),
		Date:    req.Date,
		Status:  req.Status,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": serializeRecord(rec)})
}

// ClearAvailability takes the date from the JSON body or ?date=.
func (a *API) ClearAvailability(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" && c.Request.ContentLength != 0 {
		var req clearAvailabilityRequest
		if !bindJSON(c, &req, "invalid availability payload") {
			return
		}
		date = req.Date
	}
	err := a.availability.ClearAvailability(c.Request.Context(), availability.ClearInput{
		TripID:  tripID,
		ActorID: currentUserID(c),
		Date:    date,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "availability cleared"})
}

// ApplyRange sets or clears every day of a range. A partial failure answers
// with the error status plus what was applied and what remains.
func (a *API) ApplyRange(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req rangeRequest
	if !bindJSON(c, &req, "invalid range payload") {
		return
	}

	result, err := a.availability.ApplyStatusToRange(c.Request.Context(), availability.RangeInput{
		TripID:    tripID,
		ActorID:   currentUserID(c),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
	})

	var partial *availability.PartialError
	if errors.As(err, &partial) {
		kind := availability.KindOf(err)
		a.log.Warn().Err(err).Uint("trip_id", tripID).Msg("range applied partially")
		c.JSON(statusForKind(kind), gin.H{
			"error":     err.Error(),
			"kind":      string(kind),
			"retryable": kind.Retryable(),
			"applied":   days(result.Applied),
			"failed":    result.Failed,
			"remaining": days(result.Pending),
		})
		return
	}
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"startDate":      result.Range.Start,
		"endDate":        result.Range.End,
		"status":         result.Status,
		"applied":        days(result.Applied),
		"availabilities": serializeRecords(result.Records),
	})
}

// GetUserStatus answers one member's status on one day.
func (a *API) GetUserStatus(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	status, err := a.availability.GetUserStatus(c.Request.Context(), tripID, currentUserID(c), userID, c.Param("date"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "date": c.Param("date"), "status": status})
}

// TopDates ranks candidate days; ?limit= overrides the configured count.
func (a *API) TopDates(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	limit, ok := a.limitQuery(c)
	if !ok {
		return
	}
	ranked, err := a.availability.TopDates(c.Request.Context(), tripID, currentUserID(c), limit)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topDates": serializeRanked(ranked)})
}

// Overview returns the full per-day board.
func (a *API) Overview(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	limit, ok := a.limitQuery(c)
	if !ok {
		return
	}
	overview, err := a.availability.Overview(c.Request.Context(), tripID, currentUserID(c), limit)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	dayPayload := make([]gin.H, 0, len(overview.Days))
	for _, day := range overview.Days {
		members := make([]gin.H, 0, len(day.Statuses))
		for _, ms := range day.Statuses {
			members = append(members, gin.H{
				"userId": ms.Member.ID,
				"name":   ms.Member.Name,
				"status": ms.Status,
			})
		}
		dayPayload = append(dayPayload, gin.H{
			"date":       day.Date,
			"score":      day.Score,
			"percentage": day.Heat.Percentage,
			"tier":       day.Heat.Tier,
			"mine":       day.Mine,
			"members":    members,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"startDate": overview.Window.Start,
		"endDate":   overview.Window.End,
		"truncated": overview.Truncated,
		"days":      dayPayload,
		"topDates":  serializeRanked(overview.Top),
		"weights": gin.H{
			"can":    overview.Weights.Can,
			"maybe":  overview.Weights.Maybe,
			"cannot": overview.Weights.Cannot,
		},
	})
}

func (a *API) limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return a.topDates, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		respondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
