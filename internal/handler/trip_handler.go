package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/db"
	"github.com/tripsync/internal/service"
)

type tripRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type memberRequest struct {
	Email string `json:"email"`
}

type planRequest struct {
	PlanText string `json:"planText"`
}

func (r tripRequest) input() service.TripInput {
	return service.TripInput{
		Name:        r.Name,
		Destination: r.Destination,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

func serializeTrip(trip db.Trip) gin.H {
	members := make([]gin.H, 0, len(trip.Members))
	for _, member := range trip.Members {
		members = append(members, serializeUser(member.User))
	}
	return gin.H{
		"id":          trip.ID,
		"name":        trip.Name,
		"destination": trip.Destination,
		"startDate":   trip.StartDate,
		"endDate":     trip.EndDate,
		"planText":    trip.PlanText,
		"owner":       serializeUser(trip.Owner),
		"members":     members,
		"createdAt":   trip.CreatedAt,
		"updatedAt":   trip.UpdatedAt,
	}
}

func serializePlan(plan service.Plan) gin.H {
	return gin.H{"planText": plan.Text, "planHtml": plan.HTML}
}

// ListTrips returns trips the caller owns or belongs to.
func (a *API) ListTrips(c *gin.Context) {
	trips, err := a.trips.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	payload := make([]gin.H, 0, len(trips))
	for _, trip := range trips {
		payload = append(payload, serializeTrip(trip))
	}
	c.JSON(http.StatusOK, gin.H{"trips": payload})
}

func (a *API) GetTrip(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	trip, err := a.trips.Get(c.Request.Context(), tripID, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": serializeTrip(*trip)})
}

func (a *API) CreateTrip(c *gin.Context) {
	var req tripRequest
	if !bindJSON(c, &req, "invalid trip payload") {
		return
	}
	trip, err := a.trips.Create(c.Request.Context(), currentUserID(c), req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip": serializeTrip(*trip)})
}

func (a *API) UpdateTrip(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req tripRequest
	if !bindJSON(c, &req, "invalid trip payload") {
		return
	}
	trip, err := a.trips.Update(c.Request.Context(), tripID, currentUserID(c), req.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": serializeTrip(*trip)})
}

func (a *API) DeleteTrip(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	if err := a.trips.Delete(c.Request.Context(), tripID, currentUserID(c)); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip deleted"})
}

// AddMember invites a registered user by email.
func (a *API) AddMember(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req memberRequest
	if !bindJSON(c, &req, "invalid member payload") {
		return
	}
	trip, err := a.trips.AddMember(c.Request.Context(), tripID, currentUserID(c), req.Email)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": serializeTrip(*trip)})
}

func (a *API) RemoveMember(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	memberID, err := parseUintParam(c, "memberId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	trip, err := a.trips.RemoveMember(c.Request.Context(), tripID, currentUserID(c), memberID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": serializeTrip(*trip)})
}

func (a *API) GetPlan(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	plan, err := a.trips.GetPlan(c.Request.Context(), tripID, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializePlan(plan))
}

func (a *API) UpdatePlan(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	var req planRequest
	if !bindJSON(c, &req, "invalid plan payload") {
		return
	}
	plan, err := a.trips.SetPlan(c.Request.Context(), tripID, currentUserID(c), req.PlanText)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializePlan(plan))
}

func (a *API) ClearPlan(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	if err := a.trips.ClearPlan(c.Request.Context(), tripID, currentUserID(c)); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializePlan(service.Plan{}))
}
