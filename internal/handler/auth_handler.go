package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/db"
	"github.com/tripsync/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func serializeUser(user db.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}

// Register creates an account and starts a session for it.
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	if !a.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": serializeUser(*user)})
}

// Login checks credentials and stores user_id in the session.
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		a.respondServiceError(c, err)
		return
	}

	if !a.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": serializeUser(*user)})
}

// Logout clears the session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the signed-in user.
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": serializeUser(*user)})
}

func (a *API) startSession(c *gin.Context, user *db.User) bool {
	session := sessions.Default(c)
	session.Set(userIDKey, user.ID)
	if err := session.Save(); err != nil {
		a.log.Error().Err(err).Msg("failed to save session")
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return false
	}
	return true
}

// AuthRequired rejects requests without a session user with 401 JSON.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(userIDKey).(uint)
		if !ok || userID == 0 {
			respondError(c, http.StatusUnauthorized, errUnauthenticated.Error())
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}
