package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/internal/availability"
)

const userIDKey = "user_id"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind availability.Kind) int {
	switch kind {
	case availability.KindInvalidInput:
		return http.StatusBadRequest
	case availability.KindAccessDenied:
		return http.StatusForbidden
	case availability.KindNotFound:
		return http.StatusNotFound
	case availability.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case availability.KindCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes {"error","kind","field"} for err. Internal
// errors are logged and hidden from the client.
func (a *API) respondServiceError(c *gin.Context, err error) {
	kind := availability.KindOf(err)
	status := statusForKind(kind)

	message := err.Error()
	if kind == availability.KindInternal {
		a.log.Error().Stack().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal server error"
	} else if kind == availability.KindStoreUnavailable {
		a.log.Warn().Err(err).Str("path", c.FullPath()).Msg("store unavailable")
	}

	body := gin.H{"error": message, "kind": string(kind)}
	if field := availability.FieldOf(err); field != "" {
		body["field"] = field
	}
	if kind.Retryable() {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// tripParam parses :id and writes a 400 on failure.
func tripParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

var errUnauthenticated = errors.New("authentication required")
