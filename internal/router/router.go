package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/tripsync/internal/handler"
)

const (
	sessionName     = "tripsync_session"
	requestIDHeader = "X-Request-ID"
)

// Options configures the engine's middleware.
type Options struct {
	SessionSecret string
	FrontendURLs  []string
	// RateLimit uses the limiter format, e.g. "1000-H".
	RateLimit string
	// SecureCookies marks the session cookie Secure and SameSite=None.
	SecureCookies bool
	Logger        zerolog.Logger
}

// SetupRouter configures the Gin engine and routes.
func SetupRouter(api *handler.API, opts Options) (*gin.Engine, error) {
	r := gin.New()

	rateLimit, err := limiterMiddleware(opts.RateLimit)
	if err != nil {
		return nil, err
	}

	r.Use(requestLogger(opts.Logger))
	r.Use(gin.Recovery())
	r.Use(rateLimit)
	r.Use(cors.New(corsConfig(opts.FrontendURLs)))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(secure.New(secure.Config{
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		IsDevelopment:        gin.Mode() != gin.ReleaseMode,
	}))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	sameSite := http.SameSiteLaxMode
	if opts.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: sameSite,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/health", healthCheck(api))

	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", api.Register)
		authRoutes.POST("/login", api.Login)
		authRoutes.POST("/logout", api.Logout)
		authRoutes.GET("/me", handler.AuthRequired(), api.Me)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(handler.AuthRequired())
	{
		trips := apiRoutes.Group("/trips")
		trips.GET("", api.ListTrips)
		trips.POST("", api.CreateTrip)
		trips.GET("/:id", api.GetTrip)
		trips.PUT("/:id", api.UpdateTrip)
		trips.DELETE("/:id", api.DeleteTrip)

		trips.POST("/:id/members", api.AddMember)
		trips.DELETE("/:id/members/:memberId", api.RemoveMember)

		trips.GET("/:id/plan", api.GetPlan)
		trips.PUT("/:id/plan", api.UpdatePlan)
		trips.DELETE("/:id/plan", api.ClearPlan)

		trips.GET("/:id/availability", api.GetAvailability)
		trips.POST("/:id/availability", api.SetAvailability)
		trips.DELETE("/:id/availability", api.ClearAvailability)
		trips.POST("/:id/availability/range", api.ApplyRange)
		trips.GET("/:id/availability/top", api.TopDates)
		trips.GET("/:id/availability/overview", api.Overview)
		trips.GET("/:id/availability/users/:userId/:date", api.GetUserStatus)

		trips.GET("/:id/pins", api.ListPins)
		trips.POST("/:id/pins", api.CreatePin)
		trips.PUT("/:id/pins/:pinId", api.UpdatePin)
		trips.DELETE("/:id/pins/:pinId", api.DeletePin)

		trips.POST("/:id/recommendations", api.Recommend)

		apiRoutes.POST("/flights/search", api.SearchFlights)
		apiRoutes.POST("/flights/price", api.PriceFlight)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	conf := cors.DefaultConfig()
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	conf.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	conf.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader}
	conf.ExposeHeaders = []string{requestIDHeader}
	conf.AllowCredentials = true
	conf.MaxAge = 12 * time.Hour
	return conf
}

func limiterMiddleware(formatted string) (gin.HandlerFunc, error) {
	if formatted == "" {
		formatted = "1000-H"
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance), nil
}

// requestLogger tags each request with an ID and logs it when done.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func healthCheck(api *handler.API) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := api.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "TripSync API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
