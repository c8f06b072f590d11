package api

import (
	"log"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "smarttravel/internal/config"
	h "smarttravel/internal/http/handlers"
	"smarttravel/internal/http/middleware"
)

// NewRouter wires every endpoint onto a gin engine. limiter throttles the
// endpoints that call third-party geo services.
func NewRouter(env intconfig.Env, app *h.App, limiter *middleware.RateLimiter) *gin.Engine {
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"status":  "error",
			"message": "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	if limiter == nil {
		limiter = middleware.NewRateLimiter(env.GeoRateLimit, time.Minute)
	}
	auth := middleware.RequireAuth(app.TokenParser())
	geoLimit := middleware.RateLimit(limiter)

	// Legacy form endpoints
	r.POST("/signup", app.Signup)
	r.POST("/login", app.Login)
	r.POST("/logout", app.Logout)

	legacy := r.Group("", auth)
	legacy.POST("/add-trip", app.AddTrip)
	legacy.GET("/get-trips", app.GetTrips)
	legacy.POST("/update-trip", app.UpdateTrip)
	legacy.POST("/delete-trip", app.DeleteTrip)
	legacy.POST("/add-expense", app.AddExpense)
	legacy.GET("/get-expenses/:trip_id", app.GetExpenses)

	api := r.Group("/api")
	{
		api.GET("/health", app.Health)
		api.GET("/db-check", app.DBCheck)
		api.GET("/routes", h.Routes)
		api.GET("/locations", geoLimit, app.Locations)
		api.GET("/tips", app.Tips)

		private := api.Group("", auth)
		private.GET("/me", app.Me)

		planner := private.Group("/planner")
		planner.GET("", app.GetPlanner)
		planner.DELETE("", app.ClearPlanner)
		planner.PUT("/start", geoLimit, app.SetPlannerStart)
		planner.PUT("/destination", geoLimit, app.SetPlannerDestination)
		planner.PUT("/viewport", app.SetPlannerViewport)

		tracking := private.Group("/tracking")
		tracking.GET("", app.GetTracking)
		tracking.GET("/ws", app.TrackingSocket)
		tracking.POST("/select", app.SelectTrackingTrip)
		tracking.POST("/start", app.StartTracking)
		tracking.POST("/position", app.TrackingPosition)
		tracking.POST("/error", app.TrackingPositionError)
		tracking.POST("/recalculate", geoLimit, app.RecalculateRoute)
		tracking.POST("/stop", app.StopTracking)

		private.POST("/budget/estimate", app.EstimateBudget)
		private.POST("/nearby", geoLimit, app.Nearby)
		private.POST("/chat", app.Chat)
		private.GET("/chat/transcript", app.ChatTranscript)

		private.GET("/trips/:id/report.pdf", app.TripReportPDF)
		private.GET("/trips/:id/report.xlsx", app.TripReportXLSX)
	}

	h.SetRouter(r)
	return r
}
