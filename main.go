package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/chatbot"
	intconfig "smarttravel/internal/config"
	"smarttravel/internal/geo"
	router "smarttravel/internal/http"
	"smarttravel/internal/http/handlers"
	"smarttravel/internal/http/middleware"
	"smarttravel/internal/session"
)

func main() {
	env := intconfig.LoadEnv()
	if err := env.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer intconfig.CloseDB()

	geoOpts := func(base string) geo.Options {
		return geo.Options{BaseURL: base, UserAgent: env.GeoUserAgent, Timeout: env.GeoTimeout}
	}
	nominatim := geo.NewNominatim(geoOpts(env.NominatimURL))
	osrm := geo.NewOSRM(geoOpts(env.OSRMURL))
	overpass := geo.NewOverpass(geoOpts(env.OverpassURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chats := chatbot.NewStore(nil)
	sessions := session.NewManager(osrm,
		session.WithTTL(env.SessionTTL),
		session.WithRouteTimeout(env.GeoTimeout),
		session.WithOnDrop(chats.Drop),
	)
	go sessions.Run(ctx, time.Minute)

	limiter := middleware.NewRateLimiter(env.GeoRateLimit, time.Minute)
	go limiter.Cleanup(ctx)

	app := &handlers.App{
		DB:             db,
		JWTSecret:      []byte(env.JWTSecret),
		SessionTTL:     env.SessionTTL,
		SecureCookies:  env.GinMode == gin.ReleaseMode,
		Sessions:       sessions,
		Chats:          chats,
		Geocoder:       nominatim,
		Overpass:       overpass,
		AllowedOrigins: env.CORSAllowedOrigins,
	}

	r := router.NewRouter(env, app, limiter)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("server stopped cleanly.")
}
