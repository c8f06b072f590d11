package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/chatbot"
	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
	"smarttravel/internal/http/middleware"
	"smarttravel/internal/nearby"
	"smarttravel/internal/repositories"
	"smarttravel/internal/services"
	"smarttravel/internal/session"
)

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geo.Location, error)
	Reverse(ctx context.Context, p geo.Point) (string, error)
}

// App holds what the handlers share. A nil DB falls back to the global connection.
type App struct {
	DB             *sql.DB
	JWTSecret      []byte
	SessionTTL     time.Duration
	SecureCookies  bool
	Sessions       *session.Manager
	Chats          *chatbot.Store
	Geocoder       Geocoder
	Overpass       nearby.Querier
	AllowedOrigins []string
	Now            func() time.Time
	// HashCost overrides the bcrypt cost; tests lower it.
	HashCost int
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) authService(c *gin.Context) services.AuthService {
	return services.AuthService{
		Users:     repositories.UserRepository{DB: a.DB},
		Secret:    a.JWTSecret,
		TTL:       a.SessionTTL,
		Now:       a.Now,
		RequestID: middleware.GetRequestID(c),
		HashCost:  a.HashCost,
	}
}

// TokenParser verifies tokens for the auth middleware.
func (a *App) TokenParser() middleware.TokenParser {
	return services.AuthService{Secret: a.JWTSecret, Now: a.Now}
}

func (a *App) tripService(c *gin.Context) services.TripService {
	return services.TripService{
		Trips:     repositories.TripRepository{DB: a.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *App) expenseService(c *gin.Context) services.ExpenseService {
	return services.ExpenseService{
		Trips:     a.tripService(c),
		Expenses:  repositories.ExpenseRepository{DB: a.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *App) reportService(c *gin.Context) services.ReportService {
	return services.ReportService{
		Expenses:  a.expenseService(c),
		RequestID: middleware.GetRequestID(c),
		Now:       a.Now,
	}
}

// session returns the caller's session. RequireAuth guarantees a user.
func (a *App) session(c *gin.Context) *session.Session {
	return a.Sessions.Get(currentUserID(c))
}

func currentUserID(c *gin.Context) domain.ID {
	rc, _ := middleware.CurrentUser(c)
	return rc.UserID
}
