package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/http/middleware"
	"smarttravel/internal/repositories"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /signup
func (a *App) Signup(c *gin.Context) {
	var req signupRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if _, err := a.authService(c).Signup(req.Name, req.Email, req.Password); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"redirect": "/login-page"})
}

// POST /login
func (a *App) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	user, token, err := a.authService(c).Login(req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, a.cookieMaxAge(), "/", "", a.SecureCookies, true)
	RespondSuccess(c, gin.H{
		"redirect": "/dashboard",
		"token":    token,
		"user":     gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

// POST /logout drops the caller's planner session and chat, then clears the cookie.
func (a *App) Logout(c *gin.Context) {
	if raw, err := c.Cookie(middleware.SessionCookie); err == nil && raw != "" {
		if rc, err := a.TokenParser().ParseToken(raw); err == nil {
			a.Sessions.Drop(rc.UserID)
			a.Chats.Drop(rc.UserID)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.SecureCookies, true)
	RespondSuccess(c, gin.H{"redirect": "/login-page"})
}

// GET /api/me
func (a *App) Me(c *gin.Context) {
	user, err := repositories.UserRepository{DB: a.DB}.GetByID(int64(currentUserID(c)))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"user": gin.H{"id": user.ID, "name": user.Name, "email": user.Email}})
}

func (a *App) cookieMaxAge() int {
	if a.SessionTTL > 0 {
		return int(a.SessionTTL.Seconds())
	}
	return 24 * 60 * 60
}
