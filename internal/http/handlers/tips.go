package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/tips"
)

// GET /api/tips[?category=]
func (a *App) Tips(c *gin.Context) {
	if name := c.Query("category"); name != "" {
		cat, ok := tips.Find(name)
		if !ok {
			respondError(c, http.StatusNotFound, "Tip category not found", nil)
			return
		}
		RespondSuccess(c, gin.H{"categories": []tips.Category{cat}})
		return
	}
	RespondSuccess(c, gin.H{"categories": tips.All()})
}
