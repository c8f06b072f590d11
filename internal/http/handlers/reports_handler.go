package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/trips/:id/report.pdf
func (a *App) TripReportPDF(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, filename, err := a.reportService(c).GeneratePDF(int64(currentUserID(c)), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

// GET /api/trips/:id/report.xlsx
func (a *App) TripReportXLSX(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	body, filename, err := a.reportService(c).GenerateXLSX(int64(currentUserID(c)), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, body)
}
