package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/spf13/cast"
)

// CreateReportRequest represents the request body for inserting a report directly
type CreateReportRequest struct {
	ReportDate        string   `json:"report_date" binding:"required"`
	ReportProbability *float64 `json:"report_probability" binding:"required"`
	ReportPrediction  *int     `json:"report_prediction" binding:"required"`
}

// ListReports handles GET /api/reports/:id
func ListReports(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	reports := []models.Report{}
	if err := db.Where("user_id = ?", c.Param("id")).Order("report_date, id").Find(&reports).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch reports", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reports,
	})
}

// CreateReport handles POST /api/reports/:id - inserts a report without running the model
func CreateReport(c *gin.Context) {
	userID := c.Param("id")

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "report_date, report_probability and report_prediction are required.", err)
		return
	}

	// ISO 8601 dates and RFC 1123 dates such as "Fri, 01 Mar 2024 10:00:00 GMT" are accepted
	reportDate, err := cast.ToTimeE(req.ReportDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid report_date", err)
		return
	}
	// Keep the raw path consistent with what the prediction endpoint stores
	if !models.IsValidProbability(*req.ReportProbability) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "report_probability must be between 0 and 1", nil)
		return
	}
	if !models.IsValidPrediction(*req.ReportPrediction) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "report_prediction must be 0 or 1", nil)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	exists, err := userExists(db, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user", err)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
		return
	}

	report := models.Report{
		UserID:            userID,
		ReportDate:        reportDate,
		ReportProbability: *req.ReportProbability,
		ReportPrediction:  *req.ReportPrediction,
	}
	if err := db.Create(&report).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add report", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Report added successfully!",
		"data":    report,
	})
}
