package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReportRouter() *gin.Engine {
	router := setupTestRouter()
	router.GET("/api/reports/:id", ListReports)
	router.POST("/api/reports/:id", CreateReport)
	return router
}

func TestCreateReport(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-r")
	router := setupReportRouter()

	tests := []struct {
		name           string
		userID         string
		body           gin.H
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Insert report successfully",
			userID:         "uid-r",
			body:           gin.H{"report_date": "2024-05-01T08:30:00Z", "report_probability": 0.42, "report_prediction": 0},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Accept date-only report dates",
			userID:         "uid-r",
			body:           gin.H{"report_date": "2024-05-02", "report_probability": 0, "report_prediction": 0},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Accept RFC 1123 report dates",
			userID:         "uid-r",
			body:           gin.H{"report_date": "Fri, 01 Mar 2024 10:00:00 GMT", "report_probability": 0.9, "report_prediction": 1},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Fail with missing prediction",
			userID:         "uid-r",
			body:           gin.H{"report_date": "2024-05-01", "report_probability": 0.42},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with unparseable date",
			userID:         "uid-r",
			body:           gin.H{"report_date": "yesterday", "report_probability": 0.42, "report_prediction": 0},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with probability out of range",
			userID:         "uid-r",
			body:           gin.H{"report_date": "2024-05-01", "report_probability": -0.1, "report_prediction": 0},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail with unknown label",
			userID:         "uid-r",
			body:           gin.H{"report_date": "2024-05-01", "report_probability": 0.5, "report_prediction": 2},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Fail for unknown user",
			userID:         "nobody",
			body:           gin.H{"report_date": "2024-05-01", "report_probability": 0.5, "report_prediction": 1},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := performRequest(router, http.MethodPost, "/api/reports/"+tt.userID, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode == "" {
				assert.Equal(t, "Report added successfully!", response["message"])
			} else {
				assert.Equal(t, tt.expectedCode, errorCode(response))
			}
		})
	}

	var count int64
	db.Model(&models.Report{}).Where("user_id = ?", "uid-r").Count(&count)
	assert.Equal(t, int64(3), count)

	var rfc1123 models.Report
	require.NoError(t, db.Where("user_id = ? AND report_prediction = ?", "uid-r", 1).First(&rfc1123).Error)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(rfc1123.ReportDate), "got %v", rfc1123.ReportDate)
}

func TestListReports_OrderedByDate(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-r")
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Report{UserID: "uid-r", ReportDate: later, ReportProbability: 0.8, ReportPrediction: 1}).Error)
	require.NoError(t, db.Create(&models.Report{UserID: "uid-r", ReportDate: earlier, ReportProbability: 0.2, ReportPrediction: 0}).Error)

	router := setupReportRouter()
	w, response := performRequest(router, http.MethodGet, "/api/reports/uid-r", nil)

	require.Equal(t, http.StatusOK, w.Code)
	reports := response["data"].([]interface{})
	require.Len(t, reports, 2)
	assert.Equal(t, 0.2, reports[0].(map[string]interface{})["report_probability"])
	assert.Equal(t, 0.8, reports[1].(map[string]interface{})["report_probability"])
	assert.NotContains(t, reports[0], "user_id")
}

func TestListReports_UnknownUser(t *testing.T) {
	setupTestDB(t)
	router := setupReportRouter()

	w, response := performRequest(router, http.MethodGet, "/api/reports/nobody", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, response["data"])
}

func TestCreateReport_DateFormats(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-d")
	router := setupReportRouter()

	for _, value := range []string{
		"2024-05-01T08:30:00Z",
		"2024-05-01T08:30:00.123456",
		"2024-05-01T08:30:00",
		"2024-05-01 08:30:00",
		"2024-05-01",
		"Wed, 01 May 2024 08:30:00 GMT",
	} {
		w, response := performRequest(router, http.MethodPost, "/api/reports/uid-d",
			gin.H{"report_date": value, "report_probability": 0.3, "report_prediction": 0})
		require.Equal(t, http.StatusCreated, w.Code, "%s: %s", value, w.Body.String())

		data := response["data"].(map[string]interface{})
		stored, err := time.Parse(time.RFC3339Nano, data["report_date"].(string))
		require.NoError(t, err, value)
		assert.Equal(t, 2024, stored.Year(), value)
		assert.Equal(t, time.May, stored.Month(), value)
		assert.Equal(t, 1, stored.Day(), value)
	}
}
