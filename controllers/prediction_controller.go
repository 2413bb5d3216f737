package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/services"
	"github.com/heartcare-app/heartcare-api/utils"
)

// Predict handles POST /api/predict/:id - scores the payload and stores a report
func Predict(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a JSON object", err)
		return
	}

	modelService := services.GetModelService()
	if modelService == nil {
		respondError(c, http.StatusInternalServerError, "MODEL_ERROR", "Model is not configured", errors.New("model service not initialized"))
		return
	}

	service := services.NewPredictionService(config.GetDB(), modelService)
	result, _, err := service.PredictForUser(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		respondPredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func respondPredictionError(c *gin.Context, err error) {
	var missingErr *services.MissingFieldsError
	if errors.As(err, &missingErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":           "MISSING_FIELDS",
				"message":        missingErr.Error(),
				"missing_fields": missingErr.Fields,
			},
		})
		return
	}

	var featureErr *utils.FeatureError
	var modelErr *services.ModelError
	switch {
	case errors.As(err, &featureErr):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid prediction input", err)
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
	case errors.As(err, &modelErr):
		respondError(c, http.StatusInternalServerError, "MODEL_ERROR", "Failed to run the prediction model", err)
	default:
		respondError(c, http.StatusInternalServerError, "PREDICTION_ERROR", "Failed to store the prediction", err)
	}
}
