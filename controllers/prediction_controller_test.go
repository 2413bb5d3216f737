package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/heartcare-app/heartcare-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predictionPayload() gin.H {
	return gin.H{
		"General_Health":               "good",
		"Checkup":                      "within_2_years",
		"Exercise":                     "Yes",
		"Skin_Cancer":                  "No",
		"Other_Cancer":                 "No",
		"Depression":                   "Yes",
		"Diabetes":                     "No",
		"Arthritis":                    "No",
		"Sex":                          "Male",
		"Age":                          45,
		"Height_(cm)":                  175,
		"Weight_(kg)":                  82,
		"Smoking_History":              "Yes",
		"Alcohol_Consumption":          "Yes",
		"Fruit_Consumption":            "No",
		"Green_Vegetables_Consumption": "Yes",
		"FriedPotato_Consumption":      "No",
	}
}

// setupModelService installs a mock model backed by a placeholder artifact
func setupModelService(t *testing.T, loader *services.MockLoader) {
	t.Helper()
	artifact := filepath.Join(t.TempDir(), "model_xgboost.bin")
	require.NoError(t, os.WriteFile(artifact, []byte("model"), 0o600))

	services.SetModelService(services.NewModelService(artifact, loader.Load, 0))
	t.Cleanup(func() { services.SetModelService(nil) })
}

func setupPredictRouter() *gin.Engine {
	router := setupTestRouter()
	router.POST("/api/predict/:id", Predict)
	return router
}

func countReports(t *testing.T, userID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, config.GetDB().Model(&models.Report{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestPredict_Success(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-p")
	classifier := services.NewMockClassifier(0.64)
	setupModelService(t, &services.MockLoader{Classifier: classifier})

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", predictionPayload())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["Prediction"])
	proba := data["Prediction Probability"].([]interface{})
	require.Len(t, proba, 2)
	assert.InDelta(t, 0.36, proba[0].(float64), 1e-9)
	assert.InDelta(t, 0.64, proba[1].(float64), 1e-9)

	var report models.Report
	require.NoError(t, db.Where("user_id = ?", "uid-p").First(&report).Error)
	assert.Equal(t, 1, report.ReportPrediction)
	assert.InDelta(t, 0.64, report.ReportProbability, 1e-9)

	// Age 45 falls in the fifth bucket; 82kg at 175cm is BMI 26.78
	features := classifier.LastFeatures()
	assert.Equal(t, float64(5), features[8])
	assert.Equal(t, 26.78, features[11])
}

func TestPredict_MissingFields(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-p")
	loader := &services.MockLoader{Classifier: services.NewMockClassifier(0.5)}
	setupModelService(t, loader)

	payload := predictionPayload()
	delete(payload, "Exercise")
	delete(payload, "FriedPotato_Consumption")

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "MISSING_FIELDS", errorData["code"])
	assert.Equal(t, []interface{}{"Exercise", "FriedPotato_Consumption"}, errorData["missing_fields"])
	assert.Equal(t, "Missing fields: Exercise, FriedPotato_Consumption", errorData["message"])
	assert.Equal(t, 0, loader.Loads(), "The model is not loaded for rejected payloads")
	assert.Equal(t, int64(0), countReports(t, "uid-p"))
}

func TestPredict_InvalidHeight(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-p")
	setupModelService(t, &services.MockLoader{Classifier: services.NewMockClassifier(0.5)})

	payload := predictionPayload()
	payload["Height_(cm)"] = 0

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	assert.Equal(t, int64(0), countReports(t, "uid-p"))
}

func TestPredict_UnknownUser(t *testing.T) {
	setupTestDB(t)
	setupModelService(t, &services.MockLoader{Classifier: services.NewMockClassifier(0.5)})

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/nobody", predictionPayload())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(response))
}

func TestPredict_ModelFailure(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-p")
	setupModelService(t, &services.MockLoader{Err: errors.New("corrupt artifact")})

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", predictionPayload())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "MODEL_ERROR", errorCode(response))
	assert.Equal(t, int64(0), countReports(t, "uid-p"))
}

func TestPredict_ModelNotConfigured(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "uid-p")
	services.SetModelService(nil)

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", predictionPayload())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "MODEL_ERROR", errorCode(response))
}

func TestPredict_InvalidBody(t *testing.T) {
	setupTestDB(t)
	setupModelService(t, &services.MockLoader{Classifier: services.NewMockClassifier(0.5)})

	w, response := performRequest(setupPredictRouter(), http.MethodPost, "/api/predict/uid-p", []int{1, 2, 3})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
}
