package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/heartcare-app/heartcare-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := config.OpenDatabase(config.DriverSQLite, "")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := config.MigrateDatabase(db, models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func predictionPayload() map[string]interface{} {
	return map[string]interface{}{
		"General_Health":               "poor",
		"Checkup":                      "never",
		"Exercise":                     "No",
		"Skin_Cancer":                  "No",
		"Other_Cancer":                 "Yes",
		"Depression":                   "No",
		"Diabetes":                     "Yes",
		"Arthritis":                    "Yes",
		"Sex":                          "Male",
		"Age":                          float64(67),
		"Height_(cm)":                  float64(180),
		"Weight_(kg)":                  float64(95),
		"Smoking_History":              "Yes",
		"Alcohol_Consumption":          "No",
		"Fruit_Consumption":            "No",
		"Green_Vegetables_Consumption": "No",
		"FriedPotato_Consumption":      "Yes",
	}
}

func newTestPredictionService(t *testing.T, db *gorm.DB, probability float64) (*PredictionService, *MockClassifier) {
	classifier := NewMockClassifier(probability)
	loader := &MockLoader{Classifier: classifier}
	modelService := NewModelService(writeArtifact(t), loader.Load, 0)
	return NewPredictionService(db, modelService), classifier
}

func TestScore(t *testing.T) {
	service, classifier := newTestPredictionService(t, nil, 0.83)

	result, err := service.Score(predictionPayload())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Prediction)
	assert.InDeltaSlice(t, []float64{0.17, 0.83}, result.Probabilities, 1e-9)

	features := classifier.LastFeatures()
	require.Len(t, features, len(utils.FeatureNames))
	assert.Equal(t, float64(0), features[0], "poor general health")
	assert.Equal(t, float64(9), features[8], "age 67 bucket")
	assert.Equal(t, 29.32, features[11], "BMI")
	assert.Equal(t, []float64{0, 1}, features[17:], "male one-hot")
}

func TestScoreMissingFields(t *testing.T) {
	service, _ := newTestPredictionService(t, nil, 0.5)

	payload := predictionPayload()
	delete(payload, "Sex")
	delete(payload, "General_Health")

	_, err := service.Score(payload)
	var missingErr *MissingFieldsError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, []string{"General_Health", "Sex"}, missingErr.Fields)
	assert.Equal(t, "Missing fields: General_Health, Sex", missingErr.Error())
}

func TestScoreModelFailure(t *testing.T) {
	modelService := NewModelService("does-not-exist.bin", (&MockLoader{}).Load, 0)
	service := NewPredictionService(nil, modelService)

	_, err := service.Score(predictionPayload())
	var modelErr *ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestPredictForUserPersistsOneReport(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.User{UserID: "uid-1", Name: "A", Email: "a@example.com", PasswordHash: "x"}).Error)

	service, _ := newTestPredictionService(t, db, 0.31)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	result, report, err := service.PredictForUser(context.Background(), "uid-1", predictionPayload())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Prediction)

	var reports []models.Report
	require.NoError(t, db.Where("user_id = ?", "uid-1").Find(&reports).Error)
	require.Len(t, reports, 1)
	assert.Equal(t, report.ID, reports[0].ID)
	assert.InDelta(t, 0.31, reports[0].ReportProbability, 1e-9)
	assert.Equal(t, 0, reports[0].ReportPrediction)
	assert.True(t, fixed.Equal(reports[0].ReportDate))
}

func TestPredictForUserUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestPredictionService(t, db, 0.9)

	_, _, err := service.PredictForUser(context.Background(), "nobody", predictionPayload())
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	db.Model(&models.Report{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPredictForUserDoesNotPersistOnValidationError(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.User{UserID: "uid-2", Name: "B", Email: "b@example.com", PasswordHash: "x"}).Error)
	service, _ := newTestPredictionService(t, db, 0.9)

	payload := predictionPayload()
	payload["Height_(cm)"] = float64(0)

	_, _, err := service.PredictForUser(context.Background(), "uid-2", payload)
	assert.ErrorIs(t, err, utils.ErrInvalidHeight)

	var count int64
	db.Model(&models.Report{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
