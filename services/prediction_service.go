package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/metrics"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/heartcare-app/heartcare-api/utils"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when an operation targets an unknown user id
var ErrUserNotFound = errors.New("user not found")

// MissingFieldsError lists the required payload keys absent from a prediction request
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Missing fields: %s", strings.Join(e.Fields, ", "))
}

// ModelError wraps failures to load or run the classifier
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// PredictionResult is the classifier output returned to clients
type PredictionResult struct {
	Prediction    int       `json:"Prediction"`
	Probabilities []float64 `json:"Prediction Probability"`
}

// PositiveProbability returns the probability of the positive class
func (r *PredictionResult) PositiveProbability() float64 {
	if len(r.Probabilities) < 2 {
		return 0
	}
	return r.Probabilities[1]
}

// PredictionService turns raw health payloads into persisted risk reports
type PredictionService struct {
	db     *gorm.DB
	models *ModelService
	now    func() time.Time
}

// NewPredictionService creates a prediction service; db may be nil for offline scoring
func NewPredictionService(db *gorm.DB, modelService *ModelService) *PredictionService {
	return &PredictionService{
		db:     db,
		models: modelService,
		now:    time.Now,
	}
}

// Score validates and transforms payload and runs the classifier on it
func (s *PredictionService) Score(payload map[string]interface{}) (*PredictionResult, error) {
	// Reject before any transform runs
	if missing := utils.MissingFields(payload); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	features, err := utils.BuildFeatureVector(payload)
	if err != nil {
		return nil, err
	}

	classifier, err := s.models.Load()
	if err != nil {
		return nil, &ModelError{Err: err}
	}

	label, err := classifier.Predict(features)
	if err != nil {
		return nil, &ModelError{Err: fmt.Errorf("prediction failed: %w", err)}
	}
	proba, err := classifier.PredictProba(features)
	if err != nil {
		return nil, &ModelError{Err: fmt.Errorf("probability estimation failed: %w", err)}
	}

	return &PredictionResult{Prediction: label, Probabilities: proba}, nil
}

// PredictForUser scores payload for userID and stores the outcome as a Report
func (s *PredictionService) PredictForUser(ctx context.Context, userID string, payload map[string]interface{}) (*PredictionResult, *models.Report, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Select("user_id").Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	result, err := s.Score(payload)
	if err != nil {
		return nil, nil, err
	}

	report := models.Report{
		UserID:            userID,
		ReportDate:        s.now(),
		ReportProbability: result.PositiveProbability(),
		ReportPrediction:  result.Prediction,
	}
	if err := db.Create(&report).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to save report: %w", err)
	}

	metrics.RecordPrediction(result.Prediction)
	config.Logger().Infow("Prediction stored",
		"user_id", userID, "report_id", report.ID, "prediction", result.Prediction)

	return result, &report, nil
}
