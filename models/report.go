package models

import (
	"time"
)

// Prediction labels produced by the risk classifier
const (
	PredictionNegative = 0
	PredictionPositive = 1
)

// Report is the persisted outcome of one risk prediction for a user
type Report struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            string    `gorm:"column:user_id;size:50;not null;index" json:"-"` // foreign key to user table
	ReportDate        time.Time `gorm:"not null" json:"report_date"`
	ReportProbability float64   `gorm:"not null" json:"report_probability"` // positive-class probability in [0,1]
	ReportPrediction  int       `gorm:"not null" json:"report_prediction"`
}

// TableName specifies the table name for the Report model
func (Report) TableName() string {
	return "reports"
}

// IsValidPrediction reports whether label is one of the classifier's labels
func IsValidPrediction(label int) bool {
	return label == PredictionNegative || label == PredictionPositive
}

// IsValidProbability reports whether p is a probability
func IsValidProbability(p float64) bool {
	return p >= 0 && p <= 1
}
