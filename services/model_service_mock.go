package services

import (
	"fmt"
	"sync"

	"github.com/heartcare-app/heartcare-api/utils"
)

// MockClassifier is a Classifier returning a fixed positive-class probability
type MockClassifier struct {
	Probability float64
	Features    int

	mu       sync.Mutex
	lastSeen []float64
}

// NewMockClassifier creates a mock classifier sized for the production feature vector
func NewMockClassifier(probability float64) *MockClassifier {
	return &MockClassifier{
		Probability: probability,
		Features:    len(utils.FeatureNames),
	}
}

func (m *MockClassifier) NumFeatures() int {
	return m.Features
}

func (m *MockClassifier) PredictProba(features []float64) ([]float64, error) {
	if err := checkFeatureCount(m, features); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.lastSeen = append([]float64(nil), features...)
	m.mu.Unlock()

	return []float64{1 - m.Probability, m.Probability}, nil
}

func (m *MockClassifier) Predict(features []float64) (int, error) {
	proba, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return LabelFromProba(proba), nil
}

// LastFeatures returns a copy of the most recent feature vector (for testing assertions)
func (m *MockClassifier) LastFeatures() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.lastSeen...)
}

// MockLoader counts artifact loads and hands out a fixed classifier
type MockLoader struct {
	Classifier Classifier
	Err        error

	mu    sync.Mutex
	loads int
}

// Load satisfies LoaderFunc when passed as loader.Load
func (l *MockLoader) Load(path string) (Classifier, error) {
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()

	if l.Err != nil {
		return nil, fmt.Errorf("mock load %s: %w", path, l.Err)
	}
	return l.Classifier, nil
}

// Loads returns how many times the artifact was read
func (l *MockLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}
