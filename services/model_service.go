package services

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitryikh/leaves"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/metrics"
	gocache "github.com/patrickmn/go-cache"
)

// ErrModelNotFound is returned when the model artifact does not exist on disk
var ErrModelNotFound = errors.New("model artifact not found")

// positiveThreshold is the probability at which the positive class is predicted
const positiveThreshold = 0.5

// Classifier is a trained binary classifier over a fixed-length feature vector
type Classifier interface {
	// NumFeatures returns the length of the feature vector the model was trained on
	NumFeatures() int

	// Predict returns the predicted class label (0 or 1)
	Predict(features []float64) (int, error)

	// PredictProba returns the class probabilities [p(0), p(1)]
	PredictProba(features []float64) ([]float64, error)
}

// LoaderFunc reads a classifier from a model artifact at path
type LoaderFunc func(path string) (Classifier, error)

// ModelService loads the model artifact, optionally keeping it in memory
type ModelService struct {
	path   string
	loader LoaderFunc
	ttl    time.Duration
	cache  *gocache.Cache
}

var (
	modelServiceInstance *ModelService
	modelServiceMu       sync.RWMutex
)

// NewModelService creates a model service for the artifact at path.
// A zero ttl loads the artifact on every call.
func NewModelService(path string, loader LoaderFunc, ttl time.Duration) *ModelService {
	s := &ModelService{
		path:   path,
		loader: loader,
		ttl:    ttl,
	}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// InitModelService initializes the shared model service from configuration
func InitModelService(cfg *config.Config) (*ModelService, error) {
	loader, err := LoaderForFormat(cfg.ModelFormat)
	if err != nil {
		return nil, err
	}

	service := NewModelService(cfg.ModelPath, loader, cfg.ModelCacheTTL)
	SetModelService(service)
	return service, nil
}

// GetModelService returns the initialized model service instance
func GetModelService() *ModelService {
	modelServiceMu.RLock()
	defer modelServiceMu.RUnlock()
	return modelServiceInstance
}

// SetModelService sets the model service instance (primarily for testing)
func SetModelService(service *ModelService) {
	modelServiceMu.Lock()
	defer modelServiceMu.Unlock()
	modelServiceInstance = service
}

// Path returns the location of the model artifact
func (s *ModelService) Path() string {
	return s.path
}

// Load returns the classifier, reading the artifact unless a cached copy is still valid
func (s *ModelService) Load() (Classifier, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(s.path); found {
			metrics.RecordModelLoad("cached")
			return cached.(Classifier), nil
		}
	}

	if _, err := os.Stat(s.path); err != nil {
		metrics.RecordModelLoad("failed")
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat model artifact: %w", err)
	}

	classifier, err := s.loader(s.path)
	if err != nil {
		metrics.RecordModelLoad("failed")
		return nil, fmt.Errorf("failed to load model %s: %w", s.path, err)
	}
	metrics.RecordModelLoad("loaded")
	config.Logger().Debugw("Model loaded", "path", s.path)

	if s.cache != nil {
		s.cache.Set(s.path, classifier, gocache.DefaultExpiration)
	}
	return classifier, nil
}

// Invalidate drops any cached classifier so the next Load reads the artifact again
func (s *ModelService) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(s.path)
	}
}

// LoaderForFormat returns the artifact loader for a MODEL_FORMAT value
func LoaderForFormat(format string) (LoaderFunc, error) {
	switch format {
	case config.ModelFormatXGBoost:
		return LoadXGBoostModel, nil
	case config.ModelFormatLightGBM:
		return LoadLightGBMModel, nil
	}
	return nil, fmt.Errorf("unsupported model format %q", format)
}

// LoadXGBoostModel reads an XGBoost binary model with its logistic transformation
func LoadXGBoostModel(path string) (Classifier, error) {
	ensemble, err := leaves.XGEnsembleFromFile(path, true)
	if err != nil {
		return nil, err
	}
	return newEnsembleClassifier(ensemble)
}

// LoadLightGBMModel reads a LightGBM text model with its sigmoid transformation
func LoadLightGBMModel(path string) (Classifier, error) {
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, err
	}
	return newEnsembleClassifier(ensemble)
}

// ensembleClassifier adapts a gradient boosted tree ensemble to Classifier
type ensembleClassifier struct {
	ensemble *leaves.Ensemble
}

func newEnsembleClassifier(ensemble *leaves.Ensemble) (*ensembleClassifier, error) {
	if groups := ensemble.NOutputGroups(); groups != 1 {
		return nil, fmt.Errorf("expected a binary classifier, model has %d output groups", groups)
	}
	return &ensembleClassifier{ensemble: ensemble}, nil
}

func (c *ensembleClassifier) NumFeatures() int {
	return c.ensemble.NFeatures()
}

func (c *ensembleClassifier) PredictProba(features []float64) ([]float64, error) {
	if err := checkFeatureCount(c, features); err != nil {
		return nil, err
	}
	p := c.ensemble.PredictSingle(features, 0)
	return []float64{1 - p, p}, nil
}

func (c *ensembleClassifier) Predict(features []float64) (int, error) {
	proba, err := c.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return LabelFromProba(proba), nil
}

// LabelFromProba returns the label of the positive class probability in proba
func LabelFromProba(proba []float64) int {
	if len(proba) == 2 && proba[1] >= positiveThreshold {
		return 1
	}
	return 0
}

func checkFeatureCount(c Classifier, features []float64) error {
	if n := c.NumFeatures(); n != len(features) {
		return fmt.Errorf("model expects %d features, got %d", n, len(features))
	}
	return nil
}
