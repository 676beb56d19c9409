package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Artifacts bundles everything the feature deriver and predictor need.
type Artifacts struct {
	Scaler     *Scaler
	Encoders   *Encoders
	Classifier driven.Classifier
}

// Load reads scaler.json, encoders.json and classifier.json from dir.
// encoders.json is optional; the other two are required. Every failure
// wraps domain.ErrArtifactsUnavailable.
func Load(dir string) (*Artifacts, error) {
	logger.Section("Loading Model Artifacts")

	scaler, err := LoadScaler(filepath.Join(dir, domain.ScalerFile))
	if err != nil {
		return nil, err
	}

	encoders, err := LoadEncoders(filepath.Join(dir, domain.EncodersFile))
	if err != nil {
		return nil, err
	}

	classifier, err := LoadClassifier(filepath.Join(dir, domain.ClassifierFile))
	if err != nil {
		return nil, err
	}

	if classifier.NumFeatures() != len(scaler.names) {
		return nil, fmt.Errorf("%w: classifier expects %d features, scaler has %d",
			domain.ErrArtifactsUnavailable, classifier.NumFeatures(), len(scaler.names))
	}

	logger.Info("Model artifacts loaded from %s: %d features, %d encoded columns",
		dir, len(scaler.names), len(encoders.codes))
	return &Artifacts{Scaler: scaler, Encoders: encoders, Classifier: classifier}, nil
}

// LoadScaler reads a scaler file.
func LoadScaler(path string) (*Scaler, error) {
	var f scalerFile
	if err := readJSON(path, &f); err != nil {
		return nil, err
	}
	s, err := NewScaler(f.FeatureNames, f.Mean, f.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactsUnavailable, path, err)
	}
	return s, nil
}

// LoadEncoders reads an encoders file. A missing file yields empty
// encoders, so every categorical column is factorised per batch.
func LoadEncoders(path string) (*Encoders, error) {
	var classes map[string][]string
	if err := readJSON(path, &classes); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No encoders at %s, categorical columns will be factorised", path)
			return NewEncoders(nil), nil
		}
		return nil, err
	}
	return NewEncoders(classes), nil
}

// LoadClassifier reads a classifier file.
func LoadClassifier(path string) (driven.Classifier, error) {
	var f classifierFile
	if err := readJSON(path, &f); err != nil {
		return nil, err
	}
	c, err := buildClassifier(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArtifactsUnavailable, path, err)
	}
	return c, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrArtifactsUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrArtifactsUnavailable, path, err)
	}
	return nil
}
