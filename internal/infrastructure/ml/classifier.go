package ml

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bibbank/profileguard/internal/domain/model"
)

// ArtifactClassifier implements port.Classifier over an in-process artifact.
// The artifact is shared read-only between requests and replaced atomically.
type ArtifactClassifier struct {
	artifact atomic.Pointer[Artifact]
	logger   *slog.Logger
}

// NewArtifactClassifier creates a classifier. A nil artifact leaves it
// unavailable until Swap is called.
func NewArtifactClassifier(artifact *Artifact, logger *slog.Logger) *ArtifactClassifier {
	c := &ArtifactClassifier{logger: logger}
	if artifact != nil {
		c.artifact.Store(artifact)
	}
	return c
}

// LoadArtifactClassifier reads the artifact at path. An empty path yields an
// unavailable classifier so that the service can start in degraded mode.
func LoadArtifactClassifier(path string, logger *slog.Logger) (*ArtifactClassifier, error) {
	if path == "" {
		logger.Warn("no classifier artifact configured, scoring will be rules-only")
		return NewArtifactClassifier(nil, logger), nil
	}
	artifact, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	logger.Info("classifier artifact loaded",
		slog.String("version", artifact.Version),
		slog.String("kind", artifact.Model.Kind),
	)
	return NewArtifactClassifier(artifact, logger), nil
}

// PredictProbability encodes the vector and evaluates the current artifact.
// The returned version is that of the artifact loaded for this call, even if a
// reload swaps it concurrently.
func (c *ArtifactClassifier) PredictProbability(ctx context.Context, features model.FeatureVector) (float64, string, error) {
	artifact := c.artifact.Load()
	if artifact == nil {
		return 0, "", fmt.Errorf("no artifact loaded: %w", model.ErrClassifierUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return 0, "", fmt.Errorf("%v: %w", err, model.ErrClassifierUnavailable)
	}

	p, err := artifact.Predict(Encode(features))
	if err != nil {
		return 0, "", fmt.Errorf("artifact %s: %v: %w", artifact.Version, err, model.ErrClassifierUnavailable)
	}

	c.logger.Debug("classifier prediction",
		slog.String("artifact_version", artifact.Version),
		slog.Float64("probability", p),
	)
	return p, artifact.Version, nil
}

// Version returns the loaded artifact version, or "" when none is loaded.
func (c *ArtifactClassifier) Version() string {
	if a := c.artifact.Load(); a != nil {
		return a.Version
	}
	return ""
}

// Ready reports whether an artifact is loaded.
func (c *ArtifactClassifier) Ready() bool {
	return c.artifact.Load() != nil
}

// Swap replaces the artifact and returns the previous one. In-flight
// predictions finish on the artifact they loaded.
func (c *ArtifactClassifier) Swap(next *Artifact) (*Artifact, error) {
	if next == nil {
		return nil, fmt.Errorf("cannot swap in a nil artifact")
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("rejecting artifact: %w", err)
	}
	prev := c.artifact.Swap(next)
	c.logger.Info("classifier artifact swapped", slog.String("version", next.Version))
	return prev, nil
}
