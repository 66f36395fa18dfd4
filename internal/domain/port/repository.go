package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/profileguard/internal/domain/model"
)

// AssessmentRepository defines the persistence port for assessment history.
// The scoring core never depends on it; use cases record history best-effort.
type AssessmentRepository interface {
	// Save persists a finalized assessment.
	Save(ctx context.Context, assessment *model.RiskAssessment) error

	// FindByID retrieves an assessment by its unique identifier. It returns
	// model.ErrAssessmentNotFound when no such assessment exists.
	FindByID(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error)

	// FindLatestByUsername returns the newest assessment recorded for
	// username, compared case-insensitively, or model.ErrAssessmentNotFound.
	FindLatestByUsername(ctx context.Context, username string) (*model.RiskAssessment, error)

	// ListRecent returns up to limit assessments, newest first, after
	// skipping offset of them.
	ListRecent(ctx context.Context, offset, limit int) ([]*model.RiskAssessment, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...interface{}) error
}

// Classifier wraps a pre-trained binary probabilistic classifier.
type Classifier interface {
	// PredictProbability returns the probability in [0,1] that the account is
	// fake, together with the version of the artifact that computed it.
	// Errors wrap model.ErrClassifierUnavailable.
	PredictProbability(ctx context.Context, features model.FeatureVector) (probability float64, artifactVersion string, err error)
}

// AnalysisInput is the context handed to the qualitative analyzer.
type AnalysisInput struct {
	Features            model.FeatureVector
	Text                model.ProfileText
	RiskFactors         []model.RiskFactor
	Probability         float64
	ClassifierAvailable bool
	CombinedScore       float64
	Prediction          string
}

// QualitativeAnalyzer produces an advisory free-text analysis from an
// external generative model. Failures are returned as *model.AnalysisFailure.
type QualitativeAnalyzer interface {
	Analyze(ctx context.Context, input AnalysisInput) (string, error)
}

// MetricsRecorder receives per-assessment telemetry.
type MetricsRecorder interface {
	RecordAssessment(ctx context.Context, assessment *model.RiskAssessment, duration time.Duration)
}
