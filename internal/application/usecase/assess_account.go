package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/domain/event"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
	"github.com/bibbank/profileguard/internal/domain/service"
)

// DefaultRecordTimeout bounds each history write and event publish made after
// an account is scored.
const DefaultRecordTimeout = 2 * time.Second

// AssessAccount is the use case for scoring one account's feature payload.
type AssessAccount struct {
	scorer    service.Scorer
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	metrics   port.MetricsRecorder
	limits    model.FeatureLimits
	logger    *slog.Logger

	recordTimeout time.Duration
}

// NewAssessAccount creates a new AssessAccount use case. The repository,
// publisher and metrics recorder are optional.
func NewAssessAccount(
	scorer service.Scorer,
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	metrics port.MetricsRecorder,
	limits model.FeatureLimits,
	logger *slog.Logger,
) *AssessAccount {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessAccount{
		scorer:    scorer,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		limits:    limits,
		logger:    logger,

		recordTimeout: DefaultRecordTimeout,
	}
}

// SetRecordTimeout overrides DefaultRecordTimeout. Non-positive values are
// ignored.
func (uc *AssessAccount) SetRecordTimeout(d time.Duration) {
	if d > 0 {
		uc.recordTimeout = d
	}
}

// PolicyVersion identifies the scoring policy applied by Execute.
func (uc *AssessAccount) PolicyVersion() string {
	return uc.scorer.Policy().Version
}

// Execute validates the payload, scores it, records history and publishes
// events. Only a *model.ValidationError is ever returned to the caller for a
// well-formed request; history and event failures are logged and absorbed.
func (uc *AssessAccount) Execute(ctx context.Context, req dto.AssessAccountRequest) (dto.AssessmentResponse, error) {
	started := time.Now()

	// 1. Validate the feature contract before anything is scored.
	features, err := model.ValidateFeatures(req.Payload, uc.limits)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	text, err := model.ValidateProfileText(req.Payload)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	includeQualitative, err := model.BoolOption(req.Payload, model.FieldIncludeQualitativeAnalysis, true)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	if req.Quick {
		includeQualitative = false
	}

	// 2. Run the hybrid scorer.
	assessment, err := uc.scorer.Assess(ctx, service.AssessmentInput{
		Features:           features,
		Text:               text,
		IncludeQualitative: includeQualitative,
	})
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to assess account: %w", err)
	}

	// 3. Record history, events and metrics.
	uc.record(ctx, assessment, time.Since(started))

	return dto.FromAssessment(assessment), nil
}

// sideEffectContext detaches from the caller's cancellation so a finished
// assessment is still recorded, and caps the wait at recordTimeout.
func (uc *AssessAccount) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), uc.recordTimeout)
}

func (uc *AssessAccount) record(ctx context.Context, a *model.RiskAssessment, elapsed time.Duration) {
	if uc.repo != nil {
		saveCtx, cancel := uc.sideEffectContext(ctx)
		err := uc.repo.Save(saveCtx, a)
		cancel()
		if err != nil {
			uc.logger.WarnContext(ctx, "failed to save assessment",
				"assessment_id", a.ID(),
				"error", err,
			)
		}
	}

	if uc.publisher != nil {
		events := event.FromAssessment(a)
		evts := make([]interface{}, 0, len(events))
		for _, e := range events {
			evts = append(evts, e)
		}
		pubCtx, cancel := uc.sideEffectContext(ctx)
		err := uc.publisher.Publish(pubCtx, evts...)
		cancel()
		if err != nil {
			uc.logger.WarnContext(ctx, "failed to publish assessment events",
				"assessment_id", a.ID(),
				"error", err,
			)
		}
	}

	if uc.metrics != nil {
		uc.metrics.RecordAssessment(ctx, a, elapsed)
	}

	uc.logger.InfoContext(ctx, "account assessed",
		"assessment_id", a.ID(),
		"prediction", a.Prediction().String(),
		"confidence_band", a.ConfidenceBand().String(),
		"combined_score", a.CombinedScore(),
		"classifier_available", a.ClassifierAvailable(),
		"qualitative_status", string(a.Qualitative().Status()),
		"duration_ms", elapsed.Milliseconds(),
	)
}
