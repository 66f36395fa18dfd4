package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
)

const tracerName = "github.com/bibbank/profileguard/internal/domain/service"

// HybridScorer merges classifier probability with rule severity and
// optionally attaches a qualitative analysis. If the classifier fails it
// falls back to rules-only scoring.
type HybridScorer struct {
	rules      *RuleExtractor
	scanner    *TextScanner
	classifier port.Classifier
	analyzer   port.QualitativeAnalyzer
	policy     ScoringPolicy
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewHybridScorer creates a HybridScorer. The classifier and analyzer may be
// nil; a nil classifier always degrades and a nil analyzer always skips.
func NewHybridScorer(
	rules *RuleExtractor,
	scanner *TextScanner,
	classifier port.Classifier,
	analyzer port.QualitativeAnalyzer,
	policy ScoringPolicy,
	logger *slog.Logger,
) (*HybridScorer, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}
	if rules == nil {
		rules = NewRuleExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridScorer{
		rules:      rules,
		scanner:    scanner,
		classifier: classifier,
		analyzer:   analyzer,
		policy:     policy,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Policy returns the scoring policy in effect.
func (h *HybridScorer) Policy() ScoringPolicy {
	return h.policy
}

// Assess scores one validated request. It always produces a score: a failing
// classifier degrades to rules-only and a failing analyzer only marks the
// qualitative outcome as failed.
func (h *HybridScorer) Assess(ctx context.Context, input AssessmentInput) (*model.RiskAssessment, error) {
	ctx, span := h.tracer.Start(ctx, "HybridScorer.Assess")
	defer span.End()

	h.transition(ctx, span, StageValidated)

	var (
		rules           RuleResult
		probability     float64
		artifactVersion string
		classErr        error
	)

	var g errgroup.Group
	g.Go(func() error {
		rules = h.rules.Extract(input.Features)
		return nil
	})
	g.Go(func() error {
		probability, artifactVersion, classErr = h.predict(ctx, input)
		return nil
	})
	_ = g.Wait()

	available := classErr == nil
	if !available {
		probability, artifactVersion = 0, ""
		h.logger.WarnContext(ctx, "classifier unavailable, using rules-only scoring", "error", classErr)
		span.AddEvent("classifier_degraded")
	}

	combined := h.policy.Combine(probability, rules.Severity, available)
	prediction := h.policy.Predict(combined)
	band := h.policy.Band(combined)

	factors := rules.Factors
	if textFactors := h.scanner.Factors(input.Text); len(textFactors) > 0 {
		factors = append(factors, textFactors...)
	}

	span.SetAttributes(
		attribute.Float64("assessment.combined_score", combined),
		attribute.Float64("assessment.rule_severity", rules.Severity),
		attribute.Bool("assessment.classifier_available", available),
		attribute.String("assessment.prediction", prediction.String()),
	)
	h.transition(ctx, span, StageScored)

	qualitative := model.SkippedAnalysis()
	if input.IncludeQualitative && h.analyzer != nil {
		h.transition(ctx, span, StageQualitativePending)
		qualitative = h.analyze(ctx, port.AnalysisInput{
			Features:            input.Features,
			Text:                input.Text,
			RiskFactors:         factors,
			Probability:         probability,
			ClassifierAvailable: available,
			CombinedScore:       combined,
			Prediction:          prediction.Label(),
		})
	} else {
		h.transition(ctx, span, StageQualitativeSkipped)
	}

	assessment, err := model.NewRiskAssessment(model.AssessmentParams{
		Features:            input.Features,
		Text:                input.Text,
		Probability:         probability,
		ClassifierAvailable: available,
		RuleSeverity:        rules.Severity,
		CombinedScore:       combined,
		RiskFactors:         factors,
		Qualitative:         qualitative,
		Prediction:          prediction,
		ConfidenceBand:      band,
		PolicyVersion:       h.policy.Version,
		ArtifactVersion:     artifactVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("finalizing assessment: %w", err)
	}

	h.transition(ctx, span, StageFinalized)
	return assessment, nil
}

func (h *HybridScorer) predict(ctx context.Context, input AssessmentInput) (float64, string, error) {
	if h.classifier == nil {
		return 0, "", fmt.Errorf("no classifier configured: %w", model.ErrClassifierUnavailable)
	}
	p, version, err := h.classifier.PredictProbability(ctx, input.Features)
	if err != nil {
		return 0, "", err
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, "", fmt.Errorf("classifier returned %v: %w", p, model.ErrClassifierUnavailable)
	}
	return p, version, nil
}

// analyze runs the analyzer in its own goroutine bounded by the policy
// timeout. The buffered channel lets a late analyzer exit after we return.
func (h *HybridScorer) analyze(ctx context.Context, input port.AnalysisInput) model.QualitativeOutcome {
	ctx, span := h.tracer.Start(ctx, "HybridScorer.analyze")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.policy.qualitativeTimeout())
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()

	go func() {
		text, err := h.analyzer.Analyze(ctx, input)
		done <- result{text: text, err: err}
	}()

	var outcome model.QualitativeOutcome
	select {
	case r := <-done:
		switch {
		case r.err != nil:
			outcome = model.FailedAnalysis(failureReason(ctx, r.err))
		case strings.TrimSpace(r.text) == "":
			outcome = model.FailedAnalysis(model.FailureMalformedOutput)
		default:
			outcome = model.CompletedAnalysis(strings.TrimSpace(r.text))
		}
	case <-ctx.Done():
		outcome = model.FailedAnalysis(contextReason(ctx.Err()))
	}

	if outcome.Status() == model.QualitativeFailed {
		h.logger.WarnContext(ctx, "qualitative analysis failed",
			"reason", string(outcome.Reason()),
			"elapsed", time.Since(start),
		)
		span.SetAttributes(attribute.String("qualitative.failure_reason", string(outcome.Reason())))
	}
	return outcome
}

func (h *HybridScorer) transition(ctx context.Context, span trace.Span, stage Stage) {
	h.logger.DebugContext(ctx, "assessment stage", "stage", string(stage))
	span.AddEvent(string(stage))
}

func failureReason(ctx context.Context, err error) model.FailureReason {
	var failure *model.AnalysisFailure
	if errors.As(err, &failure) {
		return failure.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextReason(err)
	}
	if ctx.Err() != nil {
		return contextReason(ctx.Err())
	}
	return model.FailureTransport
}

func contextReason(err error) model.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	return model.FailureCanceled
}
