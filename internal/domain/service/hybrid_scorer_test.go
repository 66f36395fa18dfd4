package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

type mockClassifier struct {
	err         error
	probability float64
}

func (m *mockClassifier) PredictProbability(_ context.Context, _ model.FeatureVector) (float64, string, error) {
	if m.err != nil {
		return 0, "", m.err
	}
	return m.probability, "test-artifact", nil
}

type mockAnalyzer struct {
	err   error
	text  string
	delay time.Duration
	calls atomic.Int32
	input port.AnalysisInput
}

func (m *mockAnalyzer) Analyze(ctx context.Context, input port.AnalysisInput) (string, error) {
	m.calls.Add(1)
	m.input = input
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.text, m.err
}

func newScorer(t *testing.T, c port.Classifier, a port.QualitativeAnalyzer, policy service.ScoringPolicy) *service.HybridScorer {
	t.Helper()
	s, err := service.NewHybridScorer(
		service.NewRuleExtractor(),
		service.NewTextScanner(service.DefaultSuspiciousPhrases),
		c, a, policy, slog.Default(),
	)
	require.NoError(t, err)
	return s
}

func TestHybridScorer_SuspiciousScenario(t *testing.T) {
	scorer := newScorer(t, &mockClassifier{probability: 0.9}, nil, service.DefaultScoringPolicy())

	a, err := scorer.Assess(context.Background(), service.AssessmentInput{
		Features: mustFeatures(t, suspiciousParams()),
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.PredictionFake, a.Prediction())
	assert.Equal(t, "Fake Account", a.Prediction().Label())
	assert.InDelta(t, 0.7*0.9+0.3*1.0, a.CombinedScore(), 1e-9)
	assert.True(t, a.ConfidenceBand().Equal(valueobject.ConfidenceHigh))
	assert.True(t, a.ClassifierAvailable())
	assert.Equal(t, "test-artifact", a.ArtifactVersion())
	assert.Equal(t, "v1", a.PolicyVersion())

	got := codes(a.RiskFactors())
	for _, want := range []string{"FOLLOWER_FOLLOWING_IMBALANCE", "HIGH_USERNAME_DIGIT_RATIO", "NAME_EQUALS_USERNAME", "EMPTY_BIO", "NO_PROFILE_PICTURE"} {
		assert.Contains(t, got, want)
	}
	assert.Equal(t, model.QualitativeSkipped, a.Qualitative().Status())
}

func TestHybridScorer_GenuineScenario(t *testing.T) {
	scorer := newScorer(t, &mockClassifier{probability: 0.1}, nil, service.DefaultScoringPolicy())

	a, err := scorer.Assess(context.Background(), service.AssessmentInput{
		Features: mustFeatures(t, genuineParams()),
	})
	require.NoError(t, err)

	assert.Equal(t, "Real Account", a.Prediction().Label())
	assert.LessOrEqual(t, len(a.RiskFactors()), 1)
	assert.InDelta(t, 0.07, a.CombinedScore(), 1e-9)
}

func TestHybridScorer_DegradedModeUsesSeverity(t *testing.T) {
	tests := []struct {
		name       string
		classifier port.Classifier
	}{
		{"classifier error", &mockClassifier{err: fmt.Errorf("boom: %w", model.ErrClassifierUnavailable)}},
		{"out of range probability", &mockClassifier{probability: 1.5}},
		{"no classifier", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newScorer(t, tt.classifier, nil, service.DefaultScoringPolicy())

			a, err := scorer.Assess(context.Background(), service.AssessmentInput{
				Features: mustFeatures(t, suspiciousParams()),
			})
			require.NoError(t, err)

			assert.False(t, a.ClassifierAvailable())
			assert.Equal(t, a.RuleSeverity(), a.CombinedScore())
			assert.Equal(t, valueobject.PredictionFake, a.Prediction())
			assert.Empty(t, a.ArtifactVersion())
		})
	}
}

type servedArtifact struct {
	version     string
	probability float64
}

// reloadingClassifier serves each prediction from the next artifact in turn,
// like a classifier whose artifact is swapped between requests.
type reloadingClassifier struct {
	calls     atomic.Int32
	artifacts []servedArtifact
}

func (r *reloadingClassifier) PredictProbability(context.Context, model.FeatureVector) (float64, string, error) {
	n := int(r.calls.Add(1)) - 1
	art := r.artifacts[n%len(r.artifacts)]
	return art.probability, art.version, nil
}

func TestHybridScorer_ArtifactVersionMatchesPrediction(t *testing.T) {
	served := []servedArtifact{{"artifact-a", 0.2}, {"artifact-b", 0.8}}
	policy := service.DefaultScoringPolicy()
	policy.ClassifierWeight = 1
	policy.RuleWeight = 0
	scorer := newScorer(t, &reloadingClassifier{artifacts: served}, nil, policy)

	for i := 0; i < 4; i++ {
		want := served[i%len(served)]
		a, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: mustFeatures(t, genuineParams())})
		require.NoError(t, err)
		assert.Equal(t, want.version, a.ArtifactVersion())
		assert.InDelta(t, want.probability, a.CombinedScore(), 1e-9)
	}
}

func TestHybridScorer_ThresholdTieIsFake(t *testing.T) {
	policy := service.DefaultScoringPolicy()
	policy.ClassifierWeight = 1
	policy.RuleWeight = 0
	scorer := newScorer(t, &mockClassifier{probability: 0.5}, nil, policy)

	a, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: mustFeatures(t, genuineParams())})
	require.NoError(t, err)

	assert.Equal(t, 0.5, a.CombinedScore())
	assert.Equal(t, valueobject.PredictionFake, a.Prediction())
	assert.True(t, a.ConfidenceBand().Equal(valueobject.ConfidenceLow))
}

func TestHybridScorer_QualitativeCompleted(t *testing.T) {
	analyzer := &mockAnalyzer{text: "  Likely a bot.  "}
	scorer := newScorer(t, &mockClassifier{probability: 0.9}, analyzer, service.DefaultScoringPolicy())

	a, err := scorer.Assess(context.Background(), service.AssessmentInput{
		Features:           mustFeatures(t, suspiciousParams()),
		Text:               model.ProfileText{Username: "user12345", Bio: "giveaway"},
		IncludeQualitative: true,
	})
	require.NoError(t, err)

	text, ok := a.Qualitative().Text()
	assert.True(t, ok)
	assert.Equal(t, "Likely a bot.", text)

	assert.Equal(t, int32(1), analyzer.calls.Load())
	assert.Equal(t, "Fake Account", analyzer.input.Prediction)
	assert.Equal(t, a.CombinedScore(), analyzer.input.CombinedScore)
	assert.Contains(t, codes(analyzer.input.RiskFactors), "SUSPICIOUS_TEXT")
}

func TestHybridScorer_QualitativeNotRequested(t *testing.T) {
	analyzer := &mockAnalyzer{text: "unused"}
	scorer := newScorer(t, &mockClassifier{probability: 0.2}, analyzer, service.DefaultScoringPolicy())

	a, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: mustFeatures(t, genuineParams())})
	require.NoError(t, err)

	assert.Equal(t, model.QualitativeSkipped, a.Qualitative().Status())
	assert.Zero(t, analyzer.calls.Load())
}

func TestHybridScorer_AnalysisFailureDoesNotChangeScore(t *testing.T) {
	fv := mustFeatures(t, suspiciousParams())
	classifier := &mockClassifier{probability: 0.42}

	baseline, err := newScorer(t, classifier, nil, service.DefaultScoringPolicy()).
		Assess(context.Background(), service.AssessmentInput{Features: fv})
	require.NoError(t, err)

	tests := []struct {
		name     string
		analyzer *mockAnalyzer
		want     model.FailureReason
	}{
		{"upstream status", &mockAnalyzer{err: model.NewAnalysisFailure(model.FailureUpstreamStatus, fmt.Errorf("503"))}, model.FailureUpstreamStatus},
		{"blank text", &mockAnalyzer{text: "   "}, model.FailureMalformedOutput},
		{"plain error", &mockAnalyzer{err: fmt.Errorf("connection reset")}, model.FailureTransport},
		{"timeout", &mockAnalyzer{text: "late", delay: time.Second}, model.FailureTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := service.DefaultScoringPolicy()
			policy.QualitativeTimeout = 20 * time.Millisecond
			scorer := newScorer(t, classifier, tt.analyzer, policy)

			a, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: fv, IncludeQualitative: true})
			require.NoError(t, err)

			assert.Equal(t, model.QualitativeFailed, a.Qualitative().Status())
			assert.Equal(t, tt.want, a.Qualitative().Reason())
			_, ok := a.Qualitative().Text()
			assert.False(t, ok)

			assert.Equal(t, baseline.CombinedScore(), a.CombinedScore())
			assert.Equal(t, baseline.Prediction(), a.Prediction())
			assert.Equal(t, baseline.RiskFactors(), a.RiskFactors())
		})
	}
}

func TestHybridScorer_CanceledRequest(t *testing.T) {
	analyzer := &mockAnalyzer{text: "late", delay: time.Second}
	scorer := newScorer(t, &mockClassifier{probability: 0.3}, analyzer, service.DefaultScoringPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	a, err := scorer.Assess(ctx, service.AssessmentInput{Features: mustFeatures(t, genuineParams()), IncludeQualitative: true})
	require.NoError(t, err)
	assert.Equal(t, model.FailureCanceled, a.Qualitative().Reason())
}

func TestHybridScorer_Idempotent(t *testing.T) {
	scorer := newScorer(t, &mockClassifier{probability: 0.63}, nil, service.DefaultScoringPolicy())
	fv := mustFeatures(t, suspiciousParams())

	first, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: fv})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		a, err := scorer.Assess(context.Background(), service.AssessmentInput{Features: fv})
		require.NoError(t, err)
		assert.Equal(t, first.CombinedScore(), a.CombinedScore())
		assert.Equal(t, first.Prediction(), a.Prediction())
		assert.Equal(t, first.ConfidenceBand(), a.ConfidenceBand())
		assert.Equal(t, first.RiskFactors(), a.RiskFactors())
	}
}

func TestNewHybridScorer_RejectsInvalidPolicy(t *testing.T) {
	policy := service.DefaultScoringPolicy()
	policy.RuleWeight = 0.9

	_, err := service.NewHybridScorer(nil, nil, nil, nil, policy, nil)
	assert.Error(t, err)
}
