package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

func TestDefaultScoringPolicy_IsValid(t *testing.T) {
	p := service.DefaultScoringPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, "v1", p.Version)
	assert.Equal(t, 5*time.Second, p.QualitativeTimeout)
}

func TestScoringPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *service.ScoringPolicy)
	}{
		{"missing version", func(p *service.ScoringPolicy) { p.Version = "" }},
		{"weights do not sum to one", func(p *service.ScoringPolicy) { p.RuleWeight = 0.5 }},
		{"negative weight", func(p *service.ScoringPolicy) { p.ClassifierWeight = 1.2; p.RuleWeight = -0.2 }},
		{"threshold below ambiguity band", func(p *service.ScoringPolicy) { p.DecisionThreshold = 0.4 }},
		{"high lower overlaps ambiguity", func(p *service.ScoringPolicy) { p.HighConfidenceLower = 0.45 }},
		{"high upper above one", func(p *service.ScoringPolicy) { p.HighConfidenceUpper = 1.1 }},
		{"negative timeout", func(p *service.ScoringPolicy) { p.QualitativeTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := service.DefaultScoringPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestScoringPolicy_Combine(t *testing.T) {
	p := service.DefaultScoringPolicy()

	assert.InDelta(t, 0.7*0.8+0.3*0.5, p.Combine(0.8, 0.5, true), 1e-12)
	assert.Equal(t, 0.35, p.Combine(0.99, 0.35, false), "degraded mode returns severity unchanged")
	assert.LessOrEqual(t, p.Combine(1, 1, true), 1.0)
	assert.GreaterOrEqual(t, p.Combine(0, 0, true), 0.0)
}

func TestScoringPolicy_Predict(t *testing.T) {
	p := service.DefaultScoringPolicy()

	assert.Equal(t, valueobject.PredictionFake, p.Predict(0.5), "exact threshold is fake")
	assert.Equal(t, valueobject.PredictionReal, p.Predict(0.4999))
	assert.Equal(t, valueobject.PredictionFake, p.Predict(1))
	assert.Equal(t, valueobject.PredictionReal, p.Predict(0))
}

func TestScoringPolicy_Band(t *testing.T) {
	p := service.DefaultScoringPolicy()

	tests := []struct {
		score float64
		want  valueobject.ConfidenceBand
	}{
		{0.0, valueobject.ConfidenceHigh},
		{0.3, valueobject.ConfidenceHigh},
		{0.31, valueobject.ConfidenceMedium},
		{0.44, valueobject.ConfidenceMedium},
		{0.45, valueobject.ConfidenceLow},
		{0.5, valueobject.ConfidenceLow},
		{0.55, valueobject.ConfidenceLow},
		{0.56, valueobject.ConfidenceMedium},
		{0.69, valueobject.ConfidenceMedium},
		{0.7, valueobject.ConfidenceHigh},
		{1.0, valueobject.ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.True(t, tt.want.Equal(p.Band(tt.score)), "score %v", tt.score)
		})
	}
}

func TestScoringPolicy_ScoresLike(t *testing.T) {
	base := service.DefaultScoringPolicy()

	other := base
	other.Version = "v9"
	other.QualitativeTimeout = time.Second
	assert.True(t, base.ScoresLike(other))

	other.DecisionThreshold = 0.52
	assert.False(t, base.ScoresLike(other))
}
