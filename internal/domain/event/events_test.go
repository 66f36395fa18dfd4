package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/event"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

func assessment(t *testing.T, prediction valueobject.Prediction, band valueobject.ConfidenceBand, score float64) *model.RiskAssessment {
	t.Helper()
	a, err := model.NewRiskAssessment(model.AssessmentParams{
		Text:           model.ProfileText{Username: "promo_4821"},
		Probability:    score,
		RuleSeverity:   score,
		CombinedScore:  score,
		Prediction:     prediction,
		ConfidenceBand: band,
		PolicyVersion:  "v1",
		RiskFactors: []model.RiskFactor{
			{Code: valueobject.CodeEmptyBio, Message: "Empty bio/description", Weight: 0.1},
		},
	})
	require.NoError(t, err)
	return a
}

func TestFromAssessment_HighConfidenceFake(t *testing.T) {
	a := assessment(t, valueobject.PredictionFake, valueobject.ConfidenceHigh, 0.92)

	events := event.FromAssessment(a)
	require.Len(t, events, 2)

	completed, ok := events[0].(event.AssessmentCompleted)
	require.True(t, ok)
	assert.Equal(t, event.EventTypeAssessmentCompleted, completed.EventType())
	assert.Equal(t, a.ID(), completed.AggregateID())
	assert.Equal(t, []string{"EMPTY_BIO"}, completed.RiskFactorCodes)
	assert.Equal(t, "SKIPPED", completed.QualitativeStatus)

	detected, ok := events[1].(event.FakeAccountDetected)
	require.True(t, ok)
	assert.Equal(t, event.EventTypeFakeAccountDetected, detected.EventType())
	assert.Equal(t, "promo_4821", detected.Username)
	assert.Equal(t, a.AssessedAt(), detected.OccurredAt())
}

func TestFromAssessment_OnlyCompleted(t *testing.T) {
	tests := []struct {
		name       string
		prediction valueobject.Prediction
		band       valueobject.ConfidenceBand
		score      float64
	}{
		{"ambiguous fake", valueobject.PredictionFake, valueobject.ConfidenceLow, 0.52},
		{"confident real", valueobject.PredictionReal, valueobject.ConfidenceHigh, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := event.FromAssessment(assessment(t, tt.prediction, tt.band, tt.score))
			require.Len(t, events, 1)
			assert.Equal(t, event.EventTypeAssessmentCompleted, events[0].EventType())
		})
	}
}
