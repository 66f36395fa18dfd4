package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

func TestPrediction_FromScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected valueobject.Prediction
	}{
		{"zero is real", 0, valueobject.PredictionReal},
		{"just below threshold is real", 0.4999, valueobject.PredictionReal},
		{"threshold is fake", 0.5, valueobject.PredictionFake},
		{"one is fake", 1, valueobject.PredictionFake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, valueobject.PredictionFromScore(tt.score, 0.5))
		})
	}
}

func TestPrediction_Label(t *testing.T) {
	assert.Equal(t, "Fake Account", valueobject.PredictionFake.Label())
	assert.Equal(t, "Real Account", valueobject.PredictionReal.Label())
	assert.Empty(t, valueobject.Prediction{}.Label())
}

func TestPrediction_FromString(t *testing.T) {
	p, err := valueobject.PredictionFromString("FAKE")
	require.NoError(t, err)
	assert.True(t, p.IsFake())
	assert.True(t, p.Equal(valueobject.PredictionFake))

	_, err = valueobject.PredictionFromString("fake")
	assert.Error(t, err)

	assert.True(t, valueobject.Prediction{}.IsZero())
}

func TestConfidenceBand_FromString(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.ConfidenceBand
		label    string
		wantErr  bool
	}{
		{"LOW", valueobject.ConfidenceLow, "Low", false},
		{"MEDIUM", valueobject.ConfidenceMedium, "Medium", false},
		{"HIGH", valueobject.ConfidenceHigh, "High", false},
		{"VERY_HIGH", valueobject.ConfidenceBand{}, "", true},
		{"", valueobject.ConfidenceBand{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			band, err := valueobject.ConfidenceBandFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, band.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(band))
			assert.Equal(t, tt.input, band.String())
			assert.Equal(t, tt.label, band.Label())
		})
	}
}

func TestRiskFactorCode_RoundTrip(t *testing.T) {
	all := valueobject.AllRiskFactorCodes()
	require.Len(t, all, 8)
	assert.Equal(t, "NO_PROFILE_PICTURE", all[0].String())

	for _, code := range all {
		parsed, err := valueobject.RiskFactorCodeFromString(code.String())
		require.NoError(t, err)
		assert.True(t, code.Equal(parsed))
	}

	_, err := valueobject.RiskFactorCodeFromString("UNKNOWN")
	assert.Error(t, err)
}
