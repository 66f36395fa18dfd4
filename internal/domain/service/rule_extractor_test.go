package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

func mustFeatures(t *testing.T, p model.FeatureParams) model.FeatureVector {
	t.Helper()
	fv, err := model.NewFeatureVector(p, model.DefaultFeatureLimits())
	require.NoError(t, err)
	return fv
}

// suspiciousParams is an account that trips every weighted rule.
func suspiciousParams() model.FeatureParams {
	return model.FeatureParams{
		UsernameDigitRatio: 0.55,
		NameEqualsUsername: true,
		PostCount:          2,
		FollowerCount:      15,
		FollowingCount:     1500,
	}
}

// genuineParams is an established account with no risk signals.
func genuineParams() model.FeatureParams {
	return model.FeatureParams{
		HasProfilePicture: true,
		FullnameWordCount: 2,
		BioLength:         85,
		HasExternalURL:    true,
		PostCount:         350,
		FollowerCount:     12000,
		FollowingCount:    800,
	}
}

func codes(factors []model.RiskFactor) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.Code.String())
	}
	return out
}

func TestRuleExtractor_SuspiciousAccount(t *testing.T) {
	result := service.NewRuleExtractor().Extract(mustFeatures(t, suspiciousParams()))

	assert.Equal(t, []string{
		"FOLLOWER_FOLLOWING_IMBALANCE",
		"NO_PROFILE_PICTURE",
		"HIGH_USERNAME_DIGIT_RATIO",
		"LOW_POST_HIGH_FOLLOWING",
		"NAME_EQUALS_USERNAME",
		"EMPTY_BIO",
		"NO_EXTERNAL_URL",
	}, codes(result.Factors))
	assert.InDelta(t, 1.0, result.Severity, 1e-9)
}

func TestRuleExtractor_GenuineAccount(t *testing.T) {
	result := service.NewRuleExtractor().Extract(mustFeatures(t, genuineParams()))

	assert.Empty(t, result.Factors)
	assert.Equal(t, 0.0, result.Severity)
}

func TestRuleExtractor_Messages(t *testing.T) {
	result := service.NewRuleExtractor().Extract(mustFeatures(t, suspiciousParams()))
	messages := model.RiskFactorMessages(result.Factors)

	assert.Contains(t, messages, "Abnormal follower/following ratio (0.01)")
	assert.Contains(t, messages, "Suspicious username (digit ratio: 55%)")
	assert.Contains(t, messages, "No profile picture")
	assert.Contains(t, messages, "Empty bio/description")
}

func TestRuleExtractor_NoExternalURLNeedsCompanion(t *testing.T) {
	p := genuineParams()
	p.HasExternalURL = false
	result := service.NewRuleExtractor().Extract(mustFeatures(t, p))
	assert.Empty(t, result.Factors, "missing url alone is not reported")

	p.BioLength = 0
	result = service.NewRuleExtractor().Extract(mustFeatures(t, p))
	assert.Equal(t, []string{"EMPTY_BIO", "NO_EXTERNAL_URL"}, codes(result.Factors))
	assert.InDelta(t, 0.10, result.Severity, 1e-9)
}

func TestRuleExtractor_Thresholds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *model.FeatureParams)
		code    valueobject.RiskFactorCode
		trigger bool
	}{
		{"digit ratio at threshold", func(p *model.FeatureParams) { p.UsernameDigitRatio = 0.3 }, valueobject.CodeHighUsernameDigitRatio, false},
		{"digit ratio above threshold", func(p *model.FeatureParams) { p.UsernameDigitRatio = 0.31 }, valueobject.CodeHighUsernameDigitRatio, true},
		{"imbalance needs following over 100", func(p *model.FeatureParams) { p.FollowerCount = 0; p.FollowingCount = 100 }, valueobject.CodeFollowerFollowingImbalance, false},
		{"imbalance with following 101", func(p *model.FeatureParams) { p.FollowerCount = 0; p.FollowingCount = 101 }, valueobject.CodeFollowerFollowingImbalance, true},
		{"low posts at five", func(p *model.FeatureParams) { p.PostCount = 5; p.FollowingCount = 900 }, valueobject.CodeLowPostHighFollowing, false},
		{"low posts high following", func(p *model.FeatureParams) { p.PostCount = 4; p.FollowingCount = 501 }, valueobject.CodeLowPostHighFollowing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := genuineParams()
			tt.mutate(&p)
			result := service.NewRuleExtractor().Extract(mustFeatures(t, p))
			found := false
			for _, f := range result.Factors {
				if f.Code.Equal(tt.code) {
					found = true
				}
			}
			assert.Equal(t, tt.trigger, found)
		})
	}
}

func TestRuleExtractor_Deterministic(t *testing.T) {
	fv := mustFeatures(t, suspiciousParams())
	extractor := service.NewRuleExtractor()
	first := extractor.Extract(fv)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, extractor.Extract(fv))
	}
}

func TestRuleExtractor_SeverityBounded(t *testing.T) {
	extractor := service.NewRuleExtractor()
	for _, p := range []model.FeatureParams{{}, suspiciousParams(), genuineParams()} {
		r := extractor.Extract(mustFeatures(t, p))
		assert.GreaterOrEqual(t, r.Severity, 0.0)
		assert.LessOrEqual(t, r.Severity, 1.0)
	}
}
