package service

import (
	"fmt"
	"sort"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

// Rule trigger thresholds.
const (
	UsernameDigitRatioThreshold = 0.3
	ImbalanceRatioThreshold     = 0.05
	ImbalanceMinFollowing       = 100
	LowPostThreshold            = 5
	HighFollowingThreshold      = 500
)

// RuleResult is the output of rule extraction.
type RuleResult struct {
	Factors  []model.RiskFactor
	Severity float64
}

type rule struct {
	code    valueobject.RiskFactorCode
	weight  float64
	trigger func(model.FeatureVector) bool
	message func(model.FeatureVector) string
	// companion rules only fire alongside at least one weighted rule.
	companion bool
}

// RuleExtractor evaluates the closed rule set over a feature vector.
type RuleExtractor struct {
	rules         []rule
	totalPositive float64
}

// NewRuleExtractor creates a RuleExtractor with the standard rule table.
func NewRuleExtractor() *RuleExtractor {
	rules := []rule{
		{
			code:    valueobject.CodeNoProfilePicture,
			weight:  0.20,
			trigger: func(f model.FeatureVector) bool { return !f.HasProfilePicture() },
			message: constMessage("No profile picture"),
		},
		{
			code:    valueobject.CodeHighUsernameDigitRatio,
			weight:  0.20,
			trigger: func(f model.FeatureVector) bool { return f.UsernameDigitRatio() > UsernameDigitRatioThreshold },
			message: func(f model.FeatureVector) string {
				return fmt.Sprintf("Suspicious username (digit ratio: %.0f%%)", f.UsernameDigitRatio()*100)
			},
		},
		{
			code:    valueobject.CodeNameEqualsUsername,
			weight:  0.10,
			trigger: func(f model.FeatureVector) bool { return f.NameEqualsUsername() },
			message: constMessage("Display name matches username exactly"),
		},
		{
			code:    valueobject.CodeEmptyBio,
			weight:  0.10,
			trigger: func(f model.FeatureVector) bool { return f.BioLength() == 0 },
			message: constMessage("Empty bio/description"),
		},
		{
			code:      valueobject.CodeNoExternalURL,
			weight:    0,
			trigger:   func(f model.FeatureVector) bool { return !f.HasExternalURL() },
			message:   constMessage("No external URL"),
			companion: true,
		},
		{
			code:   valueobject.CodeFollowerFollowingImbalance,
			weight: 0.25,
			trigger: func(f model.FeatureVector) bool {
				return f.FollowerFollowingRatio() < ImbalanceRatioThreshold && f.FollowingCount() > ImbalanceMinFollowing
			},
			message: func(f model.FeatureVector) string {
				return fmt.Sprintf("Abnormal follower/following ratio (%.2f)", f.FollowerFollowingRatio())
			},
		},
		{
			code:   valueobject.CodeLowPostHighFollowing,
			weight: 0.15,
			trigger: func(f model.FeatureVector) bool {
				return f.PostCount() < LowPostThreshold && f.FollowingCount() > HighFollowingThreshold
			},
			message: constMessage("Very few posts but high following count"),
		},
	}

	total := 0.0
	for _, r := range rules {
		if r.weight > 0 {
			total += r.weight
		}
	}

	return &RuleExtractor{rules: rules, totalPositive: total}
}

// Extract evaluates every rule and returns the triggered factors ordered by
// descending weight, ties kept in table order, plus the normalized severity.
func (e *RuleExtractor) Extract(features model.FeatureVector) RuleResult {
	factors := make([]model.RiskFactor, 0, len(e.rules))
	weighted := 0.0
	anyWeighted := false

	for _, r := range e.rules {
		if r.companion || !r.trigger(features) {
			continue
		}
		factors = append(factors, model.RiskFactor{Code: r.code, Message: r.message(features), Weight: r.weight})
		weighted += r.weight
		if r.weight > 0 {
			anyWeighted = true
		}
	}

	if anyWeighted {
		for _, r := range e.rules {
			if r.companion && r.trigger(features) {
				factors = append(factors, model.RiskFactor{Code: r.code, Message: r.message(features), Weight: r.weight})
			}
		}
	}

	e.order(factors)

	severity := 0.0
	if e.totalPositive > 0 {
		severity = clamp01(weighted / e.totalPositive)
	}

	return RuleResult{Factors: factors, Severity: severity}
}

// order sorts by descending weight; equal weights keep rule-table order.
func (e *RuleExtractor) order(factors []model.RiskFactor) {
	rank := make(map[valueobject.RiskFactorCode]int, len(e.rules))
	for i, r := range e.rules {
		rank[r.code] = i
	}
	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].Weight != factors[j].Weight {
			return factors[i].Weight > factors[j].Weight
		}
		return rank[factors[i].Code] < rank[factors[j].Code]
	})
}

func constMessage(msg string) func(model.FeatureVector) string {
	return func(model.FeatureVector) string { return msg }
}
