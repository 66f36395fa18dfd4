package service

import (
	"fmt"
	"math"
	"time"

	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

// Default scoring policy. Scores produced under different policies are not
// comparable, so any change to these values ships with a new policy version.
const (
	DefaultPolicyVersion       = "v1"
	DefaultClassifierWeight    = 0.7
	DefaultRuleWeight          = 0.3
	DefaultDecisionThreshold   = 0.5
	DefaultHighConfidenceUpper = 0.7
	DefaultHighConfidenceLower = 0.3
	DefaultAmbiguityLower      = 0.45
	DefaultAmbiguityUpper      = 0.55
	DefaultQualitativeTimeout  = 5 * time.Second
)

const weightTolerance = 1e-9

// ScoringPolicy holds every tunable constant of the hybrid merge.
type ScoringPolicy struct {
	Version             string        `yaml:"version"`
	ClassifierWeight    float64       `yaml:"classifier_weight"`
	RuleWeight          float64       `yaml:"rule_weight"`
	DecisionThreshold   float64       `yaml:"decision_threshold"`
	HighConfidenceUpper float64       `yaml:"high_confidence_upper"`
	HighConfidenceLower float64       `yaml:"high_confidence_lower"`
	AmbiguityLower      float64       `yaml:"ambiguity_lower"`
	AmbiguityUpper      float64       `yaml:"ambiguity_upper"`
	QualitativeTimeout  time.Duration `yaml:"qualitative_timeout"`
}

// DefaultScoringPolicy returns the documented v1 policy.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Version:             DefaultPolicyVersion,
		ClassifierWeight:    DefaultClassifierWeight,
		RuleWeight:          DefaultRuleWeight,
		DecisionThreshold:   DefaultDecisionThreshold,
		HighConfidenceUpper: DefaultHighConfidenceUpper,
		HighConfidenceLower: DefaultHighConfidenceLower,
		AmbiguityLower:      DefaultAmbiguityLower,
		AmbiguityUpper:      DefaultAmbiguityUpper,
		QualitativeTimeout:  DefaultQualitativeTimeout,
	}
}

// Validate checks that the weights sum to one and the thresholds are ordered:
// 0 <= high_lower < ambiguity_lower <= threshold <= ambiguity_upper < high_upper <= 1.
func (p ScoringPolicy) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("scoring policy version is required")
	}
	if p.ClassifierWeight < 0 || p.RuleWeight < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if math.Abs(p.ClassifierWeight+p.RuleWeight-1) > weightTolerance {
		return fmt.Errorf("classifier and rule weights must sum to 1, got %v", p.ClassifierWeight+p.RuleWeight)
	}

	ordered := 0 <= p.HighConfidenceLower &&
		p.HighConfidenceLower < p.AmbiguityLower &&
		p.AmbiguityLower <= p.DecisionThreshold &&
		p.DecisionThreshold <= p.AmbiguityUpper &&
		p.AmbiguityUpper < p.HighConfidenceUpper &&
		p.HighConfidenceUpper <= 1
	if !ordered {
		return fmt.Errorf("scoring thresholds are not ordered: high_lower=%v ambiguity_lower=%v threshold=%v ambiguity_upper=%v high_upper=%v",
			p.HighConfidenceLower, p.AmbiguityLower, p.DecisionThreshold, p.AmbiguityUpper, p.HighConfidenceUpper)
	}

	if p.QualitativeTimeout < 0 {
		return fmt.Errorf("qualitative timeout must not be negative")
	}
	return nil
}

// ScoresLike reports whether p and o produce identical scores, predictions and
// bands. The qualitative timeout does not affect scoring and is ignored.
func (p ScoringPolicy) ScoresLike(o ScoringPolicy) bool {
	return p.ClassifierWeight == o.ClassifierWeight &&
		p.RuleWeight == o.RuleWeight &&
		p.DecisionThreshold == o.DecisionThreshold &&
		p.HighConfidenceUpper == o.HighConfidenceUpper &&
		p.HighConfidenceLower == o.HighConfidenceLower &&
		p.AmbiguityLower == o.AmbiguityLower &&
		p.AmbiguityUpper == o.AmbiguityUpper
}

// Combine merges the classifier probability with rule severity. When the
// classifier is unavailable the rule severity is returned unchanged.
func (p ScoringPolicy) Combine(probability, ruleSeverity float64, classifierAvailable bool) float64 {
	if !classifierAvailable {
		return ruleSeverity
	}
	return clamp01(p.ClassifierWeight*probability + p.RuleWeight*ruleSeverity)
}

// Predict maps a combined score to a verdict; the threshold itself is FAKE.
func (p ScoringPolicy) Predict(score float64) valueobject.Prediction {
	return valueobject.PredictionFromScore(score, p.DecisionThreshold)
}

// Band discretizes the distance of a combined score from the decision boundary.
func (p ScoringPolicy) Band(score float64) valueobject.ConfidenceBand {
	switch {
	case score >= p.HighConfidenceUpper || score <= p.HighConfidenceLower:
		return valueobject.ConfidenceHigh
	case score >= p.AmbiguityLower && score <= p.AmbiguityUpper:
		return valueobject.ConfidenceLow
	default:
		return valueobject.ConfidenceMedium
	}
}

func (p ScoringPolicy) qualitativeTimeout() time.Duration {
	if p.QualitativeTimeout <= 0 {
		return DefaultQualitativeTimeout
	}
	return p.QualitativeTimeout
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
