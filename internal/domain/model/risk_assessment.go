package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

// AssessmentParams holds the values the scoring orchestrator computed.
type AssessmentParams struct {
	Features            FeatureVector
	Text                ProfileText
	Probability         float64
	ClassifierAvailable bool
	RuleSeverity        float64
	CombinedScore       float64
	RiskFactors         []RiskFactor
	Qualitative         QualitativeOutcome
	Prediction          valueobject.Prediction
	ConfidenceBand      valueobject.ConfidenceBand
	PolicyVersion       string
	ArtifactVersion     string
}

// RiskAssessment is the reconciled, immutable result of scoring one account.
type RiskAssessment struct {
	assessedAt          time.Time
	features            FeatureVector
	text                ProfileText
	qualitative         QualitativeOutcome
	prediction          valueobject.Prediction
	confidenceBand      valueobject.ConfidenceBand
	policyVersion       string
	artifactVersion     string
	riskFactors         []RiskFactor
	probability         float64
	ruleSeverity        float64
	combinedScore       float64
	id                  uuid.UUID
	classifierAvailable bool
}

// NewRiskAssessment validates computed scores and creates a new assessment.
func NewRiskAssessment(p AssessmentParams) (*RiskAssessment, error) {
	scores := []struct {
		name  string
		value float64
	}{
		{"probability", p.Probability},
		{"rule severity", p.RuleSeverity},
		{"combined score", p.CombinedScore},
	}
	for _, s := range scores {
		if !(s.value >= 0 && s.value <= 1) {
			return nil, fmt.Errorf("%s must be between 0 and 1, got %v", s.name, s.value)
		}
	}
	if p.Prediction.IsZero() {
		return nil, fmt.Errorf("prediction is required")
	}
	if p.ConfidenceBand.IsZero() {
		return nil, fmt.Errorf("confidence band is required")
	}
	if p.Qualitative.Status() == "" {
		p.Qualitative = SkippedAnalysis()
	}

	factors := make([]RiskFactor, len(p.RiskFactors))
	copy(factors, p.RiskFactors)

	return &RiskAssessment{
		id:                  uuid.New(),
		features:            p.Features,
		text:                p.Text,
		probability:         p.Probability,
		classifierAvailable: p.ClassifierAvailable,
		ruleSeverity:        p.RuleSeverity,
		combinedScore:       p.CombinedScore,
		riskFactors:         factors,
		qualitative:         p.Qualitative,
		prediction:          p.Prediction,
		confidenceBand:      p.ConfidenceBand,
		policyVersion:       p.PolicyVersion,
		artifactVersion:     p.ArtifactVersion,
		assessedAt:          time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a RiskAssessment from persisted data (no validation).
func Reconstruct(id uuid.UUID, assessedAt time.Time, p AssessmentParams) *RiskAssessment {
	return &RiskAssessment{
		id:                  id,
		features:            p.Features,
		text:                p.Text,
		probability:         p.Probability,
		classifierAvailable: p.ClassifierAvailable,
		ruleSeverity:        p.RuleSeverity,
		combinedScore:       p.CombinedScore,
		riskFactors:         p.RiskFactors,
		qualitative:         p.Qualitative,
		prediction:          p.Prediction,
		confidenceBand:      p.ConfidenceBand,
		policyVersion:       p.PolicyVersion,
		artifactVersion:     p.ArtifactVersion,
		assessedAt:          assessedAt,
	}
}

// --- Accessors ---

func (a *RiskAssessment) ID() uuid.UUID                              { return a.id }
func (a *RiskAssessment) Features() FeatureVector                    { return a.features }
func (a *RiskAssessment) Text() ProfileText                          { return a.text }
func (a *RiskAssessment) Probability() float64                       { return a.probability }
func (a *RiskAssessment) ClassifierAvailable() bool                  { return a.classifierAvailable }
func (a *RiskAssessment) RuleSeverity() float64                      { return a.ruleSeverity }
func (a *RiskAssessment) CombinedScore() float64                     { return a.combinedScore }
func (a *RiskAssessment) Qualitative() QualitativeOutcome            { return a.qualitative }
func (a *RiskAssessment) Prediction() valueobject.Prediction         { return a.prediction }
func (a *RiskAssessment) ConfidenceBand() valueobject.ConfidenceBand { return a.confidenceBand }
func (a *RiskAssessment) PolicyVersion() string                      { return a.policyVersion }
func (a *RiskAssessment) ArtifactVersion() string                    { return a.artifactVersion }
func (a *RiskAssessment) AssessedAt() time.Time                      { return a.assessedAt }

// RiskFactors returns a copy of the factors in severity-descending order.
func (a *RiskAssessment) RiskFactors() []RiskFactor {
	factors := make([]RiskFactor, len(a.riskFactors))
	copy(factors, a.riskFactors)
	return factors
}
