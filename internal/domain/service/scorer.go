package service

import (
	"context"

	"github.com/bibbank/profileguard/internal/domain/model"
)

// Scorer produces a risk assessment for one validated request.
// HybridScorer is the production implementation.
type Scorer interface {
	Assess(ctx context.Context, input AssessmentInput) (*model.RiskAssessment, error)
	Policy() ScoringPolicy
}

// AssessmentInput is a validated scoring request.
type AssessmentInput struct {
	Features           model.FeatureVector
	Text               model.ProfileText
	IncludeQualitative bool
}

// Stage names the lifecycle of one assessment.
type Stage string

const (
	StageValidated          Stage = "VALIDATED"
	StageScored             Stage = "SCORED"
	StageQualitativePending Stage = "QUALITATIVE_PENDING"
	StageQualitativeSkipped Stage = "QUALITATIVE_SKIPPED"
	StageFinalized          Stage = "FINALIZED"
)
