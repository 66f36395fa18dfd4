package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/profileguard/internal/domain/model"
)

// ScorePlaces is the number of decimals kept in the reported risk score.
const ScorePlaces = 4

// AssessAccountRequest is the input DTO for the AssessAccount use case. The
// payload stays untyped so the feature validator can report per-field errors.
type AssessAccountRequest struct {
	Payload map[string]any
	// Quick forces the qualitative analysis off regardless of the payload.
	Quick bool
}

// AnalyzeProfileRequest is the input DTO for the AnalyzeProfile use case.
type AnalyzeProfileRequest struct {
	Profile                    model.RawProfile `json:"profile"`
	IncludeQualitativeAnalysis *bool            `json:"include_qualitative_analysis,omitempty"`
	// ForceRefresh re-scores even when history holds an assessment for the
	// same username under the current policy.
	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// AssessmentResponse is the external contract returned after an assessment.
type AssessmentResponse struct {
	// AssessmentID keys the stored history record. It is carried in a header
	// rather than the body.
	AssessmentID   uuid.UUID `json:"-"`
	Prediction     string    `json:"prediction"`
	Confidence     string    `json:"confidence"`
	GeminiAnalysis *string   `json:"gemini_analysis"`
	RiskFactors    []string  `json:"risk_factors"`
	RiskScore      float64   `json:"risk_score"`
	// Cached marks a profile analysis served from history.
	Cached bool `json:"cached,omitempty"`
}

// AssessmentRecord is a stored assessment as returned by the history endpoints.
type AssessmentRecord struct {
	AssessedAt          time.Time          `json:"assessed_at"`
	Result              AssessmentResponse `json:"result"`
	ID                  uuid.UUID          `json:"id"`
	Username            string             `json:"username,omitempty"`
	QualitativeStatus   string             `json:"qualitative_status"`
	FailureReason       string             `json:"failure_reason,omitempty"`
	PolicyVersion       string             `json:"policy_version"`
	ArtifactVersion     string             `json:"artifact_version,omitempty"`
	RiskFactorCodes     []string           `json:"risk_factor_codes"`
	Probability         float64            `json:"probability"`
	RuleSeverity        float64            `json:"rule_severity"`
	ClassifierAvailable bool               `json:"classifier_available"`
}

// GetAssessmentRequest is the input DTO for retrieving an assessment.
type GetAssessmentRequest struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// ListRecentRequest is the input DTO for listing recent assessments.
type ListRecentRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// FromAssessment maps a finalized assessment to the response contract.
func FromAssessment(a *model.RiskAssessment) AssessmentResponse {
	resp := AssessmentResponse{
		AssessmentID: a.ID(),
		Prediction:   a.Prediction().Label(),
		Confidence:   a.ConfidenceBand().Label(),
		RiskScore:    TruncateScore(a.CombinedScore()),
		RiskFactors:  model.RiskFactorMessages(a.RiskFactors()),
	}
	if text, ok := a.Qualitative().Text(); ok {
		resp.GeminiAnalysis = &text
	}
	return resp
}

// FromModel maps an assessment to its history record.
func FromModel(a *model.RiskAssessment) AssessmentRecord {
	factors := a.RiskFactors()
	codes := make([]string, 0, len(factors))
	for _, f := range factors {
		codes = append(codes, f.Code.String())
	}

	return AssessmentRecord{
		ID:                  a.ID(),
		AssessedAt:          a.AssessedAt(),
		Result:              FromAssessment(a),
		Username:            a.Text().Username,
		Probability:         a.Probability(),
		RuleSeverity:        a.RuleSeverity(),
		ClassifierAvailable: a.ClassifierAvailable(),
		RiskFactorCodes:     codes,
		QualitativeStatus:   string(a.Qualitative().Status()),
		FailureReason:       string(a.Qualitative().Reason()),
		PolicyVersion:       a.PolicyVersion(),
		ArtifactVersion:     a.ArtifactVersion(),
	}
}

// FromModels maps a slice of assessments, never returning nil.
func FromModels(assessments []*model.RiskAssessment) []AssessmentRecord {
	out := make([]AssessmentRecord, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, FromModel(a))
	}
	return out
}

// TruncateScore cuts a score to ScorePlaces decimals. Truncation never moves a
// score across the decision threshold the way rounding could.
func TruncateScore(score float64) float64 {
	f, _ := decimal.NewFromFloat(score).Truncate(ScorePlaces).Float64()
	return f
}
