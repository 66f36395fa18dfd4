package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
)

// AnalyzeProfile scores a raw platform profile by deriving its feature payload
// first. When history is available, the latest assessment for the same
// username is reused unless the caller forces a refresh.
type AnalyzeProfile struct {
	assess  *AssessAccount
	history port.AssessmentRepository
}

// NewAnalyzeProfile creates a new AnalyzeProfile use case. history may be nil,
// in which case every request is scored.
func NewAnalyzeProfile(assess *AssessAccount, history port.AssessmentRepository) *AnalyzeProfile {
	return &AnalyzeProfile{assess: assess, history: history}
}

func (uc *AnalyzeProfile) Execute(ctx context.Context, req dto.AnalyzeProfileRequest) (dto.AssessmentResponse, error) {
	if !req.ForceRefresh {
		if cached, ok := uc.cached(ctx, req.Profile.Username); ok {
			resp := dto.FromAssessment(cached)
			resp.Cached = true
			return resp, nil
		}
	}

	payload := model.DeriveFeatures(req.Profile)
	if req.IncludeQualitativeAnalysis != nil {
		payload[model.FieldIncludeQualitativeAnalysis] = *req.IncludeQualitativeAnalysis
	}
	return uc.assess.Execute(ctx, dto.AssessAccountRequest{Payload: payload})
}

// cached returns the latest stored assessment for username when it was scored
// under the policy in force now. Lookup failures fall through to scoring.
func (uc *AnalyzeProfile) cached(ctx context.Context, username string) (*model.RiskAssessment, bool) {
	username = strings.TrimSpace(username)
	if uc.history == nil || username == "" {
		return nil, false
	}

	lookupCtx, cancel := uc.assess.sideEffectContext(ctx)
	defer cancel()

	a, err := uc.history.FindLatestByUsername(lookupCtx, username)
	switch {
	case errors.Is(err, model.ErrAssessmentNotFound):
		return nil, false
	case err != nil:
		uc.assess.logger.WarnContext(ctx, "history lookup failed, scoring profile",
			"username", username,
			"error", err,
		)
		return nil, false
	}
	if a.PolicyVersion() != uc.assess.PolicyVersion() {
		return nil, false
	}
	return a, true
}
