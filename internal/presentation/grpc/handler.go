package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/application/usecase"
	"github.com/bibbank/profileguard/internal/domain/model"
)

// Compile-time assertion that ProfileRiskHandler implements ProfileRiskServiceServer.
var _ ProfileRiskServiceServer = (*ProfileRiskHandler)(nil)

// ProfileRiskHandler implements the gRPC ProfileRiskServiceServer interface.
type ProfileRiskHandler struct {
	UnimplementedProfileRiskServiceServer
	assessAccount *usecase.AssessAccount
	getAssessment *usecase.GetAssessment
	logger        *slog.Logger
}

// NewProfileRiskHandler creates a new gRPC handler. getAssessment may be nil
// when no history store is configured.
func NewProfileRiskHandler(
	assessAccount *usecase.AssessAccount,
	getAssessment *usecase.GetAssessment,
	logger *slog.Logger,
) *ProfileRiskHandler {
	return &ProfileRiskHandler{
		assessAccount: assessAccount,
		getAssessment: getAssessment,
		logger:        logger,
	}
}

// Proto-aligned request/response message types.

// AssessAccountRequest carries the feature payload exactly as the REST body.
type AssessAccountRequest struct {
	Features map[string]any `json:"features"`
	Quick    bool           `json:"quick"`
}

// AssessAccountResponse represents the proto AssessAccountResponse message.
type AssessAccountResponse struct {
	AssessmentID   string   `json:"assessment_id"`
	PolicyVersion  string   `json:"policy_version"`
	Prediction     string   `json:"prediction"`
	Confidence     string   `json:"confidence"`
	GeminiAnalysis *string  `json:"gemini_analysis"`
	RiskFactors    []string `json:"risk_factors"`
	RiskScore      float64  `json:"risk_score"`
}

// GetAssessmentRequest represents the proto GetAssessmentRequest message.
type GetAssessmentRequest struct {
	ID string `json:"id"`
}

// GetAssessmentResponse represents the proto GetAssessmentResponse message.
type GetAssessmentResponse struct {
	Assessment *dto.AssessmentRecord `json:"assessment"`
}

// AssessAccount handles an account assessment request.
func (h *ProfileRiskHandler) AssessAccount(ctx context.Context, req *AssessAccountRequest) (*AssessAccountResponse, error) {
	if req == nil || req.Features == nil {
		return nil, status.Error(codes.InvalidArgument, "features are required")
	}

	result, err := h.assessAccount.Execute(ctx, dto.AssessAccountRequest{
		Payload: req.Features,
		Quick:   req.Quick,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "failed to assess account", err)
	}

	return &AssessAccountResponse{
		AssessmentID:   result.AssessmentID.String(),
		PolicyVersion:  h.assessAccount.PolicyVersion(),
		Prediction:     result.Prediction,
		Confidence:     result.Confidence,
		GeminiAnalysis: result.GeminiAnalysis,
		RiskFactors:    result.RiskFactors,
		RiskScore:      result.RiskScore,
	}, nil
}

// GetAssessment handles a get assessment request.
func (h *ProfileRiskHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if h.getAssessment == nil {
		return nil, status.Error(codes.Unavailable, "assessment history is not configured")
	}

	assessmentID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	record, err := h.getAssessment.Execute(ctx, dto.GetAssessmentRequest{AssessmentID: assessmentID})
	if err != nil {
		return nil, h.toStatus(ctx, "failed to get assessment", err)
	}

	return &GetAssessmentResponse{Assessment: &record}, nil
}

func (h *ProfileRiskHandler) toStatus(ctx context.Context, msg string, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, model.ErrAssessmentNotFound):
		return status.Error(codes.NotFound, "assessment not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		h.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}
