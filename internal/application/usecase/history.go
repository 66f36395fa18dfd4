package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
)

// Page sizes for ListRecentAssessments.
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// GetAssessment looks up one stored assessment.
type GetAssessment struct {
	repo port.AssessmentRepository
}

func NewGetAssessment(repo port.AssessmentRepository) *GetAssessment {
	return &GetAssessment{repo: repo}
}

// Execute returns model.ErrAssessmentNotFound, wrapped, for unknown IDs.
func (uc *GetAssessment) Execute(ctx context.Context, req dto.GetAssessmentRequest) (dto.AssessmentRecord, error) {
	a, err := uc.repo.FindByID(ctx, req.AssessmentID)
	switch {
	case errors.Is(err, model.ErrAssessmentNotFound), err == nil && a == nil:
		return dto.AssessmentRecord{}, fmt.Errorf("assessment %s: %w", req.AssessmentID, model.ErrAssessmentNotFound)
	case err != nil:
		return dto.AssessmentRecord{}, fmt.Errorf("load assessment %s: %w", req.AssessmentID, err)
	}
	return dto.FromModel(a), nil
}

// ListRecentAssessments pages through history, newest first.
type ListRecentAssessments struct {
	repo port.AssessmentRepository
}

func NewListRecentAssessments(repo port.AssessmentRepository) *ListRecentAssessments {
	return &ListRecentAssessments{repo: repo}
}

// Execute clamps req.Limit into [1, MaxListLimit]; zero or negative means
// DefaultListLimit. A negative offset reads from the newest assessment.
func (uc *ListRecentAssessments) Execute(ctx context.Context, req dto.ListRecentRequest) ([]dto.AssessmentRecord, error) {
	limit := min(req.Limit, MaxListLimit)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	list, err := uc.repo.ListRecent(ctx, max(req.Offset, 0), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent assessments: %w", err)
	}
	return dto.FromModels(list), nil
}
