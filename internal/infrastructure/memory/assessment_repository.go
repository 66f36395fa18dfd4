// Package memory holds in-process adapters used when no database is configured.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bibbank/profileguard/internal/domain/model"
)

// DefaultCapacity bounds the number of assessments kept in memory.
const DefaultCapacity = 1000

// AssessmentRepository is a thread-safe, bounded history store. Once full,
// the oldest assessment is evicted.
type AssessmentRepository struct {
	byID     map[uuid.UUID]*model.RiskAssessment
	order    []uuid.UUID
	capacity int
	mu       sync.RWMutex
}

// NewAssessmentRepository creates a store holding at most capacity entries.
func NewAssessmentRepository(capacity int) *AssessmentRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &AssessmentRepository{
		byID:     make(map[uuid.UUID]*model.RiskAssessment),
		capacity: capacity,
	}
}

// Save stores the assessment. Saving the same ID twice is a no-op.
func (r *AssessmentRepository) Save(_ context.Context, a *model.RiskAssessment) error {
	if a == nil {
		return errors.New("assessment must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		return nil
	}
	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
	}
	r.byID[a.ID()] = a
	r.order = append(r.order, a.ID())
	return nil
}

// FindByID returns model.ErrAssessmentNotFound for unknown or evicted IDs.
func (r *AssessmentRepository) FindByID(_ context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, model.ErrAssessmentNotFound
}

// FindLatestByUsername walks history newest first.
func (r *AssessmentRepository) FindLatestByUsername(_ context.Context, username string) (*model.RiskAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		if a := r.byID[r.order[i]]; strings.EqualFold(a.Text().Username, username) {
			return a, nil
		}
	}
	return nil, model.ErrAssessmentNotFound
}

// ListRecent returns up to limit assessments, newest first, skipping the
// newest offset. A non-positive limit returns everything after offset.
func (r *AssessmentRepository) ListRecent(_ context.Context, offset, limit int) ([]*model.RiskAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	remaining := len(r.order) - max(offset, 0)
	if remaining <= 0 {
		return []*model.RiskAssessment{}, nil
	}
	if limit <= 0 || limit > remaining {
		limit = remaining
	}
	out := make([]*model.RiskAssessment, 0, limit)
	for i := remaining - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.byID[r.order[i]])
	}
	return out, nil
}

// Ping always succeeds.
func (r *AssessmentRepository) Ping(context.Context) error { return nil }
