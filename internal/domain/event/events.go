package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

const (
	// EventTypeAssessmentCompleted is emitted when a profile assessment finishes.
	EventTypeAssessmentCompleted = "profile.assessment.completed"

	// EventTypeFakeAccountDetected is emitted for FAKE predictions with HIGH confidence.
	EventTypeFakeAccountDetected = "profile.fake_account.detected"
)

// DomainEvent is implemented by all events published by the service.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// AssessmentCompleted is published after every finalized assessment.
type AssessmentCompleted struct {
	ID                  uuid.UUID `json:"event_id"`
	AssessmentID        uuid.UUID `json:"assessment_id"`
	Prediction          string    `json:"prediction"`
	ConfidenceBand      string    `json:"confidence_band"`
	CombinedScore       float64   `json:"combined_score"`
	RuleSeverity        float64   `json:"rule_severity"`
	ClassifierAvailable bool      `json:"classifier_available"`
	RiskFactorCodes     []string  `json:"risk_factor_codes"`
	QualitativeStatus   string    `json:"qualitative_status"`
	PolicyVersion       string    `json:"policy_version"`
	AssessedAt          time.Time `json:"assessed_at"`
}

func (e AssessmentCompleted) EventID() uuid.UUID     { return e.ID }
func (e AssessmentCompleted) EventType() string      { return EventTypeAssessmentCompleted }
func (e AssessmentCompleted) AggregateID() uuid.UUID { return e.AssessmentID }
func (e AssessmentCompleted) OccurredAt() time.Time  { return e.AssessedAt }

// FakeAccountDetected is published when an account is confidently predicted fake,
// so moderation tooling can react.
type FakeAccountDetected struct {
	ID              uuid.UUID `json:"event_id"`
	AssessmentID    uuid.UUID `json:"assessment_id"`
	CombinedScore   float64   `json:"combined_score"`
	RiskFactorCodes []string  `json:"risk_factor_codes"`
	Username        string    `json:"username,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

func (e FakeAccountDetected) EventID() uuid.UUID     { return e.ID }
func (e FakeAccountDetected) EventType() string      { return EventTypeFakeAccountDetected }
func (e FakeAccountDetected) AggregateID() uuid.UUID { return e.AssessmentID }
func (e FakeAccountDetected) OccurredAt() time.Time  { return e.DetectedAt }

// FromAssessment derives the events a finalized assessment emits.
func FromAssessment(a *model.RiskAssessment) []DomainEvent {
	codes := make([]string, 0, len(a.RiskFactors()))
	for _, f := range a.RiskFactors() {
		codes = append(codes, f.Code.String())
	}

	events := []DomainEvent{
		AssessmentCompleted{
			ID:                  uuid.New(),
			AssessmentID:        a.ID(),
			Prediction:          a.Prediction().String(),
			ConfidenceBand:      a.ConfidenceBand().String(),
			CombinedScore:       a.CombinedScore(),
			RuleSeverity:        a.RuleSeverity(),
			ClassifierAvailable: a.ClassifierAvailable(),
			RiskFactorCodes:     codes,
			QualitativeStatus:   string(a.Qualitative().Status()),
			PolicyVersion:       a.PolicyVersion(),
			AssessedAt:          a.AssessedAt(),
		},
	}

	if a.Prediction().IsFake() && a.ConfidenceBand().Equal(valueobject.ConfidenceHigh) {
		events = append(events, FakeAccountDetected{
			ID:              uuid.New(),
			AssessmentID:    a.ID(),
			CombinedScore:   a.CombinedScore(),
			RiskFactorCodes: codes,
			Username:        a.Text().Username,
			DetectedAt:      a.AssessedAt(),
		})
	}

	return events
}
