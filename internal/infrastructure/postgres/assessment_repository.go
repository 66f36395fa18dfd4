package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
)

const selectAssessment = `
	SELECT id, features, username, bio_text,
		probability, classifier_available, rule_severity, combined_score,
		prediction, confidence_band,
		qualitative_status, qualitative_text, qualitative_reason,
		policy_version, artifact_version, assessed_at
	FROM profile_assessments
`

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	pool   *pgxpool.Pool
	limits model.FeatureLimits
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
// Stored features are re-validated against limits when read back, so pass the
// same limits the service accepts requests with.
func NewAssessmentRepository(pool *pgxpool.Pool, limits model.FeatureLimits) *AssessmentRepository {
	return &AssessmentRepository{pool: pool, limits: limits}
}

// Save persists an assessment and its risk factors in one transaction.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.RiskAssessment) error {
	features, err := json.Marshal(a.Features().Payload())
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertAssessment(ctx, tx, a, features); err != nil {
			return err
		}
		return insertFactors(ctx, tx, a)
	})
}

func insertAssessment(ctx context.Context, tx pgx.Tx, a *model.RiskAssessment, features []byte) error {
	text, _ := a.Qualitative().Text()
	_, err := tx.Exec(ctx, `
		INSERT INTO profile_assessments (
			id, features, username, bio_text,
			probability, classifier_available, rule_severity, combined_score,
			prediction, confidence_band,
			qualitative_status, qualitative_text, qualitative_reason,
			policy_version, artifact_version, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`,
		a.ID(),
		features,
		a.Text().Username,
		a.Text().Bio,
		a.Probability(),
		a.ClassifierAvailable(),
		a.RuleSeverity(),
		a.CombinedScore(),
		a.Prediction().String(),
		a.ConfidenceBand().String(),
		string(a.Qualitative().Status()),
		text,
		string(a.Qualitative().Reason()),
		a.PolicyVersion(),
		a.ArtifactVersion(),
		a.AssessedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

func insertFactors(ctx context.Context, tx pgx.Tx, a *model.RiskAssessment) error {
	batch := &pgx.Batch{}
	for i, f := range a.RiskFactors() {
		batch.Queue(
			`INSERT INTO assessment_risk_factors (assessment_id, position, code, message, weight)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			a.ID(), i, f.Code.String(), f.Message, f.Weight,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save risk factors: %w", err)
	}
	return nil
}

// FindByID retrieves an assessment by its unique identifier.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	return r.one(ctx, r.pool.QueryRow(ctx, selectAssessment+` WHERE id = $1`, id))
}

func (r *AssessmentRepository) one(ctx context.Context, row pgx.Row) (*model.RiskAssessment, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAssessmentNotFound
		}
		return nil, err
	}

	factors, err := r.loadFactors(ctx, []uuid.UUID{rec.id})
	if err != nil {
		return nil, err
	}
	return rec.toModel(factors[rec.id], r.limits)
}

// FindLatestByUsername returns the newest assessment for username, ignoring case.
func (r *AssessmentRepository) FindLatestByUsername(ctx context.Context, username string) (*model.RiskAssessment, error) {
	row := r.pool.QueryRow(ctx, selectAssessment+`
		WHERE lower(username) = lower($1)
		ORDER BY assessed_at DESC
		LIMIT 1`, username)
	return r.one(ctx, row)
}

// ListRecent returns the most recent assessments, newest first.
func (r *AssessmentRepository) ListRecent(ctx context.Context, offset, limit int) ([]*model.RiskAssessment, error) {
	rows, err := r.pool.Query(ctx, selectAssessment+` ORDER BY assessed_at DESC LIMIT $1 OFFSET $2`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.id)
	}
	factors, err := r.loadFactors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*model.RiskAssessment, 0, len(records))
	for _, rec := range records {
		a, err := rec.toModel(factors[rec.id], r.limits)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Ping checks connectivity for readiness probes.
func (r *AssessmentRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) loadFactors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.RiskFactor, error) {
	out := make(map[uuid.UUID][]model.RiskFactor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT assessment_id, code, message, weight
		FROM assessment_risk_factors
		WHERE assessment_id = ANY($1::uuid[])
		ORDER BY assessment_id, position
	`, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk factors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      uuid.UUID
			codeStr string
			f       model.RiskFactor
		)
		if err := rows.Scan(&id, &codeStr, &f.Message, &f.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan risk factor: %w", err)
		}
		if f.Code, err = valueobject.RiskFactorCodeFromString(codeStr); err != nil {
			return nil, fmt.Errorf("failed to parse risk factor code: %w", err)
		}
		out[id] = append(out[id], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk factors: %w", err)
	}
	return out, nil
}

// record is the flat row form of an assessment.
type record struct {
	assessedAt          time.Time
	id                  uuid.UUID
	features            []byte
	username            string
	bioText             string
	prediction          string
	confidenceBand      string
	qualitativeStatus   string
	qualitativeText     string
	qualitativeReason   string
	policyVersion       string
	artifactVersion     string
	probability         float64
	ruleSeverity        float64
	combinedScore       float64
	classifierAvailable bool
}

func scanRecord(row pgx.Row) (record, error) {
	var rec record
	err := row.Scan(
		&rec.id, &rec.features, &rec.username, &rec.bioText,
		&rec.probability, &rec.classifierAvailable, &rec.ruleSeverity, &rec.combinedScore,
		&rec.prediction, &rec.confidenceBand,
		&rec.qualitativeStatus, &rec.qualitativeText, &rec.qualitativeReason,
		&rec.policyVersion, &rec.artifactVersion, &rec.assessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record{}, err
		}
		return record{}, fmt.Errorf("failed to scan assessment: %w", err)
	}
	return rec, nil
}

func (rec record) toModel(factors []model.RiskFactor, limits model.FeatureLimits) (*model.RiskAssessment, error) {
	var payload map[string]any
	if err := json.Unmarshal(rec.features, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode features: %w", err)
	}
	features, err := model.ValidateFeatures(payload, limits)
	if err != nil {
		return nil, fmt.Errorf("stored features are invalid: %w", err)
	}

	prediction, err := valueobject.PredictionFromString(rec.prediction)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}
	band, err := valueobject.ConfidenceBandFromString(rec.confidenceBand)
	if err != nil {
		return nil, fmt.Errorf("failed to parse confidence band: %w", err)
	}

	return model.Reconstruct(rec.id, rec.assessedAt, model.AssessmentParams{
		Features:            features,
		Text:                model.ProfileText{Username: rec.username, Bio: rec.bioText},
		Probability:         rec.probability,
		ClassifierAvailable: rec.classifierAvailable,
		RuleSeverity:        rec.ruleSeverity,
		CombinedScore:       rec.combinedScore,
		RiskFactors:         factors,
		Qualitative: model.RestoreQualitative(
			model.QualitativeStatus(rec.qualitativeStatus),
			rec.qualitativeText,
			model.FailureReason(rec.qualitativeReason),
		),
		Prediction:      prediction,
		ConfidenceBand:  band,
		PolicyVersion:   rec.policyVersion,
		ArtifactVersion: rec.artifactVersion,
	}), nil
}
