//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
	"github.com/bibbank/profileguard/internal/infrastructure/postgres"
	"github.com/bibbank/profileguard/internal/testutil"
)

func newAssessment(t *testing.T, score float64) *model.RiskAssessment {
	t.Helper()
	fv, err := model.NewFeatureVector(model.FeatureParams{
		UsernameDigitRatio: 0.55,
		PostCount:          2,
		FollowerCount:      15,
		FollowingCount:     1500,
	}, model.DefaultFeatureLimits())
	require.NoError(t, err)

	a, err := model.NewRiskAssessment(model.AssessmentParams{
		Features:            fv,
		Text:                model.ProfileText{Username: "promo_4821", Bio: "giveaway"},
		Probability:         score,
		ClassifierAvailable: true,
		RuleSeverity:        1,
		CombinedScore:       score,
		RiskFactors: []model.RiskFactor{
			{Code: valueobject.CodeFollowerFollowingImbalance, Message: "Abnormal follower/following ratio (0.01)", Weight: 0.25},
			{Code: valueobject.CodeNoProfilePicture, Message: "No profile picture", Weight: 0.2},
		},
		Qualitative:     model.CompletedAnalysis("Looks automated."),
		Prediction:      valueobject.PredictionFake,
		ConfidenceBand:  valueobject.ConfidenceHigh,
		PolicyVersion:   "v1",
		ArtifactVersion: "xgb-test",
	})
	require.NoError(t, err)
	return a
}

func TestAssessmentRepository_Integration(t *testing.T) {
	ctx := context.Background()
	db := testutil.StartPostgres(t)

	repo := postgres.NewAssessmentRepository(db.Pool, model.DefaultFeatureLimits())
	require.NoError(t, repo.Ping(ctx))

	first := newAssessment(t, 0.81)
	require.NoError(t, repo.Save(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := newAssessment(t, 0.93)
	require.NoError(t, repo.Save(ctx, second))

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, first.ID())
		require.NoError(t, err)

		assert.Equal(t, first.CombinedScore(), got.CombinedScore())
		assert.Equal(t, first.Features(), got.Features())
		assert.Equal(t, first.RiskFactors(), got.RiskFactors())
		assert.Equal(t, "promo_4821", got.Text().Username)

		text, ok := got.Qualitative().Text()
		assert.True(t, ok)
		assert.Equal(t, "Looks automated.", text)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
	})

	t.Run("list recent newest first", func(t *testing.T) {
		list, err := repo.ListRecent(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID(), list[0].ID())
		assert.Len(t, list[1].RiskFactors(), 2)
	})

	t.Run("offset paging", func(t *testing.T) {
		list, err := repo.ListRecent(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, first.ID(), list[0].ID())
	})

	t.Run("latest by username", func(t *testing.T) {
		got, err := repo.FindLatestByUsername(ctx, "PROMO_4821")
		require.NoError(t, err)
		assert.Equal(t, second.ID(), got.ID())

		_, err = repo.FindLatestByUsername(ctx, "someone_else")
		assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
	})

	t.Run("save is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, first))
		list, err := repo.ListRecent(ctx, 0, 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("migrations roll back", func(t *testing.T) {
		require.NoError(t, postgres.RunMigrationsDown(db.DSN, ""))
		require.NoError(t, postgres.RunMigrations(db.DSN, ""))
	})
}
