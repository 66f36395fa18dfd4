package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/valueobject"
	"github.com/bibbank/profileguard/internal/infrastructure/memory"
)

func newAssessment(t *testing.T) *model.RiskAssessment {
	t.Helper()
	a, err := model.NewRiskAssessment(model.AssessmentParams{
		CombinedScore:  0.2,
		Prediction:     valueobject.PredictionReal,
		ConfidenceBand: valueobject.ConfidenceHigh,
		PolicyVersion:  "v1",
	})
	require.NoError(t, err)
	return a
}

func TestAssessmentRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAssessmentRepository(10)
	a := newAssessment(t)

	require.NoError(t, repo.Save(ctx, a))
	got, err := repo.FindByID(ctx, a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrAssessmentNotFound)

	assert.Error(t, repo.Save(ctx, nil))
}

func TestAssessmentRepository_ListRecentAndEviction(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAssessmentRepository(3)

	var saved []*model.RiskAssessment
	for i := 0; i < 4; i++ {
		a := newAssessment(t)
		saved = append(saved, a)
		require.NoError(t, repo.Save(ctx, a))
	}
	require.NoError(t, repo.Save(ctx, saved[3]), "duplicate save is a no-op")

	list, err := repo.ListRecent(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, saved[3].ID(), list[0].ID())
	assert.Equal(t, saved[1].ID(), list[2].ID())

	_, err = repo.FindByID(ctx, saved[0].ID())
	assert.ErrorIs(t, err, model.ErrAssessmentNotFound, "oldest entry is evicted")

	list, err = repo.ListRecent(ctx, 0, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAssessmentRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAssessmentRepository(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := model.NewRiskAssessment(model.AssessmentParams{
				Prediction:     valueobject.PredictionReal,
				ConfidenceBand: valueobject.ConfidenceHigh,
			})
			if err != nil {
				return
			}
			_ = repo.Save(ctx, a)
			_, _ = repo.ListRecent(ctx, 0, 5)
		}()
	}
	wg.Wait()

	list, err := repo.ListRecent(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestAssessmentRepository_ListRecentOffset(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAssessmentRepository(10)

	var saved []*model.RiskAssessment
	for i := 0; i < 5; i++ {
		a := newAssessment(t)
		saved = append(saved, a)
		require.NoError(t, repo.Save(ctx, a))
	}

	page, err := repo.ListRecent(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, saved[2].ID(), page[0].ID())
	assert.Equal(t, saved[1].ID(), page[1].ID())

	empty, err := repo.ListRecent(ctx, 5, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAssessmentRepository_FindLatestByUsername(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAssessmentRepository(10)

	withUser := func(name string) *model.RiskAssessment {
		a, err := model.NewRiskAssessment(model.AssessmentParams{
			Text:           model.ProfileText{Username: name},
			Prediction:     valueobject.PredictionReal,
			ConfidenceBand: valueobject.ConfidenceHigh,
			PolicyVersion:  "v1",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, a))
		return a
	}
	withUser("jane")
	withUser("other")
	latest := withUser("Jane")

	got, err := repo.FindLatestByUsername(ctx, "JANE")
	require.NoError(t, err)
	assert.Equal(t, latest.ID(), got.ID())

	_, err = repo.FindLatestByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
}
