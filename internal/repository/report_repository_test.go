package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

func newTestRepo(t *testing.T) *BadgerReportRepository {
	t.Helper()
	repo, err := NewBadgerReportRepository("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func report(id, imageID string, created time.Time) *models.DetectionReport {
	return &models.DetectionReport{
		ID:        id,
		ImageID:   imageID,
		Task:      models.TaskSegmentation,
		CreatedAt: created,
		AreaReport: []models.AreaEntry{
			{Category: "Plastic", Area: 100},
		},
		PixelReport: &models.PixelReport{
			TotalPixels:    150,
			CategoryPixels: map[string]int64{"Plastic": 100, "Paper": 50},
			Percentages:    map[string]float64{"Plastic": 200.0 / 3, "Paper": 100.0 / 3},
		},
	}
}

func TestReportRepository_SaveGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, report("r1", "bin.jpg", created)))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "bin.jpg", got.ImageID)
	assert.Equal(t, models.TaskSegmentation, got.Task)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, int64(100), got.PixelReport.CategoryPixels["Plastic"])
}

func TestReportRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportRepository_SaveRequiresID(t *testing.T) {
	repo := newTestRepo(t)

	assert.Error(t, repo.Save(context.Background(), nil))
	assert.Error(t, repo.Save(context.Background(), &models.DetectionReport{}))
}

func TestReportRepository_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, report("c", "bin.jpg", base.Add(2*time.Minute))))
	require.NoError(t, repo.Save(ctx, report("a", "bin.jpg", base)))
	require.NoError(t, repo.Save(ctx, report("b", "street.png", base.Add(time.Minute))))

	bin, err := repo.List(ctx, "bin.jpg")
	require.NoError(t, err)
	require.Len(t, bin, 2)
	assert.Equal(t, "a", bin[0].ID)
	assert.Equal(t, "c", bin[1].ID)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	none, err := repo.List(ctx, "missing.jpg")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReportRepository_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewBadgerReportRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, report("r1", "bin.jpg", time.Now().UTC())))
	require.NoError(t, repo.Close())

	reopened, err := NewBadgerReportRepository(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "bin.jpg", got.ImageID)
}
