//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(ctx context.Context, t *testing.T, pool *pgxpool.Pool, createdAt time.Time) *domain.IngestJob {
	t.Helper()
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	d := newTestDoc("queued-"+uuid.NewString()[:8], "", domain.VisibilityPublic)
	require.NoError(t, docRepo.Create(ctx, d))

	job := &domain.IngestJob{
		ID:        uuid.NewString(),
		DocID:     d.ID,
		Status:    domain.IngestJobStatusPending,
		CreatedAt: createdAt,
	}
	require.NoError(t, jobRepo.Create(ctx, job))
	return job
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)
	job := seedJob(ctx, t, pool, time.Now().UTC().Truncate(time.Microsecond))

	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.DocID, retrieved.DocID)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Zero(t, retrieved.Retries)
	assert.Empty(t, retrieved.Error)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrIngestJobNotFound)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	older := seedJob(ctx, t, pool, now.Add(-time.Minute))
	newer := seedJob(ctx, t, pool, now)

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	ids := map[string]bool{claimed[0].ID: true, claimed[1].ID: true}
	assert.True(t, ids[older.ID])
	assert.True(t, ids[newer.ID])
	for _, job := range claimed {
		assert.Equal(t, domain.IngestJobStatusProcessing, job.Status)
	}

	// Everything is processing now, so a second claim finds nothing.
	again, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestIngestJobRepository_ClaimPending_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := seedJob(ctx, t, pool, now.Add(-2*time.Minute))
	seedJob(ctx, t, pool, now.Add(-time.Minute))
	seedJob(ctx, t, pool, now)

	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, first.ID, claimed[0].ID, "oldest job claims first")
}

func TestIngestJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)
	job := seedJob(ctx, t, pool, time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""))
	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, retrieved.Status)
	assert.NotNil(t, retrieved.ProcessedAt)

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, "embed call timed out"))
	retrieved, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusFailed, retrieved.Status)
	assert.Equal(t, "embed call timed out", retrieved.Error)
	assert.NotNil(t, retrieved.ProcessedAt)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), domain.IngestJobStatusCompleted, ""), ErrIngestJobNotFound)
}

func TestIngestJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)
	job := seedJob(ctx, t, pool, time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.IncrementRetries(ctx, job.ID))
	require.NoError(t, repo.IncrementRetries(ctx, job.ID))

	retrieved, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.Retries)

	assert.ErrorIs(t, repo.IncrementRetries(ctx, uuid.NewString()), ErrIngestJobNotFound)
}
