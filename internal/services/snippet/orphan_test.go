package snippet

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrphanRepo struct {
	rows    []models.OrphanBlob
	listErr error
}

func (m *memOrphanRepo) Record(ctx context.Context, orphan *models.OrphanBlob) error {
	orphan.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *orphan)
	return nil
}

func (m *memOrphanRepo) ListUnresolved(ctx context.Context, limit int) ([]models.OrphanBlob, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.OrphanBlob
	for _, o := range m.rows {
		if o.ResolvedAt == nil && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrphanRepo) MarkResolved(ctx context.Context, id uint64, at time.Time) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].ResolvedAt = &at
			m.rows[i].Attempts++
		}
	}
	return nil
}

func (m *memOrphanRepo) RecordAttempt(ctx context.Context, id uint64, reason string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Reason = reason
			m.rows[i].Attempts++
		}
	}
	return nil
}

func TestSweepOrphans_RemovesAndResolves(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryStorage()
	_, err := store.PutObject(ctx, "snippets/1/a.mp3", strings.NewReader("abc"), 3, "audio/mpeg", nil)
	require.NoError(t, err)

	repo := &memOrphanRepo{}
	require.NoError(t, repo.Record(ctx, &models.OrphanBlob{BlobKey: "snippets/1/a.mp3", SnippetID: 1}))
	require.NoError(t, repo.Record(ctx, &models.OrphanBlob{BlobKey: "snippets/1/b.mp3", SnippetID: 2}))

	result, err := SweepOrphans(ctx, repo, store, 10)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 2, Resolved: 2}, result)
	assert.False(t, store.Has("snippets/1/a.mp3"))

	left, err := repo.ListUnresolved(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSweepOrphans_FailureKeepsRow(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryStorage()
	store.RemoveErr = errors.New("connection refused")

	repo := &memOrphanRepo{}
	require.NoError(t, repo.Record(ctx, &models.OrphanBlob{BlobKey: "snippets/1/a.mp3", SnippetID: 1, Attempts: 1}))

	result, err := SweepOrphans(ctx, repo, store, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Resolved)

	require.Len(t, repo.rows, 1)
	assert.Nil(t, repo.rows[0].ResolvedAt)
	assert.Equal(t, 2, repo.rows[0].Attempts)
	assert.Equal(t, "connection refused", repo.rows[0].Reason)
}

func TestSweepOrphans_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryStorage()
	repo := &memOrphanRepo{}
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, &models.OrphanBlob{BlobKey: "k", SnippetID: uint64(i)}))
	}

	result, err := SweepOrphans(ctx, repo, store, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Resolved)
}

func TestSweepOrphans_ListError(t *testing.T) {
	repo := &memOrphanRepo{listErr: errors.New("db down")}
	_, err := SweepOrphans(context.Background(), repo, storagetest.NewMemoryStorage(), 10)
	assert.Error(t, err)
}
