package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"orderdesk/models"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	repo := NewSnapshotRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSnapshotRepositorySaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, models.SnapshotTabs, 1, []byte(`{"v":1}`)))
	require.NoError(t, repo.Save(ctx, models.SnapshotTabs, 2, []byte(`{"v":2}`)))

	rec, err := repo.Load(ctx, models.SnapshotTabs)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, `{"v":2}`, rec.Payload)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSnapshotRepositoryMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Load(ctx, models.SnapshotCatalog)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, repo.Save(ctx, models.SnapshotCatalog, 1, []byte(`{}`)))
	require.NoError(t, repo.Delete(ctx, models.SnapshotCatalog))
	require.NoError(t, repo.Delete(ctx, models.SnapshotCatalog))
	_, err = repo.Load(ctx, models.SnapshotCatalog)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
