package repository

import (
	"context"

	"orderdesk/models"
)

// SnapshotRepositoryInterface defines the contract for snapshot persistence
type SnapshotRepositoryInterface interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, kind models.SnapshotKind, version int, payload []byte) error
	Load(ctx context.Context, kind models.SnapshotKind) (*models.SnapshotRecord, error)
	Delete(ctx context.Context, kind models.SnapshotKind) error
	List(ctx context.Context) ([]models.SnapshotRecord, error)
}
