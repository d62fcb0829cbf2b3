package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orderdesk/models"
)

// ErrSnapshotNotFound is returned when no snapshot of a kind was saved
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores one row per snapshot kind
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Ensure SnapshotRepository implements SnapshotRepositoryInterface
var _ SnapshotRepositoryInterface = (*SnapshotRepository)(nil)

// Migrate creates the snapshot table
func (r *SnapshotRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.SnapshotRecord{}); err != nil {
		return fmt.Errorf("automigrate %T: %w", models.SnapshotRecord{}, err)
	}
	return nil
}

// Save inserts or replaces the snapshot of a kind
func (r *SnapshotRepository) Save(ctx context.Context, kind models.SnapshotKind, version int, payload []byte) error {
	rec := models.SnapshotRecord{
		Kind:      kind,
		Version:   version,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		log.Printf("❌ SaveSnapshot: kind=%s: %v", kind, err)
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}
	log.Printf("💾 SaveSnapshot: kind=%s version=%d (%d bytes)", kind, version, len(payload))
	return nil
}

// Load returns the snapshot of a kind
func (r *SnapshotRepository) Load(ctx context.Context, kind models.SnapshotKind) (*models.SnapshotRecord, error) {
	var rec models.SnapshotRecord
	err := r.db.WithContext(ctx).Where("kind = ?", kind).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", kind, err)
	}
	return &rec, nil
}

// Delete removes the snapshot of a kind; deleting a missing one is not an error
func (r *SnapshotRepository) Delete(ctx context.Context, kind models.SnapshotKind) error {
	if err := r.db.WithContext(ctx).Where("kind = ?", kind).Delete(&models.SnapshotRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s snapshot: %w", kind, err)
	}
	return nil
}

// List returns every stored snapshot ordered by kind
func (r *SnapshotRepository) List(ctx context.Context) ([]models.SnapshotRecord, error) {
	var recs []models.SnapshotRecord
	if err := r.db.WithContext(ctx).Order("kind").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return recs, nil
}
