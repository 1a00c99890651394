// Package store is the read/write repository the health and report
// packages consume. It wraps a GORM connection; filtering that depends on
// loosely typed columns is left to callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/rdtrack/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// Store implements repository queries over GORM.
type Store struct {
	db *gorm.DB
}

// New wraps db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection for write-side packages.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// TaskFilter holds optional exact-match filters for listing tasks.
type TaskFilter struct {
	ProjectID string
	Status    string
}

// ProjectFilter holds optional filters for listing projects.
type ProjectFilter struct {
	IDs       []string
	SalesName string
}

// LaborFilter holds optional exact-match filters for listing labor records.
type LaborFilter struct {
	EngineerID string
	TaskID     string
	ProjectID  string
}

// GetAsset returns an asset with its versions and relations.
func (s *Store) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var a models.Asset
	err := s.db.WithContext(ctx).
		Preload("Versions", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Relations").
		Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: asset %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get asset %s: %w", id, err)
	}
	return &a, nil
}

// ListAssets returns every asset with versions and relations eager-loaded.
func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Preload("Versions", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Relations").
		Order("created_at ASC, id ASC").
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("store: list assets: %w", err)
	}
	return assets, nil
}

// ListAssetsByOwner returns assets whose owner id or owner name matches.
// Empty arguments never match.
func (s *Store) ListAssetsByOwner(ctx context.Context, ownerID, ownerName string) ([]models.Asset, error) {
	var assets []models.Asset
	q := s.db.WithContext(ctx).Model(&models.Asset{})
	switch {
	case ownerID != "" && ownerName != "":
		q = q.Where("owner_id = ? OR owner_name = ?", ownerID, ownerName)
	case ownerID != "":
		q = q.Where("owner_id = ?", ownerID)
	case ownerName != "":
		q = q.Where("owner_name = ?", ownerName)
	default:
		return nil, nil
	}
	if err := q.Order("created_at ASC, id ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("store: list assets by owner: %w", err)
	}
	return assets, nil
}

// CountProjects returns the total number of projects.
func (s *Store) CountProjects(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count projects: %w", err)
	}
	return n, nil
}

// InsertHealthSnapshot appends a health snapshot. Rows are never updated.
func (s *Store) InsertHealthSnapshot(ctx context.Context, snap *models.AssetHealthMetrics) error {
	if err := s.db.WithContext(ctx).Create(snap).Error; err != nil {
		return fmt.Errorf("store: insert health snapshot for %s: %w", snap.AssetID, err)
	}
	return nil
}

// ListHealthSnapshots returns snapshots for assetID calculated at or after
// since, newest first.
func (s *Store) ListHealthSnapshots(ctx context.Context, assetID string, since time.Time) ([]models.AssetHealthMetrics, error) {
	var snaps []models.AssetHealthMetrics
	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND calculated_at >= ?", assetID, since).
		Order("calculated_at DESC, id DESC").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("store: list health snapshots for %s: %w", assetID, err)
	}
	return snaps, nil
}

// ListSnapshotsAfter returns snapshots with an ID greater than afterID,
// oldest first.
func (s *Store) ListSnapshotsAfter(ctx context.Context, afterID uint) ([]models.AssetHealthMetrics, error) {
	var snaps []models.AssetHealthMetrics
	if err := s.db.WithContext(ctx).Where("id > ?", afterID).Order("id ASC").Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("store: list snapshots after %d: %w", afterID, err)
	}
	return snaps, nil
}

// MaxSnapshotID returns the highest snapshot ID, or 0 when none exist.
func (s *Store) MaxSnapshotID(ctx context.Context) (uint, error) {
	var id uint
	err := s.db.WithContext(ctx).Model(&models.AssetHealthMetrics{}).
		Select("COALESCE(MAX(id), 0)").Scan(&id).Error
	if err != nil {
		return 0, fmt.Errorf("store: max snapshot id: %w", err)
	}
	return id, nil
}

// ListTasks returns tasks matching filter ordered by creation time.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	q := s.db.WithContext(ctx).Model(&models.Task{})
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	return tasks, nil
}

// ListProjects returns projects matching filter ordered by creation time.
func (s *Store) ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	q := s.db.WithContext(ctx).Model(&models.Project{})
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []models.Project{}, nil
		}
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.SalesName != "" {
		q = q.Where("sales_name = ?", filter.SalesName)
	}
	var projects []models.Project
	if err := q.Order("created_at ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	return projects, nil
}

// ListLaborCosts returns labor records matching filter ordered by ID.
func (s *Store) ListLaborCosts(ctx context.Context, filter LaborFilter) ([]models.LaborCost, error) {
	q := s.db.WithContext(ctx).Model(&models.LaborCost{})
	if filter.EngineerID != "" {
		q = q.Where("engineer_id = ?", filter.EngineerID)
	}
	if filter.TaskID != "" {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	var rows []models.LaborCost
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list labor costs: %w", err)
	}
	return rows, nil
}

// GetEngineer returns an engineer by ID.
func (s *Store) GetEngineer(ctx context.Context, id string) (*models.Engineer, error) {
	var e models.Engineer
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: engineer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get engineer %s: %w", id, err)
	}
	return &e, nil
}

// ListEngineers returns all engineers ordered by name.
func (s *Store) ListEngineers(ctx context.Context) ([]models.Engineer, error) {
	var engineers []models.Engineer
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&engineers).Error; err != nil {
		return nil, fmt.Errorf("store: list engineers: %w", err)
	}
	return engineers, nil
}
