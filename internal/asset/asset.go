// Package asset provides asset lifecycle operations: creation, versions and
// project relations. Relation changes keep the asset's reuse count and
// related project list in step with the relation rows.
package asset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/ident"
	"github.com/zulandar/rdtrack/internal/models"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

// Maturities lists the stages an asset moves through.
var Maturities = []string{"experimental", "beta", "stable", "deprecated"}

var timeNow = time.Now

// CreateOpts holds parameters for creating a new asset.
type CreateOpts struct {
	Name        string
	Description string
	Type        string // ip-core, firmware, tool, library, ...
	Maturity    string // defaults to experimental
	OwnerID     string
	OwnerName   string
	Repository  string // owner/name on GitHub
}

// UpdateOpts holds optional field changes; nil fields are left alone.
type UpdateOpts struct {
	Name        *string
	Description *string
	Type        *string
	Maturity    *string
	OwnerID     *string
	OwnerName   *string
	Repository  *string
}

// VersionOpts holds parameters for recording a new asset version.
type VersionOpts struct {
	Version           string
	VersionDate       string // any tolerant date; defaults to today
	DefectDensity     *float64
	RegressionCost    *float64
	MaintenanceBurden *float64
	Notes             string
}

// ListFilters holds optional filters for listing assets.
type ListFilters struct {
	Type     string
	Maturity string
	OwnerID  string
}

// Create creates a new asset with an auto-generated ID.
func Create(db *gorm.DB, opts CreateOpts) (*models.Asset, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("asset: name is required")
	}
	if opts.Maturity == "" {
		opts.Maturity = "experimental"
	}
	if !validMaturity(opts.Maturity) {
		return nil, fmt.Errorf("asset: invalid maturity %q; valid: %v", opts.Maturity, Maturities)
	}

	id, err := ident.Unique(db, &models.Asset{}, "asset")
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}

	a := models.Asset{
		ID:                id,
		Name:              opts.Name,
		Description:       opts.Description,
		Type:              opts.Type,
		Maturity:          opts.Maturity,
		OwnerID:           opts.OwnerID,
		OwnerName:         opts.OwnerName,
		Repository:        opts.Repository,
		RelatedProjectIDs: models.EncodeIDs(nil),
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("asset: create: %w", err)
	}
	return &a, nil
}

// Get retrieves an asset by ID with its versions and relations.
func Get(db *gorm.DB, id string) (*models.Asset, error) {
	var a models.Asset
	err := db.Preload("Versions", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Relations", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("asset: %w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("asset: get %s: %w", id, err)
	}
	return &a, nil
}

// List returns assets matching the given filters, ordered by name.
func List(db *gorm.DB, filters ListFilters) ([]models.Asset, error) {
	q := db.Model(&models.Asset{})
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.Maturity != "" {
		q = q.Where("maturity = ?", filters.Maturity)
	}
	if filters.OwnerID != "" {
		q = q.Where("owner_id = ?", filters.OwnerID)
	}

	var assets []models.Asset
	if err := q.Order("name ASC, id ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("asset: list: %w", err)
	}
	return assets, nil
}

// Update applies the non-nil fields of opts.
func Update(db *gorm.DB, id string, opts UpdateOpts) error {
	updates := map[string]interface{}{}
	if opts.Name != nil {
		if *opts.Name == "" {
			return fmt.Errorf("asset: name cannot be empty")
		}
		updates["name"] = *opts.Name
	}
	if opts.Description != nil {
		updates["description"] = *opts.Description
	}
	if opts.Type != nil {
		updates["type"] = *opts.Type
	}
	if opts.Maturity != nil {
		if !validMaturity(*opts.Maturity) {
			return fmt.Errorf("asset: invalid maturity %q; valid: %v", *opts.Maturity, Maturities)
		}
		updates["maturity"] = *opts.Maturity
	}
	if opts.OwnerID != nil {
		updates["owner_id"] = *opts.OwnerID
	}
	if opts.OwnerName != nil {
		updates["owner_name"] = *opts.OwnerName
	}
	if opts.Repository != nil {
		updates["repository"] = *opts.Repository
	}
	if len(updates) == 0 {
		return nil
	}

	res := db.Model(&models.Asset{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("asset: update %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("asset: %w: %s", store.ErrNotFound, id)
	}
	return nil
}

// Delete removes an asset along with its versions, relations and health
// snapshots.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, id); err != nil {
			return err
		}
		for _, m := range []interface{}{&models.AssetVersion{}, &models.AssetProjectRelation{}, &models.AssetHealthMetrics{}} {
			if err := tx.Where("asset_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("asset: delete %s children: %w", id, err)
			}
		}
		if err := tx.Where("id = ?", id).Delete(&models.Asset{}).Error; err != nil {
			return fmt.Errorf("asset: delete %s: %w", id, err)
		}
		return nil
	})
}

// AddVersion records a new version with its quality signals.
func AddVersion(db *gorm.DB, assetID string, opts VersionOpts) (*models.AssetVersion, error) {
	if opts.Version == "" {
		return nil, fmt.Errorf("asset: version is required")
	}
	if opts.VersionDate == "" {
		opts.VersionDate = dates.FormatDate(timeNow())
	} else if _, ok := dates.Parse(opts.VersionDate); !ok {
		return nil, fmt.Errorf("asset: version date %q: %w", opts.VersionDate, dates.ErrMalformed)
	}
	for name, v := range map[string]*float64{
		"defect density":     opts.DefectDensity,
		"regression cost":    opts.RegressionCost,
		"maintenance burden": opts.MaintenanceBurden,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("asset: %s must be non-negative, got %v", name, *v)
		}
	}
	if err := mustExist(db, assetID); err != nil {
		return nil, err
	}

	v := models.AssetVersion{
		AssetID:           assetID,
		Version:           opts.Version,
		VersionDate:       opts.VersionDate,
		DefectDensity:     opts.DefectDensity,
		RegressionCost:    opts.RegressionCost,
		MaintenanceBurden: opts.MaintenanceBurden,
		Notes:             opts.Notes,
	}
	if err := db.Create(&v).Error; err != nil {
		return nil, fmt.Errorf("asset: add version to %s: %w", assetID, err)
	}
	return &v, nil
}

// Relate links an asset to a project. An empty relationType means "used".
// Relating the same pair and type twice is an error.
func Relate(db *gorm.DB, assetID, projectID, relationType, notes string) (*models.AssetProjectRelation, error) {
	if relationType == "" {
		relationType = models.RelationUsed
	}
	var rel models.AssetProjectRelation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, assetID); err != nil {
			return err
		}
		var projects int64
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&projects).Error; err != nil {
			return fmt.Errorf("asset: check project %s: %w", projectID, err)
		}
		if projects == 0 {
			return fmt.Errorf("asset: project %w: %s", store.ErrNotFound, projectID)
		}

		var dup int64
		if err := tx.Model(&models.AssetProjectRelation{}).
			Where("asset_id = ? AND project_id = ? AND relation_type = ?", assetID, projectID, relationType).
			Count(&dup).Error; err != nil {
			return fmt.Errorf("asset: check relation: %w", err)
		}
		if dup > 0 {
			return fmt.Errorf("asset: %s already %s by %s", assetID, relationType, projectID)
		}

		rel = models.AssetProjectRelation{AssetID: assetID, ProjectID: projectID, RelationType: relationType, Notes: notes}
		if err := tx.Create(&rel).Error; err != nil {
			return fmt.Errorf("asset: relate %s to %s: %w", assetID, projectID, err)
		}
		return refreshReuse(tx, assetID)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// UpdateRelation changes the type or notes of an existing relation.
func UpdateRelation(db *gorm.DB, relationID uint, relationType, notes *string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rel models.AssetProjectRelation
		if err := tx.Where("id = ?", relationID).First(&rel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("asset: relation %w: %d", store.ErrNotFound, relationID)
			}
			return fmt.Errorf("asset: get relation %d: %w", relationID, err)
		}
		updates := map[string]interface{}{}
		if relationType != nil && *relationType != "" {
			updates["relation_type"] = *relationType
		}
		if notes != nil {
			updates["notes"] = *notes
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&rel).Updates(updates).Error; err != nil {
			return fmt.Errorf("asset: update relation %d: %w", relationID, err)
		}
		return refreshReuse(tx, rel.AssetID)
	})
}

// Unrelate removes every relation between an asset and a project. An empty
// relationType removes all types.
func Unrelate(db *gorm.DB, assetID, projectID, relationType string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("asset_id = ? AND project_id = ?", assetID, projectID)
		if relationType != "" {
			q = q.Where("relation_type = ?", relationType)
		}
		res := q.Delete(&models.AssetProjectRelation{})
		if res.Error != nil {
			return fmt.Errorf("asset: unrelate %s from %s: %w", assetID, projectID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("asset: relation %w: %s/%s", store.ErrNotFound, assetID, projectID)
		}
		return refreshReuse(tx, assetID)
	})
}

// refreshReuse recomputes ReuseCount from "used" relations and
// RelatedProjectIDs from all relations.
func refreshReuse(tx *gorm.DB, assetID string) error {
	var rels []models.AssetProjectRelation
	if err := tx.Where("asset_id = ?", assetID).Find(&rels).Error; err != nil {
		return fmt.Errorf("asset: load relations of %s: %w", assetID, err)
	}
	used := 0
	seen := map[string]bool{}
	var ids []string
	for _, r := range rels {
		if r.RelationType == models.RelationUsed {
			used++
		}
		if !seen[r.ProjectID] {
			seen[r.ProjectID] = true
			ids = append(ids, r.ProjectID)
		}
	}
	sort.Strings(ids)
	err := tx.Model(&models.Asset{}).Where("id = ?", assetID).Updates(map[string]interface{}{
		"reuse_count":         used,
		"related_project_ids": models.EncodeIDs(ids),
	}).Error
	if err != nil {
		return fmt.Errorf("asset: refresh reuse of %s: %w", assetID, err)
	}
	return nil
}

func mustExist(db *gorm.DB, id string) error {
	var count int64
	if err := db.Model(&models.Asset{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("asset: check %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("asset: %w: %s", store.ErrNotFound, id)
	}
	return nil
}

func validMaturity(m string) bool {
	for _, v := range Maturities {
		if v == m {
			return true
		}
	}
	return false
}
