package models

import (
	"encoding/json"
	"time"
)

// RelationUsed is the only relation type that counts toward Asset.ReuseCount.
const RelationUsed = "used"

// Asset is a reusable engineering artifact tracked independently of projects.
type Asset struct {
	ID                string `gorm:"primaryKey;size:32"`
	Name              string `gorm:"size:128;not null"`
	Description       string `gorm:"type:text"`
	Type              string `gorm:"size:64;index"`
	Maturity          string `gorm:"size:32;default:experimental;index"`
	OwnerID           string `gorm:"size:32;index"`
	OwnerName         string `gorm:"size:64"`
	ReuseCount        int    `gorm:"default:0"`
	RelatedProjectIDs string `gorm:"type:json"`
	Repository        string `gorm:"size:128"` // owner/name on GitHub, optional
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Versions  []AssetVersion         `gorm:"foreignKey:AssetID"`
	Relations []AssetProjectRelation `gorm:"foreignKey:AssetID"`
}

// ProjectIDs decodes RelatedProjectIDs. Malformed or empty JSON yields nil.
func (a *Asset) ProjectIDs() []string {
	return decodeIDs(a.RelatedProjectIDs)
}

// AssetVersion carries per-version quality signals. Nil signals mean "not measured".
type AssetVersion struct {
	ID                uint     `gorm:"primaryKey;autoIncrement"`
	AssetID           string   `gorm:"size:32;not null;index"`
	Version           string   `gorm:"size:64"`
	VersionDate       string   `gorm:"size:32"`
	DefectDensity     *float64
	RegressionCost    *float64
	MaintenanceBurden *float64
	Notes             string `gorm:"type:text"`
	CreatedAt         time.Time
}

// AssetProjectRelation links an asset to a project it was used in, derived from, etc.
type AssetProjectRelation struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	AssetID      string `gorm:"size:32;not null;uniqueIndex:idx_asset_project_type"`
	ProjectID    string `gorm:"size:32;not null;uniqueIndex:idx_asset_project_type;index"`
	RelationType string `gorm:"size:32;not null;default:used;uniqueIndex:idx_asset_project_type"`
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssetHealthMetrics is an immutable snapshot of one health calculation.
type AssetHealthMetrics struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	AssetID           string `gorm:"size:32;not null;index:idx_asset_calculated"`
	ReuseRate         float64
	DefectDensity     float64
	ChangeFrequency   float64
	RegressionCost    float64
	MaintenanceBurden float64
	HealthScore       float64
	CalculatedAt      time.Time `gorm:"not null;index:idx_asset_calculated"`
}

// decodeIDs unmarshals a JSON string array, tolerating empty or malformed input.
func decodeIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

// EncodeIDs marshals ids as a JSON array; nil encodes as "[]".
func EncodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}
