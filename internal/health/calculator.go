// Package health scores assets on reuse, defects, change frequency,
// regression cost and maintenance burden, records snapshots of those scores
// and aggregates them for the dashboard.
package health

import (
	"math"
	"time"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/models"
)

// Weights for each sub-score in the composite health score.
const (
	WeightReuse       = 0.30
	WeightDefect      = 0.25
	WeightChange      = 0.15
	WeightRegression  = 0.15
	WeightMaintenance = 0.15
)

const (
	daysPerMonth = 30.0
	// changeFrequency strictly between 0 and this earns a full change score.
	changeFrequencyCeiling = 5.0
)

// Metrics is the rounded result of one health calculation.
type Metrics struct {
	ReuseRate         float64   `json:"reuse_rate"`
	DefectDensity     float64   `json:"defect_density"`
	ChangeFrequency   float64   `json:"change_frequency"`
	RegressionCost    float64   `json:"regression_cost"`
	MaintenanceBurden float64   `json:"maintenance_burden"`
	HealthScore       float64   `json:"health_score"`
	Breakdown         Breakdown `json:"breakdown"`
}

// Breakdown holds the weighted sub-scores behind HealthScore, rounded to 2 places.
type Breakdown struct {
	Reuse       float64 `json:"reuse"`
	Defect      float64 `json:"defect"`
	Change      float64 `json:"change"`
	Regression  float64 `json:"regression"`
	Maintenance float64 `json:"maintenance"`
}

// Input is everything Calculate needs about one asset.
type Input struct {
	CreatedAt     time.Time
	ReuseCount    int
	Versions      []models.AssetVersion
	TotalProjects int64
}

// InputFor builds an Input from an asset loaded with its versions.
func InputFor(a *models.Asset, totalProjects int64) Input {
	return Input{
		CreatedAt:     a.CreatedAt,
		ReuseCount:    a.ReuseCount,
		Versions:      a.Versions,
		TotalProjects: totalProjects,
	}
}

// Calculate scores one asset. It is pure: the same input and now always
// produce the same Metrics.
func Calculate(in Input, now time.Time) Metrics {
	reuseRate := 0.0
	if in.TotalProjects > 0 {
		reuseRate = float64(in.ReuseCount) / float64(in.TotalProjects)
	}

	var defectDensity, regressionCost, maintenanceBurden float64
	if latest := LatestVersion(in.Versions); latest != nil {
		defectDensity = valueOrZero(latest.DefectDensity)
		regressionCost = valueOrZero(latest.RegressionCost)
		maintenanceBurden = valueOrZero(latest.MaintenanceBurden)
	}

	changeFrequency := float64(len(in.Versions)) / monthsSince(in.CreatedAt, now)

	reuseScore := math.Min(100, reuseRate*1000)
	defectScore := math.Max(0, 100-defectDensity*10)
	changeScore := 100.0
	if !(changeFrequency > 0 && changeFrequency < changeFrequencyCeiling) {
		// Only the lower side is bounded; a frequency of 0 scores 150.
		changeScore = math.Max(0, 100-(changeFrequency-changeFrequencyCeiling)*10)
	}
	regressionScore := math.Max(0, 100-regressionCost)
	maintenanceScore := math.Max(0, 100-maintenanceBurden)

	score := reuseScore*WeightReuse +
		defectScore*WeightDefect +
		changeScore*WeightChange +
		regressionScore*WeightRegression +
		maintenanceScore*WeightMaintenance

	return Metrics{
		ReuseRate:         round(reuseRate, 4),
		DefectDensity:     round(defectDensity, 2),
		ChangeFrequency:   round(changeFrequency, 2),
		RegressionCost:    round(regressionCost, 2),
		MaintenanceBurden: round(maintenanceBurden, 2),
		HealthScore:       round(score, 2),
		Breakdown: Breakdown{
			Reuse:       round(reuseScore, 2),
			Defect:      round(defectScore, 2),
			Change:      round(changeScore, 2),
			Regression:  round(regressionScore, 2),
			Maintenance: round(maintenanceScore, 2),
		},
	}
}

// LatestVersion returns the version with the greatest VersionDate. Versions
// whose date cannot be parsed only win when no version has a parsable date,
// in which case the most recently inserted one is used. Nil for no versions.
func LatestVersion(versions []models.AssetVersion) *models.AssetVersion {
	var (
		latest     *models.AssetVersion
		latestDate time.Time
	)
	for i := range versions {
		v := &versions[i]
		t, ok := dates.Parse(v.VersionDate)
		if !ok {
			continue
		}
		if latest == nil || t.After(latestDate) {
			latest, latestDate = v, t
		}
	}
	if latest != nil || len(versions) == 0 {
		return latest
	}
	latest = &versions[0]
	for i := range versions {
		v := &versions[i]
		if v.CreatedAt.After(latest.CreatedAt) || (v.CreatedAt.Equal(latest.CreatedAt) && v.ID > latest.ID) {
			latest = v
		}
	}
	return latest
}

// monthsSince returns the asset age in 30-day months, never less than 1.
// A missing creation time counts as brand new.
func monthsSince(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 1
	}
	days := now.Sub(createdAt).Hours() / 24
	return math.Max(1, days/daysPerMonth)
}

// valueOrZero treats nil and non-finite measurements as "not measured".
func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// round rounds half to even at the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
