package health

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/models"
)

// DefaultHistoryDays is the trailing window used when History gets days <= 0.
const DefaultHistoryDays = 30

// topReusedLimit caps the dashboard's most-reused list.
const topReusedLimit = 10

// Repository is the data access the health service needs.
type Repository interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	ListAssets(ctx context.Context) ([]models.Asset, error)
	CountProjects(ctx context.Context) (int64, error)
	InsertHealthSnapshot(ctx context.Context, snap *models.AssetHealthMetrics) error
	ListHealthSnapshots(ctx context.Context, assetID string, since time.Time) ([]models.AssetHealthMetrics, error)
}

// Service computes, records and aggregates asset health.
type Service struct {
	repo        Repository
	now         func() time.Time
	historyDays int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHistoryDays sets the default history window.
func WithHistoryDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// NewService returns a Service backed by repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, historyDays: DefaultHistoryDays}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot is a recorded health calculation as returned to callers.
type Snapshot struct {
	ID                uint    `json:"id"`
	AssetID           string  `json:"asset_id"`
	ReuseRate         float64 `json:"reuse_rate"`
	DefectDensity     float64 `json:"defect_density"`
	ChangeFrequency   float64 `json:"change_frequency"`
	RegressionCost    float64 `json:"regression_cost"`
	MaintenanceBurden float64 `json:"maintenance_burden"`
	HealthScore       float64 `json:"health_score"`
	CalculatedAt      string  `json:"calculated_at"`
}

// AssetHealth pairs an asset's identity with its computed metrics.
type AssetHealth struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Maturity   string  `json:"maturity"`
	ReuseCount int     `json:"reuse_count"`
	Metrics    Metrics `json:"metrics"`
}

// TypeCount is the number of assets of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// MaturityCount is the number of assets at one maturity stage.
type MaturityCount struct {
	Maturity string `json:"maturity"`
	Count    int    `json:"count"`
}

// ReusedAsset is one row of the most-reused list.
type ReusedAsset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ReuseCount int    `json:"reuse_count"`
}

// Dashboard is the aggregated health overview.
type Dashboard struct {
	TotalAssets   int             `json:"total_assets"`
	AverageHealth float64         `json:"average_health"`
	ByType        []TypeCount     `json:"by_type"`
	ByMaturity    []MaturityCount `json:"by_maturity"`
	TopReused     []ReusedAsset   `json:"top_reused"`
	Assets        []AssetHealth   `json:"assets"`
}

// ComputeAssetHealth scores one asset and records the result as a new
// snapshot. Repeated calls append one snapshot each.
func (s *Service) ComputeAssetHealth(ctx context.Context, assetID string) (Metrics, error) {
	a, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return Metrics{}, fmt.Errorf("health: compute %s: %w", assetID, err)
	}
	total, err := s.repo.CountProjects(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("health: compute %s: %w", assetID, err)
	}
	now := s.now()
	m := Calculate(InputFor(a, total), now)
	if _, err := s.record(ctx, assetID, m, now); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// Record persists m as a snapshot for assetID stamped with the current time.
func (s *Service) Record(ctx context.Context, assetID string, m Metrics) (Snapshot, error) {
	return s.record(ctx, assetID, m, s.now())
}

func (s *Service) record(ctx context.Context, assetID string, m Metrics, now time.Time) (Snapshot, error) {
	row := models.AssetHealthMetrics{
		AssetID:           assetID,
		ReuseRate:         m.ReuseRate,
		DefectDensity:     m.DefectDensity,
		ChangeFrequency:   m.ChangeFrequency,
		RegressionCost:    m.RegressionCost,
		MaintenanceBurden: m.MaintenanceBurden,
		HealthScore:       m.HealthScore,
		CalculatedAt:      now.UTC().Truncate(time.Second),
	}
	if err := s.repo.InsertHealthSnapshot(ctx, &row); err != nil {
		return Snapshot{}, fmt.Errorf("health: record %s: %w", assetID, err)
	}
	return toSnapshot(row), nil
}

// History returns snapshots for assetID from the trailing window of days,
// newest first. days <= 0 uses the configured default.
func (s *Service) History(ctx context.Context, assetID string, days int) ([]Snapshot, error) {
	if days <= 0 {
		days = s.historyDays
	}
	if _, err := s.repo.GetAsset(ctx, assetID); err != nil {
		return nil, fmt.Errorf("health: history %s: %w", assetID, err)
	}
	since := s.now().UTC().Truncate(time.Second).AddDate(0, 0, -days)
	rows, err := s.repo.ListHealthSnapshots(ctx, assetID, since)
	if err != nil {
		return nil, fmt.Errorf("health: history %s: %w", assetID, err)
	}
	out := make([]Snapshot, len(rows))
	for i, r := range rows {
		out[i] = toSnapshot(r)
	}
	return out, nil
}

// Dashboard scores every asset without recording snapshots and groups the
// results by type, maturity and reuse.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: dashboard: %w", err)
	}
	total, err := s.repo.CountProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: dashboard: %w", err)
	}
	now := s.now()

	d := &Dashboard{
		TotalAssets: len(assets),
		ByType:      []TypeCount{},
		ByMaturity:  []MaturityCount{},
		TopReused:   []ReusedAsset{},
		Assets:      make([]AssetHealth, 0, len(assets)),
	}

	byType := map[string]int{}
	byMaturity := map[string]int{}
	var sum float64
	for i := range assets {
		a := &assets[i]
		byType[a.Type]++
		byMaturity[a.Maturity]++
		ah := scoreAsset(a, total, now)
		sum += ah.Metrics.HealthScore
		d.Assets = append(d.Assets, ah)
	}
	if len(assets) > 0 {
		d.AverageHealth = round(sum/float64(len(assets)), 2)
	}

	for k, n := range byType {
		d.ByType = append(d.ByType, TypeCount{Type: k, Count: n})
	}
	sort.Slice(d.ByType, func(i, j int) bool {
		if d.ByType[i].Count != d.ByType[j].Count {
			return d.ByType[i].Count > d.ByType[j].Count
		}
		return d.ByType[i].Type < d.ByType[j].Type
	})
	for k, n := range byMaturity {
		d.ByMaturity = append(d.ByMaturity, MaturityCount{Maturity: k, Count: n})
	}
	sort.Slice(d.ByMaturity, func(i, j int) bool {
		if d.ByMaturity[i].Count != d.ByMaturity[j].Count {
			return d.ByMaturity[i].Count > d.ByMaturity[j].Count
		}
		return d.ByMaturity[i].Maturity < d.ByMaturity[j].Maturity
	})

	reused := make([]*models.Asset, len(assets))
	for i := range assets {
		reused[i] = &assets[i]
	}
	sort.SliceStable(reused, func(i, j int) bool {
		return reused[i].ReuseCount > reused[j].ReuseCount
	})
	if len(reused) > topReusedLimit {
		reused = reused[:topReusedLimit]
	}
	for _, a := range reused {
		d.TopReused = append(d.TopReused, ReusedAsset{ID: a.ID, Name: a.Name, Type: a.Type, ReuseCount: a.ReuseCount})
	}

	sort.SliceStable(d.Assets, func(i, j int) bool {
		return d.Assets[i].Metrics.HealthScore > d.Assets[j].Metrics.HealthScore
	})
	return d, nil
}

// RecordAll scores and records a snapshot for every asset. A failed insert
// is logged and skipped; the joined errors are returned with the results
// that were recorded.
func (s *Service) RecordAll(ctx context.Context) ([]AssetHealth, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: record all: %w", err)
	}
	total, err := s.repo.CountProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("health: record all: %w", err)
	}
	now := s.now()

	var (
		results []AssetHealth
		errs    []error
	)
	for i := range assets {
		ah := scoreAsset(&assets[i], total, now)
		if _, err := s.record(ctx, ah.ID, ah.Metrics, now); err != nil {
			log.Printf("health: %v", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, ah)
	}
	return results, errors.Join(errs...)
}

// scoreAsset computes metrics for one asset. Calculate never fails, so a
// malformed asset degrades to default values instead of aborting a batch.
func scoreAsset(a *models.Asset, totalProjects int64, now time.Time) AssetHealth {
	return AssetHealth{
		ID:         a.ID,
		Name:       a.Name,
		Type:       a.Type,
		Maturity:   a.Maturity,
		ReuseCount: a.ReuseCount,
		Metrics:    Calculate(InputFor(a, totalProjects), now),
	}
}

func toSnapshot(r models.AssetHealthMetrics) Snapshot {
	return Snapshot{
		ID:                r.ID,
		AssetID:           r.AssetID,
		ReuseRate:         r.ReuseRate,
		DefectDensity:     r.DefectDensity,
		ChangeFrequency:   r.ChangeFrequency,
		RegressionCost:    r.RegressionCost,
		MaintenanceBurden: r.MaintenanceBurden,
		HealthScore:       r.HealthScore,
		CalculatedAt:      dates.Format(r.CalculatedAt),
	}
}
