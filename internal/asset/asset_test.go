package asset

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/rdtrack/internal/db"
	"github.com/zulandar/rdtrack/internal/models"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

// mustGet loads an asset that the test expects to exist.
func mustGet(t *testing.T, gdb *gorm.DB, id string) *models.Asset {
	t.Helper()
	a, err := Get(gdb, id)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	return a
}

// mustCreate inserts a fixture row and fails the test if it cannot.
func mustCreate(t *testing.T, gdb *gorm.DB, value any) {
	t.Helper()
	if err := gdb.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func ptr[T any](v T) *T { return &v }

func createTestAsset(t *testing.T, gdb *gorm.DB, name string) *models.Asset {
	t.Helper()
	a, err := Create(gdb, CreateOpts{Name: name, Type: "ip-core"})
	if err != nil {
		t.Fatalf("Create %q: %v", name, err)
	}
	return a
}

func createTestProject(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	if err := gdb.Create(&models.Project{ID: id, Name: id}).Error; err != nil {
		t.Fatalf("create project %s: %v", id, err)
	}
}

func TestCreate(t *testing.T) {
	gdb := testDB(t)
	a, err := Create(gdb, CreateOpts{Name: "PLL", Type: "ip-core", OwnerID: "eng-1", OwnerName: "Dana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(a.ID, "asset-") || len(a.ID) != len("asset-")+8 {
		t.Errorf("ID = %q, want asset-xxxxxxxx", a.ID)
	}
	if a.Maturity != "experimental" {
		t.Errorf("Maturity = %q, want experimental", a.Maturity)
	}
	if a.RelatedProjectIDs != "[]" || a.ReuseCount != 0 {
		t.Errorf("reuse fields = %q/%d", a.RelatedProjectIDs, a.ReuseCount)
	}
}

func TestCreate_Validation(t *testing.T) {
	gdb := testDB(t)
	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"missing name", CreateOpts{}, "name is required"},
		{"bad maturity", CreateOpts{Name: "x", Maturity: "ancient"}, "invalid maturity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(gdb, tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	gdb := testDB(t)
	_, err := Get(gdb, "asset-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_Filters(t *testing.T) {
	gdb := testDB(t)
	if _, err := Create(gdb, CreateOpts{Name: "B", Type: "firmware", Maturity: "stable"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(gdb, CreateOpts{Name: "A", Type: "ip-core", OwnerID: "eng-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(gdb, CreateOpts{Name: "C", Type: "ip-core", Maturity: "stable"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := List(gdb, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Name != "A" || all[2].Name != "C" {
		t.Errorf("List() = %v", names(all))
	}

	tests := []struct {
		filters ListFilters
		want    int
	}{
		{ListFilters{Type: "ip-core"}, 2},
		{ListFilters{Maturity: "stable"}, 2},
		{ListFilters{Type: "ip-core", Maturity: "stable"}, 1},
		{ListFilters{OwnerID: "eng-1"}, 1},
		{ListFilters{Type: "tool"}, 0},
	}
	for _, tt := range tests {
		got, err := List(gdb, tt.filters)
		if err != nil {
			t.Fatalf("List(%+v): %v", tt.filters, err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%+v) = %d, want %d", tt.filters, len(got), tt.want)
		}
	}
}

func names(assets []models.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Name
	}
	return out
}

func TestUpdate(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")

	if err := Update(gdb, a.ID, UpdateOpts{Maturity: ptr("stable"), Description: ptr("phase locked loop")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := mustGet(t, gdb, a.ID)
	if got.Maturity != "stable" || got.Description != "phase locked loop" || got.Name != "PLL" {
		t.Errorf("after update = %+v", got)
	}

	if err := Update(gdb, a.ID, UpdateOpts{Maturity: ptr("ancient")}); err == nil {
		t.Error("expected error for invalid maturity")
	}
	if err := Update(gdb, a.ID, UpdateOpts{Name: ptr("")}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := Update(gdb, "asset-missing", UpdateOpts{Type: ptr("tool")}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update(missing) err = %v, want ErrNotFound", err)
	}
	if err := Update(gdb, a.ID, UpdateOpts{}); err != nil {
		t.Errorf("empty Update: %v", err)
	}
}

func TestAddVersion(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")

	v, err := AddVersion(gdb, a.ID, VersionOpts{Version: "1.0", VersionDate: "2024-05-01", DefectDensity: ptr(2.5)})
	if err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if v.ID == 0 || v.AssetID != a.ID || *v.DefectDensity != 2.5 || v.RegressionCost != nil {
		t.Errorf("version = %+v", v)
	}

	timeNow = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	defer func() { timeNow = time.Now }()
	v2, err := AddVersion(gdb, a.ID, VersionOpts{Version: "1.1"})
	if err != nil {
		t.Fatalf("AddVersion default date: %v", err)
	}
	if v2.VersionDate != "2024-06-01" {
		t.Errorf("VersionDate = %q, want today", v2.VersionDate)
	}

	got := mustGet(t, gdb, a.ID)
	if len(got.Versions) != 2 || got.Versions[0].Version != "1.0" {
		t.Errorf("versions = %+v", got.Versions)
	}
}

func TestAddVersion_Validation(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	tests := []struct {
		name    string
		assetID string
		opts    VersionOpts
	}{
		{"missing version", a.ID, VersionOpts{}},
		{"bad date", a.ID, VersionOpts{Version: "1", VersionDate: "first of may"}},
		{"negative signal", a.ID, VersionOpts{Version: "1", RegressionCost: ptr(-1.0)}},
		{"unknown asset", "asset-missing", VersionOpts{Version: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AddVersion(gdb, tt.assetID, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRelate_MaintainsReuse(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	createTestProject(t, gdb, "proj-b")
	createTestProject(t, gdb, "proj-a")

	if _, err := Relate(gdb, a.ID, "proj-b", "", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-a", "used", "tapeout"); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-a", "derived", ""); err != nil {
		t.Fatalf("Relate derived: %v", err)
	}

	got := mustGet(t, gdb, a.ID)
	if got.ReuseCount != 2 {
		t.Errorf("ReuseCount = %d, want 2 (derived does not count)", got.ReuseCount)
	}
	ids := got.ProjectIDs()
	if len(ids) != 2 || ids[0] != "proj-a" || ids[1] != "proj-b" {
		t.Errorf("ProjectIDs = %v, want [proj-a proj-b]", ids)
	}
	if len(got.Relations) != 3 {
		t.Errorf("relations = %d, want 3", len(got.Relations))
	}
}

func TestRelate_Errors(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	createTestProject(t, gdb, "proj-a")
	if _, err := Relate(gdb, a.ID, "proj-a", "", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}

	if _, err := Relate(gdb, a.ID, "proj-a", "used", ""); err == nil || !strings.Contains(err.Error(), "already") {
		t.Errorf("duplicate relate err = %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-missing", "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing project err = %v", err)
	}
	if _, err := Relate(gdb, "asset-missing", "proj-a", "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing asset err = %v", err)
	}

	got := mustGet(t, gdb, a.ID)
	if got.ReuseCount != 1 {
		t.Errorf("ReuseCount after failed relates = %d, want 1", got.ReuseCount)
	}
}

func TestUpdateRelation_RecountsReuse(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	createTestProject(t, gdb, "proj-a")
	rel, err := Relate(gdb, a.ID, "proj-a", "", "")
	if err != nil {
		t.Fatalf("Relate: %v", err)
	}

	if err := UpdateRelation(gdb, rel.ID, ptr("derived"), ptr("forked")); err != nil {
		t.Fatalf("UpdateRelation: %v", err)
	}
	got := mustGet(t, gdb, a.ID)
	if got.ReuseCount != 0 || got.Relations[0].Notes != "forked" {
		t.Errorf("after update: reuse %d relation %+v", got.ReuseCount, got.Relations[0])
	}
	if len(got.ProjectIDs()) != 1 {
		t.Errorf("ProjectIDs = %v, want proj-a kept", got.ProjectIDs())
	}

	if err := UpdateRelation(gdb, 9999, ptr("used"), nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing relation err = %v", err)
	}
}

func TestUnrelate(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	createTestProject(t, gdb, "proj-a")
	createTestProject(t, gdb, "proj-b")
	if _, err := Relate(gdb, a.ID, "proj-a", "", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-a", "derived", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-b", "", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}

	if err := Unrelate(gdb, a.ID, "proj-a", "used"); err != nil {
		t.Fatalf("Unrelate used: %v", err)
	}
	got := mustGet(t, gdb, a.ID)
	if got.ReuseCount != 1 || len(got.ProjectIDs()) != 2 {
		t.Errorf("after unrelate used: reuse %d ids %v", got.ReuseCount, got.ProjectIDs())
	}

	if err := Unrelate(gdb, a.ID, "proj-a", ""); err != nil {
		t.Fatalf("Unrelate all: %v", err)
	}
	got = mustGet(t, gdb, a.ID)
	if ids := got.ProjectIDs(); len(ids) != 1 || ids[0] != "proj-b" {
		t.Errorf("ProjectIDs = %v, want [proj-b]", ids)
	}

	if err := Unrelate(gdb, a.ID, "proj-a", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Unrelate err = %v, want ErrNotFound", err)
	}
}

func TestDelete_Cascades(t *testing.T) {
	gdb := testDB(t)
	a := createTestAsset(t, gdb, "PLL")
	keep := createTestAsset(t, gdb, "ADC")
	createTestProject(t, gdb, "proj-a")
	if _, err := AddVersion(gdb, a.ID, VersionOpts{Version: "1.0", VersionDate: "2024-01-01"}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if _, err := AddVersion(gdb, keep.ID, VersionOpts{Version: "1.0", VersionDate: "2024-01-01"}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if _, err := Relate(gdb, a.ID, "proj-a", "", ""); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	mustCreate(t, gdb, &models.AssetHealthMetrics{AssetID: a.ID, CalculatedAt: time.Now()})

	if err := Delete(gdb, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(gdb, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	for _, m := range []interface{}{&models.AssetProjectRelation{}, &models.AssetHealthMetrics{}} {
		var n int64
		if err := gdb.Model(m).Where("asset_id = ?", a.ID).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", m, err)
		}
		if n != 0 {
			t.Errorf("%T rows left = %d", m, n)
		}
	}
	var versions int64
	if err := gdb.Model(&models.AssetVersion{}).Count(&versions).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if versions != 1 {
		t.Errorf("versions = %d, want only the other asset's", versions)
	}

	if err := Delete(gdb, a.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
}
