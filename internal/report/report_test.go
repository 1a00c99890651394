package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/db"
	"github.com/zulandar/rdtrack/internal/models"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

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

func day(s string) time.Time {
	t, _ := time.Parse(dates.DateLayout, s)
	return t
}

func strp(s string) *string { return &s }

func mustRange(t *testing.T, start, end string) dates.Range {
	t.Helper()
	r, err := dates.ParseRange(start, end)
	if err != nil {
		t.Fatalf("ParseRange(%q, %q): %v", start, end, err)
	}
	return r
}

// seed builds a small org:
//
//	eng-ana: tasks t1 (proj-radar, completed), t2 (proj-radar), t3 (no project)
//	eng-bo:  tasks t2, t4 (proj-lidar)
//	labor: ana logs 5h on t1 and 3h on proj-radar directly; bo logs nothing
func seed(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	rows := []interface{}{
		&models.Engineer{ID: "eng-ana", Name: "Ana Ortiz", Email: "ana@example.com"},
		&models.Engineer{ID: "eng-bo", Name: "Bo Chen"},
		&models.Project{ID: "proj-radar", Name: "Radar", SalesName: "Kim Park", CreatedAt: day("2024-01-10")},
		&models.Project{ID: "proj-lidar", Name: "Lidar", SalesName: "Lee Wong", CreatedAt: day("2024-02-15")},
		&models.Project{ID: "proj-sonar", Name: "Sonar", SalesName: "Kim Park", CreatedAt: day("2024-06-01")},
		&models.Task{ID: "t1", Title: "Floorplan", ProjectID: strp("proj-radar"), AssignedTo: `["eng-ana"]`,
			StartDate: "2024-03-01", EndDate: "2024-03-02", Stakeholder: "Kim Park", Status: "completed", CreatedAt: day("2024-03-01")},
		&models.Task{ID: "t2", Title: "Timing closure", ProjectID: strp("proj-radar"), AssignedTo: `["eng-ana","eng-bo"]`,
			StartDate: "2024-03-05", EndDate: "2024-03-05", Stakeholder: "Kim Park", Status: "in_progress", CreatedAt: day("2024-03-02")},
		&models.Task{ID: "t3", Title: "Docs", AssignedTo: `["eng-ana"]`,
			StartDate: "2024-03-10", Stakeholder: "Dana Ruiz", Status: "done", CreatedAt: day("2024-03-03")},
		&models.Task{ID: "t4", Title: "Lidar bringup", ProjectID: strp("proj-lidar"), AssignedTo: `["eng-bo"]`,
			StartDate: "2024-03-01", EndDate: "2024-03-03", Stakeholder: "Lee Wong", Status: "todo", CreatedAt: day("2024-03-04")},
		&models.LaborCost{TaskID: strp("t1"), ProjectID: strp("proj-radar"), EngineerID: "eng-ana", Hours: 5, WorkDate: "2024-03-01"},
		&models.LaborCost{ProjectID: strp("proj-radar"), EngineerID: "eng-ana", Hours: 3, WorkDate: "2024-03-06"},
		&models.Asset{ID: "asset-pll", Name: "PLL", Type: "ip-core", Maturity: "stable", OwnerID: "eng-ana", CreatedAt: day("2024-02-01")},
		&models.Asset{ID: "asset-adc", Name: "ADC", Type: "ip-core", Maturity: "beta", OwnerName: "Ana Ortiz", CreatedAt: day("2024-03-15")},
		&models.Asset{ID: "asset-dsp", Name: "DSP", Type: "firmware", OwnerID: "eng-bo", CreatedAt: day("2024-03-15")},
	}
	for _, r := range rows {
		if err := gdb.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func newBuilder(t *testing.T) (*Builder, *gorm.DB) {
	t.Helper()
	gdb := testDB(t)
	seed(t, gdb)
	return NewBuilder(store.New(gdb)), gdb
}

func taskIDs(ts []TaskSummary) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestPerson_ByAssigneeName(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Person(context.Background(), "bo chen", dates.Range{})
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if got := strings.Join(taskIDs(rep.RelatedTasks), ","); got != "t2,t4" {
		t.Errorf("tasks = %s, want t2,t4", got)
	}
	if rep.TotalProjects != 2 {
		t.Errorf("TotalProjects = %d, want 2 (radar, lidar)", rep.TotalProjects)
	}
	// Bo has no labor, so derived: t2 same-day floors to 1, t4 is 48h.
	// Ana co-owns t2 and has labor, so her total is her logged 8h.
	if len(rep.EngineerHours) != 2 {
		t.Fatalf("EngineerHours = %+v", rep.EngineerHours)
	}
	bo := rep.EngineerHours[0]
	if bo.EngineerID != "eng-bo" || bo.TotalHours != 49 || bo.TaskCount != 2 || bo.ProjectCount != 2 {
		t.Errorf("bo = %+v", bo)
	}
	ana := rep.EngineerHours[1]
	if ana.EngineerID != "eng-ana" || ana.TotalHours != 8 || ana.EngineerName != "Ana Ortiz" {
		t.Errorf("ana = %+v", ana)
	}
	if rep.TotalHours != 57 {
		t.Errorf("TotalHours = %v, want 57", rep.TotalHours)
	}
}

func TestPerson_ByEngineerID(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Person(context.Background(), "ENG-BO", dates.Range{})
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if rep.TotalTasks != 2 {
		t.Errorf("TotalTasks = %d, want 2", rep.TotalTasks)
	}
}

func TestPerson_ByStakeholderAndSalesName(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Person(context.Background(), "kim", dates.Range{})
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if got := strings.Join(taskIDs(rep.RelatedTasks), ","); got != "t1,t2" {
		t.Errorf("tasks = %s, want t1,t2", got)
	}
	// Radar through tasks and sales name; Sonar through sales name alone.
	if rep.TotalProjects != 2 || rep.RelatedProjects[0].ID != "proj-radar" || rep.RelatedProjects[1].ID != "proj-sonar" {
		t.Errorf("projects = %+v", rep.RelatedProjects)
	}
	if len(rep.Stakeholders) != 1 || rep.Stakeholders[0] != "Kim Park" {
		t.Errorf("Stakeholders = %v", rep.Stakeholders)
	}
}

func TestPerson_RangeAfterAllTasks(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Person(context.Background(), "kim", mustRange(t, "2024-05-01", "2024-12-31"))
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if len(rep.RelatedTasks) != 0 || len(rep.EngineerHours) != 0 {
		t.Errorf("tasks = %v hours = %v, want none", rep.RelatedTasks, rep.EngineerHours)
	}
	if len(rep.RelatedProjects) != 1 || rep.RelatedProjects[0].ID != "proj-sonar" {
		t.Errorf("projects = %+v, want proj-sonar created in range", rep.RelatedProjects)
	}
	if rep.StartDate != "2024-05-01" || rep.EndDate != "2024-12-31" {
		t.Errorf("bounds = %s..%s", rep.StartDate, rep.EndDate)
	}
}

func TestPerson_RangeExcludesUndatedTasks(t *testing.T) {
	b, _ := newBuilder(t)
	// t3 has no end date, so an end bound drops it.
	rep, _ := b.Person(context.Background(), "dana", mustRange(t, "", "2024-12-31"))
	if len(rep.RelatedTasks) != 0 {
		t.Errorf("tasks = %v, want none", taskIDs(rep.RelatedTasks))
	}
	rep, _ = b.Person(context.Background(), "dana", mustRange(t, "2024-03-01", ""))
	if len(rep.RelatedTasks) != 1 {
		t.Errorf("tasks = %v, want t3", taskIDs(rep.RelatedTasks))
	}
}

func TestPerson_NoMatch(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Person(context.Background(), "nobody", dates.Range{})
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if rep.RelatedTasks == nil || rep.EngineerHours == nil || rep.Stakeholders == nil {
		t.Errorf("empty report has nil slices: %+v", rep)
	}
	if _, err := b.Person(context.Background(), "  ", dates.Range{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name err = %v, want ErrInvalid", err)
	}
}

func TestEngineer_LaborPreferredAtEachLevel(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Engineer(context.Background(), "eng-ana", dates.Range{})
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}

	want := EngineerTotals{TotalTasks: 3, CompletedTasks: 2, TotalProjects: 1, TotalHours: 8, TotalAssets: 2}
	if rep.Totals != want {
		t.Errorf("Totals = %+v, want %+v", rep.Totals, want)
	}

	hours := map[string]float64{}
	for _, ts := range rep.Tasks {
		hours[ts.ID] = ts.Hours
	}
	// t1 has labor; t2 and t3 fall back to derived hours.
	if hours["t1"] != 5 || hours["t2"] != 1 || hours["t3"] != 1 {
		t.Errorf("task hours = %v", hours)
	}

	if len(rep.Projects) != 1 {
		t.Fatalf("Projects = %+v", rep.Projects)
	}
	radar := rep.Projects[0]
	if radar.ID != "proj-radar" || radar.TaskCount != 2 || radar.CompletedTaskCount != 1 || radar.TotalHours != 8 {
		t.Errorf("radar = %+v", radar)
	}
	if len(rep.Labor) != 2 {
		t.Errorf("Labor rows = %d, want 2", len(rep.Labor))
	}
	if got := strings.Join(rep.Stakeholders, ","); got != "Dana Ruiz,Kim Park" {
		t.Errorf("Stakeholders = %s", got)
	}
}

func TestEngineer_OnlyLaborTotalsExactly(t *testing.T) {
	gdb := testDB(t)
	mustCreate(t, gdb, &models.Engineer{ID: "eng-cy", Name: "Cy"})
	for _, h := range []float64{1.25, 2.5, 4} {
		mustCreate(t, gdb, &models.LaborCost{EngineerID: "eng-cy", Hours: h, WorkDate: "2024-03-01"})
	}
	rep, err := NewBuilder(store.New(gdb)).Engineer(context.Background(), "eng-cy", dates.Range{})
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}
	if rep.Totals.TotalHours != 7.75 {
		t.Errorf("TotalHours = %v, want 7.75", rep.Totals.TotalHours)
	}
	if rep.Totals.TotalTasks != 0 || len(rep.Projects) != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestEngineer_DerivedOnly(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Engineer(context.Background(), "eng-bo", dates.Range{})
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}
	if rep.Totals.TotalHours != 49 {
		t.Errorf("TotalHours = %v, want 49", rep.Totals.TotalHours)
	}
	if rep.Totals.TotalAssets != 1 || rep.Assets[0].ID != "asset-dsp" {
		t.Errorf("Assets = %+v", rep.Assets)
	}
}

func TestEngineer_Range(t *testing.T) {
	b, _ := newBuilder(t)
	rep, err := b.Engineer(context.Background(), "eng-ana", mustRange(t, "2024-03-05", "2024-03-31"))
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}
	// t1 starts before the range; t3 has no end date.
	if got := strings.Join(taskIDs(rep.Tasks), ","); got != "t2" {
		t.Errorf("tasks = %s, want t2", got)
	}
	// Only the 2024-03-06 labor row is in range.
	if rep.Totals.TotalHours != 3 || len(rep.Labor) != 1 {
		t.Errorf("hours = %v labor = %d", rep.Totals.TotalHours, len(rep.Labor))
	}
	// PLL was created in February; ADC in range, matched by owner name.
	if rep.Totals.TotalAssets != 1 || rep.Assets[0].ID != "asset-adc" {
		t.Errorf("Assets = %+v", rep.Assets)
	}
}

func TestEngineer_NotFound(t *testing.T) {
	b, _ := newBuilder(t)
	_, err := b.Engineer(context.Background(), "eng-ghost", dates.Range{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

type brokenRepo struct {
	Repository
}

func (brokenRepo) ListTasks(context.Context, store.TaskFilter) ([]models.Task, error) {
	return nil, errors.New("db gone")
}

func TestBuilder_PropagatesRepositoryFailure(t *testing.T) {
	gdb := testDB(t)
	seed(t, gdb)
	b := NewBuilder(brokenRepo{Repository: store.New(gdb)})
	if _, err := b.Person(context.Background(), "kim", dates.Range{}); err == nil || !strings.Contains(err.Error(), "db gone") {
		t.Errorf("Person err = %v", err)
	}
	if _, err := b.Engineer(context.Background(), "eng-ana", dates.Range{}); err == nil || !strings.Contains(err.Error(), "db gone") {
		t.Errorf("Engineer err = %v", err)
	}
}
