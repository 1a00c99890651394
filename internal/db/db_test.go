package db

import (
	"strings"
	"testing"

	"github.com/zulandar/rdtrack/internal/config"
	"github.com/zulandar/rdtrack/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		host     string
		port     int
		database string
		contains []string
	}{
		{
			name:     "default local",
			user:     "root",
			host:     "127.0.0.1",
			port:     3306,
			database: "rdtrack",
			contains: []string{"root@tcp(127.0.0.1:3306)/rdtrack", "parseTime=true"},
		},
		{
			name:     "custom user and port",
			user:     "rd",
			host:     "10.0.0.5",
			port:     3307,
			database: "rdtrack_lab",
			contains: []string{"rd@tcp(10.0.0.5:3307)/rdtrack_lab"},
		},
		{
			name:     "admin without database",
			user:     "root",
			host:     "db.internal",
			port:     3306,
			database: "",
			contains: []string{"root@tcp(db.internal:3306)/?", "parseTime=true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.user, tt.host, tt.port, tt.database)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("DSN() = %q, want to contain %q", got, want)
				}
			}
		})
	}
}

func TestConnect_Error(t *testing.T) {
	// Port 1 is unlikely to have a MySQL server; expect connection error.
	_, err := Connect("root", "127.0.0.1", 1, "nonexistent")
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: connect to")
	}
}

func TestConnectAdmin_Error(t *testing.T) {
	_, err := ConnectAdmin("root", "127.0.0.1", 1)
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: admin connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: admin connect to")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	if err == nil || !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("Open(oracle) err = %v, want unsupported driver", err)
	}
}

func TestAllModels_Count(t *testing.T) {
	if n := len(AllModels()); n != 8 {
		t.Errorf("AllModels() returned %d models, want 8", n)
	}
}

func TestAutoMigrate_SQLite(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}

	// Migration is idempotent.
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}

	a := models.Asset{ID: "asset-1", Name: "PLL block", Type: "ip-core"}
	if err := gdb.Create(&a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	var got models.Asset
	if err := gdb.First(&got, "id = ?", "asset-1").Error; err != nil {
		t.Fatalf("read asset: %v", err)
	}
	if got.Maturity != "experimental" {
		t.Errorf("Maturity = %q, want column default experimental", got.Maturity)
	}
}
