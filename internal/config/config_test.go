package config

import (
	"os"
	"path/filepath"
	"testing"

	"maitred/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
restaurants:
  - id: 1
    name: "Test Bistro"
    opens_at: "11:00"
tables:
  - restaurant_id: 1
    number: 1
    capacity: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Restaurants) != 1 || cfg.Restaurants[0].ID != 1 {
		t.Fatalf("expected 1 restaurant with ID 1")
	}
	if cfg.Restaurants[0].OpensAt != "11:00" {
		t.Errorf("expected opens_at 11:00, got %s", cfg.Restaurants[0].OpensAt)
	}
	if cfg.Restaurants[0].ClosesAt != "23:00" {
		t.Errorf("expected default closes_at 23:00, got %s", cfg.Restaurants[0].ClosesAt)
	}
	if cfg.Restaurants[0].DefaultTurnTimeMinutes != models.DefaultTurnTimeMinutes {
		t.Errorf("expected default turn time, got %d", cfg.Restaurants[0].DefaultTurnTimeMinutes)
	}
	tables := cfg.TableModels()
	if len(tables) != 1 || !tables[0].IsActive {
		t.Errorf("expected seeded table to be active")
	}
}

func TestTableSeedKeepsExplicitInactive(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
restaurants:
  - id: 1
    name: "Test Bistro"
tables:
  - restaurant_id: 1
    number: 1
    capacity: 2
  - restaurant_id: 1
    number: 2
    capacity: 4
    is_active: false
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	tables := cfg.TableModels()
	if len(tables) != 2 {
		t.Fatalf("expected 2 seed tables, got %d", len(tables))
	}
	if !tables[0].IsActive {
		t.Errorf("omitted is_active should default to active")
	}
	if tables[1].IsActive {
		t.Errorf("explicit is_active false was overridden")
	}
	if tables[0].SortOrder != 1 || tables[1].SortOrder != 2 {
		t.Errorf("sort order should default to the table number")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			},
			wantErr: true,
		},
		{
			name: "no restaurants",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "telegram enabled without token",
			cfg: Config{
				Database:    DatabaseConfig{Path: "path"},
				Telegram:    TelegramConfig{Enabled: true},
				Restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.API.RateLimit.RPS != 10 {
		t.Errorf("expected default rate limit rps 10, got %f", cfg.API.RateLimit.RPS)
	}
	if cfg.API.RateLimit.Burst != 20 {
		t.Errorf("expected default rate limit burst 20, got %d", cfg.API.RateLimit.Burst)
	}
}

func TestValidateRestaurants(t *testing.T) {
	tests := []struct {
		name        string
		restaurants []models.Restaurant
		tables      []models.Table
		wantErr     bool
	}{
		{
			name: "valid",
			restaurants: []models.Restaurant{
				{ID: 1, Name: "Bistro"},
				{ID: 2, Name: "Trattoria"},
			},
			tables: []models.Table{
				{RestaurantID: 1, Number: 1, Capacity: 2},
				{RestaurantID: 2, Number: 1, Capacity: 4},
			},
			wantErr: false,
		},
		{
			name: "duplicate restaurant id",
			restaurants: []models.Restaurant{
				{ID: 1, Name: "Bistro"},
				{ID: 1, Name: "Trattoria"},
			},
			wantErr: true,
		},
		{
			name:        "restaurant id 0",
			restaurants: []models.Restaurant{{ID: 0, Name: "Bistro"}},
			wantErr:     true,
		},
		{
			name:        "table references unknown restaurant",
			restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			tables:      []models.Table{{RestaurantID: 2, Number: 1, Capacity: 2}},
			wantErr:     true,
		},
		{
			name:        "duplicate table number",
			restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			tables: []models.Table{
				{RestaurantID: 1, Number: 1, Capacity: 2},
				{RestaurantID: 1, Number: 1, Capacity: 4},
			},
			wantErr: true,
		},
		{
			name:        "table capacity 0",
			restaurants: []models.Restaurant{{ID: 1, Name: "Bistro"}},
			tables:      []models.Table{{RestaurantID: 1, Number: 1, Capacity: 0}},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRestaurants(tt.restaurants, tt.tables)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRestaurants() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
