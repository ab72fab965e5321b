package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/pegrace/game/engine"
)

func createTestConfigDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func createValidConfig() *engine.GameConfig {
	config := &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Layout:      "SR,SR,38,AR;0,8,22,33;SG,18,23,DG;SY,28,CY,DY",
	}
	config.Messages.Welcome = "Welcome!"
	config.Messages.Victory = "%s wins!"
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestConfigDir(t)
		classic := createValidConfig()
		classic.Name = "classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "classic" {
			t.Errorf("Expected classic default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(createTestConfigDir(t))
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Layout != "" {
			t.Errorf("Expected the built-in default, got %+v", def)
		}
	})

	t.Run("first valid preset when classic is missing", func(t *testing.T) {
		dir := createTestConfigDir(t)
		writeConfigFile(t, dir, "zeta", createValidConfig())
		if err := os.WriteFile(filepath.Join(dir, "alpha.json"), []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Test Config" {
			t.Errorf("Expected the zeta preset as default, got %s", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := createTestConfigDir(t)
	writeConfigFile(t, dir, "endgame", createValidConfig())

	bonus := createValidConfig()
	bonus.Name = "Bonus"
	bonus.Layout = ""
	bonus.Rules.ExtraRollAfterLaunch = true
	writeConfigFile(t, dir, "bonus", bonus)

	broken := createValidConfig()
	broken.Layout = "AR,BR,CR,DR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY"
	writeConfigFile(t, dir, "broken", broken)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{"existing preset", "endgame", nil},
		{"with extension", "bonus.json", nil},
		{"missing preset", "nope", ErrConfigNotFound},
		{"invalid layout", "broken", ErrInvalidConfig},
		{"path traversal", "../secrets", ErrConfigNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := manager.LoadConfig(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || config == nil {
				t.Fatalf("LoadConfig(%s) failed: %v", tt.config, err)
			}
		})
	}

	loaded, _ := manager.LoadConfig("bonus")
	if !loaded.Rules.ExtraRollAfterLaunch {
		t.Error("Expected the rules to be decoded")
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := createTestConfigDir(t)
	writeConfigFile(t, dir, "b_second", createValidConfig())
	writeConfigFile(t, dir, "a_first", createValidConfig())
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"name":""}`), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 valid configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "a_first" || configs[0].Filename != "a_first.json" {
		t.Errorf("Expected configs sorted by id, got %+v", configs[0])
	}
	if configs[1].Layout != createValidConfig().Layout {
		t.Errorf("Expected the layout in the listing, got %q", configs[1].Layout)
	}
}

func TestManager_SaveAndRefresh(t *testing.T) {
	dir := createTestConfigDir(t)
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config := createValidConfig()
	config.Name = "classic"
	if err := manager.SaveConfig("classic", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "classic.json")); err != nil {
		t.Fatalf("Expected the preset on disk: %v", err)
	}

	invalid := createValidConfig()
	invalid.Name = ""
	if err := manager.SaveConfig("invalid", invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for a bad name, got %v", err)
	}

	if manager.GetDefault().Layout != "" {
		t.Error("Expected the built-in default before a refresh")
	}
	manager.RefreshCache()
	if manager.GetDefault().Layout != config.Layout {
		t.Errorf("Expected the saved classic preset to become the default, got %+v", manager.GetDefault())
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := createTestConfigDir(t)
	writeConfigFile(t, dir, "endgame", createValidConfig())

	manager, err := NewManager(dir, WithDefault("endgame"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.GetDefault().Layout == "" {
		t.Error("Expected the endgame preset as default")
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := createTestConfigDir(t)
	writeConfigFile(t, dir, "endgame", createValidConfig())
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("endgame"); err != nil {
				errs <- err
			}
			_ = manager.GetDefault()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}

func TestShippedPresets(t *testing.T) {
	manager, err := NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to open shipped presets: %v", err)
	}
	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) < 4 {
		t.Errorf("Expected every shipped preset to be valid, got %d", len(configs))
	}
	if manager.GetDefault().Name != "classic" {
		t.Errorf("Expected classic default, got %s", manager.GetDefault().Name)
	}
}
