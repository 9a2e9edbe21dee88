package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitConfigAt_Success(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	configPath, err := InitConfigAt(target, false)
	if err != nil {
		t.Fatalf("InitConfigAt failed: %v", err)
	}
	if configPath != target {
		t.Errorf("Expected returned path %s, got %s", target, configPath)
	}

	// Verify config file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}

	// Verify the config file contains the expected sections
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"# GoFEP Configuration File",
		"logging:",
		"gateway:",
		"server:",
		"admin:",
		"events:",
		"fields:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}
}

func TestInitConfigAt_Permissions(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	configPath, err := InitConfigAt(target, false)
	if err != nil {
		t.Fatalf("InitConfigAt failed: %v", err)
	}

	// The file contains a JWT secret, so it must be owner-only
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected permissions 0600, got %o", perm)
	}
}

func TestInitConfigAt_GeneratesUsableConfig(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	if _, err := InitConfigAt(target, false); err != nil {
		t.Fatalf("InitConfigAt failed: %v", err)
	}

	// The generated file loads and validates
	cfg, err := Load(target)
	if err != nil {
		t.Fatalf("Generated config failed to load: %v", err)
	}

	// The generated JWT secret satisfies the length requirement
	if len(cfg.Admin.JWTSecret) < 32 {
		t.Errorf("Expected generated JWT secret of at least 32 chars, got %d", len(cfg.Admin.JWTSecret))
	}
}

func TestInitConfigAt_UniqueSecrets(t *testing.T) {
	tmpDir := t.TempDir()

	first := filepath.Join(tmpDir, "a.yaml")
	second := filepath.Join(tmpDir, "b.yaml")

	if _, err := InitConfigAt(first, false); err != nil {
		t.Fatalf("InitConfigAt failed: %v", err)
	}
	if _, err := InitConfigAt(second, false); err != nil {
		t.Fatalf("InitConfigAt failed: %v", err)
	}

	cfgA, err := Load(first)
	if err != nil {
		t.Fatalf("Failed to load first config: %v", err)
	}
	cfgB, err := Load(second)
	if err != nil {
		t.Fatalf("Failed to load second config: %v", err)
	}

	if cfgA.Admin.JWTSecret == cfgB.Admin.JWTSecret {
		t.Error("Expected each init to generate a distinct JWT secret")
	}
}

func TestInitConfigAt_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(target, []byte("logging:\n  level: WARN\n"), 0600); err != nil {
		t.Fatalf("Failed to seed config file: %v", err)
	}

	// Without force the existing file is preserved
	_, err := InitConfigAt(target, false)
	if err == nil {
		t.Fatal("Expected error when config file already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(content), "WARN") {
		t.Error("Existing config file was modified without force")
	}
}

func TestInitConfigAt_Force(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(target, []byte("logging:\n  level: WARN\n"), 0600); err != nil {
		t.Fatalf("Failed to seed config file: %v", err)
	}

	if _, err := InitConfigAt(target, true); err != nil {
		t.Fatalf("InitConfigAt with force failed: %v", err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(content), "# GoFEP Configuration File") {
		t.Error("Expected force to overwrite the existing file")
	}
}

func TestInitConfig_DefaultLocation(t *testing.T) {
	// Redirect the home directory so the default path lands in a sandbox
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	expected := filepath.Join(tmpDir, ".gofep", "config.yaml")
	if configPath != expected {
		t.Errorf("Expected config at %s, got %s", expected, configPath)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file missing at default location: %v", err)
	}
}
