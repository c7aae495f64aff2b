package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearMemvidEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvDefaultPath, "")
	t.Setenv(EnvBinary, "")
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearMemvidEnv(t)

	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig with missing file should not fail: %v", err)
	}

	if config.Transport.Type != "stdio" {
		t.Errorf("default transport = %q, want stdio", config.Transport.Type)
	}
	if config.Memvid.DefaultPath != "" {
		t.Errorf("default path should be empty, got %q", config.Memvid.DefaultPath)
	}
	if config.Memvid.BinaryName() != DefaultBinaryName {
		t.Errorf("binary = %q, want %q", config.Memvid.BinaryName(), DefaultBinaryName)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearMemvidEnv(t)

	configContent := `
transport:
  type: http
  http:
    host: 127.0.0.1
    port: 8700

memvid:
  default_path: /data/memory.mv2
  binary: /usr/local/bin/memvid
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if config.Transport.Type != "http" {
		t.Errorf("transport = %q, want http", config.Transport.Type)
	}
	if config.Transport.HTTP.Port != 8700 {
		t.Errorf("port = %d, want 8700", config.Transport.HTTP.Port)
	}
	if config.Memvid.DefaultPath != "/data/memory.mv2" {
		t.Errorf("default path = %q", config.Memvid.DefaultPath)
	}
	if config.Memvid.Binary != "/usr/local/bin/memvid" {
		t.Errorf("binary = %q", config.Memvid.Binary)
	}
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	configContent := `
memvid:
  default_path: /data/from-file.mv2
  binary: /opt/memvid-file
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv(EnvDefaultPath, "/data/from-env.mv2")
	t.Setenv(EnvBinary, "/opt/memvid-env")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if config.Memvid.DefaultPath != "/data/from-env.mv2" {
		t.Errorf("default path = %q, env should win", config.Memvid.DefaultPath)
	}
	if config.Memvid.Binary != "/opt/memvid-env" {
		t.Errorf("binary = %q, env should win", config.Memvid.Binary)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	clearMemvidEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("transport: [broken"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadConfigInvalidTransport(t *testing.T) {
	clearMemvidEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("transport:\n  type: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid transport type")
	}
}

func TestResolvePathExplicitAlwaysWins(t *testing.T) {
	memvid := &MemvidConfig{DefaultPath: "/default/path.mv2"}

	path, err := memvid.ResolvePath("/custom/path.mv2")
	if err != nil {
		t.Fatalf("ResolvePath returned error: %v", err)
	}
	if path != "/custom/path.mv2" {
		t.Errorf("ResolvePath = %q, want /custom/path.mv2", path)
	}
}

func TestResolvePathFallsBackToDefault(t *testing.T) {
	memvid := &MemvidConfig{DefaultPath: "/default/path.mv2"}

	path, err := memvid.ResolvePath("")
	if err != nil {
		t.Fatalf("ResolvePath returned error: %v", err)
	}
	if path != "/default/path.mv2" {
		t.Errorf("ResolvePath = %q, want /default/path.mv2", path)
	}
}

func TestResolvePathWithoutAnySource(t *testing.T) {
	memvid := &MemvidConfig{}

	_, err := memvid.ResolvePath("")
	if err == nil {
		t.Fatal("expected configuration error")
	}

	derr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if derr.Code != ConfigurationError {
		t.Errorf("code = %d, want %d", derr.Code, ConfigurationError)
	}
	// The message must tell the caller which configuration source to set.
	if !strings.Contains(derr.Message, EnvDefaultPath) {
		t.Errorf("message %q should mention %s", derr.Message, EnvDefaultPath)
	}
}
