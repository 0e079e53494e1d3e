package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/rackscan/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "10m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "rackscan"
user = "rackscan"
password = "rackscan"
ssl_mode = "disable"

[storage]
container_name = "scans"
connection_string = "DefaultEndpointsProtocol=http;AccountName=rackscanstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/rackscanstore;"

[cache]
enabled = true
address = "localhost:6379"

[api]
base_path = "/api"
max_upload_size = "10MB"

[api.pagination]
default_page_size = 25
max_page_size = 50

[detector]
endpoint = "http://detector:8090/detect"
symbologies = ["code128"]

[lookup]
cache_ttl = "1m"

[pipeline]
mode = "xray"
lookup_failure = "degrade"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[pipeline]
mode = "cycle-count"
`

const minimalConfig = `
[database]
name = "rackscan"
user = "rackscan"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "rackscan" {
		t.Errorf("database name: got %s, want rackscan", cfg.Database.Name)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled")
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("default page size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.Detector.Endpoint != "http://detector:8090/detect" {
		t.Errorf("detector endpoint: got %s", cfg.Detector.Endpoint)
	}
	if len(cfg.Detector.Symbologies) != 1 || cfg.Detector.Symbologies[0] != "code128" {
		t.Errorf("symbologies: got %v", cfg.Detector.Symbologies)
	}
	if cfg.Lookup.CacheTTLDuration() != time.Minute {
		t.Errorf("cache ttl: got %v, want 1m", cfg.Lookup.CacheTTLDuration())
	}
	if cfg.Pipeline.Mode != "xray" || cfg.Pipeline.LookupFailure != "degrade" {
		t.Errorf("pipeline: got %+v", cfg.Pipeline)
	}
	if cfg.API.MaxUploadSizeBytes() != 10*1024*1024 {
		t.Errorf("max upload size: got %d", cfg.API.MaxUploadSizeBytes())
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv("RACKSCAN_ENV", "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("database host: got %s, want prodhost", cfg.Database.Host)
	}
	if cfg.Pipeline.Mode != "cycle-count" {
		t.Errorf("pipeline mode: got %s, want cycle-count", cfg.Pipeline.Mode)
	}
	if cfg.Pipeline.LookupFailure != "degrade" {
		t.Errorf("lookup failure should survive overlay, got %s", cfg.Pipeline.LookupFailure)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("RACKSCAN_SERVER_PORT", "7070")
	t.Setenv("RACKSCAN_DB_HOST", "envhost")
	t.Setenv("RACKSCAN_CACHE_ENABLED", "false")
	t.Setenv("RACKSCAN_DETECTOR_SYMBOLOGIES", "qr, datamatrix")
	t.Setenv("RACKSCAN_PIPELINE_MODE", "cycle-count")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Host != "envhost" {
		t.Errorf("database host: got %s, want envhost", cfg.Database.Host)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by env")
	}
	if got := strings.Join(cfg.Detector.Symbologies, ","); got != "qr,datamatrix" {
		t.Errorf("symbologies: got %s", got)
	}
	if cfg.Pipeline.Mode != "cycle-count" {
		t.Errorf("pipeline mode: got %s", cfg.Pipeline.Mode)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("RACKSCAN_DB_NAME", "rackscan")
	t.Setenv("RACKSCAN_DB_USER", "rackscan")
	t.Setenv("RACKSCAN_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.Mode != "cycle-count" {
		t.Errorf("pipeline mode: got %s, want cycle-count", cfg.Pipeline.Mode)
	}
	if cfg.Pipeline.LookupSource != config.LookupSourceDatabase {
		t.Errorf("lookup source: got %s", cfg.Pipeline.LookupSource)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should default to disabled")
	}
	if cfg.API.Auth.Enabled {
		t.Error("auth should default to disabled")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid pipeline mode",
			env:     map[string]string{"RACKSCAN_PIPELINE_MODE": "inventory"},
			wantErr: "pipeline",
		},
		{
			name:    "invalid lookup failure",
			env:     map[string]string{"RACKSCAN_PIPELINE_LOOKUP_FAILURE": "ignore"},
			wantErr: "pipeline",
		},
		{
			name:    "remote lookup without endpoint",
			env:     map[string]string{"RACKSCAN_PIPELINE_LOOKUP_SOURCE": "remote"},
			wantErr: "endpoint required",
		},
		{
			name:    "invalid detector timeout",
			env:     map[string]string{"RACKSCAN_DETECTOR_TIMEOUT": "soon"},
			wantErr: "detector",
		},
		{
			name:    "auth without issuer",
			env:     map[string]string{"RACKSCAN_AUTH_ENABLED": "true"},
			wantErr: "auth",
		},
		{
			name:    "invalid shutdown timeout",
			env:     map[string]string{"RACKSCAN_SHUTDOWN_TIMEOUT": "later"},
			wantErr: "shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", minimalConfig)
			chdir(t, dir)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRemoteLookup(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	t.Setenv("RACKSCAN_PIPELINE_LOOKUP_SOURCE", "remote")
	t.Setenv("RACKSCAN_LOOKUP_ENDPOINT", "http://wms:9000/contents")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Lookup.Endpoint != "http://wms:9000/contents" {
		t.Errorf("lookup endpoint: got %s", cfg.Lookup.Endpoint)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", "[server\nport = ")
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnv(t *testing.T) {
	cfg := &config.Config{}
	if got := cfg.Env(); got != "local" {
		t.Errorf("default env: got %s, want local", got)
	}

	t.Setenv("RACKSCAN_ENV", "staging")
	if got := cfg.Env(); got != "staging" {
		t.Errorf("env: got %s, want staging", got)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("addr: got %s", got)
	}
}

func TestServerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
	}{
		{"port too high", config.ServerConfig{Port: 70000}},
		{"bad read timeout", config.ServerConfig{ReadTimeout: "fast"}},
		{"bad write timeout", config.ServerConfig{WriteTimeout: "slow"}},
		{"bad idle timeout", config.ServerConfig{IdleTimeout: "forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMaxUploadSizeFallback(t *testing.T) {
	cfg := config.APIConfig{MaxUploadSize: "lots"}
	if got := cfg.MaxUploadSizeBytes(); got != 20*1024*1024 {
		t.Errorf("fallback: got %d", got)
	}
}

func TestMergeKeepsUnsetFields(t *testing.T) {
	base := &config.Config{
		Detector: config.DetectorConfig{Endpoint: "http://a", Token: "secret"},
		Lookup:   config.LookupConfig{Endpoint: "http://lookup"},
	}
	base.Merge(&config.Config{
		Detector: config.DetectorConfig{Endpoint: "http://b"},
	})

	if base.Detector.Endpoint != "http://b" {
		t.Errorf("endpoint: got %s", base.Detector.Endpoint)
	}
	if base.Detector.Token != "secret" {
		t.Errorf("token: got %s", base.Detector.Token)
	}
	if base.Lookup.Endpoint != "http://lookup" {
		t.Errorf("lookup endpoint: got %s", base.Lookup.Endpoint)
	}
}
