package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"inventoryrecord/internal/blob"
	"inventoryrecord/internal/core"
	"inventoryrecord/internal/export"
)

// isolate points the config search path away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(PathEnv, dir)
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file, got %s", cfg.File)
	}
	if cfg.Storage.Driver != core.StorageDiskv {
		t.Fatalf("driver: %s", cfg.Storage.Driver)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.BasePath != "/inventory-record" {
		t.Fatalf("http: %+v", cfg.HTTP)
	}
	if cfg.HTTP.ReadTimeout != 15*time.Second || cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Fatalf("timeouts: %+v", cfg.HTTP)
	}
	if cfg.Quoting != export.QuotingRFC4180 || cfg.Log.Level != slog.LevelInfo || cfg.Log.Format != FormatText {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("metrics should default on")
	}
	if cfg.Storage.Blob.Driver != blob.DriverFilesystem || cfg.Storage.BlobPrefix != "entries/" {
		t.Fatalf("blob defaults: %+v", cfg.Storage.Blob)
	}
	if strings.HasPrefix(cfg.Storage.DiskvPath, "~") {
		t.Fatalf("diskv path not expanded: %s", cfg.Storage.DiskvPath)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("INVENTORY_RECORD_STORAGE_DRIVER", "blob")
	t.Setenv("INVENTORY_RECORD_STORAGE_BLOB_DRIVER", "s3")
	t.Setenv("INVENTORY_RECORD_STORAGE_BLOB_S3_BUCKET", "records")
	t.Setenv("INVENTORY_RECORD_STORAGE_BLOB_S3_PATH_STYLE", "true")
	t.Setenv("INVENTORY_RECORD_HTTP_READ_TIMEOUT", "3s")
	t.Setenv("INVENTORY_RECORD_EXPORT_QUOTING", "none")
	t.Setenv("INVENTORY_RECORD_LOG_LEVEL", "debug")
	t.Setenv("INVENTORY_RECORD_METRICS_ENABLED", "false")
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != core.StorageBlob || cfg.Storage.Blob.Driver != blob.DriverS3 {
		t.Fatalf("drivers: %+v", cfg.Storage)
	}
	if cfg.Storage.Blob.S3.Bucket != "records" || !cfg.Storage.Blob.S3.PathStyle {
		t.Fatalf("s3: %+v", cfg.Storage.Blob.S3)
	}
	if cfg.HTTP.ReadTimeout != 3*time.Second {
		t.Fatalf("read timeout: %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Quoting != export.QuotingNone || cfg.Log.Level != slog.LevelDebug || cfg.MetricsEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestConfigFileIsRead(t *testing.T) {
	dir := isolate(t)
	yaml := "storage:\n  driver: sqlite\n  sqlite:\n    path: ~/records.db\nhttp:\n  addr: 127.0.0.1:9000\nlog:\n  format: json\n"
	if err := os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INVENTORY_RECORD_HTTP_ADDR", ":7000")
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.File == "" {
		t.Fatalf("config file not reported")
	}
	if cfg.Storage.Driver != core.StorageSQLite || cfg.Log.Format != FormatJSON {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	home, err := homedir.Dir()
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if cfg.Storage.SQLitePath != filepath.Join(home, "records.db") {
		t.Fatalf("sqlite path: %s", cfg.Storage.SQLitePath)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Fatalf("environment must win over file, got %s", cfg.HTTP.Addr)
	}
}

func TestMalformedConfigFileFails(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte("storage: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(New()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		KeyStorageDriver: "mongo",
		KeyBlobDriver:    "gcs",
		KeyExportQuoting: "excel",
		KeyLogLevel:      "chatty",
		KeyLogFormat:     "xml",
	}
	for key, value := range cases {
		v := New()
		v.Set(key, value)
		_, err := Resolve(v)
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Fatalf("%s=%s: expected error naming the key, got %v", key, value, err)
		}
	}
}
