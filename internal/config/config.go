// Package config loads runtime settings from defaults, an optional
// .inventory-record.yaml file, INVENTORY_RECORD_* environment variables and
// bound command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"inventoryrecord/internal/blob"
	"inventoryrecord/internal/core"
	"inventoryrecord/internal/export"
	"inventoryrecord/internal/infra/persistence/document"
	"inventoryrecord/internal/infra/persistence/local"
	"inventoryrecord/internal/infra/persistence/postgres"
	"inventoryrecord/internal/infra/persistence/sqlite"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "INVENTORY_RECORD"
	// PathEnv names an extra directory searched for the config file.
	PathEnv = "INVENTORY_RECORD_CONFIG_PATH"
	// FileName is the config file name; the .yaml extension is implicit.
	FileName = ".inventory-record"
)

// Keys.
const (
	KeyStorageDriver     = "storage.driver"
	KeyDiskvPath         = "storage.diskv.path"
	KeySQLitePath        = "storage.sqlite.path"
	KeyPostgresDSN       = "storage.postgres.dsn"
	KeyBlobDriver        = "storage.blob.driver"
	KeyBlobFSRoot        = "storage.blob.fs_root"
	KeyBlobPrefix        = "storage.blob.prefix"
	KeyS3Bucket          = "storage.blob.s3.bucket"
	KeyS3Region          = "storage.blob.s3.region"
	KeyS3Endpoint        = "storage.blob.s3.endpoint"
	KeyS3PathStyle       = "storage.blob.s3.path_style"
	KeyS3AccessKeyID     = "storage.blob.s3.access_key_id"
	KeyS3SecretAccessKey = "storage.blob.s3.secret_access_key"
	KeyS3SessionToken    = "storage.blob.s3.session_token"
	KeyHTTPAddr          = "http.addr"
	KeyHTTPBasePath      = "http.base_path"
	KeyHTTPReadTimeout   = "http.read_timeout"
	KeyHTTPWriteTimeout  = "http.write_timeout"
	KeyExportQuoting     = "export.quoting"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyMetricsEnabled    = "metrics.enabled"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// HTTP holds the web server settings.
type HTTP struct {
	Addr         string
	BasePath     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Log holds the logger settings.
type Log struct {
	Level  slog.Level
	Format string
}

// Config is the resolved runtime configuration.
type Config struct {
	Storage        core.StorageConfig
	HTTP           HTTP
	Quoting        export.Quoting
	Log            Log
	MetricsEnabled bool
	// File is the config file that was read, or "" when none was found.
	File string
}

// New returns a viper instance carrying the defaults, the environment
// binding and the config file search path.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(FileName)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if override := os.Getenv(PathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME")
	return v
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorageDriver, string(core.StorageDiskv))
	v.SetDefault(KeyDiskvPath, local.DefaultDiskvPath)
	v.SetDefault(KeySQLitePath, sqlite.DefaultPath)
	v.SetDefault(KeyPostgresDSN, postgres.DefaultDSN)
	v.SetDefault(KeyBlobDriver, string(blob.DriverFilesystem))
	v.SetDefault(KeyBlobFSRoot, "./blobdata")
	v.SetDefault(KeyBlobPrefix, document.DefaultPrefix)
	v.SetDefault(KeyS3Bucket, "")
	v.SetDefault(KeyS3Region, "us-east-1")
	v.SetDefault(KeyS3Endpoint, "")
	v.SetDefault(KeyS3PathStyle, false)
	v.SetDefault(KeyS3AccessKeyID, "")
	v.SetDefault(KeyS3SecretAccessKey, "")
	v.SetDefault(KeyS3SessionToken, "")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyHTTPBasePath, "/inventory-record")
	v.SetDefault(KeyHTTPReadTimeout, 15*time.Second)
	v.SetDefault(KeyHTTPWriteTimeout, 15*time.Second)
	v.SetDefault(KeyExportQuoting, string(export.QuotingRFC4180))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, FormatText)
	v.SetDefault(KeyMetricsEnabled, true)
}

// Load reads the config file if one exists and resolves v.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	return Resolve(v)
}

// Resolve converts and validates the settings held by v.
func Resolve(v *viper.Viper) (Config, error) {
	driver := core.StorageDriver(strings.ToLower(v.GetString(KeyStorageDriver)))
	if !knownDriver(driver) {
		return Config{}, fmt.Errorf("%s: unknown storage driver %q", KeyStorageDriver, driver)
	}
	blobDriver := blob.Driver(strings.ToLower(v.GetString(KeyBlobDriver)))
	switch blobDriver {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory:
	default:
		return Config{}, fmt.Errorf("%s: unknown blob driver %q", KeyBlobDriver, blobDriver)
	}
	quoting, err := export.ParseQuoting(v.GetString(KeyExportQuoting))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyExportQuoting, err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	format := strings.ToLower(v.GetString(KeyLogFormat))
	if format != FormatText && format != FormatJSON {
		return Config{}, fmt.Errorf("%s: unknown log format %q", KeyLogFormat, format)
	}

	paths := map[string]string{}
	for _, key := range []string{KeyDiskvPath, KeySQLitePath, KeyBlobFSRoot} {
		expanded, err := homedir.Expand(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		paths[key] = expanded
	}

	return Config{
		Storage: core.StorageConfig{
			Driver:      driver,
			DiskvPath:   paths[KeyDiskvPath],
			SQLitePath:  paths[KeySQLitePath],
			PostgresDSN: v.GetString(KeyPostgresDSN),
			Blob: blob.Config{
				Driver: blobDriver,
				FSRoot: paths[KeyBlobFSRoot],
				S3: blob.S3Config{
					Region:          v.GetString(KeyS3Region),
					Bucket:          v.GetString(KeyS3Bucket),
					Endpoint:        v.GetString(KeyS3Endpoint),
					AccessKeyID:     v.GetString(KeyS3AccessKeyID),
					SecretAccessKey: v.GetString(KeyS3SecretAccessKey),
					SessionToken:    v.GetString(KeyS3SessionToken),
					PathStyle:       v.GetBool(KeyS3PathStyle),
				},
			},
			BlobPrefix: v.GetString(KeyBlobPrefix),
		},
		HTTP: HTTP{
			Addr:         v.GetString(KeyHTTPAddr),
			BasePath:     v.GetString(KeyHTTPBasePath),
			ReadTimeout:  v.GetDuration(KeyHTTPReadTimeout),
			WriteTimeout: v.GetDuration(KeyHTTPWriteTimeout),
		},
		Quoting:        quoting,
		Log:            Log{Level: level, Format: format},
		MetricsEnabled: v.GetBool(KeyMetricsEnabled),
		File:           v.ConfigFileUsed(),
	}, nil
}

func knownDriver(d core.StorageDriver) bool {
	for _, known := range core.StorageDrivers() {
		if d == known {
			return true
		}
	}
	return false
}
