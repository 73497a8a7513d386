// Package cli builds the inventory-record command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inventoryrecord/internal/config"
	"inventoryrecord/internal/core"
	"inventoryrecord/pkg/domain"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app carries what every subcommand shares.
type app struct {
	v          *viper.Viper
	configFile string
	build      BuildInfo
}

// New returns the root command.
func New(build BuildInfo) *cobra.Command {
	a := &app{v: config.New(), build: build}
	cmd := &cobra.Command{
		Use:           "inventory-record",
		Short:         "Manage entry records from the browser or the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: .inventory-record.yaml in $INVENTORY_RECORD_CONFIG_PATH, ./ or $HOME).")
	cmd.PersistentFlags().String("driver", "", "Storage driver, one of "+driverList()+".")
	_ = a.v.BindPFlag(config.KeyStorageDriver, cmd.PersistentFlags().Lookup("driver"))

	addCommands(cmd, a)
	return cmd
}

// addCommands registers every subcommand on topLevel.
func addCommands(topLevel *cobra.Command, a *app) {
	addServe(topLevel, a)
	addList(topLevel, a)
	addExport(topLevel, a)
	addVersion(topLevel, a)
}

func driverList() string {
	names := make([]string, 0, len(core.StorageDrivers()))
	for _, d := range core.StorageDrivers() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

func (a *app) config() (config.Config, error) {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	}
	return config.Load(a.v)
}

func newLogger(w io.Writer, cfg config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openService opens the configured store behind a Service.
func openService(ctx context.Context, cfg config.Config, opts ...core.ServiceOption) (*core.Service, error) {
	store, err := core.OpenEntryStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driverName(cfg.Storage.Driver), err)
	}
	return core.NewService(store, opts...), nil
}

func driverName(d core.StorageDriver) string {
	if d == "" {
		return string(core.StorageDiskv)
	}
	return string(d)
}

// loadEntries opens the store once and lists the collection.
func (a *app) loadEntries(ctx context.Context, errOut io.Writer) (config.Config, []domain.Entry, error) {
	cfg, err := a.config()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := newLogger(errOut, cfg.Log)
	svc, err := openService(ctx, cfg, core.WithLogger(logger))
	if err != nil {
		return cfg, nil, err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn("close store", slog.Any("err", cerr))
		}
	}()
	entries, err := svc.List(ctx)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, entries, nil
}
