package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"inventoryrecord/internal/adapters/web"
	"inventoryrecord/internal/config"
	"inventoryrecord/internal/controller"
	"inventoryrecord/internal/core"
)

// shutdownTimeout bounds graceful shutdown after a signal.
const shutdownTimeout = 10 * time.Second

func addServe(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application.",
		Example: `
inventory-record serve
inventory-record serve --addr 127.0.0.1:9000 --driver sqlite
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, cmd.ErrOrStderr(), nil)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from http.addr).")
	_ = a.v.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	topLevel.AddCommand(cmd)
}

// serve runs the web application until ctx is done. When ready is non-nil
// it receives the bound address once the listener is open.
func serve(ctx context.Context, cfg config.Config, errOut io.Writer, ready chan<- string) error {
	logger := newLogger(errOut, cfg.Log)

	opts := []core.ServiceOption{core.WithLogger(logger)}
	var muxOpts web.MuxOptions
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		promRecorder, err := core.NewPrometheusRecorder(reg)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithMetricsRecorder(core.MultiRecorder{
			core.NewExpvarMetricsRecorder(""),
			promRecorder,
		}))
		muxOpts = web.MuxOptions{Gatherer: reg, Expvar: true}
	}
	if cfg.Log.Level <= slog.LevelDebug {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(errOut)))
	}

	svc, err := openService(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Warn("close store", slog.Any("err", cerr))
		}
	}()

	ctrl := controller.New(svc, controller.WithLogger(logger))
	if err := ctrl.Load(ctx); err != nil {
		logger.Warn("initial load failed; serving an empty collection", slog.Any("err", err))
	}
	handler := web.NewHandler(ctrl,
		web.WithBasePath(cfg.HTTP.BasePath),
		web.WithQuoting(cfg.Quoting),
		web.WithLogger(logger),
	)

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           web.NewMux(handler, muxOpts),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("serving",
		slog.String("addr", ln.Addr().String()),
		slog.String("base_path", handler.BasePath()),
		slog.String("driver", driverName(cfg.Storage.Driver)),
		slog.String("variant", string(svc.Variant())),
	)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
