// Package core wraps an entry store with validation, structured logging,
// metrics and tracing, and selects the store backend from configuration.
package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"inventoryrecord/pkg/domain"
)

// Operation names reported to loggers, metrics and tracers.
const (
	OpList    = "list_entries"
	OpCreate  = "create_entry"
	OpUpdate  = "update_entry"
	OpDelete  = "delete_entry"
	OpPersist = "persist_entries"
)

// Compile-time contract assertions.
var (
	_ domain.EntryStore  = (*Service)(nil)
	_ domain.Snapshotter = (*Service)(nil)
)

// Service fronts an entry store. It satisfies the same contract so callers
// can treat it as the store itself.
type Service struct {
	store   domain.EntryStore
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger; nil discards output.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the recorder that observes every operation.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer opening a span per operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.EntryStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.EntryStore { return s.store }

// Variant reports the underlying store's variant.
func (s *Service) Variant() domain.StoreVariant { return s.store.Variant() }

// List returns the full collection.
func (s *Service) List(ctx context.Context) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := s.run(ctx, OpList, "", func(ctx context.Context) error {
		var err error
		entries, err = s.store.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Create checks that every field is filled before the store is called.
func (s *Service) Create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	if err := fields.Validate(); err != nil {
		var verr domain.ValidationError
		if errors.As(err, &verr) {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "entry rejected",
				slog.String("op", OpCreate), slog.Any("missing", verr.Missing))
		}
		return domain.Entry{}, err
	}
	var created domain.Entry
	err := s.run(ctx, OpCreate, "", func(ctx context.Context) error {
		var err error
		created, err = s.store.Create(ctx, fields)
		return err
	})
	if err != nil {
		return domain.Entry{}, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "entry created", slog.String("id", created.ID))
	return created, nil
}

// Update fully replaces the fields of id.
func (s *Service) Update(ctx context.Context, id string, fields domain.EntryFormData) error {
	return s.run(ctx, OpUpdate, id, func(ctx context.Context) error {
		return s.store.Update(ctx, id, fields)
	})
}

// Delete removes id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.run(ctx, OpDelete, id, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
}

// Persist writes the collection through when the store keeps it as a single
// snapshot. Per-document stores already persisted each change, so it is a no-op.
func (s *Service) Persist(ctx context.Context, entries []domain.Entry) error {
	snap, ok := s.store.(domain.Snapshotter)
	if !ok {
		return nil
	}
	return s.run(ctx, OpPersist, "", func(ctx context.Context) error {
		return snap.Persist(ctx, entries)
	})
}

// Close releases the store's resources when it holds any.
func (s *Service) Close() error {
	if c, ok := s.store.(domain.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) run(ctx context.Context, op, id string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.now()
	err := fn(ctx)
	elapsed := s.now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	attrs := []slog.Attr{slog.String("op", op), slog.Duration("duration", elapsed)}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	switch {
	case err == nil:
		s.logger.LogAttrs(ctx, slog.LevelDebug, "store operation", attrs...)
	case errors.Is(err, domain.ErrNotFound):
		s.logger.LogAttrs(ctx, slog.LevelWarn, "store operation", append(attrs, slog.Any("err", err))...)
	default:
		s.logger.LogAttrs(ctx, slog.LevelError, "store operation", append(attrs, slog.Any("err", err))...)
	}
	return err
}
