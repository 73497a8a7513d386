package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"inventoryrecord/internal/infra/persistence/local"
	"inventoryrecord/internal/infra/persistence/memory"
	"inventoryrecord/pkg/domain"
)

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func completeFields(name string) domain.EntryFormData {
	fields := domain.EntryFormData{}
	for _, f := range domain.FieldNames() {
		fields[f] = f + "-value"
	}
	fields[domain.FieldName] = name
	return fields
}

func newLocalService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Medium) {
	t.Helper()
	medium := memory.NewMedium()
	return NewService(local.NewStore(medium), opts...), medium
}

func TestServiceObservesEveryOperation(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	svc, _ := newLocalService(t, WithMetricsRecorder(metrics), WithTracer(tracer))

	created, err := svc.Create(ctx, completeFields("Ann"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := svc.Update(ctx, created.ID, completeFields("Ann B")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	for _, op := range []string{OpCreate, OpList, OpUpdate, OpDelete} {
		if !metrics.has(op, true) {
			t.Fatalf("expected success metric for %s, calls=%+v", op, metrics.calls)
		}
		if !tracer.has(op, true) {
			t.Fatalf("expected success span for %s", op)
		}
	}
	if !metrics.has(OpDelete, false) || !tracer.has(OpDelete, false) {
		t.Fatalf("expected failed delete observation")
	}
	if len(tracer.started) != len(tracer.ended) {
		t.Fatalf("every span must end: started=%v ended=%v", tracer.started, tracer.ended)
	}
}

func TestServiceCreateValidatesBeforeStore(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	svc, medium := newLocalService(t, WithMetricsRecorder(metrics))
	fields := completeFields("Ann")
	fields[domain.FieldEmail] = ""
	_, err := svc.Create(context.Background(), fields)
	var verr domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Missing) != 1 || verr.Missing[0] != domain.FieldEmail {
		t.Fatalf("expected validation error for email, got %v", err)
	}
	if loads, saves := medium.Counts(); loads != 0 || saves != 0 {
		t.Fatalf("store must not be touched, loads=%d saves=%d", loads, saves)
	}
	if len(metrics.calls) != 0 {
		t.Fatalf("validation failures are not store operations: %+v", metrics.calls)
	}
}

func TestServicePersistWritesThroughLocalStores(t *testing.T) {
	ctx := context.Background()
	svc, medium := newLocalService(t)
	entries := []domain.Entry{domain.NewEntry("1", completeFields("A"))}
	if err := svc.Persist(ctx, entries); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if !strings.Contains(string(medium.Bytes()), `"id":"1"`) {
		t.Fatalf("expected snapshot in medium, got %s", medium.Bytes())
	}
}

type remoteOnly struct{ domain.EntryStore }

func (remoteOnly) Variant() domain.StoreVariant { return domain.VariantRemote }

func TestServicePersistIsNoopForDocumentStores(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	svc := NewService(remoteOnly{}, WithMetricsRecorder(metrics))
	if err := svc.Persist(context.Background(), nil); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(metrics.calls) != 0 || svc.Variant() != domain.VariantRemote {
		t.Fatalf("unexpected persist observation: %+v", metrics.calls)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close without closer: %v", err)
	}
}

func TestServiceLogsFailuresWithCause(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	medium := memory.NewMedium()
	medium.SaveErr = errors.New("disk full")
	svc := NewService(local.NewStore(medium), WithLogger(logger))

	if _, err := svc.Create(context.Background(), completeFields("Ann")); !errors.Is(err, domain.ErrWriteFailed) {
		t.Fatalf("expected write failure, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "op="+OpCreate) || !strings.Contains(out, "disk full") {
		t.Fatalf("unexpected log output: %s", out)
	}

	buf.Reset()
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Fatalf("expected debug log for success, got %s", buf.String())
	}
}

func TestServiceClockMeasuresDuration(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	base := time.Unix(0, 0)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 5 * time.Millisecond)
	}
	svc, _ := newLocalService(t, WithMetricsRecorder(metrics), WithClock(clock))
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if metrics.calls[0].duration != 5*time.Millisecond {
		t.Fatalf("expected 5ms, got %s", metrics.calls[0].duration)
	}
}

func TestServiceNilOptionsKeepDefaults(t *testing.T) {
	svc := NewService(local.NewStore(memory.NewMedium()), WithLogger(nil), WithMetricsRecorder(nil), WithTracer(nil), WithClock(nil))
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("list with defaults: %v", err)
	}
	if svc.Store() == nil {
		t.Fatalf("expected store accessor")
	}
}
