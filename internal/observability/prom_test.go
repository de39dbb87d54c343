package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinHandleMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/7", nil))
	}

	got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/projects/:id", "204"))
	if got != 3 {
		t.Fatalf("requests_total=%v, want 3", got)
	}
}

func TestObserveDB_ClassifiesErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get_by_id", func() error { return nil })
	err := p.ObserveDB("users.get_by_id", func() error { return context.DeadlineExceeded })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error must be passed through, got %v", err)
	}
	_ = p.ObserveDB("messages.create", func() error { return &pgconn.PgError{Code: "23503"} })

	tests := []struct {
		table, op, class string
	}{
		{"users", "get_by_id", "timeout"},
		{"messages", "create", "foreign_key_violation"},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues(tt.table, tt.op, tt.class)); got != 1 {
			t.Fatalf("errors_total{%s,%s,%s}=%v, want 1", tt.table, tt.op, tt.class, got)
		}
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("projects.get_by_id", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("error must be passed through, got %v", err)
	}

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("a missing row must not count as a db error, series=%d", n)
	}
	if n := testutil.CollectAndCount(p.DbQueryDuration); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestObserveDB_NilPromRunsFn(t *testing.T) {
	var p *Prom
	ran := false
	if err := p.ObserveDB("users.create", func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("nil prom must still run the operation")
	}
}

func TestNilProm_IsNoop(t *testing.T) {
	var p *Prom
	p.ObserveCache("portfolio", "hit")
	p.ObserveJob("message.notify", "done", time.Second)
}

func TestJobMetrics_SnapshotPerType(t *testing.T) {
	m := NewJobMetrics()
	m.IncClaimed("message.notify")
	m.IncDone("message.notify")
	m.ObserveDuration("message.notify", 2*time.Second)
	m.ObserveDuration("message.notify", 4*time.Second)

	m.IncClaimed("other")
	m.IncFailed("other")
	m.ObserveDuration("other", 6*time.Second)

	s := m.Snapshot()
	if s.Claimed != 2 || s.Done != 1 || s.Failed != 1 || s.DeadLettered != 1 || s.DurationCount != 3 {
		t.Fatalf("unexpected totals %+v", s.JobCounts)
	}
	if s.AverageDuration != 4*time.Second || s.MaxDuration != 6*time.Second {
		t.Fatalf("unexpected total durations %+v", s.JobCounts)
	}

	notify := s.ByType["message.notify"]
	if notify.Claimed != 1 || notify.Done != 1 || notify.Failed != 0 {
		t.Fatalf("unexpected message.notify counts %+v", notify)
	}
	if notify.AverageDuration != 3*time.Second || notify.MaxDuration != 4*time.Second {
		t.Fatalf("unexpected message.notify durations %+v", notify)
	}
}
