package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one logical repository operation. op is "<table>.<action>"
// as named by the repositories (users.create, projects.list, jobs.claim_next).
// A lookup that finds no row is recorded as not_found, not as an error.
// A nil *Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	table, action := splitDBOp(op)
	start := time.Now()
	err := fn()

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		status = "not_found"
	default:
		status = "error"
		p.DbErrorsTotal.WithLabelValues(table, action, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(table, action, status).Observe(time.Since(start).Seconds())
	return err
}

func splitDBOp(op string) (table, action string) {
	table, action, ok := strings.Cut(op, ".")
	if !ok || table == "" || action == "" {
		return "other", op
	}
	return table, action
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			// duplicate email on users.create
			return "unique_violation"
		case "23503":
			// message or project pointing at a user deleted meanwhile
			return "foreign_key_violation"
		case "23514":
			return "check_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "closed pool"):
		return "connection"
	default:
		return "unknown"
	}
}
