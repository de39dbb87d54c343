package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// observer wraps every logical DB operation in the db latency/error metrics.
type observer struct {
	prom *observability.Prom
}

func (o observer) observe(op string, fn func() error) error {
	return o.prom.ObserveDB(op, fn)
}

// whereBuilder accumulates AND-ed conditions and their positional args.
type whereBuilder struct {
	conds []string
	args  []any
}

// arg appends v and returns its placeholder.
func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

// containsAny matches the filter as a case-insensitive substring of any of the given expressions.
func (b *whereBuilder) containsAny(filter string, exprs ...string) {
	b.containsAnyOrElement(filter, nil, exprs...)
}

// containsAnyOrElement is containsAny that also matches when a single element
// of one of the text[] columns in arrays contains the filter. Elements are
// tested one by one so a filter never matches across two of them.
func (b *whereBuilder) containsAnyOrElement(filter string, arrays []string, exprs ...string) {
	if filter == "" || len(exprs)+len(arrays) == 0 {
		return
	}
	ph := b.arg(likePattern(filter))

	ors := make([]string, 0, len(exprs)+len(arrays))
	for _, e := range exprs {
		ors = append(ors, fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", e, ph))
	}
	for _, col := range arrays {
		ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS el WHERE el ILIKE %s ESCAPE '\\')", col, ph))
	}
	b.add("(" + strings.Join(ors, " OR ") + ")")
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// page appends LIMIT/OFFSET for p and returns the clause.
func (b *whereBuilder) page(p listing.Params) string {
	limit := b.arg(p.Limit)
	offset := b.arg(p.Offset())
	return fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
}

// likePattern escapes LIKE metacharacters so the filter is matched literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
