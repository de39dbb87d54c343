package listing

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	TalentLimit  = 9
	MaxLimit     = 100
)

// Params is a normalized list request. OwnerID restricts results to one owner.
type Params struct {
	Page    int
	Limit   int
	Filter  string
	OwnerID *int64
}

// Parse reads raw query values. Missing or invalid page/limit fall back to
// page 1 and defaultLimit.
func Parse(page, limit, filter string, defaultLimit int) Params {
	return Params{
		Page:   parseIntDefault(page, 1),
		Limit:  parseIntDefault(limit, defaultLimit),
		Filter: strings.TrimSpace(filter),
	}.Normalize(defaultLimit)
}

func (p Params) Normalize(defaultLimit int) Params {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	// (Page-1)*Limit must stay representable
	if maxPage := math.MaxInt / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	p.Filter = strings.TrimSpace(p.Filter)
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Params) WithOwner(ownerID int64) Params {
	p.OwnerID = &ownerID
	return p
}

type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](data []T, total int, p Params) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// Map reshapes the items of a page, keeping its counters.
func Map[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Data))
	for _, v := range in.Data {
		out = append(out, fn(v))
	}
	return Page[U]{
		Data:       out,
		Total:      in.Total,
		Page:       in.Page,
		Limit:      in.Limit,
		TotalPages: in.TotalPages,
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Window returns the slice bounds of page p over n already-ordered items.
// Out-of-range pages yield an empty window.
func Window(n int, p Params) (start, end int) {
	start = p.Offset()
	if start < 0 || start > n {
		start = n
	}
	if p.Limit < 0 || p.Limit > n-start {
		return start, n
	}
	return start, start + p.Limit
}

// Contains is the "contains" match used by stores without ILIKE.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func parseIntDefault(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
