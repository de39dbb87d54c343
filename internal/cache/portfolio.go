package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/devdeck/internal/domain/user"
	"github.com/geocoder89/devdeck/internal/observability"
)

const portfolioCacheName = "portfolio"

// generationTTL outlives every portfolio entry so an expired generation can
// never resurrect an entry written under the previous one.
const generationTTL = 24 * time.Hour

// PortfolioKey is the entry key of userID's portfolio under generation gen.
func PortfolioKey(userID int64, gen string) string {
	return "portfolio:" + strconv.FormatInt(userID, 10) + ":" + gen
}

func generationKey(userID int64) string {
	return "portfolio:gen:" + strconv.FormatInt(userID, 10)
}

// PortfolioCache stores rendered public portfolios. Cache failures are
// logged and treated as misses; they never fail a request.
//
// Entries are keyed by a per-user generation that Invalidate replaces. A
// reader that missed passes the generation it saw back to Set, so a view
// loaded before an invalidation lands under a key nobody reads any more.
type PortfolioCache struct {
	store Store
	ttl   time.Duration
	prom  *observability.Prom
	log   *slog.Logger
}

func NewPortfolioCache(store Store, ttl time.Duration, prom *observability.Prom, log *slog.Logger) *PortfolioCache {
	if log == nil {
		log = slog.Default()
	}
	return &PortfolioCache{store: store, ttl: ttl, prom: prom, log: log}
}

// Get returns the cached view and the generation it was looked up under.
// The generation is empty when the cache could not be read; Set ignores it then.
func (c *PortfolioCache) Get(ctx context.Context, userID int64) (user.PortfolioView, string, bool) {
	if c == nil || c.store == nil {
		return user.PortfolioView{}, "", false
	}

	gen, err := c.generation(ctx, userID)
	if err != nil {
		c.prom.ObserveCache(portfolioCacheName, "error")
		c.log.WarnContext(ctx, "portfolio cache get failed", "user_id", userID, "err", err)
		return user.PortfolioView{}, "", false
	}

	b, ok, err := c.store.Get(ctx, PortfolioKey(userID, gen))
	if err != nil {
		c.prom.ObserveCache(portfolioCacheName, "error")
		c.log.WarnContext(ctx, "portfolio cache get failed", "user_id", userID, "err", err)
		return user.PortfolioView{}, "", false
	}
	if !ok {
		c.prom.ObserveCache(portfolioCacheName, "miss")
		return user.PortfolioView{}, gen, false
	}

	var v user.PortfolioView
	if err := json.Unmarshal(b, &v); err != nil {
		c.prom.ObserveCache(portfolioCacheName, "error")
		return user.PortfolioView{}, gen, false
	}

	c.prom.ObserveCache(portfolioCacheName, "hit")
	return v, gen, true
}

// Set stores v under the generation returned by the Get that missed.
func (c *PortfolioCache) Set(ctx context.Context, gen string, v user.PortfolioView) {
	if c == nil || c.store == nil || gen == "" {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, PortfolioKey(v.ID, gen), b, c.ttl); err != nil {
		c.log.WarnContext(ctx, "portfolio cache set failed", "user_id", v.ID, "err", err)
	}
}

// Invalidate moves every given user to a fresh generation. Entries of the
// old generation are left to expire.
func (c *PortfolioCache) Invalidate(ctx context.Context, userIDs ...int64) {
	if c == nil || c.store == nil || len(userIDs) == 0 {
		return
	}

	ttl := generationTTL
	if ttl < 2*c.ttl {
		ttl = 2 * c.ttl
	}
	for _, id := range userIDs {
		if err := c.store.Set(ctx, generationKey(id), []byte(uuid.NewString()), ttl); err != nil {
			c.log.WarnContext(ctx, "portfolio cache invalidate failed", "user_id", id, "err", err)
		}
	}
}

// generation returns the user's current generation, "0" before the first invalidation.
func (c *PortfolioCache) generation(ctx context.Context, userID int64) (string, error) {
	b, ok, err := c.store.Get(ctx, generationKey(userID))
	if err != nil {
		return "", err
	}
	if !ok || len(b) == 0 {
		return "0", nil
	}
	return string(b), nil
}
