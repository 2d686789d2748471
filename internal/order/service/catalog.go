package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	billingdomain "github.com/craftline/salesdesk/internal/billing/domain"
	"github.com/craftline/salesdesk/internal/order/domain"
	taxdomain "github.com/craftline/salesdesk/internal/tax/domain"
)

const catalogTTL = 5 * time.Minute

// catalogCache holds the billing tax catalog for a short window so every
// keystroke in the wizard does not hit the collaborator. A stale catalog
// is served when a refresh fails and an older copy exists.
type catalogCache struct {
	log     *zap.Logger
	billing billingdomain.Client

	mu        sync.Mutex
	catalog   *taxdomain.Catalog
	fetchedAt time.Time
}

func newCatalogCache(log *zap.Logger, billing billingdomain.Client) *catalogCache {
	return &catalogCache{log: log, billing: billing}
}

func (c *catalogCache) Catalog(ctx context.Context) (*taxdomain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalog != nil && time.Since(c.fetchedAt) < catalogTTL {
		return c.catalog, nil
	}

	catalog, err := c.billing.ListTaxes(ctx)
	if err != nil {
		if c.catalog != nil {
			c.log.Warn("tax catalog refresh failed, serving stale copy",
				zap.Time("fetched_at", c.fetchedAt),
				zap.Error(err),
			)
			return c.catalog, nil
		}
		return nil, domain.ErrCatalogUnavailable
	}

	c.catalog = catalog
	c.fetchedAt = time.Now()
	return c.catalog, nil
}
