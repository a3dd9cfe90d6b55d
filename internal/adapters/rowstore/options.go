package rowstore

import (
	"sync"
	"time"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

// DefaultTimeout bounds every remote call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithColumns sets the header mapping.
func WithColumns(cols ticket.Columns) Option {
	return func(c *Client) {
		c.columns = cols
	}
}

// WithTimestampLayout sets how created/updated times are written and parsed.
func WithTimestampLayout(layout string) Option {
	return func(c *Client) {
		if layout != "" {
			c.layout = layout
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeaderLock shares the lock that guards writing the header row of an
// empty sheet. Clients over the same grid should share one.
func WithHeaderLock(mu *sync.Mutex) Option {
	return func(c *Client) {
		if mu != nil {
			c.initMu = mu
		}
	}
}
