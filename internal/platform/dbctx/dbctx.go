package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own handle when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Handle returns the transaction if set, otherwise fallback, bound to Ctx.
func (c Context) Handle(fallback *gorm.DB) *gorm.DB {
	h := c.Tx
	if h == nil {
		h = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return h.WithContext(ctx)
}
