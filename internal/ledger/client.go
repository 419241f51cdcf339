package ledger

import (
	"context"

	"crowdcache/internal/models"
)

// Client reads project records from the authoritative ledger.
type Client interface {
	// FetchPage returns up to limit raw records starting at fromIndex,
	// newest-first as the contract pages them (index 0 is the most recently
	// created record). An empty page means there are no records beyond
	// fromIndex; a short page means the oldest records were reached.
	FetchPage(ctx context.Context, fromIndex, limit uint64) ([]models.RawProject, error)
}
