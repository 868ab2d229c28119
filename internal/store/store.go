package store

import (
	"context"
)

// Collection names persisted by the application. Each is an independent
// flat JSON array; there is no cross-collection integrity enforcement.
const (
	CollectionUsers     = "users"
	CollectionProducts  = "products"
	CollectionMovements = "movements"
	CollectionRequests  = "requests"
)

// Collections lists every collection the application owns, in warm-up order.
var Collections = []string{
	CollectionUsers,
	CollectionProducts,
	CollectionMovements,
	CollectionRequests,
}

// Store is the uniform persistence contract over named JSON collections.
// ReadCollection returns the raw JSON array for a collection, creating an
// empty one when it does not exist yet. WriteCollection replaces the whole
// array. Adapters perform no locking; serialization is the repository
// layer's job.
type Store interface {
	ReadCollection(ctx context.Context, name string) ([]byte, error)
	WriteCollection(ctx context.Context, name string, data []byte) error
	Ping(ctx context.Context) error
}

var emptyCollection = []byte("[]")
