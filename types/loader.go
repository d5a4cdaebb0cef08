package types

import "context"

// Loader is the contract between the cache and whatever actually
// performs a fetch (DB, API, RPC). The store calls it on a Fetch miss;
// it has no say in retries or request composition, that belongs to the
// caller.
type Loader interface {
	Load(ctx context.Context, key string) (any, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (any, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}
