package querycache

import "context"

// The store is never ambient: there is no package-level singleton.
// Code that wants "the" cache receives it explicitly, either as a
// parameter or through a context established here. Multiple stores
// coexist freely (tests, multi-tenant embedding).

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store carried by ctx, if any.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	return s, ok
}

// MustFromContext returns the store carried by ctx and panics if there
// is none. Operating on a cache without first establishing one is a
// programmer error, so it fails fast instead of degrading silently.
func MustFromContext(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok {
		panic("querycache: no store in context; wrap it with querycache.NewContext first")
	}
	return s
}
