package querycache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querycache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/types"
)

func TestContextRoundTrip(t *testing.T) {
	s := querycache.NewStore(nil, nil, nil)
	defer s.Close()

	ctx := querycache.NewContext(context.Background(), s)

	got, ok := querycache.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Same(t, s, querycache.MustFromContext(ctx))
}

func TestFromContextWithoutStore(t *testing.T) {
	_, ok := querycache.FromContext(context.Background())
	assert.False(t, ok)
}

func TestMustFromContextFailsFast(t *testing.T) {
	assert.Panics(t, func() {
		querycache.MustFromContext(context.Background())
	})
}

func TestTwoStoresCoexist(t *testing.T) {
	a := querycache.NewStore(nil, nil, nil)
	defer a.Close()
	b := querycache.NewStore(nil, nil, nil)
	defer b.Close()

	a.SetValue("k", "from-a", 0) // zero retention: gone immediately
	b.SetValue("k", "from-b", types.RetentionForever)

	assert.False(t, a.Has("k"))
	assert.True(t, b.Has("k"))
}
