package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketTagger/internal/infrastructure/cache"
)

func TestInMemoryPageCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewInMemoryPageCache()

	_, ok := c.Get(ctx, "http://example.com")
	assert.False(t, ok)

	body := []byte("<html>hello</html>")
	require.NoError(t, c.Set(ctx, "http://example.com", body))
	body[0] = 'X'

	got, ok := c.Get(ctx, " http://example.com ")
	require.True(t, ok)
	assert.Equal(t, "<html>hello</html>", string(got))
}

func TestKeyIsStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cache.Key("http://a"), cache.Key("http://a"))
	assert.NotEqual(t, cache.Key("http://a"), cache.Key("http://b"))
	assert.Len(t, cache.Key("http://a"), 64)
}
