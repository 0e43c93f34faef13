package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string  `json:"title"`
	Value float64 `json:"value"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var got []payload
	found, err := c.Get(ctx, "dashboard:2026-01", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "dashboard:2026-01", []payload{{Title: "Total sales", Value: 10.5}}, time.Minute))

	found, err = c.Get(ctx, "dashboard:2026-01", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []payload{{Title: "Total sales", Value: 10.5}}, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	now = now.Add(2 * time.Minute)

	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.Set(ctx, "dashboard:2026-01", 1, 0))
	require.NoError(t, c.Set(ctx, "dashboard:2026-02", 2, 0))
	require.NoError(t, c.Set(ctx, "other", 3, 0))

	require.NoError(t, c.DeletePrefix(ctx, "dashboard:"))

	var v int
	found, _ := c.Get(ctx, "dashboard:2026-02", &v)
	assert.False(t, found)
	found, _ = c.Get(ctx, "other", &v)
	assert.True(t, found)
}
