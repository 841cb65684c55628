package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "reviewit/internal/adapters/redis"
)

type view struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	var got []view
	ok, err := c.Get(ctx, "top:1:positive", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []view{{Keyword: "배송", Count: 3}}
	require.NoError(t, c.Set(ctx, "top:1:positive", want, time.Minute))
	assert.True(t, mr.Exists("reviewit:top:1:positive"))
	assert.Equal(t, time.Minute, mr.TTL("reviewit:top:1:positive"))

	ok, err = c.Get(ctx, "top:1:positive", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, "top:1:positive", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k"))
	assert.False(t, mr.Exists("reviewit:k"))
}

func TestCache_GetPropagatesServerErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	mr.SetError("ERR boom")

	var s string
	_, err := c.Get(context.Background(), "k", &s)
	assert.Error(t, err)
}
