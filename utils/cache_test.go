package utils

import (
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedis *miniredis.Miniredis

func TestMain(m *testing.M) {
	// config.Load refuses to run without a secret.
	os.Setenv("JWT_SECRET", "test-secret")

	s, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	testRedis = s
	os.Setenv("REDIS_HOST", s.Host())
	os.Setenv("REDIS_PORT", s.Port())

	code := m.Run()
	s.Close()
	os.Exit(code)
}

func TestCacheBytesRoundTrip(t *testing.T) {
	testRedis.FlushAll()

	_, ok := CacheGetBytes("missing")
	assert.False(t, ok)

	CacheSetBytes("k", []byte("v"), time.Minute)
	b, ok := CacheGetBytes("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

func TestCacheSetJSON(t *testing.T) {
	testRedis.FlushAll()

	CacheSetJSON("j", map[string]int{"n": 7}, time.Minute)
	b, ok := CacheGetBytes("j")
	require.True(t, ok)
	assert.JSONEq(t, `{"n":7}`, string(b))
}

func TestInvalidateByPrefix(t *testing.T) {
	testRedis.FlushAll()

	CacheSetBytes("a:1", []byte("x"), time.Minute)
	CacheSetBytes("a:2", []byte("y"), time.Minute)
	CacheSetBytes("b:1", []byte("z"), time.Minute)

	InvalidateByPrefix("a:")

	_, ok := CacheGetBytes("a:1")
	assert.False(t, ok)
	_, ok = CacheGetBytes("a:2")
	assert.False(t, ok)

	b, ok := CacheGetBytes("b:1")
	require.True(t, ok)
	assert.Equal(t, []byte("z"), b)
}
