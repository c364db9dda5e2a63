package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_ValidAt(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_400_000_000, 0)

	tests := []struct {
		name     string
		token    *Token
		expected bool
	}{
		{
			name:     "nil token",
			token:    nil,
			expected: false,
		},
		{
			name:     "empty access token",
			token:    &Token{RefreshToken: "refresh-only"},
			expected: false,
		},
		{
			name:     "no expiry recorded",
			token:    &Token{AccessToken: "sso-token"},
			expected: true,
		},
		{
			name:     "expires in an hour",
			token:    &Token{AccessToken: "sso-token", ExpiresAt: now.Add(time.Hour)},
			expected: true,
		},
		{
			name:     "expired",
			token:    &Token{AccessToken: "sso-token", ExpiresAt: now.Add(-time.Minute)},
			expected: false,
		},
		{
			name:     "inside expiration buffer",
			token:    &Token{AccessToken: "sso-token", ExpiresAt: now.Add(15 * time.Second)},
			expected: false,
		},
		{
			name:     "just outside expiration buffer",
			token:    &Token{AccessToken: "sso-token", ExpiresAt: now.Add(45 * time.Second)},
			expected: true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.validAt(now))
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	t.Run("new store is empty", testNewStoreEmpty)
	t.Run("get returns a copy", testStoreReturnsCopy)
	t.Run("set nil clears token", testClearToken)
	t.Run("concurrent access", testConcurrentTokenAccess)
}

func testNewStoreEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewTokenStore().Get())
}

func testStoreReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewTokenStore()
	token := &Token{AccessToken: "first", RefreshToken: "refresh"}

	store.Set(token)
	token.AccessToken = "mutated"

	retrieved := store.Get()
	require.NotNil(t, retrieved)
	assert.Equal(t, "first", retrieved.AccessToken)

	retrieved.AccessToken = "mutated again"
	assert.Equal(t, "first", store.Get().AccessToken)
}

func testClearToken(t *testing.T) {
	t.Parallel()

	store := NewTokenStore()
	store.Set(&Token{AccessToken: "sso-token"})
	require.NotNil(t, store.Get())

	store.Set(nil)
	assert.Nil(t, store.Get())
}

func testConcurrentTokenAccess(t *testing.T) {
	t.Parallel()

	store := NewTokenStore()

	var wg sync.WaitGroup

	for _, name := range []string{"token-1", "token-2"} {
		name := name

		wg.Add(2)

		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				store.Set(&Token{AccessToken: name})
			}
		}()

		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				_ = store.Get()
			}
		}()
	}

	wg.Wait()

	final := store.Get()
	require.NotNil(t, final)
	assert.Contains(t, []string{"token-1", "token-2"}, final.AccessToken)
}
