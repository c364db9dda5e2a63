package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPersister struct {
	saved []Token
	err   error
}

func (p *memoryPersister) UpdateToken(token *Token) error {
	if p.err != nil {
		return p.err
	}

	p.saved = append(p.saved, *token)

	return nil
}

func TestConfigTokenManager_PersistsExchangedToken(t *testing.T) {
	t.Parallel()

	persister := &memoryPersister{}
	poster := &recordingPoster{body: `{"access_token":"access","refresh_token":"refresh","expires_in":1200}`}
	manager := NewConfigTokenManager(&OAuth2Config{ClientID: "client-id", APIKey: "api-key"}, poster, persister)

	now := time.Unix(1_400_000_000, 0)
	manager.SetClock(fixedClock(now))

	token, err := manager.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)

	require.Len(t, persister.saved, 1)
	assert.Equal(t, "access", persister.saved[0].AccessToken)
	assert.Equal(t, "refresh", persister.saved[0].RefreshToken)
	assert.Equal(t, now.Add(1200*time.Second).Unix(), persister.saved[0].ExpiresAt.Unix())

	// unchanged token is not written again
	_, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Len(t, persister.saved, 1)
}

func TestConfigTokenManager_PersistsRefreshedToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_400_000_000, 0)
	persister := &memoryPersister{}
	poster := &recordingPoster{body: `{"access_token":"fresh","expires_in":1200}`}
	manager := NewConfigTokenManager(&OAuth2Config{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		ExpiresAt:    now.Add(-time.Second),
	}, poster, persister)
	manager.SetClock(fixedClock(now))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)

	require.Len(t, persister.saved, 1)
	assert.Equal(t, "refresh", persister.saved[0].RefreshToken)

	require.NoError(t, manager.RefreshToken(context.Background()))
	assert.Len(t, persister.saved, 1, "same access token and expiry")
}

func TestConfigTokenManager_PersistFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	persister := &memoryPersister{err: errTokenEndpoint}
	poster := &recordingPoster{body: `{"access_token":"access","expires_in":1200}`}
	manager := NewConfigTokenManager(&OAuth2Config{}, poster, persister)

	_, err := manager.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "access", manager.Token().AccessToken)
}

func TestConfigTokenManager_WithoutPersister(t *testing.T) {
	t.Parallel()

	poster := &recordingPoster{body: `{"access_token":"access"}`}
	manager := NewConfigTokenManager(&OAuth2Config{}, poster, nil)

	_, err := manager.Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.ErrorIs(t, manager.persistToken(manager.Token()), ErrNoConfigPersister)
}

func TestConfigTokenManager_PersistsRotatedRefreshToken(t *testing.T) {
	t.Parallel()

	persister := &memoryPersister{}
	poster := &recordingPoster{body: `{"access_token":"access","refresh_token":"rotated"}`}
	manager := NewConfigTokenManager(&OAuth2Config{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}, poster, persister)

	require.NoError(t, manager.RefreshToken(context.Background()))

	require.Len(t, persister.saved, 1)
	assert.Equal(t, "access", persister.saved[0].AccessToken)
	assert.Equal(t, "rotated", persister.saved[0].RefreshToken)
	assert.True(t, persister.saved[0].ExpiresAt.IsZero())
}
