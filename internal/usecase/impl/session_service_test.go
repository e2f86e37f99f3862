package impl

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/infra/metrics"
	"storefront/internal/mocks"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSessionServiceForTest(provider *mocks.IdentityProvider, m *metrics.Metrics) *sessionService {
	srv := NewSessionService(SessionServiceParams{
		Provider: provider,
		Config:   newTestConfig(),
		Metrics:  m,
		Logger:   newDiscardLogger(),
	}).(*sessionService)
	srv.now = func() time.Time { return fixedNow }

	return srv
}

func sessionInfo(handle, userID string, created time.Time, payload map[string]any) *entity.SessionInfo {
	return &entity.SessionInfo{
		Handle:             handle,
		UserID:             userID,
		TimeCreated:        created,
		AccessTokenPayload: payload,
	}
}

func TestSessionService_ListActiveSessions(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	m := metrics.New()
	srv := newSessionServiceForTest(provider, m)

	const userID = "ext-1"
	created := fixedNow.Add(-48 * time.Hour)

	provider.On("GetAllSessionHandlesForUser", ctx, userID).Return([]string{"h-old", "h-broken", "h-new", "h-gone"}, nil)
	provider.On("GetSessionInformation", ctx, "h-old").Return(sessionInfo("h-old", userID, created, map[string]any{
		entity.PayloadIssuedAt:   float64(fixedNow.Add(-24 * time.Hour).Unix()),
		entity.PayloadDeviceInfo: "Chrome Browser",
		entity.PayloadIPAddress:  "10.0.0.1",
	}), nil)
	provider.On("GetSessionInformation", ctx, "h-broken").Return(nil, errors.New("timeout"))
	provider.On("GetSessionInformation", ctx, "h-new").Return(sessionInfo("h-new", userID, created, map[string]any{
		entity.PayloadIssuedAt: float64(fixedNow.Add(-time.Hour).Unix()),
	}), nil)
	provider.On("GetSessionInformation", ctx, "h-gone").Return(nil, nil)

	views, err := srv.ListActiveSessions(ctx, userID, "h-old", usecase.ClientInfo{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0",
		IPAddress: "192.0.2.7",
	})

	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "h-new", views[0].Handle)
	assert.False(t, views[0].IsCurrent)
	assert.Equal(t, "192.0.2.7", views[0].IPAddress)
	assert.NotEqual(t, "", views[0].DeviceInfo)

	assert.Equal(t, "h-old", views[1].Handle)
	assert.True(t, views[1].IsCurrent)
	assert.Equal(t, "Chrome Browser", views[1].DeviceInfo)
	assert.Equal(t, "10.0.0.1", views[1].IPAddress)
	assert.Equal(t, created.Add(7*24*time.Hour), views[1].ExpiresAt)
	assert.False(t, views[1].IsExpired)

	assert.Equal(t, float64(1), counterFor(t, m, "storefront_session_info_fetch_failures_total"))
}

// counterFor returns the single-series collector value by gathering the registry.
func counterFor(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) == 1 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}

	return 0
}

func TestSessionService_ListActiveSessions_UsesProviderExpiry(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	info := sessionInfo("h1", "ext-1", fixedNow.Add(-2*time.Hour), nil)
	info.SessionExpiryInSeconds = 3600

	provider.On("GetAllSessionHandlesForUser", ctx, "ext-1").Return([]string{"h1"}, nil)
	provider.On("GetSessionInformation", ctx, "h1").Return(info, nil)

	views, err := srv.ListActiveSessions(ctx, "ext-1", "", usecase.ClientInfo{})

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsExpired)
	assert.Zero(t, views[0].TimeUntilExpiry)
	assert.Equal(t, info.TimeCreated, views[0].LastActive)
}

func TestSessionService_ListActiveSessions_SkipsForeignHandles(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	provider.On("GetAllSessionHandlesForUser", ctx, "ext-1").Return([]string{"mine", "theirs"}, nil)
	provider.On("GetSessionInformation", ctx, "mine").Return(sessionInfo("mine", "ext-1", fixedNow, nil), nil)
	provider.On("GetSessionInformation", ctx, "theirs").Return(sessionInfo("theirs", "ext-2", fixedNow, nil), nil)

	views, err := srv.ListActiveSessions(ctx, "ext-1", "mine", usecase.ClientInfo{})

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "mine", views[0].Handle)
}

func TestSessionService_ListActiveSessions_HandleListFailure(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	provider.On("GetAllSessionHandlesForUser", ctx, "ext-1").Return(nil, errors.New("down"))

	_, err := srv.ListActiveSessions(ctx, "ext-1", "", usecase.ClientInfo{})

	assert.ErrorIs(t, err, domainerrors.ErrSessionFetch)
}

func TestSessionService_RevokeSession(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects the current session without calling the provider", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		err := srv.RevokeSession(ctx, "ext-1", "h-current", "h-current")

		assert.ErrorIs(t, err, domainerrors.ErrCurrentSessionRevoke)
		assert.Equal(t, 400, domainerrors.ErrCurrentSessionRevoke.HTTPCode())
		assert.Empty(t, provider.Calls)
	})

	t.Run("requires a handle", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		assert.ErrorIs(t, srv.RevokeSession(ctx, "ext-1", "  ", "h-current"), domainerrors.ErrSessionHandleRequired)
		assert.Empty(t, provider.Calls)
	})

	t.Run("revokes an owned session", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		provider.On("GetSessionInformation", ctx, "h-other").Return(sessionInfo("h-other", "ext-1", fixedNow, nil), nil)
		provider.On("RevokeSession", ctx, "h-other").Return(true, nil)

		require.NoError(t, srv.RevokeSession(ctx, "ext-1", "h-other", "h-current"))
		provider.AssertExpectations(t)
	})

	t.Run("unknown handle is a no-op", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		provider.On("GetSessionInformation", ctx, "h-unknown").Return(nil, nil)

		require.NoError(t, srv.RevokeSession(ctx, "ext-1", "h-unknown", "h-current"))
		provider.AssertNotCalled(t, "RevokeSession", mock.Anything, mock.Anything)
	})

	t.Run("never revokes another user's session", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		provider.On("GetSessionInformation", ctx, "h-foreign").Return(sessionInfo("h-foreign", "ext-2", fixedNow, nil), nil)

		require.NoError(t, srv.RevokeSession(ctx, "ext-1", "h-foreign", "h-current"))
		provider.AssertNotCalled(t, "RevokeSession", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := &mocks.IdentityProvider{}
		srv := newSessionServiceForTest(provider, nil)

		provider.On("GetSessionInformation", ctx, "h-other").Return(sessionInfo("h-other", "ext-1", fixedNow, nil), nil)
		provider.On("RevokeSession", ctx, "h-other").Return(false, errors.New("down"))

		assert.ErrorIs(t, srv.RevokeSession(ctx, "ext-1", "h-other", "h-current"), domainerrors.ErrRevokeSession)
	})
}

func TestSessionService_Logout(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	provider.On("RevokeSession", ctx, "h-ok").Return(true, nil)
	provider.On("RevokeSession", ctx, "h-bad").Return(false, errors.New("down"))

	assert.NoError(t, srv.Logout(ctx, "ext-1", "h-ok"))
	assert.ErrorIs(t, srv.Logout(ctx, "ext-1", "h-bad"), domainerrors.ErrLogout)
}

func TestSessionService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	provider.On("RevokeAllSessionsForUser", ctx, "ext-1").Return([]string{"a", "b"}, nil)
	provider.On("RevokeAllSessionsForUser", ctx, "ext-2").Return(nil, errors.New("down"))

	assert.NoError(t, srv.LogoutAll(ctx, "ext-1"))
	assert.ErrorIs(t, srv.LogoutAll(ctx, "ext-2"), domainerrors.ErrLogoutAll)
}

func TestSessionService_GetSessionStatistics(t *testing.T) {
	ctx := context.Background()
	provider := &mocks.IdentityProvider{}
	srv := newSessionServiceForTest(provider, nil)

	provider.On("GetAllSessionHandlesForUser", ctx, "ext-1").Return([]string{"a", "b", "c"}, nil)

	stats, err := srv.GetSessionStatistics(ctx, "ext-1", "b")

	require.NoError(t, err)
	assert.Equal(t, &entity.SessionStatistics{TotalActiveSessions: 3, CurrentSessionHandle: "b", UserID: "ext-1"}, stats)
}

func TestPayloadUnix(t *testing.T) {
	ts := fixedNow.Unix()

	for _, v := range []any{float64(ts), ts, int(ts)} {
		got, ok := payloadUnix(map[string]any{"iat": v}, "iat")
		assert.True(t, ok)
		assert.Equal(t, ts, got.Unix())
	}

	_, ok := payloadUnix(map[string]any{"iat": "yesterday"}, "iat")
	assert.False(t, ok)
	_, ok = payloadUnix(nil, "iat")
	assert.False(t, ok)
}
