package impl

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"
	"storefront/internal/util"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// sessionService implements the SessionUsecase interface on top of provider session handles.
type sessionService struct {
	provider    service.IdentityProvider
	lifetime    time.Duration
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
}

// SessionServiceParams holds dependencies for the session service, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Provider service.IdentityProvider
	Config   *config.Config
	Metrics  *metrics.Metrics `optional:"true"`
	Logger   *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	srv := &sessionService{
		provider:    params.Provider,
		lifetime:    7 * 24 * time.Hour,
		concurrency: 8,
		metrics:     params.Metrics,
		logger:      params.Logger,
		now:         time.Now,
	}

	if params.Config != nil && params.Config.Session != nil {
		if params.Config.Session.Lifetime > 0 {
			srv.lifetime = params.Config.Session.Lifetime
		}
		if params.Config.Session.ListConcurrency > 0 {
			srv.concurrency = params.Config.Session.ListConcurrency
		}
	}

	return srv
}

func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *sessionService) ListActiveSessions(ctx context.Context, userID, currentHandle string, client usecase.ClientInfo) ([]*entity.SessionView, error) {
	handles, err := srv.provider.GetAllSessionHandlesForUser(ctx, userID)
	if err != nil {
		srv.log(ctx).Error("Failed to list session handles", slog.String("external_id", userID), slog.Any("error", err))

		return nil, domainerrors.ErrSessionFetch.WrapMessage(err.Error())
	}

	srv.log(ctx).Debug("Fetching session details", slog.String("external_id", userID), slog.Int("handles", len(handles)))

	// Each slot is written by exactly one goroutine. Failed fetches leave their slot nil.
	views := make([]*entity.SessionView, len(handles))
	now := srv.now()

	var g errgroup.Group
	g.SetLimit(srv.concurrency)

	for i, handle := range handles {
		g.Go(func() error {
			info, err := srv.provider.GetSessionInformation(ctx, handle)
			if err != nil {
				srv.metrics.SessionFetchFailed()
				srv.log(ctx).Warn("Dropping session whose info fetch failed", slog.String("handle", handle), slog.Any("error", err))

				return nil
			}
			if info == nil || (info.UserID != "" && info.UserID != userID) {
				return nil
			}

			views[i] = srv.toView(info, currentHandle, client, now)

			return nil
		})
	}
	_ = g.Wait()

	result := make([]*entity.SessionView, 0, len(views))
	for _, view := range views {
		if view != nil {
			result = append(result, view)
		}
	}

	slices.SortStableFunc(result, func(a, b *entity.SessionView) int {
		return b.LastActive.Compare(a.LastActive)
	})

	return result, nil
}

// toView derives display metadata. lastActive comes from the payload's issued-at claim when present.
func (srv *sessionService) toView(info *entity.SessionInfo, currentHandle string, client usecase.ClientInfo, now time.Time) *entity.SessionView {
	lastActive := info.TimeCreated
	if iat, ok := payloadUnix(info.AccessTokenPayload, entity.PayloadIssuedAt); ok {
		lastActive = iat
	}

	lifetime := srv.lifetime
	if info.SessionExpiryInSeconds > 0 {
		lifetime = time.Duration(info.SessionExpiryInSeconds) * time.Second
	}
	expiresAt := info.TimeCreated.Add(lifetime)

	userAgent := payloadString(info.AccessTokenPayload, entity.PayloadUserAgent)
	device := payloadString(info.AccessTokenPayload, entity.PayloadDeviceInfo)
	if device == "" {
		device = util.DeviceInfo(nonEmpty(userAgent, client.UserAgent))
	}
	ip := payloadString(info.AccessTokenPayload, entity.PayloadIPAddress)
	if ip == "" {
		ip = nonEmpty(client.IPAddress, util.Unknown)
	}

	return &entity.SessionView{
		Handle:          info.Handle,
		UserID:          info.UserID,
		CreatedAt:       info.TimeCreated,
		LastActive:      lastActive,
		ExpiresAt:       expiresAt,
		IsExpired:       now.After(expiresAt),
		TimeUntilExpiry: max(0, expiresAt.Sub(now)),
		DeviceInfo:      device,
		IPAddress:       ip,
		UserAgent:       userAgent,
		IsCurrent:       info.Handle == currentHandle,
	}
}

func (srv *sessionService) RevokeSession(ctx context.Context, userID, targetHandle, currentHandle string) error {
	targetHandle = strings.TrimSpace(targetHandle)
	if targetHandle == "" {
		return domainerrors.ErrSessionHandleRequired
	}
	if targetHandle == currentHandle {
		return domainerrors.ErrCurrentSessionRevoke
	}

	info, err := srv.provider.GetSessionInformation(ctx, targetHandle)
	if err != nil {
		return domainerrors.ErrRevokeSession.WrapMessage(err.Error())
	}
	// Another user's handle is indistinguishable from an unknown one.
	if info == nil || info.UserID != userID {
		srv.log(ctx).Info("Revoke of unknown session treated as done", slog.String("handle", targetHandle))

		return nil
	}

	if _, err := srv.provider.RevokeSession(ctx, targetHandle); err != nil {
		srv.log(ctx).Error("Failed to revoke session", slog.String("handle", targetHandle), slog.Any("error", err))

		return domainerrors.ErrRevokeSession.WrapMessage(err.Error())
	}

	srv.log(ctx).Info("Session revoked", slog.String("external_id", userID), slog.String("handle", targetHandle))

	return nil
}

func (srv *sessionService) Logout(ctx context.Context, userID, currentHandle string) error {
	if _, err := srv.provider.RevokeSession(ctx, currentHandle); err != nil {
		srv.log(ctx).Error("Logout failed", slog.String("external_id", userID), slog.Any("error", err))

		return domainerrors.ErrLogout.WrapMessage(err.Error())
	}

	return nil
}

func (srv *sessionService) LogoutAll(ctx context.Context, userID string) error {
	revoked, err := srv.provider.RevokeAllSessionsForUser(ctx, userID)
	if err != nil {
		srv.log(ctx).Error("Logout from all devices failed", slog.String("external_id", userID), slog.Any("error", err))

		return domainerrors.ErrLogoutAll.WrapMessage(err.Error())
	}

	srv.log(ctx).Info("Logged out from all devices", slog.String("external_id", userID), slog.Int("sessions", len(revoked)))

	return nil
}

func (srv *sessionService) GetSessionStatistics(ctx context.Context, userID, currentHandle string) (*entity.SessionStatistics, error) {
	handles, err := srv.provider.GetAllSessionHandlesForUser(ctx, userID)
	if err != nil {
		return nil, domainerrors.ErrSessionFetch.WrapMessage(err.Error())
	}

	return &entity.SessionStatistics{
		TotalActiveSessions:  len(handles),
		CurrentSessionHandle: currentHandle,
		UserID:               userID,
	}, nil
}

// payloadUnix reads a unix-seconds claim. JSON round trips turn numbers into float64.
func payloadUnix(payload map[string]any, key string) (time.Time, bool) {
	var secs float64

	switch v := payload[key].(type) {
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	default:
		return time.Time{}, false
	}

	if secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, false
	}

	return time.Unix(int64(secs), 0), true
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)

	return s
}
