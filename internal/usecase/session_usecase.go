package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// SessionUsecase enumerates and revokes the provider sessions of one user.
// userID is always the identity provider user id.
type SessionUsecase interface {
	// ListActiveSessions fetches every handle's info concurrently, drops the ones that fail,
	// and returns the rest sorted by last activity, newest first.
	ListActiveSessions(ctx context.Context, userID, currentHandle string, client ClientInfo) ([]*entity.SessionView, error)
	// RevokeSession refuses the caller's own handle. Unknown handles succeed.
	RevokeSession(ctx context.Context, userID, targetHandle, currentHandle string) error
	Logout(ctx context.Context, userID, currentHandle string) error
	LogoutAll(ctx context.Context, userID string) error
	GetSessionStatistics(ctx context.Context, userID, currentHandle string) (*entity.SessionStatistics, error)
}
