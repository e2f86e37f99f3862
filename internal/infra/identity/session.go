package identity

import (
	"context"
	"maps"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateNewSession stores a session for userID and signs its access token.
// The stored payload records its issue time so listings can tell when the session was last active.
func (c *Client) CreateNewSession(ctx context.Context, tenant, userID string, payload map[string]any) (*entity.Session, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	now := c.now()
	handle := newSessionHandle(now)

	stored := make(map[string]any, len(payload)+1)
	maps.Copy(stored, payload)
	stored[entity.PayloadIssuedAt] = now.Unix()

	row := &model.IdentitySessionModel{
		Handle:             handle,
		UserID:             userID,
		TenantID:           tenantOrDefault(tenant),
		AccessTokenPayload: datatypes.JSONMap(stored),
		CreatedAt:          now,
		ExpiresAt:          now.Add(c.sessionLifetime),
		LastRefresh:        now,
	}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrap(err, "create session")
	}

	token, expiresAt, err := c.tokens.IssueAccessToken(userID, handle, payload, now)
	if err != nil {
		return nil, errors.Wrap(err, "sign access token")
	}
	if expiresAt.After(row.ExpiresAt) {
		expiresAt = row.ExpiresAt
	}

	return &entity.Session{
		Handle:      handle,
		UserID:      userID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Payload:     stored,
	}, nil
}

// VerifySession validates accessToken and requires its session to be live.
func (c *Client) VerifySession(ctx context.Context, accessToken string) (*entity.SessionInfo, error) {
	claims, err := c.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized.WrapMessage(err.Error())
	}

	info, err := c.GetSessionInformation(ctx, claims.SessionHandle)
	if err != nil {
		return nil, err
	}
	if info == nil || info.UserID != claims.Subject {
		return nil, domainerrors.ErrUnauthorized.WrapMessage("session revoked or expired")
	}

	return info, nil
}

func (c *Client) liveSessions(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).
		Model(&model.IdentitySessionModel{}).
		Where("revoked_at IS NULL AND expires_at > ?", c.now())
}

// GetAllSessionHandlesForUser returns the live handles of userID, oldest first.
func (c *Client) GetAllSessionHandlesForUser(ctx context.Context, userID string) ([]string, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	var handles []string
	err := c.liveSessions(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("handle", &handles).Error
	if err != nil {
		return nil, errors.Wrap(err, "list session handles")
	}

	return handles, nil
}

func (c *Client) GetSessionInformation(ctx context.Context, handle string) (*entity.SessionInfo, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	var row model.IdentitySessionModel
	err := c.liveSessions(ctx).Where("handle = ?", handle).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "get session information")
	}

	return &entity.SessionInfo{
		Handle:                 row.Handle,
		UserID:                 row.UserID,
		TimeCreated:            row.CreatedAt,
		SessionExpiryInSeconds: int64(row.ExpiresAt.Sub(row.CreatedAt) / time.Second),
		AccessTokenPayload:     map[string]any(row.AccessTokenPayload),
		LastRefresh:            row.LastRefresh,
	}, nil
}

func (c *Client) RevokeSession(ctx context.Context, handle string) (bool, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return false, err
	}

	result := c.db.WithContext(ctx).
		Model(&model.IdentitySessionModel{}).
		Where("handle = ? AND revoked_at IS NULL", handle).
		Update("revoked_at", c.now())
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "revoke session")
	}

	return result.RowsAffected > 0, nil
}

// RevokeAllSessionsForUser revokes every unrevoked session of userID and returns their handles.
func (c *Client) RevokeAllSessionsForUser(ctx context.Context, userID string) ([]string, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	var revoked []model.IdentitySessionModel
	err := c.db.WithContext(ctx).
		Model(&revoked).
		Clauses(clauseReturningHandle).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", c.now()).Error
	if err != nil {
		return nil, errors.Wrap(err, "revoke all sessions")
	}

	handles := make([]string, 0, len(revoked))
	for _, row := range revoked {
		handles = append(handles, row.Handle)
	}

	return handles, nil
}
