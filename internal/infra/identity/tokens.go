package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tokenKindVerify = "verify"
	tokenKindReset  = "reset"

	tokenBytes = 32
)

// newOpaqueToken returns a url-safe random token and the hash stored in its place.
func newOpaqueToken() (token, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "generate token")
	}
	token = base64.RawURLEncoding.EncodeToString(buf)

	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func (c *Client) issueToken(ctx context.Context, kind, userID, email string, ttl time.Duration) (string, error) {
	token, hash, err := newOpaqueToken()
	if err != nil {
		return "", err
	}

	now := c.now()
	row := &model.IdentityTokenModel{
		TokenHash: hash,
		Kind:      kind,
		UserID:    userID,
		Email:     email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := c.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", errors.Wrapf(err, "store %s token", kind)
	}

	return token, nil
}

// consumeToken marks a live token as used and returns it. A second consumer gets nil.
func (c *Client) consumeToken(ctx context.Context, db *gorm.DB, kind, token string) (*model.IdentityTokenModel, error) {
	now := c.now()

	var rows []model.IdentityTokenModel
	result := db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("token_hash = ? AND kind = ? AND consumed_at IS NULL AND expires_at > ?", hashToken(token), kind, now).
		Update("consumed_at", now)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "consume %s token", kind)
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return nil, nil
	}

	return &rows[0], nil
}
