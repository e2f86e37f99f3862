package identity

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// CreateEmailVerificationToken issues a verification token for email, or the identity's primary email when empty.
func (c *Client) CreateEmailVerificationToken(ctx context.Context, _, identityRef, email string) (*service.VerificationTokenResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	user, err := c.loadUser(ctx, c.db, identityRef)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &service.VerificationTokenResult{Status: service.StatusUnknownUser}, nil
	}

	email = entity.NormalizeEmail(email)
	if email == "" {
		email = user.Email
	}
	if user.IsEmailVerified(email) {
		return &service.VerificationTokenResult{Status: service.StatusEmailAlreadyVerified}, nil
	}

	token, err := c.issueToken(ctx, tokenKindVerify, user.ID, email, c.verifyTTL)
	if err != nil {
		return nil, err
	}

	return &service.VerificationTokenResult{Status: service.StatusOK, Token: token}, nil
}

// VerifyEmailUsingToken consumes a verification token, marks the matching login methods verified
// and runs the EmailVerification hook. Reusing a token reports StatusInvalidToken.
// A hook failure is returned alongside the OK result: the token is spent either way.
func (c *Client) VerifyEmailUsingToken(ctx context.Context, _, token string) (*service.VerifyEmailResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	result := &service.VerifyEmailResult{Status: service.StatusInvalidToken}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := c.consumeToken(ctx, tx, tokenKindVerify, token)
		if err != nil || consumed == nil {
			return err
		}

		err = tx.Model(&model.IdentityLoginMethodModel{}).
			Where("user_id = ? AND email = ?", consumed.UserID, consumed.Email).
			Updates(map[string]any{"verified": true, "updated_at": c.now()}).Error
		if err != nil {
			return errors.Wrap(err, "mark email verified")
		}

		result.Status = service.StatusOK
		result.UserID = consumed.UserID
		result.Email = consumed.Email

		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Status != service.StatusOK {
		return result, nil
	}

	hooks := c.registeredHooks()
	if hooks.EmailVerification == nil {
		return result, errHooksNotRegistered
	}
	local, err := hooks.EmailVerification.AfterEmailVerified(ctx, result)
	result.LocalUser = local

	return result, err
}

// IsEmailVerified reports whether identityRef has a verified login method for email.
func (c *Client) IsEmailVerified(ctx context.Context, identityRef, email string) (bool, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return false, err
	}

	var count int64
	err := c.db.WithContext(ctx).
		Model(&model.IdentityLoginMethodModel{}).
		Where("user_id = ? AND email = ? AND verified = ?", identityRef, entity.NormalizeEmail(email), true).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check email verification")
	}

	return count > 0, nil
}
