package identity

import (
	"context"
	"log/slog"
	"net/url"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (c *Client) findPasswordMethod(ctx context.Context, db *gorm.DB, query string, args ...any) (*model.IdentityLoginMethodModel, error) {
	var method model.IdentityLoginMethodModel
	err := db.WithContext(ctx).
		Where("recipe_id = ?", entity.RecipeEmailPassword).
		Where(query, args...).
		First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "find password login method")
	}

	return &method, nil
}

// SignUp creates an identity with an email/password login method.
func (c *Client) SignUp(ctx context.Context, tenant, email, password string) (*service.SignUpResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	tenant = tenantOrDefault(tenant)
	email = entity.NormalizeEmail(email)

	if c.hasher.ValidatePasswordStrength(password) != nil {
		return &service.SignUpResult{Status: service.StatusPasswordPolicyViolated}, nil
	}

	existing, err := c.findPasswordMethod(ctx, c.db, "tenant_id = ? AND email = ?", tenant, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &service.SignUpResult{Status: service.StatusEmailAlreadyExists}, nil
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := c.now()
	userM := &model.IdentityUserModel{
		ID:         uuid.NewString(),
		TenantID:   tenant,
		TimeJoined: now,
		LoginMethods: []model.IdentityLoginMethodModel{{
			TenantID:     tenant,
			RecipeID:     entity.RecipeEmailPassword,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}},
	}

	// identity row and login method land together or not at all
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(userM).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return &service.SignUpResult{Status: service.StatusEmailAlreadyExists}, nil
		}

		return nil, errors.Wrap(err, "create identity user")
	}

	c.logger.InfoContext(ctx, "Identity created",
		slog.String("external_id", userM.ID),
		slog.String("recipe", entity.RecipeEmailPassword))

	return &service.SignUpResult{Status: service.StatusOK, User: toIdentityUser(userM)}, nil
}

// SignIn checks email/password credentials.
func (c *Client) SignIn(ctx context.Context, tenant, email, password string) (*service.SignInResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	method, err := c.findPasswordMethod(ctx, c.db, "tenant_id = ? AND email = ?", tenantOrDefault(tenant), entity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if method == nil || !c.hasher.Check(password, method.PasswordHash) {
		return &service.SignInResult{Status: service.StatusWrongCredentials}, nil
	}

	user, err := c.loadUser(ctx, c.db, method.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &service.SignInResult{Status: service.StatusWrongCredentials}, nil
	}

	return &service.SignInResult{Status: service.StatusOK, User: user}, nil
}

// SendResetPasswordEmail issues a reset token and hands the link to the notification sender.
// Dispatch failures are logged; the token stays valid either way.
func (c *Client) SendResetPasswordEmail(ctx context.Context, tenant, email string) (service.ProviderStatus, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return "", err
	}
	email = entity.NormalizeEmail(email)

	method, err := c.findPasswordMethod(ctx, c.db, "tenant_id = ? AND email = ?", tenantOrDefault(tenant), email)
	if err != nil {
		return "", err
	}
	if method == nil {
		return service.StatusUnknownUser, nil
	}

	token, err := c.issueToken(ctx, tokenKindReset, method.UserID, email, c.resetTTL)
	if err != nil {
		return "", err
	}

	link := c.frontendLink(c.frontend.ResetPasswordPath, url.Values{"token": {token}})
	if c.sender != nil {
		if err := c.sender.SendPasswordResetEmail(ctx, email, link); err != nil {
			c.logger.WarnContext(ctx, "Password reset email dispatch failed",
				slog.String("external_id", method.UserID),
				slog.Any("error", err))
		}
	}

	return service.StatusOK, nil
}

// ResetPasswordUsingToken consumes a reset token, replaces the password and runs the PasswordReset hook.
// A policy violation leaves the token unconsumed so the user can retry with a stronger password.
func (c *Client) ResetPasswordUsingToken(ctx context.Context, tenant, token, newPassword string) (*service.ResetPasswordResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	if c.hasher.ValidatePasswordStrength(newPassword) != nil {
		return &service.ResetPasswordResult{Status: service.StatusPasswordPolicyViolated}, nil
	}
	hash, err := c.hasher.Hash(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	result := &service.ResetPasswordResult{Status: service.StatusInvalidToken}
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := c.consumeToken(ctx, tx, tokenKindReset, token)
		if err != nil || consumed == nil {
			return err
		}

		updated := tx.Model(&model.IdentityLoginMethodModel{}).
			Where("user_id = ? AND recipe_id = ? AND tenant_id = ?", consumed.UserID, entity.RecipeEmailPassword, tenantOrDefault(tenant)).
			Updates(map[string]any{"password_hash": hash, "updated_at": c.now()})
		if updated.Error != nil {
			return errors.Wrap(updated.Error, "update password")
		}
		if updated.RowsAffected == 0 {
			result.Status = service.StatusUnknownUser

			return nil
		}

		result.Status = service.StatusOK
		result.UserID = consumed.UserID

		return nil
	})
	if err != nil {
		return nil, err
	}

	if hook := c.registeredHooks().PasswordReset; hook != nil && result.Status == service.StatusOK {
		if err := hook.AfterPasswordChanged(ctx, result.UserID); err != nil {
			c.logger.ErrorContext(ctx, "Password reset not recorded locally",
				slog.String("external_id", result.UserID),
				slog.Any("error", err))
		}
	}

	return result, nil
}

// UpdateEmailOrPassword changes the email/password login method of identityRef.
// A new email must be verified again.
func (c *Client) UpdateEmailOrPassword(ctx context.Context, identityRef string, email, password *string) (service.ProviderStatus, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return "", err
	}

	method, err := c.findPasswordMethod(ctx, c.db, "user_id = ?", identityRef)
	if err != nil {
		return "", err
	}
	if method == nil {
		return service.StatusUnknownUser, nil
	}

	updates := map[string]any{"updated_at": c.now()}
	if password != nil {
		if c.hasher.ValidatePasswordStrength(*password) != nil {
			return service.StatusPasswordPolicyViolated, nil
		}
		hash, err := c.hasher.Hash(*password)
		if err != nil {
			return "", errors.Wrap(err, "hash password")
		}
		updates["password_hash"] = hash
	}
	if email != nil {
		normalized := entity.NormalizeEmail(*email)
		if normalized != method.Email {
			updates["email"] = normalized
			updates["verified"] = false
		}
	}

	if err := c.db.WithContext(ctx).Model(method).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return service.StatusEmailAlreadyExists, nil
		}

		return "", errors.Wrap(err, "update login method")
	}

	return service.StatusOK, nil
}

func (c *Client) frontendLink(path string, query url.Values) string {
	return c.frontend.BaseURL + path + "?" + query.Encode()
}
