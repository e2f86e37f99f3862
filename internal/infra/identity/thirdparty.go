package identity

import (
	"context"
	"log/slog"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errHooksNotRegistered = errors.New("identity hooks not registered")

// ThirdPartySignInUp signs in the identity linked to claims, creating it on first use,
// then runs the matching registered hook.
func (c *Client) ThirdPartySignInUp(ctx context.Context, tenant string, claims *service.OAuthUser) (*service.ThirdPartyResult, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if claims == nil || claims.ID == "" || claims.Provider == "" {
		return nil, errors.New("third-party claims missing subject or provider")
	}
	tenant = tenantOrDefault(tenant)
	email := entity.NormalizeEmail(claims.Email)

	identityID, created, err := c.upsertThirdParty(ctx, tenant, email, claims)
	if err != nil {
		return nil, err
	}

	user, err := c.loadUser(ctx, c.db, identityID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Errorf("third-party identity %s vanished after sign-in", identityID)
	}

	result := &service.ThirdPartyResult{Status: service.StatusOK, CreatedNewUser: created, User: user}
	hooks := c.registeredHooks()

	if created {
		if hooks.SignUp == nil {
			return result, errHooksNotRegistered
		}
		local, err := hooks.SignUp.AfterSignUp(ctx, user, service.SignUpForm{
			Email:     email,
			FirstName: claims.GivenName,
			LastName:  claims.FamilyName,
		})
		result.LocalUser = local

		return result, err
	}

	if hooks.SignIn != nil {
		if err := hooks.SignIn.AfterSignIn(ctx, user); err != nil {
			c.logger.WarnContext(ctx, "Sign-in hook failed",
				slog.String("external_id", user.ID),
				slog.Any("error", err))
		}
	}

	return result, nil
}

// upsertThirdParty returns the identity linked to claims, creating it when absent.
func (c *Client) upsertThirdParty(ctx context.Context, tenant, email string, claims *service.OAuthUser) (string, bool, error) {
	var identityID string
	created := false

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var method model.IdentityLoginMethodModel
		err := tx.Where("recipe_id = ? AND third_party_id = ? AND third_party_user_id = ?",
			entity.RecipeThirdParty, claims.Provider, claims.ID).
			First(&method).Error
		switch {
		case err == nil:
			identityID = method.UserID
			updates := map[string]any{"updated_at": c.now()}
			if email != "" && email != method.Email {
				updates["email"] = email
				updates["verified"] = claims.EmailVerified
			} else if claims.EmailVerified && !method.Verified {
				updates["verified"] = true
			}

			return tx.Model(&method).Updates(updates).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := c.now()
		userM := &model.IdentityUserModel{
			ID:         uuid.NewString(),
			TenantID:   tenant,
			TimeJoined: now,
			LoginMethods: []model.IdentityLoginMethodModel{{
				TenantID:         tenant,
				RecipeID:         entity.RecipeThirdParty,
				Email:            email,
				ThirdPartyID:     claims.Provider,
				ThirdPartyUserID: claims.ID,
				Verified:         claims.EmailVerified,
				CreatedAt:        now,
				UpdatedAt:        now,
			}},
		}
		if err := tx.Create(userM).Error; err != nil {
			return err
		}
		identityID = userM.ID
		created = true

		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "third-party sign in/up")
	}

	if created {
		c.logger.InfoContext(ctx, "Identity created",
			slog.String("external_id", identityID),
			slog.String("recipe", entity.RecipeThirdParty),
			slog.String("provider", claims.Provider))
	}

	return identityID, created, nil
}
