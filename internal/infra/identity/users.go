package identity

import (
	"context"
	"log/slog"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var clauseReturningHandle = clause.Returning{Columns: []clause.Column{{Name: "handle"}}}

const maxListLimit = 500

func (c *Client) GetUser(ctx context.Context, userID string) (*entity.IdentityUser, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	return c.loadUser(ctx, c.db, userID)
}

// ListUsers pages through identities in id order, starting after cursor.
func (c *Client) ListUsers(ctx context.Context, cursor string, limit int) ([]*entity.IdentityUser, string, error) {
	if err := c.ensureInitialized(ctx); err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	query := c.db.WithContext(ctx).
		Preload("LoginMethods", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Limit(limit + 1)
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}

	var rows []*model.IdentityUserModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", errors.Wrap(err, "list identity users")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = rows[limit-1].ID
	}

	users := make([]*entity.IdentityUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, toIdentityUser(row))
	}

	return users, next, nil
}

// DeleteUser removes the identity with its login methods, sessions and tokens.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.ensureInitialized(ctx); err != nil {
		return err
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{
			&model.IdentityTokenModel{},
			&model.IdentitySessionModel{},
			&model.IdentityLoginMethodModel{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(dependent).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", userID).Delete(&model.IdentityUserModel{}).Error
	})
	if err != nil {
		return errors.Wrap(err, "delete identity user")
	}

	c.logger.InfoContext(ctx, "Identity deleted", slog.String("external_id", userID))

	return nil
}
