package postgres

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// userRepository implements repository.UserRepository using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// withAssociations preloads the role and addresses every read returns.
// Reads that follow a write in the same request are pinned to the primary.
func (repo *userRepository) withAssociations(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Preload("Role").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_default DESC, created_at ASC")
		})
}

func (repo *userRepository) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel
	err := repo.withAssociations(ctx).
		Where(query, args...).
		Where("deleted_at IS NULL").
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return toUserDomain(&userM), nil
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByExternalRef retrieves the user joined to an identity-provider user.
func (repo *userRepository) FindByExternalRef(ctx context.Context, externalRef string) (*entity.User, error) {
	return repo.findOne(ctx, "external_identity_ref = ?", externalRef)
}

// FindByEmail retrieves a single user by normalized email.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "email = ?", entity.NormalizeEmail(email))
}

func (repo *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.UserModel{}).
		Where("email = ?", entity.NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check email existence")
	}

	return count > 0, nil
}

// StoreNameExists compares case-insensitively, matching the lower(store_name) unique index.
func (repo *userRepository) StoreNameExists(ctx context.Context, storeName string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.UserModel{}).
		Where("lower(store_name) = ?", strings.ToLower(strings.TrimSpace(storeName))).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check store name existence")
	}

	return count > 0, nil
}

// Create persists a new user. Addresses are written separately through AddressRepository.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Omit("Role", "Addresses").Create(userM).Error; err != nil {
		return mapUserWriteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update saves every column of user.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).Omit("Role", "Addresses").Save(userM)
	if result.Error != nil {
		return mapUserWriteError(result.Error, "failed to update user")
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) TouchSignIn(ctx context.Context, externalRef string, at time.Time) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("external_identity_ref = ? AND deleted_at IS NULL", externalRef).
		UpdateColumns(map[string]any{
			"last_login":     at,
			"last_seen":      at,
			"login_attempts": 0,
			"lock_until":     nil,
			"updated_at":     at,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to record sign-in")
	}

	return result.RowsAffected > 0, nil
}

func (repo *userRepository) RecordFailedSignIn(ctx context.Context, userID uuid.UUID, at time.Time, maxAttempts int, lockFor time.Duration) (*time.Time, error) {
	updates := map[string]any{
		"login_attempts": gorm.Expr("login_attempts + 1"),
		"updated_at":     at,
	}
	if maxAttempts > 0 {
		// SET expressions read the pre-update row, so both CASEs see the same counter.
		updates["login_attempts"] = gorm.Expr("CASE WHEN login_attempts + 1 >= ? THEN 0 ELSE login_attempts + 1 END", maxAttempts)
		updates["lock_until"] = gorm.Expr("CASE WHEN login_attempts + 1 >= ? THEN ? ELSE lock_until END", maxAttempts, at.Add(lockFor))
	}

	var rows []model.UserModel
	result := repo.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "lock_until"}}}).
		Where("id = ? AND deleted_at IS NULL", userID).
		UpdateColumns(updates)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to record failed sign-in")
	}
	if len(rows) == 0 || rows[0].LockUntil == nil || !rows[0].LockUntil.After(at) {
		return nil, nil
	}

	return rows[0].LockUntil, nil
}

func (repo *userRepository) SetPasswordChangedAt(ctx context.Context, externalRef string, at time.Time) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("external_identity_ref = ? AND deleted_at IS NULL", externalRef).
		UpdateColumns(map[string]any{
			"password_changed_at": at,
			"updated_at":          at,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to record password change")
	}

	return result.RowsAffected > 0, nil
}

// List is served from a read replica when one is configured.
func (repo *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]*entity.User, int64, error) {
	query := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Model(&model.UserModel{}).
		Where("deleted_at IS NULL")
	if filter.StoreStatus != nil {
		query = query.Where("store_status = ?", string(*filter.StoreStatus))
	}
	if filter.IsEmailVerified != nil {
		query = query.Where("is_email_verified = ?", *filter.IsEmailVerified)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}
	if total == 0 {
		return []*entity.User{}, 0, nil
	}

	var rows []*model.UserModel
	err := query.
		Preload("Role").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUserDomain(row))
	}

	return users, total, nil
}

func (repo *userRepository) ListUnverified(ctx context.Context) ([]*entity.User, error) {
	var rows []*model.UserModel
	err := repo.db.WithContext(ctx).
		Where("is_email_verified = ? AND deleted_at IS NULL", false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unverified users")
	}

	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUserDomain(row))
	}

	return users, nil
}

func (repo *userRepository) ExternalRefs(ctx context.Context) ([]string, error) {
	var refs []string
	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("deleted_at IS NULL").
		Pluck("external_identity_ref", &refs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list external refs")
	}

	return refs, nil
}

// mapUserWriteError translates unique-index violations into conflicts.
func mapUserWriteError(err error, message string) error {
	if !isUniqueConstraintViolation(err) {
		return mapWriteError(err, message)
	}

	switch violatedConstraint(err) {
	case constraintUsersStoreName:
		return domainerrors.ErrStoreNameTaken
	case constraintUsersEmail, constraintUsersExternalRef:
		return domainerrors.ErrUserAlreadyExists
	default:
		// gorm.ErrDuplicatedKey carries no constraint name; email is the common case
		return domainerrors.ErrUserAlreadyExists
	}
}
