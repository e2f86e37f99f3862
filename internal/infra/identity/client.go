// Package identity is the in-process identity provider: credentials, verification and reset tokens,
// and sessions, kept in a database separate from the local user records.
package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Params defines the dependencies of the identity client.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB `name:"identity"`
	Hasher service.PasswordHasher
	Tokens service.TokenService
	Sender service.NotificationSender
}

// Client implements service.IdentityProvider.
// It is created once per process; hooks are attached after construction with RegisterHooks.
type Client struct {
	db       *gorm.DB
	hasher   service.PasswordHasher
	tokens   service.TokenService
	sender   service.NotificationSender
	logger   *slog.Logger
	frontend *config.FrontendConfig

	sessionLifetime time.Duration
	verifyTTL       time.Duration
	resetTTL        time.Duration

	now func() time.Time

	hooksMu sync.RWMutex
	hooks   service.IdentityHooks

	initMu      sync.Mutex
	initialized bool
}

var _ service.IdentityProvider = (*Client)(nil)

// New builds the client. The store is checked lazily on first use.
func New(params Params) *Client {
	return &Client{
		db:              params.DB,
		hasher:          params.Hasher,
		tokens:          params.Tokens,
		sender:          params.Sender,
		logger:          params.Logger.With(slog.String("component", "identity")),
		frontend:        params.Config.Frontend,
		sessionLifetime: params.Config.Session.Lifetime,
		verifyTTL:       params.Config.Tokens.EmailVerificationTTL,
		resetTTL:        params.Config.Tokens.PasswordResetTTL,
		now:             time.Now,
	}
}

// RegisterHooks attaches the reconciliation callbacks. Calling it again replaces them.
func (c *Client) RegisterHooks(hooks service.IdentityHooks) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()

	c.hooks = hooks
}

func (c *Client) registeredHooks() service.IdentityHooks {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()

	return c.hooks
}

// ensureInitialized pings the store and checks its schema once.
// A failed check is retried by the next caller instead of being cached.
func (c *Client) ensureInitialized(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.Wrap(err, "identity store handle")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "identity store unreachable")
	}
	if !c.db.WithContext(ctx).Migrator().HasTable(&model.IdentityUserModel{}) {
		return errors.New("identity store schema missing, run storefrontctl migrate --store identity")
	}

	c.initialized = true

	return nil
}

func tenantOrDefault(tenant string) string {
	if tenant == "" {
		return constants.DefaultTenant
	}

	return tenant
}

func toIdentityUser(data *model.IdentityUserModel) *entity.IdentityUser {
	user := &entity.IdentityUser{
		ID:           data.ID,
		TimeJoined:   data.TimeJoined,
		LoginMethods: make([]entity.LoginMethod, 0, len(data.LoginMethods)),
	}

	for _, m := range data.LoginMethods {
		user.LoginMethods = append(user.LoginMethods, entity.LoginMethod{
			RecipeID:       m.RecipeID,
			Email:          m.Email,
			ThirdPartyID:   m.ThirdPartyID,
			ThirdPartyUser: m.ThirdPartyUserID,
			Verified:       m.Verified,
		})
		// the password login wins as primary email when both exist
		if user.Email == "" || m.RecipeID == entity.RecipeEmailPassword {
			user.Email = m.Email
		}
	}

	return user
}

func (c *Client) loadUser(ctx context.Context, db *gorm.DB, userID string) (*entity.IdentityUser, error) {
	var userM model.IdentityUserModel
	err := db.WithContext(ctx).
		Preload("LoginMethods", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", userID).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "load identity user")
	}

	return toIdentityUser(&userM), nil
}
