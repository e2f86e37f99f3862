package impl

import (
	"io"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/mocks"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Session:   &config.SessionConfig{Lifetime: 7 * 24 * time.Hour, ListConcurrency: 4},
		Auth:      &config.AuthConfig{BcryptCost: 4, MaxLoginAttempts: 3, LockDuration: 15 * time.Minute},
		Frontend:  &config.FrontendConfig{BaseURL: "https://shop.test", VerifyEmailPath: "/auth/verify-email"},
		Vendor:    &config.VendorConfig{DefaultPageSize: 10, MaxPageSize: 100},
		RoleCache: &config.RoleCacheConfig{TTL: time.Minute},
		Bootstrap: &config.BootstrapConfig{},
	}
}

func testRole(name entity.RoleName, perms ...string) *entity.Role {
	return &entity.Role{ID: uuid.New(), Name: name, Permissions: perms}
}

func testUser(role *entity.Role) *entity.User {
	return &entity.User{
		ID:                  uuid.New(),
		ExternalIdentityRef: "ext-" + uuid.NewString(),
		Email:               "user@example.com",
		RoleID:              role.ID,
		Role:                role,
		IsActive:            true,
		Profile:             entity.DefaultProfile("Test", "User", fixedNow),
		Preferences:         entity.DefaultPreferences(),
	}
}

func testVendor(status entity.StoreStatus, verified bool) *entity.User {
	vendor := testUser(testRole(entity.RoleVendor))
	vendor.Email = "v@x.com"
	vendor.IsActive = status == entity.StoreStatusApproved
	vendor.IsEmailVerified = verified
	vendor.Permissions = entity.Permissions{entity.PermissionVendorBasic}
	vendor.VendorDetails = &entity.VendorDetails{StoreName: "Acme", StoreStatus: status}

	return vendor
}

// txFixture wires a fake transaction manager to fresh repository mocks.
type txFixture struct {
	users     *mocks.UserRepository
	roles     *mocks.RoleRepository
	addresses *mocks.AddressRepository
	tx        *mocks.TransactionManager
}

func newTxFixture() *txFixture {
	f := &txFixture{
		users:     &mocks.UserRepository{},
		roles:     &mocks.RoleRepository{},
		addresses: &mocks.AddressRepository{},
	}
	f.tx = &mocks.TransactionManager{
		Factory: &mocks.RepositoryFactory{Users: f.users, Roles: f.roles, Addresses: f.addresses},
	}

	return f
}
