// Package mocks holds testify doubles for the domain repositories and services.
package mocks

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock of repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*UserRepository)(nil)

func userOrNil(v any) *entity.User {
	if v == nil {
		return nil
	}

	return v.(*entity.User)
}

func (m *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) FindByExternalRef(ctx context.Context, externalRef string) (*entity.User, error) {
	args := m.Called(ctx, externalRef)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) StoreNameExists(ctx context.Context, storeName string) (bool, error) {
	args := m.Called(ctx, storeName)

	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) TouchSignIn(ctx context.Context, externalRef string, at time.Time) (bool, error) {
	args := m.Called(ctx, externalRef, at)

	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) RecordFailedSignIn(ctx context.Context, userID uuid.UUID, at time.Time, maxAttempts int, lockFor time.Duration) (*time.Time, error) {
	args := m.Called(ctx, userID, at, maxAttempts, lockFor)
	until, _ := args.Get(0).(*time.Time)

	return until, args.Error(1)
}

func (m *UserRepository) SetPasswordChangedAt(ctx context.Context, externalRef string, at time.Time) (bool, error) {
	args := m.Called(ctx, externalRef, at)

	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]*entity.User, int64, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]*entity.User)

	return users, args.Get(1).(int64), args.Error(2)
}

func (m *UserRepository) ListUnverified(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*entity.User)

	return users, args.Error(1)
}

func (m *UserRepository) ExternalRefs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	refs, _ := args.Get(0).([]string)

	return refs, args.Error(1)
}

// RoleRepository is a mock of repository.RoleRepository.
type RoleRepository struct {
	mock.Mock
}

var _ repository.RoleRepository = (*RoleRepository)(nil)

func roleOrNil(v any) *entity.Role {
	if v == nil {
		return nil
	}

	return v.(*entity.Role)
}

func (m *RoleRepository) FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	args := m.Called(ctx, name)

	return roleOrNil(args.Get(0)), args.Error(1)
}

func (m *RoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error) {
	args := m.Called(ctx, id)

	return roleOrNil(args.Get(0)), args.Error(1)
}

func (m *RoleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]*entity.Role)

	return roles, args.Error(1)
}

func (m *RoleRepository) EnsureExists(ctx context.Context, role *entity.Role) (*entity.Role, error) {
	args := m.Called(ctx, role)

	return roleOrNil(args.Get(0)), args.Error(1)
}

// AddressRepository is a mock of repository.AddressRepository.
type AddressRepository struct {
	mock.Mock
}

var _ repository.AddressRepository = (*AddressRepository)(nil)

func (m *AddressRepository) Create(ctx context.Context, address *entity.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *AddressRepository) Update(ctx context.Context, address *entity.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *AddressRepository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

func (m *AddressRepository) FindByID(ctx context.Context, userID, addressID uuid.UUID) (*entity.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if fn, ok := args.Get(0).(func(context.Context, uuid.UUID, uuid.UUID) (*entity.Address, error)); ok {
		return fn(ctx, userID, addressID)
	}
	addr, _ := args.Get(0).(*entity.Address)

	return addr, args.Error(1)
}

func (m *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	args := m.Called(ctx, userID)
	addrs, _ := args.Get(0).([]*entity.Address)

	return addrs, args.Error(1)
}

func (m *AddressRepository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// RepositoryFactory hands out fixed repositories.
type RepositoryFactory struct {
	Users     repository.UserRepository
	Roles     repository.RoleRepository
	Addresses repository.AddressRepository
}

func (f *RepositoryFactory) NewUserRepository() repository.UserRepository       { return f.Users }
func (f *RepositoryFactory) NewRoleRepository() repository.RoleRepository       { return f.Roles }
func (f *RepositoryFactory) NewAddressRepository() repository.AddressRepository { return f.Addresses }

// TransactionManager runs fn against Factory. BeginErr fails the transaction before fn runs.
type TransactionManager struct {
	Factory  repository.RepositoryFactory
	BeginErr error

	Calls int
}

func (tm *TransactionManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	tm.Calls++
	if tm.BeginErr != nil {
		return tm.BeginErr
	}

	return fn(tm.Factory)
}
