package mocks

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// AuthUsecase is a mock of usecase.AuthUsecase.
type AuthUsecase struct {
	mock.Mock
}

var _ usecase.AuthUsecase = (*AuthUsecase)(nil)

func (m *AuthUsecase) SignUp(ctx context.Context, input usecase.SignUpInput) (*entity.User, error) {
	args := m.Called(ctx, input)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *AuthUsecase) SignIn(ctx context.Context, input usecase.SignInInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *AuthUsecase) GoogleSignIn(ctx context.Context, idToken string, client usecase.ClientInfo) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, idToken, client)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *AuthUsecase) Authenticate(ctx context.Context, accessToken string) (*usecase.Principal, error) {
	args := m.Called(ctx, accessToken)
	p, _ := args.Get(0).(*usecase.Principal)

	return p, args.Error(1)
}

func (m *AuthUsecase) GetCurrentUser(ctx context.Context, externalRef string) (*entity.User, error) {
	args := m.Called(ctx, externalRef)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *AuthUsecase) VerifyEmail(ctx context.Context, token, email string) (*entity.User, error) {
	args := m.Called(ctx, token, email)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *AuthUsecase) ResendVerification(ctx context.Context, externalRef string) error {
	return m.Called(ctx, externalRef).Error(0)
}

func (m *AuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *AuthUsecase) SubmitPasswordReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *AuthUsecase) ChangePassword(ctx context.Context, externalRef string, input usecase.ChangePasswordInput) error {
	return m.Called(ctx, externalRef, input).Error(0)
}

func (m *AuthUsecase) DeleteAccount(ctx context.Context, externalRef, password string) error {
	return m.Called(ctx, externalRef, password).Error(0)
}

// SessionUsecase is a mock of usecase.SessionUsecase.
type SessionUsecase struct {
	mock.Mock
}

var _ usecase.SessionUsecase = (*SessionUsecase)(nil)

func (m *SessionUsecase) ListActiveSessions(ctx context.Context, userID, currentHandle string, client usecase.ClientInfo) ([]*entity.SessionView, error) {
	args := m.Called(ctx, userID, currentHandle, client)
	views, _ := args.Get(0).([]*entity.SessionView)

	return views, args.Error(1)
}

func (m *SessionUsecase) RevokeSession(ctx context.Context, userID, targetHandle, currentHandle string) error {
	return m.Called(ctx, userID, targetHandle, currentHandle).Error(0)
}

func (m *SessionUsecase) Logout(ctx context.Context, userID, currentHandle string) error {
	return m.Called(ctx, userID, currentHandle).Error(0)
}

func (m *SessionUsecase) LogoutAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *SessionUsecase) GetSessionStatistics(ctx context.Context, userID, currentHandle string) (*entity.SessionStatistics, error) {
	args := m.Called(ctx, userID, currentHandle)
	stats, _ := args.Get(0).(*entity.SessionStatistics)

	return stats, args.Error(1)
}

// VendorUsecase is a mock of usecase.VendorUsecase.
type VendorUsecase struct {
	mock.Mock
}

var _ usecase.VendorUsecase = (*VendorUsecase)(nil)

func (m *VendorUsecase) Register(ctx context.Context, input usecase.RegisterVendorInput) (*entity.User, error) {
	args := m.Called(ctx, input)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *VendorUsecase) Approve(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, actor, vendorID)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *VendorUsecase) Reject(ctx context.Context, actor *entity.User, vendorID uuid.UUID, reason string) (*entity.User, error) {
	args := m.Called(ctx, actor, vendorID, reason)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *VendorUsecase) ListPending(ctx context.Context, actor *entity.User, page, limit int) (*usecase.VendorPage, error) {
	args := m.Called(ctx, actor, page, limit)
	vp, _ := args.Get(0).(*usecase.VendorPage)

	return vp, args.Error(1)
}

func (m *VendorUsecase) Get(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, actor, vendorID)

	return userOrNil(args.Get(0)), args.Error(1)
}

// AdminUsecase is a mock of usecase.AdminUsecase.
type AdminUsecase struct {
	mock.Mock
}

var _ usecase.AdminUsecase = (*AdminUsecase)(nil)

func (m *AdminUsecase) CreateAdmin(ctx context.Context, actor *entity.User, input usecase.CreateAdminInput) (*usecase.CreateAdminOutput, error) {
	args := m.Called(ctx, actor, input)
	out, _ := args.Get(0).(*usecase.CreateAdminOutput)

	return out, args.Error(1)
}

func (m *AdminUsecase) ResetUserPassword(ctx context.Context, actor *entity.User, userID uuid.UUID, newPassword string) error {
	return m.Called(ctx, actor, userID, newPassword).Error(0)
}

// ProfileUsecase is a mock of usecase.ProfileUsecase.
type ProfileUsecase struct {
	mock.Mock
}

var _ usecase.ProfileUsecase = (*ProfileUsecase)(nil)

func (m *ProfileUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, input usecase.UpdateProfileInput) (*entity.User, error) {
	args := m.Called(ctx, userID, input)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *ProfileUsecase) UpdatePreferences(ctx context.Context, userID uuid.UUID, input usecase.UpdatePreferencesInput) (*entity.User, error) {
	args := m.Called(ctx, userID, input)

	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *ProfileUsecase) ListAddresses(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]*entity.Address)

	return list, args.Error(1)
}

func (m *ProfileUsecase) AddAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error) {
	args := m.Called(ctx, userID, address)
	a, _ := args.Get(0).(*entity.Address)

	return a, args.Error(1)
}

func (m *ProfileUsecase) UpdateAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error) {
	args := m.Called(ctx, userID, address)
	a, _ := args.Get(0).(*entity.Address)

	return a, args.Error(1)
}

func (m *ProfileUsecase) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

// PermissionUsecase is a mock of usecase.PermissionUsecase.
type PermissionUsecase struct {
	mock.Mock
}

var _ usecase.PermissionUsecase = (*PermissionUsecase)(nil)

func (m *PermissionUsecase) ResolvePermission(ctx context.Context, user *entity.User, permission string) (bool, error) {
	args := m.Called(ctx, user, permission)

	return args.Bool(0), args.Error(1)
}

func (m *PermissionUsecase) RequirePermission(ctx context.Context, user *entity.User, permission string) error {
	return m.Called(ctx, user, permission).Error(0)
}

func (m *PermissionUsecase) RequireRole(ctx context.Context, user *entity.User, names ...entity.RoleName) error {
	return m.Called(ctx, user, names).Error(0)
}

func (m *PermissionUsecase) RoleByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	args := m.Called(ctx, name)

	return roleOrNil(args.Get(0)), args.Error(1)
}

func (m *PermissionUsecase) EnsureDefaultRoles(ctx context.Context) ([]*entity.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]*entity.Role)

	return roles, args.Error(1)
}

// MaintenanceUsecase is a mock of usecase.MaintenanceUsecase.
type MaintenanceUsecase struct {
	mock.Mock
}

var _ usecase.MaintenanceUsecase = (*MaintenanceUsecase)(nil)

func (m *MaintenanceUsecase) Reconcile(ctx context.Context) (*usecase.ReconcileReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*usecase.ReconcileReport)

	return r, args.Error(1)
}

func (m *MaintenanceUsecase) VerifySweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)

	return args.Int(0), args.Error(1)
}

func (m *MaintenanceUsecase) EnsureSuperAdmin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MaintenanceUsecase) ResetSuperAdminPassword(ctx context.Context, email, newPassword string) error {
	return m.Called(ctx, email, newPassword).Error(0)
}
