package impl

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/mocks"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	*txFixture
	provider   *mocks.IdentityProvider
	hasher     *mocks.PasswordHasher
	notifier   *mocks.NotificationSender
	superAdmin *entity.User
	srv        *adminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		txFixture:  newTxFixture(),
		provider:   &mocks.IdentityProvider{},
		hasher:     &mocks.PasswordHasher{},
		notifier:   &mocks.NotificationSender{},
		superAdmin: testUser(testRole(entity.RoleSuperAdmin, entity.PermissionWildcard)),
	}

	permissions := newPermissionServiceForTest(f.roles)
	reconciler := NewReconciliationService(ReconciliationServiceParams{
		TxManager:   f.tx,
		UserRepo:    f.users,
		Permissions: permissions,
		Provider:    f.provider,
		Notifier:    f.notifier,
		Config:      newTestConfig(),
		Logger:      newDiscardLogger(),
	})

	f.srv = NewAdminService(AdminServiceParams{
		TxManager:   f.tx,
		UserRepo:    f.users,
		Permissions: permissions,
		Reconciler:  reconciler,
		Provider:    f.provider,
		Hasher:      f.hasher,
		Notifier:    f.notifier,
		Config:      newTestConfig(),
		Logger:      newDiscardLogger(),
	}).(*adminService)
	f.srv.now = func() time.Time { return fixedNow }

	return f
}

func adminInput() usecase.CreateAdminInput {
	return usecase.CreateAdminInput{
		Email:     "Ops@Shop.test",
		Password:  "Adm1n!Pass",
		FirstName: "Olive",
		LastName:  "Ops",
		AdminType: entity.RoleAdmin,
	}
}

func (f *adminFixture) expectProvisioning(ctx context.Context, adminRole *entity.Role) {
	f.hasher.On("ValidatePasswordStrength", "Adm1n!Pass").Return(nil)
	f.users.On("ExistsByEmail", ctx, "ops@shop.test").Return(false, nil)
	f.roles.On("FindByName", ctx, entity.RoleAdmin).Return(adminRole, nil)
	f.provider.On("SignUp", ctx, constants.DefaultTenant, "ops@shop.test", "Adm1n!Pass").
		Return(&service.SignUpResult{Status: service.StatusOK, User: &entity.IdentityUser{ID: "ext-admin"}}, nil)
	f.provider.On("CreateEmailVerificationToken", ctx, constants.DefaultTenant, "ext-admin", "ops@shop.test").
		Return(&service.VerificationTokenResult{Status: service.StatusOK, Token: "act"}, nil)
}

func TestAdminService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	adminRole := testRole(entity.RoleAdmin, entity.PermissionApproveVendor)

	f.expectProvisioning(ctx, adminRole)
	f.users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	f.notifier.On("SendAdminActivationEmail", ctx, "ops@shop.test", "Olive Ops", "admin",
		"https://shop.test/auth/verify-email?email=ops%40shop.test&token=act").Return(nil)
	f.users.On("Update", ctx, mock.MatchedBy(func(u *entity.User) bool { return u.EmailVerificationSent })).Return(nil)

	out, err := f.srv.CreateAdmin(ctx, f.superAdmin, adminInput())

	require.NoError(t, err)
	assert.Equal(t, usecase.AdminStatusPendingVerification, out.Status)
	assert.True(t, out.EmailVerificationSent)
	assert.False(t, out.User.IsActive)
	assert.Equal(t, adminRole.ID, out.User.RoleID)
	assert.Equal(t, "ext-admin", out.User.ExternalIdentityRef)
	assert.Equal(t, 1, f.tx.Calls)
	f.users.AssertExpectations(t)
}

func TestAdminService_CreateAdmin_ActivationEmailFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	f.expectProvisioning(ctx, testRole(entity.RoleAdmin))
	f.users.On("Create", ctx, mock.Anything).Return(nil)
	f.notifier.On("SendAdminActivationEmail", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: 421"))

	out, err := f.srv.CreateAdmin(ctx, f.superAdmin, adminInput())

	require.NoError(t, err)
	assert.False(t, out.EmailVerificationSent)
	assert.False(t, out.User.EmailVerificationSent)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAdminService_CreateAdmin_OrphanAfterProviderSignUp(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	f.expectProvisioning(ctx, testRole(entity.RoleAdmin))
	f.users.On("Create", ctx, mock.Anything).Return(errors.New("deadlock detected"))

	_, err := f.srv.CreateAdmin(ctx, f.superAdmin, adminInput())

	var recErr *domainerrors.ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, opAdminCreate, recErr.Operation)
	assert.Equal(t, "ext-admin", recErr.ExternalID)
	assert.Equal(t, "ops@shop.test", recErr.Email)
	f.notifier.AssertNotCalled(t, "SendAdminActivationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminService_CreateAdmin_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("actor is not a super admin", func(t *testing.T) {
		f := newAdminFixture()
		admin := testUser(testRole(entity.RoleAdmin, entity.PermissionWildcard))

		_, err := f.srv.CreateAdmin(ctx, admin, adminInput())

		assert.ErrorIs(t, err, domainerrors.ErrForbidden)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("admin type outside admin and subAdmin", func(t *testing.T) {
		f := newAdminFixture()
		in := adminInput()
		in.AdminType = entity.RoleSuperAdmin

		_, err := f.srv.CreateAdmin(ctx, f.superAdmin, in)

		assert.ErrorIs(t, err, domainerrors.ErrInvalidAdminType)
	})

	t.Run("email already registered", func(t *testing.T) {
		f := newAdminFixture()
		f.hasher.On("ValidatePasswordStrength", mock.Anything).Return(nil)
		f.users.On("ExistsByEmail", ctx, "ops@shop.test").Return(true, nil)

		_, err := f.srv.CreateAdmin(ctx, f.superAdmin, adminInput())

		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
		f.provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider already knows the email", func(t *testing.T) {
		f := newAdminFixture()
		f.hasher.On("ValidatePasswordStrength", mock.Anything).Return(nil)
		f.users.On("ExistsByEmail", ctx, mock.Anything).Return(false, nil)
		f.roles.On("FindByName", ctx, entity.RoleAdmin).Return(testRole(entity.RoleAdmin), nil)
		f.provider.On("SignUp", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(&service.SignUpResult{Status: service.StatusEmailAlreadyExists}, nil)

		_, err := f.srv.CreateAdmin(ctx, f.superAdmin, adminInput())

		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
		var recErr *domainerrors.ReconciliationError
		assert.False(t, errors.As(err, &recErr))
	})
}

func TestAdminService_ResetUserPassword(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	target := testUser(testRole(entity.RoleCustomer))
	f.hasher.On("ValidatePasswordStrength", "N3w!Password").Return(nil)
	f.users.On("FindByID", ctx, target.ID).Return(target, nil)
	f.provider.On("UpdateEmailOrPassword", ctx, target.ExternalIdentityRef, (*string)(nil), mock.MatchedBy(func(p *string) bool {
		return p != nil && *p == "N3w!Password"
	})).Return(service.StatusOK, nil)
	f.users.On("SetPasswordChangedAt", ctx, target.ExternalIdentityRef, mock.AnythingOfType("time.Time")).Return(true, nil)

	require.NoError(t, f.srv.ResetUserPassword(ctx, f.superAdmin, target.ID, "N3w!Password"))
	f.users.AssertExpectations(t)

	err := f.srv.ResetUserPassword(ctx, target, f.superAdmin.ID, "N3w!Password")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
