package impl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/infra/metrics"
	"storefront/internal/mocks"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type vendorFixture struct {
	*txFixture
	provider *mocks.IdentityProvider
	hasher   *mocks.PasswordHasher
	notifier *mocks.NotificationSender
	srv      *vendorService
	queued   []func()
}

func newVendorFixture() *vendorFixture {
	f := &vendorFixture{
		txFixture: newTxFixture(),
		provider:  &mocks.IdentityProvider{},
		hasher:    &mocks.PasswordHasher{},
		notifier:  &mocks.NotificationSender{},
	}

	f.srv = NewVendorService(VendorServiceParams{
		TxManager:   f.tx,
		UserRepo:    f.users,
		Permissions: newPermissionServiceForTest(f.roles),
		Provider:    f.provider,
		Hasher:      f.hasher,
		Notifier:    f.notifier,
		Config:      newTestConfig(),
		Metrics:     metrics.New(),
		Logger:      newDiscardLogger(),
	}).(*vendorService)
	f.srv.now = func() time.Time { return fixedNow }
	f.srv.async = func(fn func()) { f.queued = append(f.queued, fn) }

	return f
}

func validVendorInput() usecase.RegisterVendorInput {
	return usecase.RegisterVendorInput{
		Email:     " V@X.com ",
		Password:  "Str0ng!Pass",
		FirstName: "Vera",
		LastName:  "Vendor",
		Phone:     "+20 100 123 4567",
		StoreName: "  Acme  ",
		BankAccount: &entity.BankAccount{
			BankName:      "CIB",
			AccountNumber: "1234 5678 90",
			AccountHolder: "Vera Vendor",
		},
	}
}

func TestVendorService_RegisterApproveScenario(t *testing.T) {
	ctx := context.Background()
	f := newVendorFixture()

	vendorRole := testRole(entity.RoleVendor, "product:create")
	admin := testUser(testRole(entity.RoleAdmin, entity.PermissionApproveVendor))

	f.hasher.On("ValidatePasswordStrength", "Str0ng!Pass").Return(nil)
	f.users.On("ExistsByEmail", ctx, "v@x.com").Return(false, nil)
	f.users.On("StoreNameExists", ctx, "Acme").Return(false, nil)
	f.provider.On("SignUp", ctx, constants.DefaultTenant, "v@x.com", "Str0ng!Pass").
		Return(&service.SignUpResult{Status: service.StatusOK, User: &entity.IdentityUser{ID: "ext-v", Email: "v@x.com"}}, nil)
	f.roles.On("FindByName", ctx, entity.RoleVendor).Return(vendorRole, nil)
	f.users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	f.provider.On("CreateEmailVerificationToken", mock.Anything, constants.DefaultTenant, "ext-v", "v@x.com").
		Return(&service.VerificationTokenResult{Status: service.StatusOK, Token: "tok"}, nil)
	f.notifier.On("SendVerificationEmail", mock.Anything, "v@x.com", "Vera Vendor", mock.Anything).Return(nil)
	f.notifier.On("NotifyAdminsVendorPending", ctx, mock.Anything, "Acme").Return(nil)

	vendor, err := f.srv.Register(ctx, validVendorInput())

	require.NoError(t, err)
	assert.Equal(t, entity.StoreStatusPending, vendor.VendorDetails.StoreStatus)
	assert.False(t, vendor.IsActive)
	assert.Equal(t, entity.Permissions{entity.PermissionVendorBasic}, vendor.Permissions)
	assert.Equal(t, "1234567890", vendor.VendorDetails.BankAccount.AccountNumber)
	assert.False(t, vendor.IsEmailVerified)

	// the verification email is queued, not sent inline
	f.notifier.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, f.queued, 1)
	f.queued[0]()
	f.notifier.AssertCalled(t, "SendVerificationEmail", mock.Anything, "v@x.com", "Vera Vendor", mock.Anything)

	f.users.On("FindByID", ctx, vendor.ID).Return(vendor, nil)
	f.users.On("Update", ctx, vendor).Return(nil).Once()
	f.notifier.On("SendVendorDecisionEmail", ctx, "v@x.com", "Acme", true, "").Return(nil).Once()

	approved, err := f.srv.Approve(ctx, admin, vendor.ID)

	require.NoError(t, err)
	assert.Equal(t, entity.StoreStatusApproved, approved.VendorDetails.StoreStatus)
	assert.True(t, approved.IsActive)
	require.NotNil(t, approved.VendorDetails.ApprovedAt)
	assert.Equal(t, fixedNow, *approved.VendorDetails.ApprovedAt)
	assert.Equal(t, admin.ID, *approved.VendorDetails.ApprovedBy)

	f.srv.now = func() time.Time { return fixedNow.Add(time.Hour) }

	_, err = f.srv.Approve(ctx, admin, vendor.ID)

	require.ErrorIs(t, err, domainerrors.ErrVendorAlreadyApproved)
	appErr, ok := domainerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPCode())
	assert.Equal(t, fixedNow, *vendor.VendorDetails.ApprovedAt)
	f.users.AssertNumberOfCalls(t, "Update", 1)
	f.notifier.AssertNumberOfCalls(t, "SendVendorDecisionEmail", 1)
}

func TestVendorService_Register_ValidatesBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*usecase.RegisterVendorInput)
		setup func(*vendorFixture)
		want  error
	}{
		{
			name: "bad email",
			edit: func(in *usecase.RegisterVendorInput) { in.Email = "not-an-email" },
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "bad phone",
			edit: func(in *usecase.RegisterVendorInput) { in.Phone = "12" },
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "missing store name",
			edit: func(in *usecase.RegisterVendorInput) { in.StoreName = "   " },
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "bad iban",
			edit: func(in *usecase.RegisterVendorInput) { in.BankAccount.IBAN = "XX" },
			want: domainerrors.ErrValidationFailed,
		},
		{
			name: "duplicate email",
			setup: func(f *vendorFixture) {
				f.users.On("ExistsByEmail", ctx, "v@x.com").Return(true, nil)
			},
			want: domainerrors.ErrUserAlreadyExists,
		},
		{
			name: "store name taken",
			setup: func(f *vendorFixture) {
				f.users.On("ExistsByEmail", ctx, "v@x.com").Return(false, nil)
				f.users.On("StoreNameExists", ctx, "Acme").Return(true, nil)
			},
			want: domainerrors.ErrStoreNameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVendorFixture()
			f.hasher.On("ValidatePasswordStrength", mock.Anything).Return(nil)
			if tt.setup != nil {
				tt.setup(f)
			}

			in := validVendorInput()
			if tt.edit != nil {
				tt.edit(&in)
			}

			_, err := f.srv.Register(ctx, in)

			assert.ErrorIs(t, err, tt.want)
			f.provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestVendorService_Register_WeakPassword(t *testing.T) {
	ctx := context.Background()
	f := newVendorFixture()
	f.hasher.On("ValidatePasswordStrength", mock.Anything).
		Return(domainerrors.ErrWeakPassword.WithDetails("password must contain a number"))

	_, err := f.srv.Register(ctx, validVendorInput())

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	appErr, _ := domainerrors.AsAppError(err)
	assert.Contains(t, appErr.Details(), "password must contain a number")
}

func TestVendorService_Register_LocalWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newVendorFixture()

	f.hasher.On("ValidatePasswordStrength", mock.Anything).Return(nil)
	f.users.On("ExistsByEmail", ctx, mock.Anything).Return(false, nil)
	f.users.On("StoreNameExists", ctx, mock.Anything).Return(false, nil)
	f.provider.On("SignUp", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(&service.SignUpResult{Status: service.StatusOK, User: &entity.IdentityUser{ID: "ext-v"}}, nil)
	f.roles.On("FindByName", ctx, entity.RoleVendor).Return(testRole(entity.RoleVendor), nil)
	f.users.On("Create", ctx, mock.Anything).Return(domainerrors.ErrStoreNameTaken)

	_, err := f.srv.Register(ctx, validVendorInput())

	var recErr *domainerrors.ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, opVendorSignUp, recErr.Operation)
	assert.Equal(t, "ext-v", recErr.ExternalID)
	f.notifier.AssertNotCalled(t, "NotifyAdminsVendorPending", mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorService_Approve_Guards(t *testing.T) {
	ctx := context.Background()
	admin := testUser(testRole(entity.RoleAdmin, entity.PermissionApproveVendor))

	t.Run("requires approve_vendor", func(t *testing.T) {
		f := newVendorFixture()
		customer := testUser(testRole(entity.RoleCustomer, "order:create"))

		_, err := f.srv.Approve(ctx, customer, uuid.New())

		assert.ErrorIs(t, err, domainerrors.ErrForbidden)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("unverified email still approves", func(t *testing.T) {
		f := newVendorFixture()
		vendor := testVendor(entity.StoreStatusPending, false)
		f.users.On("FindByID", ctx, vendor.ID).Return(vendor, nil)
		f.users.On("Update", ctx, vendor).Return(nil).Once()
		f.notifier.On("SendVendorDecisionEmail", ctx, "v@x.com", "Acme", true, "").Return(nil)

		approved, err := f.srv.Approve(ctx, admin, vendor.ID)

		require.NoError(t, err)
		assert.Equal(t, entity.StoreStatusApproved, approved.VendorDetails.StoreStatus)
		assert.True(t, approved.IsActive)
		assert.False(t, approved.IsEmailVerified)
	})

	t.Run("not a vendor", func(t *testing.T) {
		f := newVendorFixture()
		customer := testUser(testRole(entity.RoleCustomer))
		f.users.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err := f.srv.Approve(ctx, admin, customer.ID)

		assert.ErrorIs(t, err, domainerrors.ErrVendorNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		f := newVendorFixture()
		id := uuid.New()
		f.users.On("FindByID", ctx, id).Return(nil, domainerrors.ErrUserNotFound)

		_, err := f.srv.Approve(ctx, admin, id)

		assert.ErrorIs(t, err, domainerrors.ErrVendorNotFound)
	})

	t.Run("rejected vendors cannot be approved", func(t *testing.T) {
		f := newVendorFixture()
		vendor := testVendor(entity.StoreStatusRejected, true)
		f.users.On("FindByID", ctx, vendor.ID).Return(vendor, nil)

		_, err := f.srv.Approve(ctx, admin, vendor.ID)

		assert.ErrorIs(t, err, domainerrors.ErrInvalidVendorTransition)
	})
}

func TestVendorService_Reject(t *testing.T) {
	ctx := context.Background()
	admin := testUser(testRole(entity.RoleAdmin, entity.PermissionApproveVendor))
	f := newVendorFixture()

	vendor := testVendor(entity.StoreStatusPending, true)
	f.users.On("FindByID", ctx, vendor.ID).Return(vendor, nil)
	f.users.On("Update", ctx, vendor).Return(nil).Once()
	f.notifier.On("SendVendorDecisionEmail", ctx, vendor.Email, "Acme", false, "incomplete documents").
		Return(assert.AnError)

	rejected, err := f.srv.Reject(ctx, admin, vendor.ID, "  incomplete documents ")

	require.NoError(t, err, "decision email failures must not fail the transition")
	assert.Equal(t, entity.StoreStatusRejected, rejected.VendorDetails.StoreStatus)
	assert.Equal(t, "incomplete documents", rejected.VendorDetails.RejectionReason)
	assert.False(t, rejected.IsActive)
	rejectedAt := *rejected.VendorDetails.RejectedAt

	_, err = f.srv.Reject(ctx, admin, vendor.ID, "again")

	assert.ErrorIs(t, err, domainerrors.ErrVendorAlreadyRejected)
	assert.Equal(t, rejectedAt, *vendor.VendorDetails.RejectedAt)
	assert.Equal(t, "incomplete documents", vendor.VendorDetails.RejectionReason)
}

func TestVendorService_ListPending(t *testing.T) {
	ctx := context.Background()
	admin := testUser(testRole(entity.RoleAdmin, entity.PermissionApproveVendor))
	f := newVendorFixture()

	vendors := []*entity.User{testVendor(entity.StoreStatusPending, true)}
	f.users.On("List", ctx, mock.MatchedBy(func(filter repository.UserFilter) bool {
		return filter.StoreStatus != nil && *filter.StoreStatus == entity.StoreStatusPending &&
			filter.IsEmailVerified != nil && *filter.IsEmailVerified &&
			filter.Page == 2 && filter.Limit == 100
	})).Return(vendors, int64(250), nil)

	page, err := f.srv.ListPending(ctx, admin, 2, 500)

	require.NoError(t, err)
	assert.Equal(t, vendors, page.Vendors)
	assert.Equal(t, usecase.Pagination{Total: 250, Page: 2, Limit: 100, Pages: 3}, page.Pagination)
}

func TestVendorService_ListPending_Defaults(t *testing.T) {
	ctx := context.Background()
	admin := testUser(testRole(entity.RoleSuperAdmin, entity.PermissionWildcard))
	f := newVendorFixture()

	f.users.On("List", ctx, mock.MatchedBy(func(filter repository.UserFilter) bool {
		return filter.Page == 1 && filter.Limit == 10
	})).Return([]*entity.User{}, int64(0), nil)

	page, err := f.srv.ListPending(ctx, admin, 0, 0)

	require.NoError(t, err)
	assert.Empty(t, page.Vendors)
	assert.Equal(t, 0, page.Pagination.Pages)
}

func TestVendorService_Get(t *testing.T) {
	ctx := context.Background()
	admin := testUser(testRole(entity.RoleAdmin, entity.PermissionApproveVendor))
	f := newVendorFixture()

	vendor := testVendor(entity.StoreStatusApproved, true)
	f.users.On("FindByID", ctx, vendor.ID).Return(vendor, nil)

	got, err := f.srv.Get(ctx, admin, vendor.ID)

	require.NoError(t, err)
	assert.Equal(t, vendor, got)

	_, err = f.srv.Get(ctx, testUser(testRole(entity.RoleVendor)), vendor.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
