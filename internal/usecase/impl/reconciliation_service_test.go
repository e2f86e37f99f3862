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
	"storefront/internal/infra/metrics"
	"storefront/internal/mocks"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reconciliationFixture struct {
	*txFixture
	provider *mocks.IdentityProvider
	notifier *mocks.NotificationSender
	metrics  *metrics.Metrics
	srv      *reconciliationService
}

func newReconciliationFixture() *reconciliationFixture {
	f := &reconciliationFixture{
		txFixture: newTxFixture(),
		provider:  &mocks.IdentityProvider{},
		notifier:  &mocks.NotificationSender{},
		metrics:   metrics.New(),
	}

	f.srv = NewReconciliationService(ReconciliationServiceParams{
		TxManager:   f.tx,
		UserRepo:    f.users,
		Permissions: newPermissionServiceForTest(f.roles),
		Provider:    f.provider,
		Notifier:    f.notifier,
		Config:      newTestConfig(),
		Metrics:     f.metrics,
		Logger:      newDiscardLogger(),
	}).(*reconciliationService)
	f.srv.now = func() time.Time { return fixedNow }
	f.srv.async = func(fn func()) { fn() }

	return f
}

func reconciliationFailures(t *testing.T, m *metrics.Metrics) int {
	t.Helper()

	n, err := testutil.GatherAndCount(m.Registry(), "storefront_reconciliation_failures_total")
	require.NoError(t, err)

	return n
}

func TestReconciliationService_RegisterLocalUser(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	customer := testRole(entity.RoleCustomer, "order:create")
	identity := &entity.IdentityUser{ID: "ext-1", Email: "New@Example.com"}

	f.roles.On("FindByName", ctx, entity.RoleCustomer).Return(customer, nil)
	f.users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	f.provider.On("CreateEmailVerificationToken", mock.Anything, constants.DefaultTenant, "ext-1", "new@example.com").
		Return(&service.VerificationTokenResult{Status: service.StatusOK, Token: "tok"}, nil)
	f.notifier.On("SendVerificationEmail", mock.Anything, "new@example.com", "Ada Lovelace",
		"https://shop.test/auth/verify-email?email=new%40example.com&token=tok").Return(nil)

	user, err := f.srv.RegisterLocalUser(ctx, identity, service.SignUpForm{
		Email:     "New@Example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "+20 100-123-4567",
	})

	require.NoError(t, err)
	assert.Equal(t, "ext-1", user.ExternalIdentityRef)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, customer.ID, user.RoleID)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsEmailVerified)
	assert.Equal(t, "+201001234567", user.Profile.Phone)
	f.notifier.AssertExpectations(t)
}

func TestReconciliationService_RegisterLocalUser_NotificationFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	f.roles.On("FindByName", ctx, entity.RoleCustomer).Return(testRole(entity.RoleCustomer), nil)
	f.users.On("Create", ctx, mock.Anything).Return(nil)
	f.provider.On("CreateEmailVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down"))

	user, err := f.srv.RegisterLocalUser(ctx, &entity.IdentityUser{ID: "ext-2"}, service.SignUpForm{Email: "a@b.com"})

	require.NoError(t, err)
	assert.NotNil(t, user)
	f.notifier.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciliationService_RegisterLocalUser_LocalWriteFailureIsAlarm(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	f.roles.On("FindByName", ctx, entity.RoleCustomer).Return(testRole(entity.RoleCustomer), nil)
	f.users.On("Create", ctx, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.srv.RegisterLocalUser(ctx, &entity.IdentityUser{ID: "ext-3"}, service.SignUpForm{Email: "o@x.com"})

	var recErr *domainerrors.ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "ext-3", recErr.ExternalID)
	assert.Equal(t, "o@x.com", recErr.Email)
	assert.Equal(t, opSignUp, recErr.Operation)
	assert.Equal(t, domainerrors.ReconciliationErrorCode, recErr.ErrorCode())
	assert.Equal(t, 1, reconciliationFailures(t, f.metrics))
	f.provider.AssertNotCalled(t, "CreateEmailVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciliationService_RecordSignIn_OrphanIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	f.users.On("TouchSignIn", ctx, "ext-orphan", fixedNow).Return(false, nil)

	err := f.srv.RecordSignIn(ctx, "ext-orphan")

	require.NoError(t, err)
	assert.Equal(t, 1, reconciliationFailures(t, f.metrics))
}

func TestReconciliationService_CompleteEmailVerification_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	user := testUser(testRole(entity.RoleCustomer))
	user.IsEmailVerified = false
	f.users.On("FindByExternalRef", ctx, user.ExternalIdentityRef).Return(user, nil)
	f.users.On("Update", ctx, user).Return(nil).Once()

	result := &service.VerifyEmailResult{Status: service.StatusOK, UserID: user.ExternalIdentityRef, Email: user.Email}

	first, err := f.srv.CompleteEmailVerification(ctx, result)
	require.NoError(t, err)
	require.True(t, first.IsEmailVerified)
	verifiedAt := *first.ActivityLog.EmailVerifiedAt

	f.srv.now = func() time.Time { return fixedNow.Add(time.Hour) }

	second, err := f.srv.CompleteEmailVerification(ctx, result)
	require.NoError(t, err)
	assert.True(t, second.IsEmailVerified)
	assert.Equal(t, verifiedAt, *second.ActivityLog.EmailVerifiedAt)

	f.users.AssertNumberOfCalls(t, "Update", 1)
}

func TestReconciliationService_CompleteEmailVerification_RederivesByEmail(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	user := testUser(testRole(entity.RoleCustomer))
	f.users.On("FindByExternalRef", ctx, user.ExternalIdentityRef).Return(nil, errors.New("read timeout")).Once()
	f.users.On("FindByEmail", ctx, user.Email).Return(user, nil).Once()
	f.users.On("Update", ctx, user).Return(nil).Once()

	got, err := f.srv.CompleteEmailVerification(ctx, &service.VerifyEmailResult{
		Status: service.StatusOK,
		UserID: user.ExternalIdentityRef,
		Email:  user.Email,
	})

	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Equal(t, 2, f.tx.Calls)
}

func TestReconciliationService_CompleteEmailVerification_MissingLocalUser(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	f.users.On("FindByExternalRef", ctx, "ext-x").Return(nil, domainerrors.ErrUserNotFound)
	f.users.On("FindByEmail", ctx, "x@y.com").Return(nil, domainerrors.ErrUserNotFound)

	_, err := f.srv.CompleteEmailVerification(ctx, &service.VerifyEmailResult{UserID: "ext-x", Email: "x@y.com"})

	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.Equal(t, 1, reconciliationFailures(t, f.metrics))
}

func TestReconciliationService_ReconcileEmailVerification(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	user := testUser(testRole(entity.RoleCustomer))
	f.users.On("FindByEmail", ctx, user.Email).Return(user, nil)
	f.provider.On("IsEmailVerified", ctx, user.ExternalIdentityRef, user.Email).Return(true, nil)
	f.users.On("FindByExternalRef", ctx, user.ExternalIdentityRef).Return(user, nil)
	f.users.On("Update", ctx, user).Return(nil)

	got, err := f.srv.ReconcileEmailVerification(ctx, "  USER@example.com ")

	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.NotNil(t, got.ActivityLog.EmailVerifiedAt)
}

func TestReconciliationService_ReconcileEmailVerification_ProviderSaysNo(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	user := testUser(testRole(entity.RoleCustomer))
	f.users.On("FindByEmail", ctx, user.Email).Return(user, nil)
	f.provider.On("IsEmailVerified", ctx, user.ExternalIdentityRef, user.Email).Return(false, nil)

	got, err := f.srv.ReconcileEmailVerification(ctx, user.Email)

	require.NoError(t, err)
	assert.False(t, got.IsEmailVerified)
	assert.Zero(t, f.tx.Calls)
}

func TestReconciliationService_RecordPasswordChanged(t *testing.T) {
	ctx := context.Background()
	f := newReconciliationFixture()

	f.users.On("SetPasswordChangedAt", ctx, "ext-1", fixedNow).Return(true, nil)

	require.NoError(t, f.srv.AfterPasswordChanged(ctx, "ext-1"))
	f.users.AssertExpectations(t)
}
