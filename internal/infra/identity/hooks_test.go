package identity

import (
	"context"
	"testing"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHooks struct {
	mock.Mock
}

func (m *mockHooks) AfterEmailVerified(ctx context.Context, result *service.VerifyEmailResult) (*entity.User, error) {
	args := m.Called(ctx, result)
	user, _ := args.Get(0).(*entity.User)

	return user, args.Error(1)
}

func (m *mockHooks) AfterPasswordChanged(ctx context.Context, identityRef string) error {
	return m.Called(ctx, identityRef).Error(0)
}

func expectConsume(sqlMock sqlmock.Sqlmock, kind string) {
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`UPDATE "identity_tokens" SET "consumed_at"`).
		WillReturnRows(sqlmock.NewRows([]string{"token_hash", "kind", "user_id", "email"}).
			AddRow("hash", kind, "ext-1", "me@shop.test"))
}

func TestVerifyEmailUsingToken_RunsHook(t *testing.T) {
	ctx := context.Background()

	t.Run("hook result is returned", func(t *testing.T) {
		client, sqlMock := newTestClient(t, stubHasher{}, nil)
		hooks := &mockHooks{}
		client.RegisterHooks(service.IdentityHooks{EmailVerification: hooks})
		local := &entity.User{Email: "me@shop.test", IsEmailVerified: true}

		expectConsume(sqlMock, tokenKindVerify)
		sqlMock.ExpectExec(`UPDATE "identity_login_methods"`).WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()
		hooks.On("AfterEmailVerified", ctx, mock.MatchedBy(func(r *service.VerifyEmailResult) bool {
			return r.UserID == "ext-1" && r.Email == "me@shop.test"
		})).Return(local, nil)

		result, err := client.VerifyEmailUsingToken(ctx, "", "tok")

		require.NoError(t, err)
		assert.Equal(t, service.StatusOK, result.Status)
		assert.Same(t, local, result.LocalUser)
		hooks.AssertExpectations(t)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("hook failure keeps the spent token result", func(t *testing.T) {
		client, sqlMock := newTestClient(t, stubHasher{}, nil)
		hooks := &mockHooks{}
		client.RegisterHooks(service.IdentityHooks{EmailVerification: hooks})

		expectConsume(sqlMock, tokenKindVerify)
		sqlMock.ExpectExec(`UPDATE "identity_login_methods"`).WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()
		hooks.On("AfterEmailVerified", ctx, mock.Anything).Return(nil, errors.New("local store down"))

		result, err := client.VerifyEmailUsingToken(ctx, "", "tok")

		require.ErrorContains(t, err, "local store down")
		require.NotNil(t, result)
		assert.Equal(t, service.StatusOK, result.Status)
	})

	t.Run("unregistered hook", func(t *testing.T) {
		client, sqlMock := newTestClient(t, stubHasher{}, nil)

		expectConsume(sqlMock, tokenKindVerify)
		sqlMock.ExpectExec(`UPDATE "identity_login_methods"`).WillReturnResult(sqlmock.NewResult(0, 1))
		sqlMock.ExpectCommit()

		_, err := client.VerifyEmailUsingToken(ctx, "", "tok")

		assert.ErrorIs(t, err, errHooksNotRegistered)
	})

	t.Run("spent token skips the hook", func(t *testing.T) {
		client, sqlMock := newTestClient(t, stubHasher{}, nil)
		hooks := &mockHooks{}
		client.RegisterHooks(service.IdentityHooks{EmailVerification: hooks})

		sqlMock.ExpectBegin()
		sqlMock.ExpectQuery(`UPDATE "identity_tokens"`).WillReturnRows(sqlmock.NewRows([]string{"token_hash"}))
		sqlMock.ExpectCommit()

		result, err := client.VerifyEmailUsingToken(ctx, "", "used")

		require.NoError(t, err)
		assert.Equal(t, service.StatusInvalidToken, result.Status)
		hooks.AssertNotCalled(t, "AfterEmailVerified", mock.Anything, mock.Anything)
	})
}

func TestResetPasswordUsingToken_RunsHook(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		hookErr error
	}{
		{name: "recorded"},
		{name: "hook failure does not undo the reset", hookErr: errors.New("local store down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, sqlMock := newTestClient(t, stubHasher{}, nil)
			hooks := &mockHooks{}
			client.RegisterHooks(service.IdentityHooks{PasswordReset: hooks})

			expectConsume(sqlMock, tokenKindReset)
			sqlMock.ExpectExec(`UPDATE "identity_login_methods"`).WillReturnResult(sqlmock.NewResult(0, 1))
			sqlMock.ExpectCommit()
			hooks.On("AfterPasswordChanged", ctx, "ext-1").Return(tt.hookErr).Once()

			result, err := client.ResetPasswordUsingToken(ctx, "", "tok", "N3w!pass")

			require.NoError(t, err)
			assert.Equal(t, service.StatusOK, result.Status)
			assert.Equal(t, "ext-1", result.UserID)
			hooks.AssertExpectations(t)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}
