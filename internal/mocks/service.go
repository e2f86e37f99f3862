package mocks

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// IdentityProvider is a mock of service.IdentityProvider.
type IdentityProvider struct {
	mock.Mock
}

var _ service.IdentityProvider = (*IdentityProvider)(nil)

func (m *IdentityProvider) SignUp(ctx context.Context, tenant, email, password string) (*service.SignUpResult, error) {
	args := m.Called(ctx, tenant, email, password)
	res, _ := args.Get(0).(*service.SignUpResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) SignIn(ctx context.Context, tenant, email, password string) (*service.SignInResult, error) {
	args := m.Called(ctx, tenant, email, password)
	res, _ := args.Get(0).(*service.SignInResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) ThirdPartySignInUp(ctx context.Context, tenant string, claims *service.OAuthUser) (*service.ThirdPartyResult, error) {
	args := m.Called(ctx, tenant, claims)
	res, _ := args.Get(0).(*service.ThirdPartyResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) CreateEmailVerificationToken(ctx context.Context, tenant, identityRef, email string) (*service.VerificationTokenResult, error) {
	args := m.Called(ctx, tenant, identityRef, email)
	res, _ := args.Get(0).(*service.VerificationTokenResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) VerifyEmailUsingToken(ctx context.Context, tenant, token string) (*service.VerifyEmailResult, error) {
	args := m.Called(ctx, tenant, token)
	res, _ := args.Get(0).(*service.VerifyEmailResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) IsEmailVerified(ctx context.Context, identityRef, email string) (bool, error) {
	args := m.Called(ctx, identityRef, email)

	return args.Bool(0), args.Error(1)
}

func (m *IdentityProvider) SendResetPasswordEmail(ctx context.Context, tenant, email string) (service.ProviderStatus, error) {
	args := m.Called(ctx, tenant, email)
	status, _ := args.Get(0).(service.ProviderStatus)

	return status, args.Error(1)
}

func (m *IdentityProvider) ResetPasswordUsingToken(ctx context.Context, tenant, token, newPassword string) (*service.ResetPasswordResult, error) {
	args := m.Called(ctx, tenant, token, newPassword)
	res, _ := args.Get(0).(*service.ResetPasswordResult)

	return res, args.Error(1)
}

func (m *IdentityProvider) UpdateEmailOrPassword(ctx context.Context, identityRef string, email, password *string) (service.ProviderStatus, error) {
	args := m.Called(ctx, identityRef, email, password)
	status, _ := args.Get(0).(service.ProviderStatus)

	return status, args.Error(1)
}

func (m *IdentityProvider) CreateNewSession(ctx context.Context, tenant, userID string, payload map[string]any) (*entity.Session, error) {
	args := m.Called(ctx, tenant, userID, payload)
	res, _ := args.Get(0).(*entity.Session)

	return res, args.Error(1)
}

func (m *IdentityProvider) VerifySession(ctx context.Context, accessToken string) (*entity.SessionInfo, error) {
	args := m.Called(ctx, accessToken)
	res, _ := args.Get(0).(*entity.SessionInfo)

	return res, args.Error(1)
}

func (m *IdentityProvider) GetAllSessionHandlesForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]string)

	return res, args.Error(1)
}

func (m *IdentityProvider) GetSessionInformation(ctx context.Context, handle string) (*entity.SessionInfo, error) {
	args := m.Called(ctx, handle)
	res, _ := args.Get(0).(*entity.SessionInfo)

	return res, args.Error(1)
}

func (m *IdentityProvider) RevokeSession(ctx context.Context, handle string) (bool, error) {
	args := m.Called(ctx, handle)

	return args.Bool(0), args.Error(1)
}

func (m *IdentityProvider) RevokeAllSessionsForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]string)

	return res, args.Error(1)
}

func (m *IdentityProvider) GetUser(ctx context.Context, userID string) (*entity.IdentityUser, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*entity.IdentityUser)

	return res, args.Error(1)
}

func (m *IdentityProvider) ListUsers(ctx context.Context, cursor string, limit int) ([]*entity.IdentityUser, string, error) {
	args := m.Called(ctx, cursor, limit)
	res, _ := args.Get(0).([]*entity.IdentityUser)

	return res, args.String(1), args.Error(2)
}

func (m *IdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// NotificationSender is a mock of service.NotificationSender.
type NotificationSender struct {
	mock.Mock
}

var _ service.NotificationSender = (*NotificationSender)(nil)

func (m *NotificationSender) SendVerificationEmail(ctx context.Context, email, name, link string) error {
	return m.Called(ctx, email, name, link).Error(0)
}

func (m *NotificationSender) SendPasswordResetEmail(ctx context.Context, email, link string) error {
	return m.Called(ctx, email, link).Error(0)
}

func (m *NotificationSender) SendAdminActivationEmail(ctx context.Context, email, name, role, link string) error {
	return m.Called(ctx, email, name, role, link).Error(0)
}

func (m *NotificationSender) SendVendorDecisionEmail(ctx context.Context, email, storeName string, approved bool, reason string) error {
	return m.Called(ctx, email, storeName, approved, reason).Error(0)
}

func (m *NotificationSender) NotifyAdminsVendorPending(ctx context.Context, vendorID, storeName string) error {
	return m.Called(ctx, vendorID, storeName).Error(0)
}

// OAuthAuthService is a mock of service.OAuthAuthService.
type OAuthAuthService struct {
	mock.Mock
}

var _ service.OAuthAuthService = (*OAuthAuthService)(nil)

func (m *OAuthAuthService) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	args := m.Called(ctx, idToken)
	res, _ := args.Get(0).(*service.OAuthUser)

	return res, args.Error(1)
}

func (m *OAuthAuthService) GetProvider() string {
	return m.Called().String(0)
}

// PasswordHasher is a mock of service.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

var _ service.PasswordHasher = (*PasswordHasher)(nil)

func (m *PasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Check(password, hash string) bool {
	return m.Called(password, hash).Bool(0)
}

func (m *PasswordHasher) ValidatePasswordStrength(password string) error {
	return m.Called(password).Error(0)
}

// Mailer is a mock of service.Mailer.
type Mailer struct {
	mock.Mock
}

var _ service.Mailer = (*Mailer)(nil)

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

// TopicNotifier is a mock of service.TopicNotifier.
type TopicNotifier struct {
	mock.Mock
}

var _ service.TopicNotifier = (*TopicNotifier)(nil)

func (m *TopicNotifier) SendTopicNotification(ctx context.Context, topic, title, body string, data map[string]string) error {
	return m.Called(ctx, topic, title, body, data).Error(0)
}
