package impl

import (
	"context"
	"log/slog"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/infra/metrics"
)

// verificationMailer issues provider verification tokens and mails the link. It never returns an error.
type verificationMailer struct {
	provider service.IdentityProvider
	notifier service.NotificationSender
	frontend *config.FrontendConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// token issues a verification token. An empty token means none was issued.
func (m *verificationMailer) token(ctx context.Context, user *entity.User) string {
	logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger).With(slog.String("external_id", user.ExternalIdentityRef))

	res, err := m.provider.CreateEmailVerificationToken(ctx, constants.DefaultTenant, user.ExternalIdentityRef, user.Email)
	if err != nil {
		m.metrics.NotificationFailed(string(service.NotificationVerifyEmail))
		logger.Warn("Failed to create email verification token", slog.Any("error", err))

		return ""
	}
	if res.Status != service.StatusOK {
		logger.Info("Verification token not issued", slog.String("status", string(res.Status)))

		return ""
	}

	return res.Token
}

func (m *verificationMailer) link(token, email string) string {
	return verificationLink(m.frontend, token, email)
}

// sendInBackground runs sendVerification through async, detached from ctx's cancellation.
func (m *verificationMailer) sendInBackground(ctx context.Context, user *entity.User, async func(func())) {
	bg := context.WithoutCancel(ctx)

	async(func() {
		ctx, cancel := context.WithTimeout(bg, backgroundTimeout)
		defer cancel()

		m.sendVerification(ctx, user)
	})
}

// sendVerification reports whether the verification email was handed to the notifier.
func (m *verificationMailer) sendVerification(ctx context.Context, user *entity.User) bool {
	token := m.token(ctx, user)
	if token == "" {
		return false
	}

	if err := m.notifier.SendVerificationEmail(ctx, user.Email, user.FullName(), m.link(token, user.Email)); err != nil {
		m.metrics.NotificationFailed(string(service.NotificationVerifyEmail))
		deliverycontext.GetLoggerOrDefault(ctx, m.logger).Warn("Failed to send verification email",
			slog.String("external_id", user.ExternalIdentityRef), slog.Any("error", err))

		return false
	}

	return true
}
