package impl

import (
	"log/slog"
	"net/url"

	"storefront/config"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/infra/metrics"
)

// providerError wraps a transport or storage failure of the identity provider.
// Errors that already carry an application code pass through unchanged.
func providerError(operation string, err error) error {
	if _, ok := domainerrors.AsAppError(err); ok {
		return err
	}

	return domainerrors.ErrIdentityProvider.WrapMessage(operation + ": " + err.Error())
}

func verificationLink(frontend *config.FrontendConfig, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)

	return frontend.BaseURL + frontend.VerifyEmailPath + "?" + q.Encode()
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}

	return int((total + int64(limit) - 1) / int64(limit))
}

// reconciliationFailure logs an orphan with every identifier needed to repair it and returns the alarm error.
func reconciliationFailure(logger *slog.Logger, m *metrics.Metrics, operation, externalID, email string, err error, attrs ...any) error {
	m.ReconciliationFailed(operation)
	logger.Error("Local reconciliation failed", append([]any{
		slog.String("external_id", externalID),
		slog.String("email", email),
		slog.String("operation", operation),
		slog.Any("error", err),
	}, attrs...)...)

	return domainerrors.NewReconciliationError(operation, externalID, email, err)
}

func frontendConfig(cfg *config.Config) *config.FrontendConfig {
	if cfg == nil || cfg.Frontend == nil {
		return &config.FrontendConfig{}
	}

	return cfg.Frontend
}
