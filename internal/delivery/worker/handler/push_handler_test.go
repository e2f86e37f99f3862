package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/config"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/mocks"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func testWorkerConfig(provider, env string) *config.Config {
	cfg := &config.Config{}
	cfg.Env.Env = env
	cfg.PubSub = &config.PubSubConfig{Provider: provider, PushAudience: "https://worker.example.com/push"}

	return cfg
}

func newTestHandler(mailer *mocks.Mailer, notifier *mocks.TopicNotifier, cfg *config.Config) *PushHandler {
	params := PushHandlerParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Mailer: mailer,
	}
	if notifier != nil {
		params.TopicNotifier = notifier
	}

	return NewPushHandler(params)
}

func pushBody(t *testing.T, event *service.NotificationEvent) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	envelope := map[string]any{
		"message": map[string]any{
			"data":       base64.StdEncoding.EncodeToString(data),
			"attributes": map[string]string{constants.AttributeRequestID: "req-1"},
			"messageId":  "m-1",
		},
		"subscription": "projects/p/subscriptions/mail",
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	return string(raw)
}

func servePush(h *PushHandler, body string, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	e.POST("/push", h.HandlePush)

	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestHandlePush_SendsRenderedEmail(t *testing.T) {
	mailer := new(mocks.Mailer)
	mailer.On("Send", mock.Anything, "a@example.com", mock.AnythingOfType("string"),
		mock.MatchedBy(func(body string) bool { return strings.Contains(body, "https://shop.example.com/verify?token=t") }),
	).Return(nil)

	h := newTestHandler(mailer, nil, testWorkerConfig(constants.PubSubProviderLocal, constants.EnvDevelop))
	rec := servePush(h, pushBody(t, &service.NotificationEvent{
		EventID: "e-1",
		Type:    service.NotificationVerifyEmail,
		To:      "a@example.com",
		Name:    "Ann",
		Link:    "https://shop.example.com/verify?token=t",
	}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mailer.AssertExpectations(t)
}

func TestHandlePush_MailFailureIsRetried(t *testing.T) {
	mailer := new(mocks.Mailer)
	mailer.On("Send", mock.Anything, "a@example.com", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	h := newTestHandler(mailer, nil, testWorkerConfig(constants.PubSubProviderLocal, constants.EnvDevelop))
	rec := servePush(h, pushBody(t, &service.NotificationEvent{
		Type: service.NotificationPasswordReset,
		To:   "a@example.com",
		Link: "https://shop.example.com/reset?token=t",
	}), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePush_PermanentFailuresAreAcknowledged(t *testing.T) {
	tests := []struct {
		name  string
		event *service.NotificationEvent
	}{
		{
			name:  "unknown type",
			event: &service.NotificationEvent{Type: "carrier_pigeon", To: "a@example.com"},
		},
		{
			name:  "missing recipient",
			event: &service.NotificationEvent{Type: service.NotificationVerifyEmail},
		},
		{
			name:  "pending vendor without topic",
			event: &service.NotificationEvent{Type: service.NotificationVendorPending, Data: map[string]string{"vendorId": "v1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(mocks.Mailer)
			h := newTestHandler(mailer, new(mocks.TopicNotifier), testWorkerConfig(constants.PubSubProviderLocal, constants.EnvDevelop))

			rec := servePush(h, pushBody(t, tt.event), nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandlePush_VendorPendingGoesToTopic(t *testing.T) {
	notifier := new(mocks.TopicNotifier)
	notifier.On("SendTopicNotification", mock.Anything, "admins", mock.Anything,
		mock.MatchedBy(func(body string) bool { return strings.Contains(body, "Corner Shop") }),
		map[string]string{"type": "vendor_pending", "vendorId": "v1"},
	).Return(nil)

	h := newTestHandler(new(mocks.Mailer), notifier, testWorkerConfig(constants.PubSubProviderLocal, constants.EnvDevelop))
	rec := servePush(h, pushBody(t, &service.NotificationEvent{
		Type: service.NotificationVendorPending,
		Data: map[string]string{"topic": "admins", "vendorId": "v1", "storeName": "Corner Shop"},
	}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertExpectations(t)
}

func TestHandlePush_MalformedEnvelope(t *testing.T) {
	h := newTestHandler(new(mocks.Mailer), nil, testWorkerConfig(constants.PubSubProviderLocal, constants.EnvDevelop))

	rec := servePush(h, `{"message":{"data":"%%%not-base64"}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePush_VerifiesGoogleToken(t *testing.T) {
	cfg := testWorkerConfig(constants.PubSubProviderGoogle, "production")

	t.Run("missing token is rejected", func(t *testing.T) {
		h := newTestHandler(new(mocks.Mailer), nil, cfg)
		require.True(t, h.verifyPushAuth)

		rec := servePush(h, pushBody(t, &service.NotificationEvent{Type: service.NotificationVerifyEmail, To: "a@example.com"}), nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token uses configured audience", func(t *testing.T) {
		mailer := new(mocks.Mailer)
		mailer.On("Send", mock.Anything, "a@example.com", mock.Anything, mock.Anything).Return(nil)

		h := newTestHandler(mailer, nil, cfg)
		var gotAudience string
		h.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
			gotAudience = audience
			if token != "good" {
				return nil, errors.New("bad token")
			}

			return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
		}

		rec := servePush(h, pushBody(t, &service.NotificationEvent{Type: service.NotificationVerifyEmail, To: "a@example.com"}),
			http.Header{"Authorization": {"Bearer good"}})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://worker.example.com/push", gotAudience)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		h := newTestHandler(new(mocks.Mailer), nil, cfg)
		h.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
			return &idtoken.Payload{Issuer: "https://evil.example.com"}, nil
		}

		rec := servePush(h, pushBody(t, &service.NotificationEvent{Type: service.NotificationVerifyEmail, To: "a@example.com"}),
			http.Header{"Authorization": {"Bearer good"}})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandlePush_SkipsVerificationInDevelop(t *testing.T) {
	h := newTestHandler(new(mocks.Mailer), nil, testWorkerConfig(constants.PubSubProviderGoogle, constants.EnvDevelop))

	assert.False(t, h.verifyPushAuth)
}
