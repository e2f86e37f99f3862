// Package notification turns domain notifications into published events and delivers them from the worker.
package notification

import (
	"context"
	"log/slog"
	"strconv"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// eventSender implements service.NotificationSender by publishing events for the mail worker.
type eventSender struct {
	publisher  service.EventPublisher
	adminTopic string
	logger     *slog.Logger
}

// NewEventSender builds a NotificationSender on top of publisher.
func NewEventSender(publisher service.EventPublisher, cfg *config.Config, logger *slog.Logger) service.NotificationSender {
	return &eventSender{
		publisher:  publisher,
		adminTopic: cfg.Firebase.AdminTopic,
		logger:     logger,
	}
}

func (s *eventSender) publish(ctx context.Context, event *service.NotificationEvent) error {
	event.EventID = uuid.NewString()
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)

	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return errors.Wrapf(err, "publish %s notification", event.Type)
	}

	return nil
}

func (s *eventSender) SendVerificationEmail(ctx context.Context, email, name, link string) error {
	return s.publish(ctx, &service.NotificationEvent{
		Type: service.NotificationVerifyEmail,
		To:   email,
		Name: name,
		Link: link,
	})
}

func (s *eventSender) SendPasswordResetEmail(ctx context.Context, email, link string) error {
	return s.publish(ctx, &service.NotificationEvent{
		Type: service.NotificationPasswordReset,
		To:   email,
		Link: link,
	})
}

func (s *eventSender) SendAdminActivationEmail(ctx context.Context, email, name, role, link string) error {
	return s.publish(ctx, &service.NotificationEvent{
		Type: service.NotificationAdminActivation,
		To:   email,
		Name: name,
		Link: link,
		Data: map[string]string{"role": role},
	})
}

func (s *eventSender) SendVendorDecisionEmail(ctx context.Context, email, storeName string, approved bool, reason string) error {
	event := &service.NotificationEvent{
		Type: service.NotificationVendorRejected,
		To:   email,
		Data: map[string]string{
			"storeName": storeName,
			"approved":  strconv.FormatBool(approved),
		},
	}
	if approved {
		event.Type = service.NotificationVendorApproved
	} else if reason != "" {
		event.Data["reason"] = reason
	}

	return s.publish(ctx, event)
}

// NotifyAdminsVendorPending is delivered as a topic push, not an email.
func (s *eventSender) NotifyAdminsVendorPending(ctx context.Context, vendorID, storeName string) error {
	if s.adminTopic == "" {
		s.logger.DebugContext(ctx, "Admin topic not configured, skipping pending vendor push",
			slog.String("vendor_id", vendorID))

		return nil
	}

	return s.publish(ctx, &service.NotificationEvent{
		Type: service.NotificationVendorPending,
		Data: map[string]string{
			"topic":     s.adminTopic,
			"vendorId":  vendorID,
			"storeName": storeName,
		},
	})
}
