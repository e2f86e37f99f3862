package service

import (
	"context"
)

// NotificationSender dispatches user-facing notifications.
// Callers treat every method as best effort: a failure is logged, never propagated.
type NotificationSender interface {
	SendVerificationEmail(ctx context.Context, email, name, link string) error
	SendPasswordResetEmail(ctx context.Context, email, link string) error
	SendAdminActivationEmail(ctx context.Context, email, name string, role string, link string) error
	SendVendorDecisionEmail(ctx context.Context, email, storeName string, approved bool, reason string) error
	NotifyAdminsVendorPending(ctx context.Context, vendorID, storeName string) error
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TopicNotifier sends a push notification to every device subscribed to topic.
type TopicNotifier interface {
	SendTopicNotification(ctx context.Context, topic, title, body string, data map[string]string) error
}
