package service

import (
	"context"
)

// NotificationType selects the template and channel the worker uses.
type NotificationType string

const (
	NotificationVerifyEmail     NotificationType = "verify_email"
	NotificationPasswordReset   NotificationType = "password_reset"
	NotificationAdminActivation NotificationType = "admin_activation"
	NotificationVendorApproved  NotificationType = "vendor_approved"
	NotificationVendorRejected  NotificationType = "vendor_rejected"
	NotificationVendorPending   NotificationType = "vendor_pending" // admin topic push
)

// NotificationEvent is published for the mail worker to deliver.
type NotificationEvent struct {
	RequestID string            `json:"request_id,omitempty"`
	EventID   string            `json:"event_id"`
	Type      NotificationType  `json:"type"`
	To        string            `json:"to,omitempty"`
	Name      string            `json:"name,omitempty"`
	Link      string            `json:"link,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// EventPublisher publishes events to a message queue.
type EventPublisher interface {
	PublishNotificationEvent(ctx context.Context, event *NotificationEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
