package models

// Notification statuses
const (
	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

// Notification channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
