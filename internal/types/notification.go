package types

// NotificationKind selects the side effect a queued notification triggers
type NotificationKind string

const (
	NotificationSetPassword  NotificationKind = "set_password"
	NotificationMarketingTag NotificationKind = "marketing_tag"
)
