package domain

// NotificationPriority mirrors the importance a host shows a persistent notification with.
type NotificationPriority string

const (
	NotificationPriorityLow     NotificationPriority = "low"
	NotificationPriorityDefault NotificationPriority = "default"
)

// Notification is the persistent notice shown while tracking keeps the process alive.
type Notification struct {
	ChannelID          string               `json:"channel_id"`
	ChannelName        string               `json:"channel_name"`
	ChannelDescription string               `json:"channel_description"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Priority           NotificationPriority `json:"priority"`
	Ongoing            bool                 `json:"ongoing"`
	ShowBadge          bool                 `json:"show_badge"`
	// ContentURL is opened when the notification is tapped.
	ContentURL string `json:"content_url"`
}

func DefaultNotification() Notification {
	return Notification{
		ChannelID:          "busnap_location_service",
		ChannelName:        "Busnap Location Service",
		ChannelDescription: "Background location tracking for Busnap",
		Title:              "Busnap Location Tracking",
		Body:               "Tracking your location in background",
		Priority:           NotificationPriorityLow,
		Ongoing:            true,
		ShowBadge:          false,
		ContentURL:         "/",
	}
}
