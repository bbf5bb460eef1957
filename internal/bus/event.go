package bus

import "time"

// Event kinds. Subscribers filter on the namespace prefix before the dot.
const (
	NamespaceSession       = "session."
	NamespaceNotifications = "notifications."
	NamespaceSearch        = "search."

	KindStatusChanged        = "session.status_changed"
	KindNotificationsUpdated = "notifications.updated"
	KindRefreshFailed        = "notifications.refresh_failed"
	KindSearchResults        = "search.results"
)

// Event is a state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
