package model

// NotificationType classifies how a notification was delivered.
type NotificationType int

const (
	NotificationEmail       NotificationType = 1
	NotificationSMS         NotificationType = 2
	NotificationSystemAlert NotificationType = 3
)

func (t NotificationType) String() string {
	switch t {
	case NotificationEmail:
		return "email"
	case NotificationSMS:
		return "sms"
	case NotificationSystemAlert:
		return "system"
	default:
		return "unknown"
	}
}

// Notification is a message addressed to one user.
type Notification struct {
	ID        ID               `json:"id"`
	UserID    ID               `json:"userId"`
	TypeID    NotificationType `json:"typeId"`
	Title     string           `json:"title,omitempty"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"isRead"`
	CreatedAt Timestamp        `json:"createdAt"`
}

// Heading returns the title, falling back to the type name.
func (n Notification) Heading() string {
	if n.Title != "" {
		return n.Title
	}
	switch n.TypeID {
	case NotificationEmail:
		return "Email"
	case NotificationSMS:
		return "SMS"
	case NotificationSystemAlert:
		return "System alert"
	}
	return "Notification"
}
