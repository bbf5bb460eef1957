package store

import (
	"time"

	"github.com/matheus3301/jobdesk/internal/model"
)

// Snapshot is the mirrored notification view of one user.
type Snapshot struct {
	UserID      model.ID
	Items       []model.Notification
	UnreadCount int
	UpdatedAt   time.Time
}

// RefreshRecord is one entry of the refresh history.
type RefreshRecord struct {
	OK    bool
	Error string
	At    time.Time
}
