package sync

import (
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/store"
)

// DefaultHistory is how many refresh outcomes are kept per user.
const DefaultHistory = 50

// History records refresh outcomes for `jobdesk daemon status`.
type History struct {
	db     *store.DB
	logger *zap.Logger
	keep   int
}

// NewHistory creates a refresh history writer.
func NewHistory(db *store.DB, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{db: db, logger: logger, keep: DefaultHistory}
}

// Record stores the outcome of one refresh. Write failures are logged.
func (h *History) Record(userID model.ID, refreshErr error) {
	if err := h.db.RecordRefresh(userID, refreshErr, time.Now(), h.keep); err != nil {
		h.logger.Warn("failed to record refresh outcome", zap.Error(err))
	}
}
