package audit

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
)

// Recorder persists sync attempt log rows. Writes are best-effort: a failed
// insert is logged and swallowed so bookkeeping can never change a relay
// outcome.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a new attempt log recorder with dependencies
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: logger,
	}
}

// Record inserts one attempt log row
func (r *Recorder) Record(ctx context.Context, entry *models.SyncAttemptLog) {
	if r == nil || r.db == nil {
		return
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Warn("Failed to record sync attempt",
			zap.String("event_id", entry.EventID.String()),
			zap.String("action", entry.Action),
			zap.String("outcome", entry.Outcome),
			zap.Error(err),
		)
	}
}
