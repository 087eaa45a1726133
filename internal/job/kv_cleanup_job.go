package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"inkpost/internal/kvstore"
)

// KVCleanupJob reclaims expired OTP/cooldown/verification rows. Reads never
// see expired keys, so the sweep is purely housekeeping.
type KVCleanupJob struct {
	store *kvstore.PostgresStore
}

func NewKVCleanupJob(store *kvstore.PostgresStore) *KVCleanupJob {
	return &KVCleanupJob{store: store}
}

func (j *KVCleanupJob) Name() string {
	return "kv_cleanup"
}

func (j *KVCleanupJob) Run(ctx context.Context) error {
	purged, err := j.store.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		logutil.GetLogger(ctx).Info("purged expired ephemeral keys", zap.Int64("count", purged))
	}
	return nil
}
