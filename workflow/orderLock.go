package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/bsm/redislock"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

// Spans from here nest the otelgorm query spans emitted inside the
// transactions.
var tracer = otel.Tracer("cafe-backend/workflow")

// AcquireOrderPostingLock serializes billing mutations per order across
// instances using MySQL advisory locks: at most one in-flight mutation per
// order, so a recalculation never races a concurrent item write.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that runs the posting transaction.
func AcquireOrderPostingLock(tx *gorm.DB, orderId string) error {
	lockName := fmt.Sprintf("order:%s", orderId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for order_id=%s", orderId)
	}
	return nil
}

func ReleaseOrderPostingLock(tx *gorm.DB, orderId string) {
	lockName := fmt.Sprintf("order:%s", orderId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireOrderPostingLocks locks several orders in sorted id order, so
// two splits touching overlapping order pairs cannot deadlock each other.
func AcquireOrderPostingLocks(tx *gorm.DB, orderIds ...string) error {
	ids := utils.UniqueSlice(orderIds)
	sort.Strings(ids)
	for i, id := range ids {
		if err := AcquireOrderPostingLock(tx, id); err != nil {
			for _, held := range ids[:i] {
				ReleaseOrderPostingLock(tx, held)
			}
			return err
		}
	}
	return nil
}

func ReleaseOrderPostingLocks(tx *gorm.DB, orderIds ...string) {
	ids := utils.UniqueSlice(orderIds)
	sort.Strings(ids)
	for _, id := range ids {
		ReleaseOrderPostingLock(tx, id)
	}
}

// obtainOrderGuard takes a best-effort redis lock around a billing
// operation. Reliability does not depend on redis; the advisory lock
// inside the transaction is the authoritative serializer. The returned
// release func is always safe to call.
func obtainOrderGuard(ctx context.Context, operation string, orderId string) func() {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}

	lockKey := fmt.Sprintf("%s:%s", operation, orderId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained || err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "orderLock.go", "obtainOrderGuard", "Obtain "+lockKey, orderId, err)
		return func() {}
	}
	return func() {
		_ = lock.Release(ctx)
	}
}
