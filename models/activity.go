package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityEvent is the append-only audit trail. Appends are best-effort:
// a failed append is logged and alert-worthy, but it never rolls back the
// financial mutation it describes.
type ActivityEvent struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	Type          ActivityEventType `gorm:"size:50;index;not null" json:"type"`
	ActorUserId   string            `gorm:"size:36" json:"actor_user_id"`
	Payload       json.RawMessage   `gorm:"type:json" json:"payload"`
	CorrelationId string            `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

// AppendEvent writes the event on the main connection, outside any caller
// transaction, so an audit failure cannot fail the primary operation.
func AppendEvent(ctx context.Context, eventType ActivityEventType, actorUserId string, payload map[string]interface{}) {
	logger := config.GetLogger()

	raw, err := json.Marshal(payload)
	if err != nil {
		config.LogError(logger, "activity.go", "AppendEvent", "Marshal payload", payload, err)
		return
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	event := ActivityEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		ActorUserId:   actorUserId,
		Payload:       raw,
		CorrelationId: correlationId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&event).Error; err != nil {
		config.LogError(logger, "activity.go", "AppendEvent", string(eventType), payload, err)
	}
}

func ListRecentEvents(ctx context.Context, limit int) ([]*ActivityEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := config.GetDB()
	var events []*ActivityEvent
	if err := db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountServedByStationBetween counts served items per station for a time
// window, for shift reports.
func CountServedByStationBetween(tx *gorm.DB, from, to time.Time) (map[StationRole]int64, error) {
	var rows []struct {
		AssignedTo StationRole
		Count      int64
	}
	if err := tx.Model(&OrderItem{}).
		Select("assigned_to, COUNT(*) as count").
		Where("status = ?", OrderItemStatusServed).
		Where("updated_at >= ? AND updated_at < ?", from, to).
		Group("assigned_to").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[StationRole]int64{}
	for _, row := range rows {
		counts[row.AssignedTo] = row.Count
	}
	return counts, nil
}
