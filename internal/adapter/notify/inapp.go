package notify

import (
	"context"
	"time"

	notifyDomain "microlend-backend/internal/domain/notify"

	"gorm.io/gorm"
)

// Table: notifications
type Notification struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID     string    `gorm:"size:32;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type       string    `gorm:"type:varchar(32)" json:"type"`
	Title      string    `gorm:"size:255" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	Link       string    `gorm:"size:255" json:"link,omitempty"`
	EntityType string    `gorm:"size:32" json:"entity_type,omitempty"`
	EntityID   string    `gorm:"size:32" json:"entity_id,omitempty"`
	IsRead     bool      `gorm:"index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Models lists the tables this package owns, for auto-migration.
func Models() []any { return []any{&Notification{}} }

type InApp struct{ db *gorm.DB }

func NewInApp(db *gorm.DB) *InApp { return &InApp{db: db} }

// NotifyUsers stores one row per recipient in a single insert.
func (n *InApp) NotifyUsers(ctx context.Context, userIDs []string, msg notifyDomain.Notification) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, Notification{
			UserID:     id,
			Type:       msg.Type,
			Title:      msg.Title,
			Message:    msg.Message,
			Link:       msg.Link,
			EntityType: msg.EntityType,
			EntityID:   msg.EntityID,
		})
	}
	return n.db.WithContext(ctx).Create(&rows).Error
}

// Unread lists a user's unread notifications, newest first.
func (n *InApp) Unread(ctx context.Context, userID string, limit int) ([]Notification, error) {
	var out []Notification
	q := n.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	res := q.Find(&out)
	return out, res.Error
}
