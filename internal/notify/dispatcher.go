// Package notify creates in-app notification records.
package notify

import (
	"github.com/taskhive-dev/taskhive/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Dispatcher struct {
	DB *gorm.DB

	// OnCreate, when set, receives every stored notification. Used to
	// push records over live WebSocket connections.
	OnCreate func(models.Notification)
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{DB: db}
}

// Notify creates exactly one notification record. It is a no-op when
// the recipient is the acting user or empty. Repeated triggers produce
// repeated records; there is no deduplication.
func (d *Dispatcher) Notify(actorID, recipientID, notifType, title, message string, metadata map[string]any) error {
	if recipientID == "" || recipientID == actorID {
		return nil
	}

	notification := models.Notification{
		Type:     notifType,
		Title:    title,
		Message:  message,
		UserID:   recipientID,
		Metadata: datatypes.JSONMap(metadata),
	}

	if err := d.DB.Create(&notification).Error; err != nil {
		return err
	}

	if d.OnCreate != nil {
		d.OnCreate(notification)
	}

	return nil
}
