package models

import "time"

// WebhookEvent is the idempotency ledger for gateway notifications.
// The gateway delivers at-least-once and in no particular order; a row
// here with Processed=true means the event was fully applied and any
// redelivery is a no-op.
type WebhookEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EventID     string     `gorm:"uniqueIndex;size:200;not null" json:"event_id"`
	EventType   string     `gorm:"size:100" json:"event_type"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
