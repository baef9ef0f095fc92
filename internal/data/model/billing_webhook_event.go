package model

import "time"

// BillingWebhookEvent webhook 事件日志
// stripe_event_id 唯一, 用于 at-least-once 投递下的去重, 定时任务按保留期清理
type BillingWebhookEvent struct {
	ID            uint64    `gorm:"primaryKey;column:billing_webhook_event_id;autoIncrement"`
	StripeEventID string    `gorm:"column:stripe_event_id;uniqueIndex"`
	Type          string    `gorm:"column:type;index"`
	Payload       string    `gorm:"column:payload;type:mediumtext"`
	ReceivedAt    time.Time `gorm:"column:received_at;index"`
}

func (BillingWebhookEvent) TableName() string { return "billing_webhook_event" }
