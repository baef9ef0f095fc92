package model

import "time"

// BillingSubscription 工作空间与 Stripe 订阅的本地镜像
// 不变式: 同一工作空间至多存在一条非 canceled 记录
type BillingSubscription struct {
	ID                   string    `gorm:"primaryKey;column:billing_subscription_id;type:varchar(36)"`
	WorkspaceID          string    `gorm:"column:workspace_id;type:varchar(36);index"`
	StripeCustomerID     string    `gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID string    `gorm:"column:stripe_subscription_id;uniqueIndex"`
	Status               string    `gorm:"column:status"` // active, trialing, past_due, unpaid, canceled, incomplete
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`

	Items []BillingSubscriptionItem `gorm:"foreignKey:BillingSubscriptionID;references:ID"`
}

func (BillingSubscription) TableName() string { return "billing_subscription" }
