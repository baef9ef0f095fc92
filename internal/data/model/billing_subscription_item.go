package model

import "time"

// BillingSubscriptionItem 订阅明细, 镜像 Stripe subscription item
// 不变式: (billing_subscription_id, stripe_product_id) 唯一
type BillingSubscriptionItem struct {
	ID                       string    `gorm:"primaryKey;column:billing_subscription_item_id;type:varchar(36)"`
	BillingSubscriptionID    string    `gorm:"column:billing_subscription_id;type:varchar(36);uniqueIndex:idx_subscription_product"`
	StripeProductID          string    `gorm:"column:stripe_product_id;uniqueIndex:idx_subscription_product"`
	StripePriceID            string    `gorm:"column:stripe_price_id"`
	StripeSubscriptionItemID string    `gorm:"column:stripe_subscription_item_id"`
	Quantity                 int64     `gorm:"column:quantity"`
	CreatedAt                time.Time `gorm:"column:created_at"`
	UpdatedAt                time.Time `gorm:"column:updated_at"`
}

func (BillingSubscriptionItem) TableName() string { return "billing_subscription_item" }
