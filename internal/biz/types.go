package biz

import "time"

// BillingSubscription 工作空间订阅 (Stripe 订阅的本地镜像)
type BillingSubscription struct {
	ID                   string
	WorkspaceID          string
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string // active, trialing, past_due, unpaid, canceled, incomplete
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []*BillingSubscriptionItem
}

// BillingSubscriptionItem 订阅明细
type BillingSubscriptionItem struct {
	ID                       string
	BillingSubscriptionID    string
	StripeProductID          string
	StripePriceID            string
	StripeSubscriptionItemID string
	Quantity                 int64
}

// StripePrice Stripe 返回的原始价格
type StripePrice struct {
	ID                string
	UnitAmount        int64
	RecurringInterval string // month, year; 非订阅价格为空
	Created           int64  // unix 秒
}

// ProductPrice 某产品按计费区间筛选后的当前可售价格
type ProductPrice struct {
	StripePriceID     string `json:"stripe_price_id"`
	UnitAmount        int64  `json:"unit_amount"`
	RecurringInterval string `json:"recurring_interval"`
	Created           int64  `json:"created"`
}

// User 发起 checkout 的用户
type User struct {
	ID                 string
	Email              string
	DefaultWorkspaceID string
}

// SubscriptionCriteria 订阅查询条件, 两个字段二选一
type SubscriptionCriteria struct {
	WorkspaceID      string
	StripeCustomerID string
}

// SubscriptionEvent subscription.created/updated/deleted 事件携带的订阅快照
type SubscriptionEvent struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	Items                []*SubscriptionEventItem
}

// SubscriptionEventItem 事件中的订阅明细快照
type SubscriptionEventItem struct {
	StripeProductID          string
	StripePriceID            string
	StripeSubscriptionItemID string
	Quantity                 int64
}
