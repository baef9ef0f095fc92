package constants

import "time"

// 缓存相关常量
const (
	// ProductPriceCacheExpiration Stripe 价格列表缓存过期时间
	ProductPriceCacheExpiration = time.Hour
	// NullCacheExpiration 空值缓存过期时间 (防止缓存穿透)
	NullCacheExpiration = 5 * time.Minute
)

// 分布式锁相关常量
const (
	// EventPruneLockExpiration 事件日志清理锁过期时间
	EventPruneLockExpiration = 10 * time.Minute
	// EventPruneLockRetries 事件日志清理锁重试次数
	EventPruneLockRetries = 1
)

// webhook 事件日志相关常量
const (
	// DefaultWebhookEventRetentionDays 默认 webhook 事件日志保留天数
	DefaultWebhookEventRetentionDays = 30
	// MaxWebhookBodyBytes webhook 请求体大小上限
	MaxWebhookBodyBytes = int64(65536)
)

// 订阅状态 (与 Stripe 保持一致, 本地只做镜像, 不会自行发起状态变更)
const (
	StatusActive     = "active"
	StatusTrialing   = "trialing"
	StatusPastDue    = "past_due"
	StatusUnpaid     = "unpaid"
	StatusCanceled   = "canceled"
	StatusIncomplete = "incomplete"
)

// 计费区间
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// 可售卖的产品
const (
	// ProductBasePlan 基础套餐
	ProductBasePlan = "base-plan"
)

// Stripe webhook 事件类型
const (
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventSetupIntentSucceeded = "setup_intent.succeeded"
)

// MetadataWorkspaceIDKey checkout session metadata 中携带工作空间ID的键名
const MetadataWorkspaceIDKey = "workspace_id"

// DefaultCheckoutQuantity 成员数查询失败时的默认购买数量
const DefaultCheckoutQuantity = int64(1)
