package errors

import (
	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	i18nPkg "github.com/gaoyong06/go-pkg/middleware/i18n"
)

func init() {
	// 初始化全局错误管理器（使用项目特定的配置）
	pkgErrors.InitGlobalErrorManager("i18n", i18nPkg.Language)
}

// 计费服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 billing-service
// 模块划分：
//   01: 订阅模块
//   02: Stripe 会话模块
//   03: webhook 模块

// 订阅模块 (140100-140199)
const (
	// ErrCodeSubscriptionNotFound 工作空间没有有效订阅错误
	ErrCodeSubscriptionNotFound = 140101
	// ErrCodeSubscriptionItemNotFound 订阅中不存在指定产品的明细错误
	ErrCodeSubscriptionItemNotFound = 140102
	// ErrCodeSubscriptionConflict 同一工作空间存在多个未取消订阅（数据完整性错误）
	ErrCodeSubscriptionConflict = 140103
)

// Stripe 会话模块 (140200-140299)
const (
	// ErrCodeCheckoutSessionFailed checkout session 创建失败或缺少 URL 错误
	ErrCodeCheckoutSessionFailed = 140201
	// ErrCodePortalSessionFailed billing portal session 创建失败或缺少 URL 错误
	ErrCodePortalSessionFailed = 140202
	// ErrCodeProductNotFound 未知产品错误
	ErrCodeProductNotFound = 140203
)

// webhook 模块 (140300-140399)
const (
	// ErrCodeWebhookSignatureInvalid webhook 签名验证失败错误
	ErrCodeWebhookSignatureInvalid = 140301
	// ErrCodeWebhookPayloadInvalid webhook 负载解析失败错误
	ErrCodeWebhookPayloadInvalid = 140302
)
