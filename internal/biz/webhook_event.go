package biz

import (
	"context"
	"time"

	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// WebhookEventRepo webhook 事件日志仓库接口
type WebhookEventRepo interface {
	// Exists 判断事件ID是否已登记
	Exists(ctx context.Context, stripeEventID string) (bool, error)
	// Record 登记一次事件投递, 事件ID已存在时返回 false (并发重复投递)
	Record(ctx context.Context, stripeEventID, eventType, payload string) (bool, error)
	// PruneBefore 删除指定时间之前的事件日志, 返回删除行数
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WebhookEventUsecase webhook 事件日志业务逻辑
type WebhookEventUsecase struct {
	repo   WebhookEventRepo
	config *conf.Bootstrap
	log    *log.Helper
}

// NewWebhookEventUsecase 创建 webhook 事件日志用例
func NewWebhookEventUsecase(repo WebhookEventRepo, config *conf.Bootstrap, logger log.Logger) *WebhookEventUsecase {
	return &WebhookEventUsecase{
		repo:   repo,
		config: config,
		log:    log.NewHelper(logger),
	}
}

// AlreadyProcessed 判断事件是否已经成功处理过
func (uc *WebhookEventUsecase) AlreadyProcessed(ctx context.Context, stripeEventID string) (bool, error) {
	seen, err := uc.repo.Exists(ctx, stripeEventID)
	if err != nil {
		uc.log.Errorf("Failed to check webhook event %s: %v", stripeEventID, err)
		return false, err
	}
	return seen, nil
}

// RecordEvent 在事件处理成功后登记事件ID, 返回是否首次登记
//
// 登记必须发生在处理之后: 处理失败的投递不留痕迹, Stripe 重试时才会被重新处理
// 而不是被当成重复投递跳过
func (uc *WebhookEventUsecase) RecordEvent(ctx context.Context, stripeEventID, eventType, payload string) (bool, error) {
	first, err := uc.repo.Record(ctx, stripeEventID, eventType, payload)
	if err != nil {
		uc.log.Errorf("Failed to record webhook event %s: %v", stripeEventID, err)
		return false, err
	}
	if !first {
		uc.log.Infof("Webhook event %s (%s) was recorded concurrently", stripeEventID, eventType)
	}
	return first, nil
}

// PruneExpired 按配置的保留期清理过期事件日志
func (uc *WebhookEventUsecase) PruneExpired(ctx context.Context) (int64, error) {
	retentionDays := constants.DefaultWebhookEventRetentionDays
	if uc.config.Billing != nil && uc.config.Billing.WebhookEventRetentionDays > 0 {
		retentionDays = uc.config.Billing.WebhookEventRetentionDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	count, err := uc.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		uc.log.Errorf("Failed to prune webhook events before %s: %v", cutoff.Format(time.RFC3339), err)
		return 0, err
	}

	uc.log.Infof("Pruned %d webhook events older than %d days", count, retentionDays)
	return count, nil
}
