package data

import (
	"context"
	"time"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm/clause"
)

// webhookEventRepo webhook 事件日志仓库实现
type webhookEventRepo struct {
	data *Data
	log  *log.Helper
}

// NewWebhookEventRepo 创建 webhook 事件日志仓库
func NewWebhookEventRepo(data *Data, logger log.Logger) biz.WebhookEventRepo {
	return &webhookEventRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Exists 判断事件ID是否已登记
func (r *webhookEventRepo) Exists(ctx context.Context, stripeEventID string) (bool, error) {
	var count int64
	if err := r.data.db.WithContext(ctx).
		Model(&model.BillingWebhookEvent{}).
		Where("stripe_event_id = ?", stripeEventID).
		Count(&count).Error; err != nil {
		r.log.Errorf("Failed to check webhook event %s: %v", stripeEventID, err)
		return false, err
	}
	return count > 0, nil
}

// Record 登记一次事件投递, 事件ID冲突时不写入并返回 false
func (r *webhookEventRepo) Record(ctx context.Context, stripeEventID, eventType, payload string) (bool, error) {
	m := &model.BillingWebhookEvent{
		StripeEventID: stripeEventID,
		Type:          eventType,
		Payload:       payload,
		ReceivedAt:    time.Now().UTC(),
	}
	result := r.data.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_event_id"}},
		DoNothing: true,
	}).Create(m)
	if result.Error != nil {
		r.log.Errorf("Failed to record webhook event %s: %v", stripeEventID, result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PruneBefore 删除指定时间之前的事件日志
func (r *webhookEventRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.data.db.WithContext(ctx).
		Where("received_at < ?", cutoff).
		Delete(&model.BillingWebhookEvent{})
	if result.Error != nil {
		r.log.Errorf("Failed to prune webhook events: %v", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
