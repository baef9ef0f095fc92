package data

import (
	"context"
	"errors"
	"time"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/constants"
	"xinyuan_tech/billing-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// billingSubscriptionRepo 订阅仓库实现
type billingSubscriptionRepo struct {
	data *Data
	log  *log.Helper
}

// NewBillingSubscriptionRepo 创建订阅仓库
func NewBillingSubscriptionRepo(data *Data, logger log.Logger) biz.BillingSubscriptionRepo {
	return &billingSubscriptionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// FindNotCanceled 按条件查询非 canceled 订阅, 预加载明细
func (r *billingSubscriptionRepo) FindNotCanceled(ctx context.Context, criteria biz.SubscriptionCriteria) ([]*biz.BillingSubscription, error) {
	query := r.data.db.WithContext(ctx).Where("status <> ?", constants.StatusCanceled)
	if criteria.WorkspaceID != "" {
		query = query.Where("workspace_id = ?", criteria.WorkspaceID)
	}
	if criteria.StripeCustomerID != "" {
		query = query.Where("stripe_customer_id = ?", criteria.StripeCustomerID)
	}

	var models []model.BillingSubscription
	if err := query.Preload("Items").Find(&models).Error; err != nil {
		r.log.Errorf("Failed to find not canceled subscriptions: %v", err)
		return nil, err
	}

	subs := make([]*biz.BillingSubscription, len(models))
	for i := range models {
		subs[i] = toBizSubscription(&models[i])
	}
	return subs, nil
}

// FindByWorkspace 按工作空间查询订阅 (不过滤状态), 无记录时返回 nil
func (r *billingSubscriptionRepo) FindByWorkspace(ctx context.Context, workspaceID string) (*biz.BillingSubscription, error) {
	var m model.BillingSubscription
	err := r.data.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to find subscription for workspace %s: %v", workspaceID, err)
		return nil, err
	}
	return toBizSubscription(&m), nil
}

// Upsert 以 stripe_subscription_id 为冲突键插入或更新, 字段无变化时跳过写入
func (r *billingSubscriptionRepo) Upsert(ctx context.Context, sub *biz.BillingSubscription) error {
	db := r.data.db.WithContext(ctx)

	// 变更检测: 字段完全一致时跳过写入, 保证重复投递不产生无效更新
	var existing model.BillingSubscription
	err := db.Where("stripe_subscription_id = ?", sub.StripeSubscriptionID).First(&existing).Error
	if err == nil &&
		existing.WorkspaceID == sub.WorkspaceID &&
		existing.StripeCustomerID == sub.StripeCustomerID &&
		existing.Status == sub.Status {
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Errorf("Failed to load subscription %s for upsert: %v", sub.StripeSubscriptionID, err)
		return err
	}

	now := time.Now().UTC()
	m := &model.BillingSubscription{
		ID:                   uuid.NewString(),
		WorkspaceID:          sub.WorkspaceID,
		StripeCustomerID:     sub.StripeCustomerID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Status:               sub.Status,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"workspace_id", "stripe_customer_id", "status", "updated_at"}),
	}).Create(m).Error; err != nil {
		r.log.Errorf("Failed to upsert subscription %s: %v", sub.StripeSubscriptionID, err)
		return err
	}
	return nil
}

// UpsertItems 以 (billing_subscription_id, stripe_product_id) 为冲突键合并明细
//
// 差量合并: 事件里没有而本地有的明细保持不动
func (r *billingSubscriptionRepo) UpsertItems(ctx context.Context, billingSubscriptionID string, items []*biz.SubscriptionEventItem) error {
	db := r.data.db.WithContext(ctx)

	for _, item := range items {
		var existing model.BillingSubscriptionItem
		err := db.Where("billing_subscription_id = ? AND stripe_product_id = ?",
			billingSubscriptionID, item.StripeProductID).First(&existing).Error
		if err == nil &&
			existing.StripePriceID == item.StripePriceID &&
			existing.StripeSubscriptionItemID == item.StripeSubscriptionItemID &&
			existing.Quantity == item.Quantity {
			continue
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Errorf("Failed to load item for product %s: %v", item.StripeProductID, err)
			return err
		}

		now := time.Now().UTC()
		m := &model.BillingSubscriptionItem{
			ID:                       uuid.NewString(),
			BillingSubscriptionID:    billingSubscriptionID,
			StripeProductID:          item.StripeProductID,
			StripePriceID:            item.StripePriceID,
			StripeSubscriptionItemID: item.StripeSubscriptionItemID,
			Quantity:                 item.Quantity,
			CreatedAt:                now,
			UpdatedAt:                now,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "billing_subscription_id"}, {Name: "stripe_product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stripe_price_id", "stripe_subscription_item_id", "quantity", "updated_at"}),
		}).Create(m).Error; err != nil {
			r.log.Errorf("Failed to upsert item for product %s: %v", item.StripeProductID, err)
			return err
		}
	}
	return nil
}

// Delete 删除本地订阅记录及其明细
func (r *billingSubscriptionRepo) Delete(ctx context.Context, id string) error {
	db := r.data.db.WithContext(ctx)
	if err := db.Where("billing_subscription_id = ?", id).Delete(&model.BillingSubscriptionItem{}).Error; err != nil {
		r.log.Errorf("Failed to delete items of subscription %s: %v", id, err)
		return err
	}
	if err := db.Where("id = ?", id).Delete(&model.BillingSubscription{}).Error; err != nil {
		r.log.Errorf("Failed to delete subscription %s: %v", id, err)
		return err
	}
	return nil
}

func toBizSubscription(m *model.BillingSubscription) *biz.BillingSubscription {
	items := make([]*biz.BillingSubscriptionItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = &biz.BillingSubscriptionItem{
			ID:                       it.ID,
			BillingSubscriptionID:    it.BillingSubscriptionID,
			StripeProductID:          it.StripeProductID,
			StripePriceID:            it.StripePriceID,
			StripeSubscriptionItemID: it.StripeSubscriptionItemID,
			Quantity:                 it.Quantity,
		}
	}
	return &biz.BillingSubscription{
		ID:                   m.ID,
		WorkspaceID:          m.WorkspaceID,
		StripeCustomerID:     m.StripeCustomerID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		Status:               m.Status,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		Items:                items,
	}
}
