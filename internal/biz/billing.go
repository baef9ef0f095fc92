package biz

import (
	"context"
	"sort"

	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"
	"xinyuan_tech/billing-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewBillingUsecase, NewWebhookEventUsecase)

// BillingSubscriptionRepo 订阅仓库接口
type BillingSubscriptionRepo interface {
	// FindNotCanceled 按条件查询非 canceled 订阅, 预加载明细
	FindNotCanceled(ctx context.Context, criteria SubscriptionCriteria) ([]*BillingSubscription, error)
	// FindByWorkspace 按工作空间查询订阅 (不过滤状态, 用于复用 Stripe customer), 无记录时返回 nil
	FindByWorkspace(ctx context.Context, workspaceID string) (*BillingSubscription, error)
	// Upsert 以 stripe_subscription_id 为冲突键插入或更新, 字段无变化时跳过写入
	Upsert(ctx context.Context, sub *BillingSubscription) error
	// UpsertItems 以 (billing_subscription_id, stripe_product_id) 为冲突键合并明细, 字段无变化时跳过写入
	UpsertItems(ctx context.Context, billingSubscriptionID string, items []*SubscriptionEventItem) error
	// Delete 删除本地订阅记录
	Delete(ctx context.Context, id string) error
}

// WorkspaceRepo 工作空间仓库接口
type WorkspaceRepo interface {
	UpdateSubscriptionStatus(ctx context.Context, workspaceID, status string) error
	CountMembers(ctx context.Context, workspaceID string) (int64, error)
}

// StripeClient Stripe 客户端接口 (防腐层)
type StripeClient interface {
	ListPrices(ctx context.Context, stripeProductID string) ([]*StripePrice, error)
	CreateCheckoutSession(ctx context.Context, user *User, priceID string, quantity int64, successURL, cancelURL, stripeCustomerID string) (url string, err error)
	CreateBillingPortalSession(ctx context.Context, stripeCustomerID, returnURL string) (url string, err error)
	CancelSubscription(ctx context.Context, stripeSubscriptionID string) error
	CollectLastInvoice(ctx context.Context, stripeSubscriptionID string) error
}

// BillingUsecase 订阅对账业务逻辑
//
// 本地状态只镜像 Stripe: 所有状态变更都由入站事件驱动, 本服务从不自行发起状态迁移
// (用户取消是删除本地记录, 取消本身以 Stripe 为准)
type BillingUsecase struct {
	subRepo       BillingSubscriptionRepo
	workspaceRepo WorkspaceRepo
	stripe        StripeClient
	config        *conf.Bootstrap
	log           *log.Helper
}

// NewBillingUsecase 创建计费业务用例
func NewBillingUsecase(
	subRepo BillingSubscriptionRepo,
	workspaceRepo WorkspaceRepo,
	stripe StripeClient,
	config *conf.Bootstrap,
	logger log.Logger,
) *BillingUsecase {
	return &BillingUsecase{
		subRepo:       subRepo,
		workspaceRepo: workspaceRepo,
		stripe:        stripe,
		config:        config,
		log:           log.NewHelper(logger),
	}
}

// ProductStripeID 将产品名映射为 Stripe product ID
func (uc *BillingUsecase) ProductStripeID(ctx context.Context, product string) (string, error) {
	if product == constants.ProductBasePlan {
		return uc.config.Billing.BasePlanProductID, nil
	}
	return "", pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeProductNotFound)
}

// GetProductPrices 获取某产品当前可售价格列表
func (uc *BillingUsecase) GetProductPrices(ctx context.Context, stripeProductID string) ([]*ProductPrice, error) {
	prices, err := uc.stripe.ListPrices(ctx, stripeProductID)
	if err != nil {
		uc.log.Errorf("Failed to list prices for product %s: %v", stripeProductID, err)
		return nil, err
	}
	return FormatProductPrices(prices), nil
}

// FormatProductPrices 对每个计费区间只保留创建时间最新且金额有效的价格, 按金额升序返回
//
// 一个产品会随时间累积多个被替代的价格, 只有每个区间最新的一个是当前可售的
func FormatProductPrices(prices []*StripePrice) []*ProductPrice {
	latest := make(map[string]*ProductPrice)
	for _, p := range prices {
		if p.RecurringInterval == "" || p.UnitAmount == 0 {
			continue
		}
		cur, ok := latest[p.RecurringInterval]
		if !ok || p.Created > cur.Created {
			latest[p.RecurringInterval] = &ProductPrice{
				StripePriceID:     p.ID,
				UnitAmount:        p.UnitAmount,
				RecurringInterval: p.RecurringInterval,
				Created:           p.Created,
			}
		}
	}

	result := make([]*ProductPrice, 0, len(latest))
	for _, p := range latest {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UnitAmount < result[j].UnitAmount
	})
	return result
}

// GetCurrentSubscription 获取当前 (非 canceled) 订阅, 无订阅时返回 nil
//
// 同一条件命中多条非 canceled 订阅说明上游存在数据完整性 bug, 必须报错而不是静默选一条
func (uc *BillingUsecase) GetCurrentSubscription(ctx context.Context, criteria SubscriptionCriteria) (*BillingSubscription, error) {
	subs, err := uc.subRepo.FindNotCanceled(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(subs) > 1 {
		uc.log.Errorf("More than one not canceled subscription for workspace %q / customer %q",
			criteria.WorkspaceID, criteria.StripeCustomerID)
		return nil, pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeSubscriptionConflict)
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return subs[0], nil
}

// GetSubscriptionItem 获取工作空间当前订阅中指定产品的明细
func (uc *BillingUsecase) GetSubscriptionItem(ctx context.Context, workspaceID, stripeProductID string) (*BillingSubscriptionItem, error) {
	sub, err := uc.GetCurrentSubscription(ctx, SubscriptionCriteria{WorkspaceID: workspaceID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeSubscriptionNotFound)
	}
	for _, item := range sub.Items {
		if item.StripeProductID == stripeProductID {
			return item, nil
		}
	}
	return nil, pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeSubscriptionItemNotFound)
}

// ComputeCheckoutSessionURL 创建 checkout session 并返回跳转地址
func (uc *BillingUsecase) ComputeCheckoutSessionURL(ctx context.Context, user *User, priceID, successURLPath string) (string, error) {
	frontBaseURL := uc.config.Billing.FrontBaseURL
	successURL := frontBaseURL
	if successURLPath != "" {
		successURL = frontBaseURL + successURLPath
	}

	// 即使订阅已取消也复用已绑定的 Stripe customer
	var stripeCustomerID string
	existing, err := uc.subRepo.FindByWorkspace(ctx, user.DefaultWorkspaceID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		stripeCustomerID = existing.StripeCustomerID
	}

	// 成员数查询失败不阻塞下单, 回退为 1
	quantity := constants.DefaultCheckoutQuantity
	if count, err := uc.workspaceRepo.CountMembers(ctx, user.DefaultWorkspaceID); err != nil {
		uc.log.Warnf("Failed to count members for workspace %s, fallback to default quantity: %v",
			user.DefaultWorkspaceID, err)
	} else {
		quantity = count
	}

	url, err := uc.stripe.CreateCheckoutSession(ctx, user, priceID, quantity, successURL, frontBaseURL, stripeCustomerID)
	if err != nil {
		uc.log.Errorf("Failed to create checkout session for workspace %s: %v", user.DefaultWorkspaceID, err)
		return "", err
	}
	if url == "" {
		uc.log.Errorf("Checkout session for workspace %s has no url", user.DefaultWorkspaceID)
		return "", pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeCheckoutSessionFailed)
	}
	return url, nil
}

// ComputeBillingPortalSessionURL 创建 billing portal session 并返回跳转地址
func (uc *BillingUsecase) ComputeBillingPortalSessionURL(ctx context.Context, workspaceID, returnURLPath string) (string, error) {
	sub, err := uc.subRepo.FindByWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeSubscriptionNotFound)
	}

	returnURL := uc.config.Billing.FrontBaseURL
	if returnURLPath != "" {
		returnURL = uc.config.Billing.FrontBaseURL + returnURLPath
	}

	url, err := uc.stripe.CreateBillingPortalSession(ctx, sub.StripeCustomerID, returnURL)
	if err != nil {
		uc.log.Errorf("Failed to create billing portal session for workspace %s: %v", workspaceID, err)
		return "", err
	}
	if url == "" {
		uc.log.Errorf("Billing portal session for workspace %s has no url", workspaceID)
		return "", pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodePortalSessionFailed)
	}
	return url, nil
}

// DeleteSubscription 取消工作空间的订阅
//
// 先确认 Stripe 侧取消成功再删除本地记录, 避免留下已付费但本地无记录的孤儿订阅
func (uc *BillingUsecase) DeleteSubscription(ctx context.Context, workspaceID string) error {
	sub, err := uc.subRepo.FindByWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	if err := uc.stripe.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
		uc.log.Errorf("Failed to cancel stripe subscription %s: %v", sub.StripeSubscriptionID, err)
		return err
	}
	if err := uc.subRepo.Delete(ctx, sub.ID); err != nil {
		uc.log.Errorf("Failed to delete local subscription %s: %v", sub.ID, err)
		return err
	}

	uc.log.Infof("Canceled subscription %s for workspace %s", sub.StripeSubscriptionID, workspaceID)
	return nil
}

// HandleUnpaidInvoices 支付方式配置成功后, 若当前订阅处于 unpaid 则催收最近一张发票
func (uc *BillingUsecase) HandleUnpaidInvoices(ctx context.Context, stripeCustomerID string) error {
	sub, err := uc.GetCurrentSubscription(ctx, SubscriptionCriteria{StripeCustomerID: stripeCustomerID})
	if err != nil {
		return err
	}
	if sub == nil || sub.Status != constants.StatusUnpaid {
		return nil
	}
	return uc.stripe.CollectLastInvoice(ctx, sub.StripeSubscriptionID)
}

// UpsertBillingSubscription 订阅事件对账入口
//
// 1. 以 stripe_subscription_id 为键 upsert 订阅记录, 无字段变化时跳过 (重复投递幂等)
// 2. 无条件把事件状态同步到工作空间的 subscription_status 字段
// 3. 重新读取当前非 canceled 订阅, 读不到 (事件属于已被取代的订阅) 则结束
// 4. 以 (订阅ID, 产品ID) 为键逐条合并明细; 事件里没有而本地有的明细不在此路径清理
func (uc *BillingUsecase) UpsertBillingSubscription(ctx context.Context, workspaceID string, event *SubscriptionEvent) error {
	if err := uc.subRepo.Upsert(ctx, &BillingSubscription{
		WorkspaceID:          workspaceID,
		StripeCustomerID:     event.StripeCustomerID,
		StripeSubscriptionID: event.StripeSubscriptionID,
		Status:               event.Status,
	}); err != nil {
		uc.log.Errorf("Failed to upsert subscription %s: %v", event.StripeSubscriptionID, err)
		return err
	}

	if err := uc.workspaceRepo.UpdateSubscriptionStatus(ctx, workspaceID, event.Status); err != nil {
		uc.log.Errorf("Failed to update subscription status for workspace %s: %v", workspaceID, err)
		return err
	}

	sub, err := uc.GetCurrentSubscription(ctx, SubscriptionCriteria{WorkspaceID: workspaceID})
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	if err := uc.subRepo.UpsertItems(ctx, sub.ID, event.Items); err != nil {
		uc.log.Errorf("Failed to upsert items for subscription %s: %v", sub.ID, err)
		return err
	}

	uc.log.Infof("Reconciled subscription %s (status=%s, items=%d) for workspace %s",
		event.StripeSubscriptionID, event.Status, len(event.Items), workspaceID)
	return nil
}
