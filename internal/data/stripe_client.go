package data

import (
	"context"
	"encoding/json"
	"fmt"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/subscription"
)

// stripeClient biz.StripeClient 的 Stripe SDK 实现
type stripeClient struct {
	data *Data
	log  *log.Helper
}

// NewStripeClient 创建 Stripe 客户端
func NewStripeClient(c *conf.Bootstrap, data *Data, logger log.Logger) biz.StripeClient {
	stripe.Key = c.Billing.StripeSecretKey
	return &stripeClient{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func productPriceCacheKey(stripeProductID string) string {
	return fmt.Sprintf("billing:product_prices:%s", stripeProductID)
}

// ListPrices 获取产品的价格列表, 结果缓存在 redis 中
func (c *stripeClient) ListPrices(ctx context.Context, stripeProductID string) ([]*biz.StripePrice, error) {
	cacheKey := productPriceCacheKey(stripeProductID)
	if cached, err := c.data.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var prices []*biz.StripePrice
		if err := json.Unmarshal([]byte(cached), &prices); err == nil {
			return prices, nil
		}
	} else if err != redis.Nil {
		c.log.Warnf("Failed to read price cache for product %s: %v", stripeProductID, err)
	}

	params := &stripe.PriceListParams{
		Product: stripe.String(stripeProductID),
	}
	var prices []*biz.StripePrice
	iter := price.List(params)
	for iter.Next() {
		p := iter.Price()
		interval := ""
		if p.Recurring != nil {
			interval = string(p.Recurring.Interval)
		}
		prices = append(prices, &biz.StripePrice{
			ID:                p.ID,
			UnitAmount:        p.UnitAmount,
			RecurringInterval: interval,
			Created:           p.Created,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe prices for product %s: %w", stripeProductID, err)
	}

	// 空结果用短过期时间缓存, 防止未配置价格的产品反复穿透到 Stripe
	ttl := constants.ProductPriceCacheExpiration
	if len(prices) == 0 {
		ttl = constants.NullCacheExpiration
	}
	if data, err := json.Marshal(prices); err == nil {
		if err := c.data.rdb.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
			c.log.Warnf("Failed to cache prices for product %s: %v", stripeProductID, err)
		}
	}
	return prices, nil
}

// CreateCheckoutSession 创建 checkout session
//
// 工作空间ID写入 subscription metadata, webhook 对账时以此定位工作空间
func (c *stripeClient) CreateCheckoutSession(_ context.Context, user *biz.User, priceID string, quantity int64, successURL, cancelURL, stripeCustomerID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				constants.MetadataWorkspaceIDKey: user.DefaultWorkspaceID,
			},
		},
	}
	if stripeCustomerID != "" {
		params.Customer = stripe.String(stripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(user.Email)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe checkout session: %w", err)
	}
	return s.URL, nil
}

// CreateBillingPortalSession 创建 billing portal session
func (c *stripeClient) CreateBillingPortalSession(_ context.Context, stripeCustomerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(stripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	}
	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe billing portal session: %w", err)
	}
	return s.URL, nil
}

// CancelSubscription 取消 Stripe 订阅
func (c *stripeClient) CancelSubscription(_ context.Context, stripeSubscriptionID string) error {
	if _, err := subscription.Cancel(stripeSubscriptionID, &stripe.SubscriptionCancelParams{}); err != nil {
		return fmt.Errorf("cancel stripe subscription %s: %w", stripeSubscriptionID, err)
	}
	return nil
}

// CollectLastInvoice 催收订阅最近一张发票
func (c *stripeClient) CollectLastInvoice(_ context.Context, stripeSubscriptionID string) error {
	sub, err := subscription.Get(stripeSubscriptionID, &stripe.SubscriptionParams{})
	if err != nil {
		return fmt.Errorf("get stripe subscription %s: %w", stripeSubscriptionID, err)
	}
	if sub.LatestInvoice == nil {
		return fmt.Errorf("stripe subscription %s has no latest invoice", stripeSubscriptionID)
	}
	if _, err := invoice.Pay(sub.LatestInvoice.ID, &stripe.InvoicePayParams{}); err != nil {
		return fmt.Errorf("pay latest invoice of subscription %s: %w", stripeSubscriptionID, err)
	}
	return nil
}
