package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/constants"
	"xinyuan_tech/billing-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// HandleStripeWebhook Stripe webhook 入口
//
// 投递语义是 at-least-once 且不保证有序: 重复投递靠事件日志和 upsert 幂等消化,
// 乱序投递沿用到达序 last-write-wins
func (s *BillingService) HandleStripeWebhook(ctx http.Context) error {
	ctx.Request().Body = stdhttp.MaxBytesReader(ctx.Response(), ctx.Request().Body, constants.MaxWebhookBodyBytes)
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeWebhookPayloadInvalid)
	}

	sigHeader := ctx.Header().Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.config.Billing.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.log.Warnf("Invalid stripe webhook signature: %v", err)
		return pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeWebhookSignatureInvalid)
	}

	duplicate, err := s.processStripeEvent(ctx, event)
	if err != nil {
		return err
	}
	if duplicate {
		return ctx.Result(200, map[string]interface{}{"received": true, "duplicate": true})
	}
	return ctx.Result(200, map[string]interface{}{"received": true})
}

// processStripeEvent 分发已验签的事件
//
// 事件ID在处理成功之后才登记: 处理中途失败的投递不进事件日志, 返回非 2xx 让 Stripe
// 重试, 重试会被完整地重新处理而不是被去重跳过. 并发投递同一事件会被处理两次,
// 对账本身幂等, 无副作用
func (s *BillingService) processStripeEvent(ctx context.Context, event stripe.Event) (duplicate bool, err error) {
	seen, err := s.events.AlreadyProcessed(ctx, event.ID)
	if err != nil {
		return false, err
	}
	if seen {
		return true, nil
	}

	switch string(event.Type) {
	case constants.EventSubscriptionCreated, constants.EventSubscriptionUpdated, constants.EventSubscriptionDeleted:
		workspaceID, subEvent, err := decodeSubscriptionEvent(event.Data.Raw)
		if err != nil {
			s.log.Errorf("Failed to decode subscription event %s: %v", event.ID, err)
			return false, pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeWebhookPayloadInvalid)
		}
		if workspaceID == "" {
			// 没有工作空间标记的订阅不属于本系统, 确认收到即可
			s.log.Warnf("Subscription event %s has no workspace metadata, skipping", event.ID)
		} else if err := s.uc.UpsertBillingSubscription(ctx, workspaceID, subEvent); err != nil {
			return false, err
		}

	case constants.EventSetupIntentSucceeded:
		customerID, err := decodeSetupIntentCustomer(event.Data.Raw)
		if err != nil {
			s.log.Errorf("Failed to decode setup intent event %s: %v", event.ID, err)
			return false, pkgErrors.NewBizErrorWithLang(ctx, errors.ErrCodeWebhookPayloadInvalid)
		}
		if customerID != "" {
			if err := s.uc.HandleUnpaidInvoices(ctx, customerID); err != nil {
				return false, err
			}
		}

	default:
		s.log.Infof("Ignoring unhandled stripe event type %s", event.Type)
	}

	if _, err := s.events.RecordEvent(ctx, event.ID, string(event.Type), string(event.Data.Raw)); err != nil {
		return false, err
	}
	return false, nil
}

// decodeSubscriptionEvent 把 Stripe 订阅事件负载转换为业务事件
func decodeSubscriptionEvent(raw []byte) (string, *biz.SubscriptionEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return "", nil, fmt.Errorf("unmarshal subscription payload: %w", err)
	}
	if sub.ID == "" {
		return "", nil, fmt.Errorf("subscription payload has no id")
	}

	subEvent := &biz.SubscriptionEvent{
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
	}
	if sub.Customer != nil {
		subEvent.StripeCustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			eventItem := &biz.SubscriptionEventItem{
				StripeSubscriptionItemID: item.ID,
				StripePriceID:            item.Price.ID,
				Quantity:                 item.Quantity,
			}
			if item.Price.Product != nil {
				eventItem.StripeProductID = item.Price.Product.ID
			}
			subEvent.Items = append(subEvent.Items, eventItem)
		}
	}

	return sub.Metadata[constants.MetadataWorkspaceIDKey], subEvent, nil
}

// decodeSetupIntentCustomer 从 setup_intent.succeeded 负载中取出 customer ID
func decodeSetupIntentCustomer(raw []byte) (string, error) {
	var si stripe.SetupIntent
	if err := json.Unmarshal(raw, &si); err != nil {
		return "", fmt.Errorf("unmarshal setup intent payload: %w", err)
	}
	if si.Customer == nil {
		return "", nil
	}
	return si.Customer.ID, nil
}
