package service

import (
	"context"

	"xinyuan_tech/billing-service/internal/auth"
	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewBillingService)

// BillingService 计费 HTTP 服务
type BillingService struct {
	uc     *biz.BillingUsecase
	events *biz.WebhookEventUsecase
	config *conf.Bootstrap
	log    *log.Helper
}

// NewBillingService 创建计费服务
func NewBillingService(uc *biz.BillingUsecase, events *biz.WebhookEventUsecase, config *conf.Bootstrap, logger log.Logger) *BillingService {
	return &BillingService{
		uc:     uc,
		events: events,
		config: config,
		log:    log.NewHelper(logger),
	}
}

// RegisterRoutes 注册业务路由
func (s *BillingService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/v1/billing")
	r.GET("/product-prices", s.GetProductPrices)
	r.GET("/subscription", s.GetCurrentSubscription)
	r.POST("/checkout-session", s.CreateCheckoutSession)
	r.POST("/portal-session", s.CreatePortalSession)
	r.POST("/subscription/cancel", s.CancelSubscription)
	r.POST("/webhooks/stripe", s.HandleStripeWebhook)
}

// identityFromHeader 读取网关注入的身份头并写入 context
func identityFromHeader(ctx http.Context) (context.Context, error) {
	uid := ctx.Header().Get("X-User-Id")
	email := ctx.Header().Get("X-User-Email")
	workspaceID := ctx.Header().Get("X-Workspace-Id")
	if uid == "" || workspaceID == "" {
		return nil, kerrors.Unauthorized("UNAUTHORIZED", "missing identity headers")
	}
	return auth.WithIdentity(ctx, uid, email, workspaceID), nil
}

// userFromContext 从 context 中还原发起请求的用户
func userFromContext(ctx context.Context) (*biz.User, error) {
	uid, ok := auth.GetUIDFromContext(ctx)
	workspaceID, ok2 := auth.GetWorkspaceIDFromContext(ctx)
	if !ok || !ok2 {
		return nil, kerrors.Unauthorized("UNAUTHORIZED", "missing identity in context")
	}
	email, _ := auth.GetEmailFromContext(ctx)
	return &biz.User{
		ID:                 uid,
		Email:              email,
		DefaultWorkspaceID: workspaceID,
	}, nil
}

// GetProductPrices 获取产品当前可售价格
func (s *BillingService) GetProductPrices(ctx http.Context) error {
	product := ctx.Query().Get("product")
	if product == "" {
		product = constants.ProductBasePlan
	}

	stripeProductID, err := s.uc.ProductStripeID(ctx, product)
	if err != nil {
		return err
	}
	prices, err := s.uc.GetProductPrices(ctx, stripeProductID)
	if err != nil {
		return err
	}

	return ctx.Result(200, map[string]interface{}{
		"product": product,
		"prices":  prices,
	})
}

// GetCurrentSubscription 获取当前工作空间的订阅
func (s *BillingService) GetCurrentSubscription(ctx http.Context) error {
	reqCtx, err := identityFromHeader(ctx)
	if err != nil {
		return err
	}
	user, err := userFromContext(reqCtx)
	if err != nil {
		return err
	}

	sub, err := s.uc.GetCurrentSubscription(reqCtx, biz.SubscriptionCriteria{WorkspaceID: user.DefaultWorkspaceID})
	if err != nil {
		return err
	}
	if sub == nil {
		return ctx.Result(200, map[string]interface{}{"subscription": nil})
	}

	items := make([]map[string]interface{}, len(sub.Items))
	for i, item := range sub.Items {
		items[i] = map[string]interface{}{
			"stripe_product_id": item.StripeProductID,
			"stripe_price_id":   item.StripePriceID,
			"quantity":          item.Quantity,
		}
	}
	return ctx.Result(200, map[string]interface{}{
		"subscription": map[string]interface{}{
			"stripe_subscription_id": sub.StripeSubscriptionID,
			"status":                 sub.Status,
			"items":                  items,
		},
	})
}

type createCheckoutSessionRequest struct {
	PriceID        string `json:"price_id"`
	SuccessURLPath string `json:"success_url_path"`
}

// CreateCheckoutSession 创建 checkout session
func (s *BillingService) CreateCheckoutSession(ctx http.Context) error {
	reqCtx, err := identityFromHeader(ctx)
	if err != nil {
		return err
	}
	user, err := userFromContext(reqCtx)
	if err != nil {
		return err
	}

	var req createCheckoutSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if req.PriceID == "" {
		return pkgErrors.NewBizErrorWithLang(reqCtx, pkgErrors.ErrCodeInvalidArgument)
	}

	url, err := s.uc.ComputeCheckoutSessionURL(reqCtx, user, req.PriceID, req.SuccessURLPath)
	if err != nil {
		return err
	}
	return ctx.Result(200, map[string]interface{}{"url": url})
}

type createPortalSessionRequest struct {
	ReturnURLPath string `json:"return_url_path"`
}

// CreatePortalSession 创建 billing portal session
func (s *BillingService) CreatePortalSession(ctx http.Context) error {
	reqCtx, err := identityFromHeader(ctx)
	if err != nil {
		return err
	}
	user, err := userFromContext(reqCtx)
	if err != nil {
		return err
	}

	var req createPortalSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	url, err := s.uc.ComputeBillingPortalSessionURL(reqCtx, user.DefaultWorkspaceID, req.ReturnURLPath)
	if err != nil {
		return err
	}
	return ctx.Result(200, map[string]interface{}{"url": url})
}

// CancelSubscription 取消当前工作空间的订阅
func (s *BillingService) CancelSubscription(ctx http.Context) error {
	reqCtx, err := identityFromHeader(ctx)
	if err != nil {
		return err
	}
	user, err := userFromContext(reqCtx)
	if err != nil {
		return err
	}

	if err := s.uc.DeleteSubscription(reqCtx, user.DefaultWorkspaceID); err != nil {
		return err
	}
	return ctx.Result(200, map[string]interface{}{"success": true})
}
