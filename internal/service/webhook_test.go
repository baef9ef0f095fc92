package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"xinyuan_tech/billing-service/internal/biz"
	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubscriptionEvent(t *testing.T) {
	raw := []byte(`{
		"id": "sub_123",
		"object": "subscription",
		"customer": "cus_123",
		"status": "active",
		"metadata": {"workspace_id": "w1"},
		"items": {
			"object": "list",
			"data": [
				{
					"id": "si_1",
					"object": "subscription_item",
					"price": {"id": "price_1", "object": "price", "product": "prod_1"},
					"quantity": 3
				},
				{
					"id": "si_2",
					"object": "subscription_item",
					"price": {"id": "price_2", "object": "price", "product": "prod_2"},
					"quantity": 1
				}
			]
		}
	}`)

	workspaceID, event, err := decodeSubscriptionEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "w1", workspaceID)
	assert.Equal(t, "sub_123", event.StripeSubscriptionID)
	assert.Equal(t, "cus_123", event.StripeCustomerID)
	assert.Equal(t, "active", event.Status)
	require.Len(t, event.Items, 2)
	assert.Equal(t, "si_1", event.Items[0].StripeSubscriptionItemID)
	assert.Equal(t, "price_1", event.Items[0].StripePriceID)
	assert.Equal(t, "prod_1", event.Items[0].StripeProductID)
	assert.Equal(t, int64(3), event.Items[0].Quantity)
	assert.Equal(t, "prod_2", event.Items[1].StripeProductID)
}

func TestDecodeSubscriptionEvent_NoWorkspaceMetadata(t *testing.T) {
	raw := []byte(`{
		"id": "sub_123",
		"object": "subscription",
		"customer": "cus_123",
		"status": "canceled",
		"metadata": {}
	}`)

	workspaceID, event, err := decodeSubscriptionEvent(raw)
	require.NoError(t, err)
	assert.Empty(t, workspaceID)
	assert.Equal(t, "canceled", event.Status)
	assert.Empty(t, event.Items)
}

func TestDecodeSubscriptionEvent_MissingID(t *testing.T) {
	_, _, err := decodeSubscriptionEvent([]byte(`{"object": "subscription"}`))
	assert.Error(t, err)
}

func TestDecodeSubscriptionEvent_InvalidJSON(t *testing.T) {
	_, _, err := decodeSubscriptionEvent([]byte(`{"id":`))
	assert.Error(t, err)
}

func TestDecodeSetupIntentCustomer(t *testing.T) {
	customerID, err := decodeSetupIntentCustomer([]byte(`{
		"id": "seti_1",
		"object": "setup_intent",
		"customer": "cus_9",
		"status": "succeeded"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "cus_9", customerID)
}

func TestDecodeSetupIntentCustomer_NoCustomer(t *testing.T) {
	customerID, err := decodeSetupIntentCustomer([]byte(`{
		"id": "seti_1",
		"object": "setup_intent",
		"status": "succeeded"
	}`))
	require.NoError(t, err)
	assert.Empty(t, customerID)
}

// memSubRepo 内存版订阅仓库
type memSubRepo struct {
	subs        map[string]*biz.BillingSubscription // stripeSubscriptionID -> sub
	upsertErr   error
	upsertCalls int
	seq         int
}

func (m *memSubRepo) FindNotCanceled(_ context.Context, criteria biz.SubscriptionCriteria) ([]*biz.BillingSubscription, error) {
	var out []*biz.BillingSubscription
	for _, s := range m.subs {
		if s.Status == constants.StatusCanceled {
			continue
		}
		if criteria.WorkspaceID != "" && s.WorkspaceID != criteria.WorkspaceID {
			continue
		}
		if criteria.StripeCustomerID != "" && s.StripeCustomerID != criteria.StripeCustomerID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memSubRepo) FindByWorkspace(_ context.Context, workspaceID string) (*biz.BillingSubscription, error) {
	for _, s := range m.subs {
		if s.WorkspaceID == workspaceID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSubRepo) Upsert(_ context.Context, sub *biz.BillingSubscription) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertCalls++
	if existing, ok := m.subs[sub.StripeSubscriptionID]; ok {
		existing.WorkspaceID = sub.WorkspaceID
		existing.StripeCustomerID = sub.StripeCustomerID
		existing.Status = sub.Status
		return nil
	}
	m.seq++
	m.subs[sub.StripeSubscriptionID] = &biz.BillingSubscription{
		ID:                   fmt.Sprintf("local-%d", m.seq),
		WorkspaceID:          sub.WorkspaceID,
		StripeCustomerID:     sub.StripeCustomerID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Status:               sub.Status,
	}
	return nil
}

func (m *memSubRepo) UpsertItems(_ context.Context, _ string, _ []*biz.SubscriptionEventItem) error {
	return nil
}

func (m *memSubRepo) Delete(_ context.Context, id string) error {
	for key, s := range m.subs {
		if s.ID == id {
			delete(m.subs, key)
		}
	}
	return nil
}

type memWorkspaceRepo struct {
	statuses map[string]string
}

func (m *memWorkspaceRepo) UpdateSubscriptionStatus(_ context.Context, workspaceID, status string) error {
	m.statuses[workspaceID] = status
	return nil
}

func (m *memWorkspaceRepo) CountMembers(_ context.Context, _ string) (int64, error) {
	return 1, nil
}

type memStripeClient struct{}

func (memStripeClient) ListPrices(_ context.Context, _ string) ([]*biz.StripePrice, error) {
	return nil, nil
}

func (memStripeClient) CreateCheckoutSession(_ context.Context, _ *biz.User, _ string, _ int64, _, _, _ string) (string, error) {
	return "", nil
}

func (memStripeClient) CreateBillingPortalSession(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (memStripeClient) CancelSubscription(_ context.Context, _ string) error { return nil }

func (memStripeClient) CollectLastInvoice(_ context.Context, _ string) error { return nil }

type memEventRepo struct {
	records map[string]string // stripeEventID -> payload
}

func (m *memEventRepo) Exists(_ context.Context, stripeEventID string) (bool, error) {
	_, ok := m.records[stripeEventID]
	return ok, nil
}

func (m *memEventRepo) Record(_ context.Context, stripeEventID, _, payload string) (bool, error) {
	if _, ok := m.records[stripeEventID]; ok {
		return false, nil
	}
	m.records[stripeEventID] = payload
	return true, nil
}

func (m *memEventRepo) PruneBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newWebhookTestService() (*BillingService, *memSubRepo, *memWorkspaceRepo, *memEventRepo) {
	subRepo := &memSubRepo{subs: make(map[string]*biz.BillingSubscription)}
	workspaceRepo := &memWorkspaceRepo{statuses: make(map[string]string)}
	eventRepo := &memEventRepo{records: make(map[string]string)}
	cfg := &conf.Bootstrap{
		Billing: &conf.Billing{
			StripeSecretKey:     "sk_test",
			StripeWebhookSecret: "whsec_test",
			BasePlanProductID:   "prod_base",
			FrontBaseURL:        "https://app.example.com",
		},
	}
	logger := log.NewStdLogger(io.Discard)
	uc := biz.NewBillingUsecase(subRepo, workspaceRepo, memStripeClient{}, cfg, logger)
	events := biz.NewWebhookEventUsecase(eventRepo, cfg, logger)
	return NewBillingService(uc, events, cfg, logger), subRepo, workspaceRepo, eventRepo
}

func subscriptionCreatedEvent(id string) stripe.Event {
	raw := []byte(`{
		"id": "sub_1",
		"object": "subscription",
		"customer": "cus_1",
		"status": "active",
		"metadata": {"workspace_id": "w1"},
		"items": {
			"object": "list",
			"data": [
				{
					"id": "si_1",
					"object": "subscription_item",
					"price": {"id": "price_1", "object": "price", "product": "prod_1"},
					"quantity": 1
				}
			]
		}
	}`)
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(constants.EventSubscriptionCreated),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestProcessStripeEvent_FailedDeliveryIsRetriable(t *testing.T) {
	svc, subRepo, workspaceRepo, eventRepo := newWebhookTestService()
	ctx := context.Background()
	event := subscriptionCreatedEvent("evt_1")

	// 第一次投递在对账时失败, 事件不得进入日志
	subRepo.upsertErr = fmt.Errorf("db down")
	_, err := svc.processStripeEvent(ctx, event)
	require.Error(t, err)
	assert.Empty(t, eventRepo.records)

	// 重投同一事件ID必须被完整处理, 而不是当作重复投递跳过
	subRepo.upsertErr = nil
	duplicate, err := svc.processStripeEvent(ctx, event)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, constants.StatusActive, workspaceRepo.statuses["w1"])
	assert.Contains(t, eventRepo.records, "evt_1")

	// 处理成功之后的重投才是重复投递
	duplicate, err = svc.processStripeEvent(ctx, event)
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, 1, subRepo.upsertCalls)
}

func TestProcessStripeEvent_UnhandledTypeIsRecorded(t *testing.T) {
	svc, _, _, eventRepo := newWebhookTestService()
	ctx := context.Background()
	event := stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventType("invoice.created"),
		Data: &stripe.EventData{Raw: []byte(`{"id": "in_1"}`)},
	}

	duplicate, err := svc.processStripeEvent(ctx, event)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Contains(t, eventRepo.records, "evt_2")

	duplicate, err = svc.processStripeEvent(ctx, event)
	require.NoError(t, err)
	assert.True(t, duplicate)
}

func TestProcessStripeEvent_MissingWorkspaceMetadataIsAcknowledged(t *testing.T) {
	svc, subRepo, _, eventRepo := newWebhookTestService()
	ctx := context.Background()
	event := stripe.Event{
		ID:   "evt_3",
		Type: stripe.EventType(constants.EventSubscriptionCreated),
		Data: &stripe.EventData{Raw: []byte(`{"id": "sub_x", "object": "subscription", "status": "active", "metadata": {}}`)},
	}

	duplicate, err := svc.processStripeEvent(ctx, event)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, 0, subRepo.upsertCalls)
	assert.Contains(t, eventRepo.records, "evt_3")
}
