package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBootstrap() *Bootstrap {
	b := &Bootstrap{
		Server:  &Server{},
		Data:    &Data{},
		Billing: &Billing{},
		Log:     &Log{},
	}
	b.Server.Http.Addr = "0.0.0.0:8000"
	b.Data.Database.Source = "root:root@tcp(127.0.0.1:3306)/billing"
	b.Billing.StripeSecretKey = "sk_test_xxx"
	b.Billing.StripeWebhookSecret = "whsec_xxx"
	b.Billing.BasePlanProductID = "prod_xxx"
	b.Billing.FrontBaseURL = "http://localhost:3001"
	return b
}

func TestValidate(t *testing.T) {
	require.NoError(t, validBootstrap().Validate())

	cases := []struct {
		name   string
		mutate func(*Bootstrap)
	}{
		{"missing server", func(b *Bootstrap) { b.Server = nil }},
		{"missing http addr", func(b *Bootstrap) { b.Server.Http.Addr = "" }},
		{"missing data", func(b *Bootstrap) { b.Data = nil }},
		{"missing database source", func(b *Bootstrap) { b.Data.Database.Source = "" }},
		{"missing billing", func(b *Bootstrap) { b.Billing = nil }},
		{"missing stripe secret key", func(b *Bootstrap) { b.Billing.StripeSecretKey = "" }},
		{"missing webhook secret", func(b *Bootstrap) { b.Billing.StripeWebhookSecret = "" }},
		{"missing base plan product", func(b *Bootstrap) { b.Billing.BasePlanProductID = "" }},
		{"missing front base url", func(b *Bootstrap) { b.Billing.FrontBaseURL = "" }},
		{"missing log", func(b *Bootstrap) { b.Log = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBootstrap()
			tc.mutate(b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	content := `
server:
  http:
    addr: 0.0.0.0:8000
    timeout: 1s
data:
  database:
    driver: mysql
    source: root:root@tcp(127.0.0.1:3306)/billing
  redis:
    addr: 127.0.0.1:6379
    db: 1
billing:
  stripe_secret_key: sk_test_xxx
  stripe_webhook_secret: whsec_xxx
  base_plan_product_id: prod_xxx
  front_base_url: http://localhost:3001
  webhook_event_retention_days: 14
log:
  level: info
  format: json
  output: stdout
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, "0.0.0.0:8000", c.Server.Http.Addr)
	assert.Equal(t, int32(1), c.Data.Redis.Db)
	assert.Equal(t, "prod_xxx", c.Billing.BasePlanProductID)
	assert.Equal(t, 14, c.Billing.WebhookEventRetentionDays)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
