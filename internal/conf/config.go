package conf

import (
	"fmt"
)

type Bootstrap struct {
	Server  *Server  `yaml:"server" json:"server"`
	Data    *Data    `yaml:"data" json:"data"`
	Billing *Billing `yaml:"billing" json:"billing"`
	Log     *Log     `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver string `yaml:"driver" json:"driver"`
		Source string `yaml:"source" json:"source"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	} `yaml:"redis" json:"redis"`
}

// Billing Stripe 计费相关配置
type Billing struct {
	// StripeSecretKey Stripe API 密钥
	StripeSecretKey string `yaml:"stripe_secret_key" json:"stripe_secret_key"`
	// StripeWebhookSecret Stripe webhook 签名密钥
	StripeWebhookSecret string `yaml:"stripe_webhook_secret" json:"stripe_webhook_secret"`
	// BasePlanProductID 基础套餐对应的 Stripe product ID
	BasePlanProductID string `yaml:"base_plan_product_id" json:"base_plan_product_id"`
	// FrontBaseURL 前端地址, 用于拼接 checkout/portal 的回跳地址
	FrontBaseURL string `yaml:"front_base_url" json:"front_base_url"`
	// WebhookEventRetentionDays webhook 事件日志保留天数
	WebhookEventRetentionDays int `yaml:"webhook_event_retention_days" json:"webhook_event_retention_days"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Billing == nil {
		return fmt.Errorf("billing configuration is required")
	}
	if b.Billing.StripeSecretKey == "" {
		return fmt.Errorf("billing.stripe_secret_key is required")
	}
	if b.Billing.StripeWebhookSecret == "" {
		return fmt.Errorf("billing.stripe_webhook_secret is required")
	}
	if b.Billing.BasePlanProductID == "" {
		return fmt.Errorf("billing.base_plan_product_id is required")
	}
	if b.Billing.FrontBaseURL == "" {
		return fmt.Errorf("billing.front_base_url is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}
