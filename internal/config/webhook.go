package config

import "time"

// NotifierConfig configures the side-effect pipeline that delivers emails and marketing tags
// after a webhook has been acknowledged. Inline delivers them during the request instead of
// through the router; the aws_lambda_api mode always delivers inline.
type NotifierConfig struct {
	Topic           string        `mapstructure:"topic" default:"billing_notifications"`
	Inline          bool          `mapstructure:"inline"`
	MaxRetries      int           `mapstructure:"max_retries" default:"3"`
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"1s"`
	MaxInterval     time.Duration `mapstructure:"max_interval" default:"10s"`
	Multiplier      float64       `mapstructure:"multiplier" default:"2.0"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time" default:"2m"`
	// RetryableStatusCodes overrides which marketing API answers are redelivered
	RetryableStatusCodes []int `mapstructure:"retryable_status_codes"`
}

// EmailConfig configures the transactional email client
type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

// MarketingConfig configures the marketing list side channel used on refunds
type MarketingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	RefundedTag string `mapstructure:"refunded_tag"`
}
