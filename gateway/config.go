package gateway

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseUrl    string `envconfig:"GATEWAY_BASE_URL" default:"https://api.nowpayments.io"`
	APIKey     string `envconfig:"GATEWAY_API_KEY" required:"true"`
	Email      string `envconfig:"GATEWAY_EMAIL"`
	Password   string `envconfig:"GATEWAY_PASSWORD"`
	Timeout    int    `envconfig:"GATEWAY_TIMEOUT" default:"10"`     // in seconds, must stay below the server request timeout
	MaxRetries uint64 `envconfig:"GATEWAY_MAX_RETRIES" default:"3"`  //total attempts = 1 + retries
	// which response codes trigger the session-token fallback;
	// the gateway docs are ambiguous here so keep it configurable
	AuthFallbackCodes []int `envconfig:"GATEWAY_AUTH_FALLBACK_CODES" default:"401,403"`
	SessionTokenTTL   int   `envconfig:"GATEWAY_SESSION_TOKEN_TTL" default:"300"` // in seconds, used when the token carries no exp claim
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
