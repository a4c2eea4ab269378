package service

type Config struct {
	DatabaseUri             string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	DatabaseTimeout         int     `envconfig:"DATABASE_TIMEOUT" default:"60"`             // 60 seconds
	SentryDSN               string  `envconfig:"SENTRY_DSN"`
	DatadogAgentUrl         string  `envconfig:"DATADOG_AGENT_URL"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string  `envconfig:"LOG_FILE_PATH"`
	AdminToken              string  `envconfig:"ADMIN_TOKEN"`
	Host                    string  `envconfig:"HOST" default:"localhost:3000"`
	Port                    int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit        int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit          int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int     `envconfig:"PROMETHEUS_PORT" default:"9092"`

	IPNSecret      string `envconfig:"IPN_SECRET" required:"true"`
	IPNCallbackUrl string `envconfig:"IPN_CALLBACK_URL" required:"true"`
	SuccessUrl     string `envconfig:"SUCCESS_URL"`
	CancelUrl      string `envconfig:"CANCEL_URL"`

	// the game server gets a POST for every credited payment
	GameWebhookUrl string `envconfig:"GAME_WEBHOOK_URL"`

	ReconciliationInterval  int `envconfig:"RECONCILIATION_INTERVAL" default:"300"`  // in seconds, 0 disables the sweeper
	ReconciliationStaleness int `envconfig:"RECONCILIATION_STALENESS" default:"900"` // in seconds, how old a pending payment must be before we poll the gateway

	RabbitMQUri                    string `envconfig:"RABBITMQ_URI"`
	RabbitMQPaymentExchange        string `envconfig:"RABBITMQ_PAYMENT_EXCHANGE" default:"paygate_payment"`
	RabbitMQPaymentExchangeDurable bool   `envconfig:"RABBITMQ_PAYMENT_EXCHANGE_DURABLE" default:"true"`
}
