package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	Auctions     AuctionsConfig
	Earnings     EarningsConfig
	Payouts      PayoutsConfig
	Resolver     ResolverConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BINDERY_APP_ENV" required:"true"`
	Port         string `envconfig:"BINDERY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BINDERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BINDERY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BINDERY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BINDERY_DB_DSN"`
	Driver string `envconfig:"BINDERY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BINDERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BINDERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BINDERY_DB_USER"`
	LegacyPassword string `envconfig:"BINDERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BINDERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BINDERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BINDERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BINDERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BINDERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BINDERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BINDERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BINDERY_REDIS_ADDR"`
	Password     string        `envconfig:"BINDERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BINDERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BINDERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BINDERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BINDERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BINDERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BINDERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BINDERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BINDERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BINDERY_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BINDERY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BINDERY_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BINDERY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BINDERY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BINDERY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BINDERY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"BINDERY_PUBSUB_DOMAIN_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"BINDERY_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	OrdersTopic              string `envconfig:"BINDERY_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"BINDERY_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BINDERY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BINDERY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BINDERY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"BINDERY_STRIPE_API_KEY"`
	Secret string `envconfig:"BINDERY_STRIPE_SECRET"`
	Env    string `envconfig:"BINDERY_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID  string `envconfig:"BINDERY_PAYPAL_CLIENT_ID"`
	Secret    string `envconfig:"BINDERY_PAYPAL_SECRET"`
	WebhookID string `envconfig:"BINDERY_PAYPAL_WEBHOOK_ID"`
	Env       string `envconfig:"BINDERY_PAYPAL_ENV" default:"sandbox"`
}

// Configured reports whether PayPal API credentials are present. Without them,
// withdrawals over the PayPal rail fall back to manual admin payouts.
func (p PayPalConfig) Configured() bool {
	return strings.TrimSpace(p.ClientID) != "" && strings.TrimSpace(p.Secret) != ""
}

type AuctionsConfig struct {
	DefaultPaymentWindowHours int `envconfig:"BINDERY_AUCTION_PAYMENT_WINDOW_HOURS" default:"48"`
	// Any bid strictly above the current one is acceptable unless the
	// deployment raises the increment.
	MinBidIncrementCents int `envconfig:"BINDERY_AUCTION_MIN_BID_INCREMENT_CENTS" default:"1"`
}

type EarningsConfig struct {
	DefaultCommissionRateBps int `envconfig:"BINDERY_EARNINGS_DEFAULT_COMMISSION_BPS" default:"800"`
}

type PayoutsConfig struct {
	MinimumWithdrawalCents int `envconfig:"BINDERY_PAYOUTS_MINIMUM_WITHDRAWAL_CENTS" default:"2500"`
}

type ResolverConfig struct {
	Interval  time.Duration `envconfig:"BINDERY_RESOLVER_INTERVAL" default:"1m"`
	LockTTL   time.Duration `envconfig:"BINDERY_RESOLVER_LOCK_TTL" default:"5m"`
	BatchSize int           `envconfig:"BINDERY_RESOLVER_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
