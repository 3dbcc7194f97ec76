package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Loyalty       LoyaltyConfig
	Checkout      CheckoutConfig
	Payment       PaymentConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	SMTP          SMTPConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Loyalty.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHINWARI_APP_ENV" required:"true"`
	Port         string `envconfig:"SHINWARI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHINWARI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHINWARI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHINWARI_DB_DSN"`
	Driver string `envconfig:"SHINWARI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHINWARI_DB_HOST"`
	LegacyPort     int    `envconfig:"SHINWARI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHINWARI_DB_USER"`
	LegacyPassword string `envconfig:"SHINWARI_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHINWARI_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHINWARI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHINWARI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHINWARI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHINWARI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHINWARI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHINWARI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHINWARI_REDIS_ADDR"`
	Password     string        `envconfig:"SHINWARI_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHINWARI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHINWARI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHINWARI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHINWARI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHINWARI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHINWARI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHINWARI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHINWARI_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHINWARI_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHINWARI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHINWARI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHINWARI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHINWARI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHINWARI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHINWARI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHINWARI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHINWARI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHINWARI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHINWARI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHINWARI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHINWARI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHINWARI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHINWARI_AUTO_MIGRATE" default:"false"`
}

// LoyaltyConfig carries the points conversion policy. EarnRate is whole
// points granted per whole currency unit paid; RedeemRate is the currency
// value of one point.
type LoyaltyConfig struct {
	EarnRate   int    `envconfig:"SHINWARI_LOYALTY_EARN_RATE" default:"1"`
	RedeemRate string `envconfig:"SHINWARI_LOYALTY_REDEEM_RATE" default:"1.00"`
}

func (l LoyaltyConfig) validate() error {
	if l.EarnRate < 0 {
		return fmt.Errorf("loyalty earn rate must be non-negative")
	}
	rate, err := l.RedeemValue()
	if err != nil {
		return err
	}
	if rate.Sign() <= 0 {
		return fmt.Errorf("loyalty redeem rate must be positive")
	}
	return nil
}

// RedeemValue parses the configured redeem rate into an exact decimal.
func (l LoyaltyConfig) RedeemValue() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(l.RedeemRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid loyalty redeem rate %q: %w", l.RedeemRate, err)
	}
	return rate, nil
}

// CheckoutConfig carries order placement policy.
type CheckoutConfig struct {
	DeliveryFee string `envconfig:"SHINWARI_CHECKOUT_DELIVERY_FEE" default:"0.00"`
}

func (c CheckoutConfig) validate() error {
	fee, err := c.DeliveryFeeValue()
	if err != nil {
		return err
	}
	if fee.Sign() < 0 {
		return fmt.Errorf("checkout delivery fee must be non-negative")
	}
	return nil
}

// DeliveryFeeValue parses the configured flat delivery fee.
func (c CheckoutConfig) DeliveryFeeValue() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.DeliveryFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid delivery fee %q: %w", c.DeliveryFee, err)
	}
	return fee, nil
}

type PaymentConfig struct {
	StripeAPIKey string `envconfig:"SHINWARI_STRIPE_API_KEY"`
	Currency     string `envconfig:"SHINWARI_PAYMENT_CURRENCY" default:"pkr"`
	SuccessURL   string `envconfig:"SHINWARI_PAYMENT_SUCCESS_URL"`
	CancelURL    string `envconfig:"SHINWARI_PAYMENT_CANCEL_URL"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHINWARI_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHINWARI_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHINWARI_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MailTopic        string `envconfig:"SHINWARI_PUBSUB_MAIL_TOPIC" default:"ssr-mail-events"`
	MailSubscription string `envconfig:"SHINWARI_PUBSUB_MAIL_SUBSCRIPTION" default:"ssr-mail-events-worker"`
}

type SMTPConfig struct {
	Host        string `envconfig:"SHINWARI_SMTP_HOST"`
	Port        string `envconfig:"SHINWARI_SMTP_PORT" default:"587"`
	Username    string `envconfig:"SHINWARI_SMTP_USER"`
	Password    string `envconfig:"SHINWARI_SMTP_PASS"`
	DefaultFrom string `envconfig:"SHINWARI_SMTP_FROM"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHINWARI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHINWARI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHINWARI_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
