package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	Pricing       PricingConfig
	Discounts     DiscountConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"PIZZERIA_APP_ENV" required:"true"`
	Port         string `envconfig:"PIZZERIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIZZERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIZZERIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIZZERIA_DB_DSN"`
	Driver string `envconfig:"PIZZERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIZZERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"PIZZERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIZZERIA_DB_USER"`
	LegacyPassword string `envconfig:"PIZZERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIZZERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIZZERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIZZERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIZZERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIZZERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIZZERIA_REDIS_ADDR"`
	Password     string        `envconfig:"PIZZERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIZZERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIZZERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIZZERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIZZERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PIZZERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PIZZERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PIZZERIA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PIZZERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIZZERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIZZERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIZZERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIZZERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIZZERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type OTPConfig struct {
	Length       int           `envconfig:"PIZZERIA_OTP_LENGTH" default:"6"`
	TTL          time.Duration `envconfig:"PIZZERIA_OTP_TTL" default:"10m"`
	MaxAttempts  int           `envconfig:"PIZZERIA_OTP_MAX_ATTEMPTS" default:"5"`
	ResendWindow time.Duration `envconfig:"PIZZERIA_OTP_RESEND_WINDOW" default:"1m"`
}

// PricingConfig carries the cart pricing constants. Amounts are whole currency
// units, matching the catalog prices.
type PricingConfig struct {
	TaxRatePercent    int           `envconfig:"PIZZERIA_PRICING_TAX_RATE_PERCENT" default:"10"`
	DeliveryFee       int           `envconfig:"PIZZERIA_PRICING_DELIVERY_FEE" default:"200"`
	FreeDeliveryMin   int           `envconfig:"PIZZERIA_PRICING_FREE_DELIVERY_MIN" default:"3000"`
	ExtraCheesePrice  int           `envconfig:"PIZZERIA_PRICING_EXTRA_CHEESE_PRICE" default:"150"`
	MaxQuantity       int           `envconfig:"PIZZERIA_PRICING_MAX_QUANTITY" default:"10"`
	CartTTL           time.Duration `envconfig:"PIZZERIA_CART_TTL" default:"24h"`
	DeliveryEstimate  time.Duration `envconfig:"PIZZERIA_ORDER_DELIVERY_ESTIMATE" default:"45m"`
	PickupEstimate    time.Duration `envconfig:"PIZZERIA_ORDER_PICKUP_ESTIMATE" default:"25m"`
	OrderNumberFormat string        `envconfig:"PIZZERIA_ORDER_NUMBER_FORMAT" default:"ORD-%06d"`
}

// DiscountConfig holds the discount rule table as a comma-separated spec:
// CODE:kind:value:min_order where kind is "percent" or "flat".
type DiscountConfig struct {
	Codes string `envconfig:"PIZZERIA_DISCOUNT_CODES" default:"WELCOME10:percent:10:1000,PIZZA20:percent:20:2000,SAVE500:flat:500:2500,FREESHIP:flat:200:1500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PIZZERIA_AUTO_MIGRATE" default:"false"`
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
