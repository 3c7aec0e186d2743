package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Scraper  ScraperConfig
	AI       AIConfig
}

type AppConfig struct {
	AppName     string `validate:"required"`
	Environment string `validate:"required"`
	HTTPPort    string `validate:"required,numeric"`
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32 `validate:"gte=0"`
	PoolMinConns          int32 `validate:"gte=0"`
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

// Enabled reports whether enough settings are present to open a pool.
func (c DatabaseConfig) Enabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int `validate:"gte=0"`
	TTL      time.Duration
	Prefix   string
}

type ScraperConfig struct {
	DelayMin       time.Duration `validate:"gte=0"`
	DelayMax       time.Duration `validate:"gtefield=DelayMin"`
	BackoffMin     time.Duration `validate:"gte=0"`
	BackoffMax     time.Duration `validate:"gtefield=BackoffMin"`
	RequestTimeout time.Duration `validate:"gt=0"`
	MaxRetries     int           `validate:"gte=1"`
	MaxPages       int           `validate:"gte=1"`
	Interval       time.Duration `validate:"gt=0"`
	Schedule       bool
	Details        bool
	Workers        int           `validate:"gte=1"`
	SeenTTL        time.Duration `validate:"gte=0"`
}

type AIConfig struct {
	Provider    string `validate:"oneof=openai gemini"`
	Endpoint    string `validate:"omitempty,url"`
	APIKey      string
	Model       string  `validate:"required"`
	Temperature float32 `validate:"gte=0,lte=2"`
	Timeout     time.Duration

	SalaryMaxTokens   int `validate:"gt=0"`
	CategoryMaxTokens int `validate:"gt=0"`
	SkillsMaxTokens   int `validate:"gt=0"`
	LevelMaxTokens    int `validate:"gt=0"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optSeconds := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return time.Duration(v * float64(time.Second))
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    optDefault("HTTP_PORT", "8000"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST"),
		DBPort:                optDefault("DB_PORT", "5432"),
		DBName:                opt("DB_NAME"),
		DBUser:                opt("DB_USER"),
		DBPassword:            opt("DB_PASSWORD"),
		DBSSLMode:             optDefault("DB_SSL_MODE", "disable"),
		ConnectTimeout:        optSeconds("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optSeconds("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optSeconds("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optSeconds("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     optDefault("REDIS_HOST", "localhost"),
		Port:     optDefault("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		TTL:      optSeconds("REDIS_TTL", 600*time.Second),
		Prefix:   optDefault("REDIS_KEY_PREFIX", "fizetesi:"),
	}

	cfg.Scraper = ScraperConfig{
		DelayMin:       optSeconds("REQUEST_DELAY_MIN", 1*time.Second),
		DelayMax:       optSeconds("REQUEST_DELAY_MAX", 3*time.Second),
		BackoffMin:     optSeconds("RETRY_BACKOFF_MIN", 3*time.Second),
		BackoffMax:     optSeconds("RETRY_BACKOFF_MAX", 5*time.Second),
		RequestTimeout: optSeconds("REQUEST_TIMEOUT", 10*time.Second),
		MaxRetries:     optInt("REQUEST_MAX_RETRIES", 3),
		MaxPages:       optInt("MAX_PAGES_PER_SITE", 10),
		Interval:       optSeconds("SCRAPE_INTERVAL", 3600*time.Second),
		Schedule:       optBool("SCRAPE_SCHEDULE_ENABLED", false),
		Details:        optBool("SCRAPE_JOB_DETAILS", false),
		Workers:        optInt("ENRICH_WORKERS", 1),
		SeenTTL:        optSeconds("SEEN_TTL", 24*time.Hour),
	}

	temperature, err := strconv.ParseFloat(optDefault("OPENAI_TEMPERATURE", "0.3"), 32)
	if err != nil {
		invalid = append(invalid, "OPENAI_TEMPERATURE")
		temperature = 0.3
	}
	cfg.AI = AIConfig{
		Provider:          strings.ToLower(optDefault("AI_PROVIDER", "openai")),
		Endpoint:          opt("OPENAI_BASE_URL"),
		APIKey:            opt("OPENAI_API_KEY"),
		Model:             optDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:       float32(temperature),
		Timeout:           optSeconds("OPENAI_TIMEOUT", 30*time.Second),
		SalaryMaxTokens:   optInt("AI_SALARY_MAX_TOKENS", 200),
		CategoryMaxTokens: optInt("AI_CATEGORY_MAX_TOKENS", 50),
		SkillsMaxTokens:   optInt("AI_SKILLS_MAX_TOKENS", 300),
		LevelMaxTokens:    optInt("AI_LEVEL_MAX_TOKENS", 20),
	}
	if cfg.AI.Provider == "gemini" && cfg.AI.APIKey == "" {
		cfg.AI.APIKey = opt("GEMINI_API_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
