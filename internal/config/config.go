package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Prefix is prepended to every variable, e.g. TRIPSYNC_LISTEN_ADDR.
const Prefix = "TRIPSYNC"

// AppConfig holds everything the server needs at start.
type AppConfig struct {
	ListenAddr    string   `envconfig:"LISTEN_ADDR" default:":8080"`
	GinMode       string   `envconfig:"GIN_MODE" default:"release"`
	LogLevel      string   `envconfig:"LOG_LEVEL" default:"info"`
	SessionSecret string   `envconfig:"SESSION_SECRET" default:"tripsync-dev-secret"`
	FrontendURLs  []string `envconfig:"FRONTEND_URLS" default:"http://localhost:5173"`
	RateLimit     string   `envconfig:"RATE_LIMIT" default:"1000-H"`
	SecureCookies bool     `envconfig:"SECURE_COOKIES" default:"false"`

	DBDriver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"tripsync.db"`
	PostgresDSN  string `envconfig:"POSTGRES_DSN"`

	WeightCan    int `envconfig:"WEIGHT_CAN" default:"3"`
	WeightMaybe  int `envconfig:"WEIGHT_MAYBE" default:"1"`
	WeightCannot int `envconfig:"WEIGHT_CANNOT" default:"-2"`
	MaxRangeDays int `envconfig:"MAX_RANGE_DAYS" default:"90"`
	TopDates     int `envconfig:"TOP_DATES" default:"3"`

	AIProvider     string `envconfig:"AI_PROVIDER" default:"openai"`
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	DeepSeekAPIKey string `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekModel  string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	DeepSeekURL    string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`

	FlightAPIKey    string `envconfig:"FLIGHT_API_KEY"`
	FlightAPISecret string `envconfig:"FLIGHT_API_SECRET"`
	FlightBaseURL   string `envconfig:"FLIGHT_BASE_URL" default:"https://test.api.amadeus.com"`

	SuperUserEmail    string `envconfig:"SUPER_USER_EMAIL"`
	SuperUserName     string `envconfig:"SUPER_USER_NAME" default:"admin"`
	SuperUserPassword string `envconfig:"SUPER_USER_PASSWORD"`
}

// Validate checks the values envconfig cannot.
func (c *AppConfig) Validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "sqlite":
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.WeightCan <= 0 {
		return fmt.Errorf("WEIGHT_CAN must be positive, got %d", c.WeightCan)
	}
	if c.WeightMaybe < 0 || c.WeightMaybe > c.WeightCan {
		return fmt.Errorf("WEIGHT_MAYBE must be between 0 and WEIGHT_CAN, got %d", c.WeightMaybe)
	}
	if c.WeightCannot >= 0 {
		return fmt.Errorf("WEIGHT_CANNOT must be negative, got %d", c.WeightCannot)
	}
	if c.MaxRangeDays <= 0 {
		return fmt.Errorf("MAX_RANGE_DAYS must be positive, got %d", c.MaxRangeDays)
	}
	if c.TopDates <= 0 {
		return fmt.Errorf("TOP_DATES must be positive, got %d", c.TopDates)
	}
	return nil
}

// Load reads TRIPSYNC_* variables, applies defaults and validates. It does
// not log; callers report the result with LogSummary once logging is set up.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// LogSummary records the non-secret settings on event.
func (c AppConfig) LogSummary(event *zerolog.Event) {
	event.
		Str("listen_addr", c.ListenAddr).
		Str("db_driver", c.DBDriver).
		Str("gin_mode", c.GinMode).
		Int("max_range_days", c.MaxRangeDays).
		Bool("ai_key_present", c.OpenAIAPIKey != "" || c.DeepSeekAPIKey != "").
		Bool("flight_key_present", c.FlightAPIKey != "").
		Msg("configuration loaded")
}
