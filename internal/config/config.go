package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tcg-arena/shop-populator/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Places  PlacesConfig `yaml:"places" mapstructure:"places"`
	Store   StoreConfig  `yaml:"store" mapstructure:"store"`
	Run     RunConfig    `yaml:"run" mapstructure:"run"`
	Pricing cost.Rates   `yaml:"pricing" mapstructure:"pricing"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
}

// PlacesConfig configures the Google Places client.
type PlacesConfig struct {
	APIKey          string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	RadiusMeters    int           `yaml:"radius_meters" mapstructure:"radius_meters"`
	SearchInterval  time.Duration `yaml:"search_interval" mapstructure:"search_interval"`
	DetailsInterval time.Duration `yaml:"details_interval" mapstructure:"details_interval"`
	TimeoutSecs     int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures the shops database.
type StoreConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// RunConfig configures a populate run.
type RunConfig struct {
	MaxRequests    int     `yaml:"max_requests" mapstructure:"max_requests"`
	DryRun         bool    `yaml:"dry_run" mapstructure:"dry_run"`
	SkipDetails    bool    `yaml:"skip_details" mapstructure:"skip_details"`
	DetectServices bool    `yaml:"detect_services" mapstructure:"detect_services"`
	MinRating      float64 `yaml:"min_rating" mapstructure:"min_rating"`
	CatalogPath    string  `yaml:"catalog_path" mapstructure:"catalog_path"`
	ExportPath     string  `yaml:"export_path" mapstructure:"export_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envAliases binds config keys to the variable names used by existing deployments,
// in addition to the SHOPS_ prefixed form.
var envAliases = map[string]string{
	"places.api_key": "GOOGLE_PLACES_API_KEY",
	"store.url":      "DB_URL",
	"store.user":     "DB_USER",
	"store.password": "DB_PASSWORD",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := "SHOPS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("places.radius_meters", 15000)
	v.SetDefault("places.search_interval", time.Second)
	v.SetDefault("places.details_interval", 500*time.Millisecond)
	v.SetDefault("places.timeout_secs", 10)
	v.SetDefault("store.user", "root")
	v.SetDefault("run.max_requests", 950)
	v.SetDefault("run.min_rating", 3.0)
	v.SetDefault("pricing.places.nearby_search", 0.032)
	v.SetDefault("pricing.places.details", 0.017)
	v.SetDefault("pricing.places.monthly_credit", 200.00)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a run needs. Store settings are only required
// when the run writes to the database.
func (c *Config) Validate() error {
	if c.Places.APIKey == "" {
		return eris.New("config: places api key is required (--api-key or GOOGLE_PLACES_API_KEY)")
	}
	if c.Places.RadiusMeters <= 0 || c.Places.RadiusMeters > 50000 {
		return eris.Errorf("config: places radius %d out of range (1-50000)", c.Places.RadiusMeters)
	}
	if c.Run.MaxRequests <= 0 {
		return eris.Errorf("config: max requests must be positive, got %d", c.Run.MaxRequests)
	}
	if c.Run.DryRun {
		return nil
	}
	if c.Store.URL == "" {
		return eris.New("config: store url is required unless --dry-run (--db-url or DB_URL)")
	}
	if c.Store.Password == "" && needsPassword(c.Store.URL) {
		return eris.New("config: store password is required unless --dry-run (--db-password or DB_PASSWORD)")
	}
	return nil
}

// needsPassword reports whether url points at a server database without
// embedded credentials.
func needsPassword(url string) bool {
	if strings.HasPrefix(url, "sqlite:") || strings.HasPrefix(url, "file:") {
		return false
	}
	return !strings.Contains(url, "@")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
