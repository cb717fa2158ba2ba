package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	NAP     NAPConfig     `yaml:"nap" mapstructure:"nap"`
	OCM     OCMConfig     `yaml:"ocm" mapstructure:"ocm"`
	MCS     MCSConfig     `yaml:"mcs" mapstructure:"mcs"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// OutputConfig configures where generated files are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
}

// NAPConfig configures the National Access Point import.
type NAPConfig struct {
	RawDir     string   `yaml:"raw_dir" mapstructure:"raw_dir" validate:"required"`
	OutputFile string   `yaml:"output_file" mapstructure:"output_file" validate:"required"`
	Workers    int      `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=64"`
	CSVCharset string   `yaml:"csv_charset" mapstructure:"csv_charset"`
	TempDir    string   `yaml:"temp_dir" mapstructure:"temp_dir"`
	Sources    []string `yaml:"sources" mapstructure:"sources" validate:"dive,url"`

	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=0"`
	RetryWaitMs   int `yaml:"retry_wait_ms" mapstructure:"retry_wait_ms" validate:"gte=0"`
}

// OCMConfig configures the OpenChargeMap fetch.
type OCMConfig struct {
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey            string   `yaml:"api_key" mapstructure:"api_key"`
	Countries         []string `yaml:"countries" mapstructure:"countries" validate:"min=1,dive,len=2"`
	ConnectionTypeID  int      `yaml:"connection_type_id" mapstructure:"connection_type_id" validate:"gte=1"`
	MinPowerKW        int      `yaml:"min_power_kw" mapstructure:"min_power_kw" validate:"gte=0"`
	PageSize          int      `yaml:"page_size" mapstructure:"page_size" validate:"gte=1"`
	RequestIntervalMs int      `yaml:"request_interval_ms" mapstructure:"request_interval_ms" validate:"gte=0"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gte=1"`
	OutputFile        string   `yaml:"output_file" mapstructure:"output_file" validate:"required"`
}

// MCSConfig configures the MCS seed geocoding and map.
type MCSConfig struct {
	SeedPath   string `yaml:"seed_path" mapstructure:"seed_path" validate:"required"`
	OutputFile string `yaml:"output_file" mapstructure:"output_file" validate:"required"`
	MapFile    string `yaml:"map_file" mapstructure:"map_file" validate:"required"`
}

// GeocodeConfig configures the Nominatim geocoder.
type GeocodeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MinDelayMs  int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
	ErrorWaitMs int    `yaml:"error_wait_ms" mapstructure:"error_wait_ms" validate:"gte=0"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gte=1"`
	CachePath   string `yaml:"cache_path" mapstructure:"cache_path"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
}

var validate = validator.New()

// EuropeanCountries are the ISO 3166-1 alpha-2 codes fetched from
// OpenChargeMap by default.
var EuropeanCountries = []string{
	"AL", "AD", "AT", "BE", "BA", "BG", "HR", "CY", "CZ", "DK",
	"EE", "FI", "FR", "DE", "GR", "HU", "IS", "IE", "IT", "XK",
	"LV", "LI", "LT", "LU", "MT", "MD", "MC", "ME", "NL", "MK",
	"NO", "PL", "PT", "RO", "SM", "RS", "SK", "SI", "ES", "SE",
	"CH", "GB", "UA", "BY", "TR",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ocm.api_key", "CCS_OCM_API_KEY", "OCM_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind ocm api key")
	}

	// Defaults
	v.SetDefault("output.dir", "output")
	v.SetDefault("nap.raw_dir", "data/nap_raw")
	v.SetDefault("nap.output_file", "ccs_europe.geojson")
	v.SetDefault("nap.workers", 4)
	v.SetDefault("nap.csv_charset", "utf-8")
	v.SetDefault("nap.temp_dir", os.TempDir())
	v.SetDefault("nap.sources", []string{})
	v.SetDefault("nap.retry_attempts", 3)
	v.SetDefault("nap.retry_wait_ms", 500)
	v.SetDefault("ocm.base_url", "https://api.openchargemap.io/v3/poi/")
	v.SetDefault("ocm.countries", EuropeanCountries)
	v.SetDefault("ocm.connection_type_id", 32)
	v.SetDefault("ocm.min_power_kw", 50)
	v.SetDefault("ocm.page_size", 1000)
	v.SetDefault("ocm.request_interval_ms", 1200)
	v.SetDefault("ocm.timeout_secs", 60)
	v.SetDefault("ocm.output_file", "ccs_europe.geojson")
	v.SetDefault("mcs.seed_path", "data/mcs_europe_seed.json")
	v.SetDefault("mcs.output_file", "mcs_europe.geojson")
	v.SetDefault("mcs.map_file", "mcs_europe_map.html")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "mcs-locator-eu")
	v.SetDefault("geocode.min_delay_ms", 1100)
	v.SetDefault("geocode.max_retries", 3)
	v.SetDefault("geocode.error_wait_ms", 2000)
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.cache_path", "")
	v.SetDefault("server.port", 8080)
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

// Validate checks the settings a command depends on. Mode is one of
// "nap", "nap-pull", "ocm", "mcs" or "serve".
func (c *Config) Validate(mode string) error {
	var section any
	switch mode {
	case "nap", "nap-pull":
		section = c.NAP
	case "ocm":
		section = c.OCM
	case "mcs":
		if err := validate.Struct(c.MCS); err != nil {
			return eris.Wrap(err, "config: validate mcs")
		}
		section = c.Geocode
	case "serve":
		section = c.Server
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if err := validate.Struct(c.Output); err != nil {
		return eris.Wrap(err, "config: validate output")
	}
	if err := validate.Struct(c.Log); err != nil {
		return eris.Wrap(err, "config: validate log")
	}
	if err := validate.Struct(section); err != nil {
		return eris.Wrapf(err, "config: validate %s", mode)
	}
	return nil
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
