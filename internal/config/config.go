package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultContact is printed when a run fails.
const DefaultContact = "Dhee Panwar <dhee.panwar@dell.com>"

// MinYear is the earliest extract year the CLI accepts.
const MinYear = 2018

// Config holds the full application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	IRS       IRSConfig       `yaml:"irs" mapstructure:"irs"`
	Curated   CuratedConfig   `yaml:"curated" mapstructure:"curated"`
	Region    RegionConfig    `yaml:"region" mapstructure:"region"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Contact   string          `yaml:"contact" mapstructure:"contact"`
}

// PathsConfig locates the input and output trees.
type PathsConfig struct {
	InputRoot  string `yaml:"input_root" mapstructure:"input_root"`
	OutputRoot string `yaml:"output_root" mapstructure:"output_root"`
}

// DirectoryConfig configures the organization directory API.
type DirectoryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	SiteURL     string  `yaml:"site_url" mapstructure:"site_url"`
	State       string  `yaml:"state" mapstructure:"state"`
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the per-request timeout.
func (d DirectoryConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// IRSConfig locates the IRS publishing pages.
type IRSConfig struct {
	SOIURL       string `yaml:"soi_url" mapstructure:"soi_url"`
	BMFURL       string `yaml:"bmf_url" mapstructure:"bmf_url"`
	BMFStateLink string `yaml:"bmf_state_link" mapstructure:"bmf_state_link"`
}

// CuratedConfig configures the curated index list.
type CuratedConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	SkipRows int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
	MatchBy  string `yaml:"match_by" mapstructure:"match_by"`
}

// RegionConfig overrides the built-in region.
type RegionConfig struct {
	ZipFile string `yaml:"zip_file" mapstructure:"zip_file"`
}

// StoreConfig configures the run-log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GIVING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.input_root", "input_files")
	v.SetDefault("paths.output_root", "output_files")
	v.SetDefault("directory.base_url", "https://wgi.communityplatform.us/platform-api/")
	v.SetDefault("directory.site_url", "https://wgi.communityplatform.us/")
	v.SetDefault("directory.state", "MA")
	v.SetDefault("directory.page_size", 10000)
	v.SetDefault("directory.concurrency", 20)
	v.SetDefault("directory.timeout_secs", 30)
	v.SetDefault("directory.rate_per_sec", 0)
	v.SetDefault("irs.soi_url", "https://www.irs.gov/statistics/soi-tax-stats-annual-extract-of-tax-exempt-organization-financial-data")
	v.SetDefault("irs.bmf_url", "https://www.irs.gov/charities-non-profits/exempt-organizations-business-master-file-extract-eo-bmf")
	v.SetDefault("irs.bmf_state_link", "Massachusetts")
	v.SetDefault("curated.path", "input_files/WGI/WGI_MA_Only.csv")
	v.SetDefault("curated.skip_rows", 0)
	v.SetDefault("curated.sheet", "")
	v.SetDefault("curated.match_by", "ein")
	v.SetDefault("region.zip_file", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "giving.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("contact", DefaultContact)

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

// Validate checks the settings the given command mode depends on.
// Modes: report, orgs, download, runs, serve.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "none":
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, none")
	}

	checkDirectory := func() {
		if c.Directory.BaseURL == "" {
			errs = append(errs, "directory.base_url is required")
		}
		if c.Directory.PageSize <= 0 {
			errs = append(errs, "directory.page_size must be > 0")
		}
		if c.Directory.Concurrency < 1 || c.Directory.Concurrency > 100 {
			errs = append(errs, "directory.concurrency must be between 1 and 100")
		}
		if c.Directory.RatePerSec < 0 {
			errs = append(errs, "directory.rate_per_sec must be >= 0")
		}
	}

	switch mode {
	case "report":
		checkDirectory()
		if c.IRS.SOIURL == "" {
			errs = append(errs, "irs.soi_url is required")
		}
		if c.IRS.BMFURL == "" {
			errs = append(errs, "irs.bmf_url is required")
		}
		if c.Curated.MatchBy != "ein" && c.Curated.MatchBy != "name" {
			errs = append(errs, "curated.match_by must be ein or name")
		}
		if c.Curated.SkipRows < 0 {
			errs = append(errs, "curated.skip_rows must be >= 0")
		}
	case "orgs":
		checkDirectory()
	case "download":
		if c.IRS.SOIURL == "" {
			errs = append(errs, "irs.soi_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "runs":
		if c.Store.Driver == "none" {
			errs = append(errs, "runs requires store.driver sqlite or postgres")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidYear reports whether year is a reportable extract year as of now:
// no earlier than MinYear and strictly before the current calendar year.
func ValidYear(year int, now time.Time) bool {
	return year >= MinYear && year < now.Year()
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
