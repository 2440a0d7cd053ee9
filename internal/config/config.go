package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Schema     SchemaConfig     `yaml:"schema" mapstructure:"schema"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the template and import-history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SchemaConfig selects the sources of target fields.
type SchemaConfig struct {
	Builtin    bool   `yaml:"builtin" mapstructure:"builtin"`
	File       string `yaml:"file" mapstructure:"file"`
	Salesforce bool   `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     bool   `yaml:"notion" mapstructure:"notion"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the target object.
type SalesforceConfig struct {
	ClientID    string  `yaml:"client_id" mapstructure:"client_id"`
	Username    string  `yaml:"username" mapstructure:"username"`
	KeyPath     string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL    string  `yaml:"login_url" mapstructure:"login_url"`
	Object      string  `yaml:"object" mapstructure:"object"`
	UniqueField string  `yaml:"unique_field" mapstructure:"unique_field"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials and database IDs.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	LeadDB    string  `yaml:"lead_db" mapstructure:"lead_db"`
	FieldDB   string  `yaml:"field_db" mapstructure:"field_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ImportConfig tunes analysis and commit behavior.
type ImportConfig struct {
	Executor               string  `yaml:"executor" mapstructure:"executor"`
	SampleSize             int     `yaml:"sample_size" mapstructure:"sample_size"`
	PreviewRows            int     `yaml:"preview_rows" mapstructure:"preview_rows"`
	TemplateMatchThreshold float64 `yaml:"template_match_threshold" mapstructure:"template_match_threshold"`
	AutoApplyTemplate      bool    `yaml:"auto_apply_template" mapstructure:"auto_apply_template"`
	MaxUploadMB            int     `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// FetchConfig configures remote file downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP API.
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
	v.SetEnvPrefix("LEADIMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-importer.db")
	v.SetDefault("schema.builtin", true)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.object", "Lead")
	v.SetDefault("salesforce.unique_field", "Email")
	v.SetDefault("salesforce.rate_limit", 10)
	v.SetDefault("notion.rate_limit", 3)
	v.SetDefault("import.executor", "none")
	v.SetDefault("import.sample_size", 100)
	v.SetDefault("import.preview_rows", 10)
	v.SetDefault("import.template_match_threshold", 0.7)
	v.SetDefault("import.auto_apply_template", true)
	v.SetDefault("import.max_upload_mb", 25)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 5)
	v.SetDefault("fetch.user_agent", "lead-importer/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks the settings needed by a command mode: "analyze",
// "import", "store" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(msg string) { errs = append(errs, msg) }

	switch mode {
	case "analyze":
		c.validateSchema(add)
		c.validateImport(add)
	case "import":
		c.validateSchema(add)
		c.validateImport(add)
		c.validateStore(add)
		c.validateExecutor(c.Import.Executor, add)
	case "store":
		c.validateStore(add)
	case "serve":
		c.validateSchema(add)
		c.validateImport(add)
		c.validateStore(add)
		c.validateExecutor(c.Import.Executor, add)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore(add func(string)) {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}
}

func (c *Config) validateSchema(add func(string)) {
	if !c.Schema.Builtin && c.Schema.File == "" && !c.Schema.Salesforce && !c.Schema.Notion {
		add("schema: at least one field source must be enabled")
	}
	if c.Schema.Salesforce {
		c.validateSalesforce(add)
	}
	if c.Schema.Notion {
		if c.Notion.Token == "" {
			add("notion.token is required")
		}
		if c.Notion.FieldDB == "" {
			add("notion.field_db is required")
		}
	}
}

func (c *Config) validateImport(add func(string)) {
	if c.Import.SampleSize < 1 {
		add("import.sample_size must be >= 1")
	}
	if c.Import.PreviewRows < 1 {
		add("import.preview_rows must be >= 1")
	}
	if c.Import.TemplateMatchThreshold <= 0 || c.Import.TemplateMatchThreshold > 1 {
		add("import.template_match_threshold must be in (0, 1]")
	}
}

func (c *Config) validateExecutor(name string, add func(string)) {
	switch name {
	case "none", "":
	case "salesforce":
		c.validateSalesforce(add)
	case "notion":
		if c.Notion.Token == "" {
			add("notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			add("notion.lead_db is required")
		}
	default:
		add("import.executor must be none, salesforce or notion")
	}
}

func (c *Config) validateSalesforce(add func(string)) {
	if c.Salesforce.ClientID == "" {
		add("salesforce.client_id is required")
	}
	if c.Salesforce.Username == "" {
		add("salesforce.username is required")
	}
	if c.Salesforce.KeyPath == "" {
		add("salesforce.key_path is required")
	}
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
