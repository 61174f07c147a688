package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

func (c contextKey) String() string {
	return "jsonlocale/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultResourcesPath = "Resources"
	DefaultResourceName  = "Strings"
	DefaultKeyDelimiter  = "."
)

var ErrConfigPathEmpty = errors.New("config file path is empty")

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// FromYAMLFile loads defaults and the environment into T, then lets the yaml document override them.
func FromYAMLFile[T any](path string) (T, error) {
	var cfg T
	if path == "" {
		return cfg, ErrConfigPathEmpty
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	cfg, err = FromEnv[T]()
	if err != nil {
		return cfg, err
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	return cfg, nil
}

type ConfigurationDefault struct {
	LogLevel          string `envDefault:"info"                      env:"LOG_LEVEL"            yaml:"log_level"`
	LogTimeFormat     string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT"      yaml:"log_time_format"`
	LogColored        bool   `envDefault:"true"                      env:"LOG_COLORED"          yaml:"log_colored"`
	LogShowStackTrace bool   `envDefault:"false"                     env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	ServiceName string `envDefault:"" env:"SERVICE_NAME" yaml:"service_name"`

	// Worker pool settings, used while parsing translation sources
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"2"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"16" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"  env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s" env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	LocalizationResourcesPath       string `envDefault:"Resources" env:"LOCALIZATION_RESOURCES_PATH"        yaml:"localization_resources_path"`
	LocalizationResourceName        string `envDefault:"Strings"   env:"LOCALIZATION_RESOURCE_NAME"         yaml:"localization_resource_name"`
	LocalizationEmbeddedPrefix      string `envDefault:""          env:"LOCALIZATION_EMBEDDED_PREFIX"       yaml:"localization_embedded_prefix"`
	LocalizationBucketURL           string `envDefault:""          env:"LOCALIZATION_BUCKET_URL"            yaml:"localization_bucket_url"`
	LocalizationManifestPath        string `envDefault:""          env:"LOCALIZATION_MANIFEST_PATH"         yaml:"localization_manifest_path"`
	LocalizationKeysCaseInsensitive bool   `envDefault:"false"     env:"LOCALIZATION_KEYS_CASE_INSENSITIVE" yaml:"localization_keys_case_insensitive"`
	LocalizationDefaultCulture      string `envDefault:""          env:"LOCALIZATION_DEFAULT_CULTURE"       yaml:"localization_default_culture"`
	LocalizationParentFallback      bool   `envDefault:"false"     env:"LOCALIZATION_PARENT_FALLBACK"       yaml:"localization_parent_fallback"`
	LocalizationKeyDelimiter        string `envDefault:"."         env:"LOCALIZATION_KEY_DELIMITER"         yaml:"localization_key_delimiter"`
	LocalizationStrictLoad          bool   `envDefault:"false"     env:"LOCALIZATION_STRICT_LOAD"           yaml:"localization_strict_load"`
}

type ConfigurationService interface {
	Name() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

// ConfigurationLocalization exposes where translation sources live and how they are indexed.
type ConfigurationLocalization interface {
	GetResourcesPath() string
	GetResourceName() string
	GetEmbeddedPrefix() string
	GetBucketURL() string
	GetManifestPath() string
	KeysCaseInsensitive() bool
	GetDefaultCulture() string
	ParentCultureFallback() bool
	GetKeyDelimiter() string
	StrictLoad() bool
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetResourcesPath() string {
	if c.LocalizationResourcesPath == "" {
		return DefaultResourcesPath
	}
	return c.LocalizationResourcesPath
}

func (c *ConfigurationDefault) GetResourceName() string {
	if c.LocalizationResourceName == "" {
		return DefaultResourceName
	}
	return c.LocalizationResourceName
}

func (c *ConfigurationDefault) GetEmbeddedPrefix() string {
	return c.LocalizationEmbeddedPrefix
}

func (c *ConfigurationDefault) GetBucketURL() string {
	return c.LocalizationBucketURL
}

func (c *ConfigurationDefault) GetManifestPath() string {
	return c.LocalizationManifestPath
}

func (c *ConfigurationDefault) KeysCaseInsensitive() bool {
	return c.LocalizationKeysCaseInsensitive
}

func (c *ConfigurationDefault) GetDefaultCulture() string {
	return c.LocalizationDefaultCulture
}

func (c *ConfigurationDefault) ParentCultureFallback() bool {
	return c.LocalizationParentFallback
}

func (c *ConfigurationDefault) GetKeyDelimiter() string {
	if c.LocalizationKeyDelimiter == "" {
		return DefaultKeyDelimiter
	}
	return c.LocalizationKeyDelimiter
}

func (c *ConfigurationDefault) StrictLoad() bool {
	return c.LocalizationStrictLoad
}
