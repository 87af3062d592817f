package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-matcher/internal/headhunter"
)

const (
	app       = "cv-matcher"
	envPrefix = "CV_MATCHER"
)

// Source kinds accepted by keywords.source and jobs.source.
const (
	sourceFile     = "file"
	sourceDatabase = "database"
	sourceHH       = "hh"
	sourceGemini   = "gemini"
)

type Config struct {
	Vocabulary string          `mapstructure:"vocabulary"`
	Limit      int             `mapstructure:"limit"`
	Keywords   *KeywordsConfig `mapstructure:"keywords"`
	Jobs       *JobsConfig     `mapstructure:"jobs"`
	Database   *SecretConfig   `mapstructure:"database"`
	HH         *HHConfig       `mapstructure:"hh"`
	Gemini     *GeminiConfig   `mapstructure:"gemini"`
	Filters    *FiltersConfig  `mapstructure:"filters"`
	Cache      *CacheConfig    `mapstructure:"cache"`
}

type KeywordsConfig struct {
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
	CVDir  string `mapstructure:"cv-dir"`
}

type JobsConfig struct {
	Source       string                   `mapstructure:"source"`
	File         string                   `mapstructure:"file"`
	Search       *headhunter.SearchParams `mapstructure:"search"`
	MaxVacancies int                      `mapstructure:"max-vacancies"`
}

// SecretConfig points at a secret given inline, in a file or in an environment variable.
type SecretConfig struct {
	URL     string `mapstructure:"url"`
	URLFile string `mapstructure:"url-file"`
	URLEnv  string `mapstructure:"url-env"`
}

type HHConfig struct {
	TokenFile string  `mapstructure:"token-file"`
	UserAgent string  `mapstructure:"user-agent"`
	RateLimit float64 `mapstructure:"rate-limit"`
}

type GeminiConfig struct {
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	MaxKeywords  int           `mapstructure:"max-keywords"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type FiltersConfig struct {
	Sources     []string `mapstructure:"sources"`
	Companies   []string `mapstructure:"companies"`
	ExcludeFile string   `mapstructure:"exclude-file"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max-entries"`
	Redis      *SecretConfig `mapstructure:"redis"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-matcher ranks job postings against the keywords of a candidate CV",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("vocabulary", "", "a yaml file with aliases and stop words merged over the built-in vocabulary")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("vocabulary", rootCmd.PersistentFlags().Lookup("vocabulary"))

	setDefaults()
}

// setDefaults also registers the keys, so CV_MATCHER_* variables are picked up
// by Unmarshal even without a config file.
func setDefaults() {
	viper.SetDefault("limit", 10)
	viper.SetDefault("keywords.source", sourceFile)
	viper.SetDefault("keywords.file", "keywords.yaml")
	viper.SetDefault("keywords.cv-dir", "cvs")
	viper.SetDefault("jobs.source", sourceFile)
	viper.SetDefault("jobs.file", "jobs.json")
	viper.SetDefault("jobs.max-vacancies", 0)
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.url-file", "")
	viper.SetDefault("database.url-env", "DATABASE_URL")
	viper.SetDefault("hh.token-file", "")
	viper.SetDefault("hh.user-agent", "")
	viper.SetDefault("hh.rate-limit", 4)
	viper.SetDefault("gemini.api-key-file", "")
	viper.SetDefault("gemini.model", "")
	viper.SetDefault("gemini.max-retries", 2)
	viper.SetDefault("gemini.retry-delay", 2*time.Second)
	viper.SetDefault("gemini.max-keywords", 60)
	viper.SetDefault("gemini.max-log-length", 200)
	viper.SetDefault("filters.sources", []string{})
	viper.SetDefault("filters.companies", []string{})
	viper.SetDefault("filters.exclude-file", "")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", 15*time.Minute)
	viper.SetDefault("cache.max-entries", 16)
	viper.SetDefault("cache.redis.url", "")
	viper.SetDefault("cache.redis.url-file", "")
	viper.SetDefault("cache.redis.url-env", "")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine; a broken one or a missing explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Keywords == nil {
		config.Keywords = &KeywordsConfig{}
	}
	if config.Jobs == nil {
		config.Jobs = &JobsConfig{}
	}
	if config.Jobs.Search == nil {
		config.Jobs.Search = &headhunter.SearchParams{}
	}
	if config.Database == nil {
		config.Database = &SecretConfig{}
	}
	if config.HH == nil {
		config.HH = &HHConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Cache == nil {
		config.Cache = &CacheConfig{}
	}
	if config.Cache.Redis == nil {
		config.Cache.Redis = &SecretConfig{}
	}

	return config, nil
}
