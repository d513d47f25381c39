package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sahilg28/skillsync-backend/internal/store"
	"github.com/sahilg28/skillsync-backend/internal/sweeper"
)

const (
	app       = "skillsync"
	envPrefix = "SKILLSYNC"

	environmentProduction = "production"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	Port        string          `mapstructure:"port"`
	HTTP        *HTTPConfig     `mapstructure:"http"`
	Store       store.Config    `mapstructure:"store"`
	Events      *EventsConfig   `mapstructure:"events"`
	Jobs        *JobsConfig     `mapstructure:"jobs"`
	Matching    *MatchingConfig `mapstructure:"matching"`
	AI          *AIConfig       `mapstructure:"ai"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type EventsConfig struct {
	RedisURL      string `mapstructure:"redis-url"`
	ChannelPrefix string `mapstructure:"channel-prefix"`
}

type JobsConfig struct {
	HardDelete bool           `mapstructure:"hard-delete"`
	Sweeper    sweeper.Config `mapstructure:",squash"`
}

type MatchingConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api-key"`
	APIKeyFile      string        `mapstructure:"api-key-file"`
	Model           string        `mapstructure:"model"`
	MaxRetries      int           `mapstructure:"max-retries"`
	MaxLogLength    int           `mapstructure:"max-log-length"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
	RatePerSecond   float64       `mapstructure:"rate-per-second"`
	Burst           int           `mapstructure:"burst"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max-output-tokens"`
}

// Production reports whether error details must be hidden from API clients.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), environmentProduction)
}

// ListenAddr prefers the bare PORT variable used by most hosting platforms.
func (c *Config) ListenAddr() string {
	if port := strings.TrimSpace(c.Port); port != "" {
		return ":" + port
	}
	return c.HTTP.Addr
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillsync matches developer profiles against job postings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// legacyEnv maps config keys to the variable names older deployments use.
var legacyEnv = map[string]string{
	"environment":            "NODE_ENV",
	"port":                   "PORT",
	"store.postgres-url":     "DATABASE_URL",
	"events.redis-url":       "REDIS_URL",
	"ai.gemini.api-key":      "GEMINI_API_KEY",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
}

func init() {
	setDefaults(viper.GetViper())
	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatal(err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillsync.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", legacy, err)
		}
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", "")

	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.read-timeout", 15*time.Second)
	v.SetDefault("http.write-timeout", 75*time.Second)
	v.SetDefault("http.shutdown-timeout", 10*time.Second)

	v.SetDefault("store.driver", store.DriverMemory)
	v.SetDefault("store.sqlite-path", "skillsync.db")
	v.SetDefault("store.postgres-url", "")

	v.SetDefault("events.redis-url", "")
	v.SetDefault("events.channel-prefix", app)

	v.SetDefault("jobs.hard-delete", false)
	v.SetDefault("jobs.stale-after", time.Duration(0))
	v.SetDefault("jobs.sweep-schedule", sweeper.DefaultSchedule)

	v.SetDefault("matching.timeout", 60*time.Second)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.request-timeout", 30*time.Second)
	v.SetDefault("ai.gemini.rate-per-second", 0.0)
	v.SetDefault("ai.gemini.burst", 1)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.gemini.max-output-tokens", 1000)
}

func initConfig() {
	// A missing .env is normal outside of local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was requested explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}

	return config, nil
}
