package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env           string               `yaml:"env"`
	ServiceName   string               `yaml:"service_name"`
	LogLevel      string               `yaml:"log_level"`
	DatabaseURL   string               `yaml:"database_url"`
	DefaultLeague string               `yaml:"default_league"`
	Leagues       map[string]LeagueRef `yaml:"leagues"`
	Providers     ProvidersConfig      `yaml:"providers"`
	Oracle        OracleConfig         `yaml:"oracle"`
	Settlement    SettlementConfig     `yaml:"settlement"`
	Generation    GenerationConfig     `yaml:"generation"`
	Schedule      ScheduleConfig       `yaml:"schedule"`
	Notify        NotifyConfig         `yaml:"notify"`
	MetricsPort   string               `yaml:"metrics_port"`
}

// LeagueRef maps a league slug to each provider's identifier for it.
type LeagueRef struct {
	PrimaryID    int    `yaml:"primary_id"`
	Season       int    `yaml:"season"`
	FallbackCode string `yaml:"fallback_code"`
}

type ProviderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
}

type ProvidersConfig struct {
	Primary  ProviderConfig `yaml:"primary"`
	Fallback ProviderConfig `yaml:"fallback"`
}

type OracleConfig struct {
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
}

type SettlementConfig struct {
	BatchResultLimit         int           `yaml:"batch_result_limit"`
	OpportunisticResultLimit int           `yaml:"opportunistic_result_limit"`
	OpportunisticTimeout     time.Duration `yaml:"opportunistic_timeout"`
	ArchiveAfter             time.Duration `yaml:"archive_after"`
}

type GenerationConfig struct {
	UpcomingCount    int `yaml:"upcoming_count"`
	RecentResults    int `yaml:"recent_results"`
	HeadToHeadLength int `yaml:"head_to_head_length"`
}

type ScheduleConfig struct {
	Settlement string `yaml:"settlement"`
	Generation string `yaml:"generation"`
	Archive    string `yaml:"archive"`
}

type NotifyConfig struct {
	DiscordToken     string `yaml:"discord_token"`
	DiscordChannelID string `yaml:"discord_channel_id"`
	TelegramToken    string `yaml:"telegram_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	RedisAddr        string `yaml:"redis_addr"`
	RedisChannel     string `yaml:"redis_channel"`
	KafkaBrokers     string `yaml:"kafka_brokers"`
	KafkaTopic       string `yaml:"kafka_topic"`
}

// Default returns the configuration used when neither a file nor the environment
// sets a value.
func Default() Config {
	return Config{
		Env:           "local",
		ServiceName:   "tips-engine",
		DefaultLeague: "serie-a",
		Leagues: map[string]LeagueRef{
			"serie-a":          {PrimaryID: 135, Season: 2026, FallbackCode: "SA"},
			"premier-league":   {PrimaryID: 39, Season: 2026, FallbackCode: "PL"},
			"la-liga":          {PrimaryID: 140, Season: 2026, FallbackCode: "PD"},
			"bundesliga":       {PrimaryID: 78, Season: 2026, FallbackCode: "BL1"},
			"ligue-1":          {PrimaryID: 61, Season: 2026, FallbackCode: "FL1"},
			"champions-league": {PrimaryID: 2, Season: 2026, FallbackCode: "CL"},
		},
		Providers: ProvidersConfig{
			Primary: ProviderConfig{
				BaseURL:   "https://v3.football.api-sports.io",
				Timeout:   15 * time.Second,
				RateLimit: 5,
				Burst:     5,
			},
			Fallback: ProviderConfig{
				BaseURL:   "https://api.football-data.org/v4",
				Timeout:   15 * time.Second,
				RateLimit: 5,
				Burst:     5,
			},
		},
		Oracle: OracleConfig{
			URL:         "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			Temperature: 0.3,
		},
		Settlement: SettlementConfig{
			BatchResultLimit:         30,
			OpportunisticResultLimit: 10,
			OpportunisticTimeout:     2 * time.Minute,
			ArchiveAfter:             90 * 24 * time.Hour,
		},
		Generation: GenerationConfig{
			UpcomingCount:    10,
			RecentResults:    10,
			HeadToHeadLength: 5,
		},
		Schedule: ScheduleConfig{
			Settlement: "0 */30 * * * *",
			Generation: "0 0 8 * * *",
			Archive:    "0 0 3 * * *",
		},
		Notify: NotifyConfig{
			RedisChannel: "tips_settlement",
			KafkaTopic:   "tips_settlement",
		},
		MetricsPort: "9095",
	}
}

// Load reads .env (if present), then the optional YAML file named by CONFIG_PATH,
// then applies environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		// a leagues block replaces the default set instead of merging into it
		var fileLeagues struct {
			Leagues map[string]LeagueRef `yaml:"leagues"`
		}
		if err := yaml.Unmarshal(data, &fileLeagues); err == nil && len(fileLeagues.Leagues) > 0 {
			cfg.Leagues = fileLeagues.Leagues
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DefaultLeague = getEnv("DEFAULT_LEAGUE", cfg.DefaultLeague)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)

	cfg.Providers.Primary.BaseURL = getEnv("PRIMARY_BASE_URL", cfg.Providers.Primary.BaseURL)
	cfg.Providers.Primary.APIKey = getEnv("PRIMARY_API_KEY", cfg.Providers.Primary.APIKey)
	cfg.Providers.Fallback.BaseURL = getEnv("FALLBACK_BASE_URL", cfg.Providers.Fallback.BaseURL)
	cfg.Providers.Fallback.APIKey = getEnv("FALLBACK_API_KEY", cfg.Providers.Fallback.APIKey)

	cfg.Oracle.URL = getEnv("ORACLE_URL", cfg.Oracle.URL)
	cfg.Oracle.APIKey = getEnv("ORACLE_API_KEY", cfg.Oracle.APIKey)
	cfg.Oracle.Model = getEnv("ORACLE_MODEL", cfg.Oracle.Model)

	cfg.Notify.DiscordToken = getEnv("DISCORD_BOT_TOKEN", cfg.Notify.DiscordToken)
	cfg.Notify.DiscordChannelID = getEnv("DISCORD_CHANNEL_ID", cfg.Notify.DiscordChannelID)
	cfg.Notify.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.Notify.TelegramToken)
	if v, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notify.TelegramChatID = id
		}
	}
	cfg.Notify.RedisAddr = getEnv("REDIS_ADDR", cfg.Notify.RedisAddr)
	cfg.Notify.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.Notify.KafkaBrokers)
	cfg.Notify.KafkaTopic = getEnv("KAFKA_TOPIC_SETTLEMENT", cfg.Notify.KafkaTopic)
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if c.Providers.Primary.APIKey == "" {
		return fmt.Errorf("PRIMARY_API_KEY not set")
	}
	if c.Settlement.BatchResultLimit <= 0 || c.Settlement.OpportunisticResultLimit <= 0 {
		return fmt.Errorf("settlement result limits must be positive")
	}
	if c.Generation.UpcomingCount <= 0 {
		return fmt.Errorf("generation upcoming_count must be positive")
	}
	if _, ok := c.Leagues[c.DefaultLeague]; !ok {
		return fmt.Errorf("default league %q is not configured", c.DefaultLeague)
	}
	return nil
}

// LeagueSlugs returns the configured leagues in a stable order.
func (c *Config) LeagueSlugs() []string {
	slugs := make([]string, 0, len(c.Leagues))
	for slug := range c.Leagues {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
