package config

import (
	"fmt"
	"time"

	"unichance/internal/scoring"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Server        ServerConfig            `mapstructure:"server"`
	RateLimit     RateLimitConfig         `mapstructure:"rate_limit"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Scoring       ScoringConfig           `mapstructure:"scoring"`
	Search        SearchConfig            `mapstructure:"search"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns URL, or the first address when URL is empty.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `mapstructure:"backend"`
	Search  LimitConfig `mapstructure:"search"`
	Auth    LimitConfig `mapstructure:"auth"`
}

type LimitConfig struct {
	Limit  int `mapstructure:"limit"`
	Window int `mapstructure:"window"` // seconds
}

type CacheConfig struct {
	ProfileTTL      int `mapstructure:"profile_ttl"`      // seconds
	RequirementsTTL int `mapstructure:"requirements_ttl"` // seconds
}

type ScoringConfig struct {
	WeightSet             string             `mapstructure:"weight_set"`
	TargetThreshold       int                `mapstructure:"target_threshold"`
	SafetyThreshold       int                `mapstructure:"safety_threshold"`
	Curve                 CurveConfig        `mapstructure:"curve"`
	NeutralCredit         float64            `mapstructure:"neutral_credit"`
	MissingLanguageCredit float64            `mapstructure:"missing_language_credit"`
	StatsWindowYears      int                `mapstructure:"stats_window_years"`
	CurrencyRates         map[string]float64 `mapstructure:"currency_rates"`
}

type CurveConfig struct {
	MeetCredit float64 `mapstructure:"meet_credit"`
	Headroom   float64 `mapstructure:"headroom"`
	Slope      float64 `mapstructure:"slope"`
	Floor      float64 `mapstructure:"floor"`
}

// Options converts the scoring section. Zero values fall back to engine defaults.
func (s ScoringConfig) Options() (scoring.Options, error) {
	weights, ok := scoring.LookupWeightSet(s.WeightSet)
	if !ok {
		return scoring.Options{}, fmt.Errorf("scoring.weight_set: unknown weight set %q", s.WeightSet)
	}

	return scoring.Options{
		Weights: weights,
		Curve: scoring.PartialCreditCurve{
			MeetCredit: s.Curve.MeetCredit,
			Headroom:   s.Curve.Headroom,
			Slope:      s.Curve.Slope,
			Floor:      s.Curve.Floor,
		},
		Thresholds: scoring.Thresholds{
			Target: s.TargetThreshold,
			Safety: s.SafetyThreshold,
		},
		NeutralCredit:         s.NeutralCredit,
		MissingLanguageCredit: s.MissingLanguageCredit,
		StatsWindowYears:      s.StatsWindowYears,
		CurrencyRates:         s.CurrencyRates,
	}, nil
}

type SearchConfig struct {
	ProgramsIndex string `mapstructure:"programs_index"`
	// EnsureIndex creates the programs index with its mapping at startup when missing.
	EnsureIndex bool `mapstructure:"ensure_index"`
}

type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to a time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// Seconds converts seconds from config to a time.Duration.
func Seconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
