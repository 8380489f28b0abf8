package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Execution ExecutionConfig `yaml:"execution"`
	Server    ServerConfig    `yaml:"server"`
	Alert     AlertConfig     `yaml:"alert"`
	Preflight PreflightConfig `yaml:"preflight"`
}

type ExchangeConfig struct {
	Name           string `yaml:"name"`
	APIKey         string `yaml:"api_key"`
	SecretKey      string `yaml:"secret_key"`
	Passphrase     string `yaml:"passphrase"`
	RestBaseURL    string `yaml:"rest_base_url"`
	MarketType     string `yaml:"market_type"`
	HTTPTimeoutSec int64  `yaml:"http_timeout_sec"`
}

type ExecutionConfig struct {
	MaxWaitSec       int64 `yaml:"max_wait_sec"`
	PollIntervalMs   int64 `yaml:"poll_interval_ms"`
	InstrumentTTLSec int64 `yaml:"instrument_ttl_sec"`
	LeverageTTLSec   int64 `yaml:"leverage_ttl_sec"`
}

type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AlertConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id"`
	APIBaseURL string `yaml:"api_base_url"`
	TimeoutSec int64  `yaml:"timeout_sec"`
}

// PreflightConfig drives cmd/preflight. OrderQty sizes the optional order
// lifecycle check and must satisfy the instrument's lot step and minimum.
type PreflightConfig struct {
	Symbol   string  `yaml:"symbol"`
	OrderQty Decimal `yaml:"order_qty"`
}

// envOverrides lets credentials live outside the config file. A set
// environment variable wins over the YAML value.
type envOverrides struct {
	APIKey           string `envconfig:"DEEPCOIN_API_KEY"`
	SecretKey        string `envconfig:"DEEPCOIN_SECRET_KEY"`
	Passphrase       string `envconfig:"DEEPCOIN_PASSPHRASE"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("config must contain a single YAML document")
		}
		return Config{}, err
	}
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return Config{}, err
	}
	cfg.applyEnv(env)
	cfg.normalize()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.APIKey != "" {
		c.Exchange.APIKey = env.APIKey
	}
	if env.SecretKey != "" {
		c.Exchange.SecretKey = env.SecretKey
	}
	if env.Passphrase != "" {
		c.Exchange.Passphrase = env.Passphrase
	}
	if env.TelegramBotToken != "" {
		c.Alert.Telegram.BotToken = env.TelegramBotToken
	}
	if env.TelegramChatID != "" {
		c.Alert.Telegram.ChatID = env.TelegramChatID
	}
}

func (c *Config) normalize() {
	c.Exchange.Name = strings.ToLower(strings.TrimSpace(c.Exchange.Name))
	c.Exchange.APIKey = strings.TrimSpace(c.Exchange.APIKey)
	c.Exchange.SecretKey = strings.TrimSpace(c.Exchange.SecretKey)
	c.Exchange.Passphrase = strings.TrimSpace(c.Exchange.Passphrase)
	c.Exchange.RestBaseURL = strings.TrimSpace(c.Exchange.RestBaseURL)
	c.Exchange.MarketType = strings.ToLower(strings.TrimSpace(c.Exchange.MarketType))
	c.Server.ListenAddr = strings.TrimSpace(c.Server.ListenAddr)
	c.Alert.Telegram.BotToken = strings.TrimSpace(c.Alert.Telegram.BotToken)
	c.Alert.Telegram.ChatID = strings.TrimSpace(c.Alert.Telegram.ChatID)
	c.Alert.Telegram.APIBaseURL = strings.TrimSpace(c.Alert.Telegram.APIBaseURL)
	c.Preflight.Symbol = strings.ToUpper(strings.TrimSpace(c.Preflight.Symbol))
}

func (c *Config) applyDefaults() {
	if c.Exchange.Name == "" {
		c.Exchange.Name = "deepcoin"
	}
	if c.Exchange.MarketType == "" {
		c.Exchange.MarketType = "swap"
	}
	if c.Exchange.HTTPTimeoutSec == 0 {
		c.Exchange.HTTPTimeoutSec = 15
	}
	if c.Execution.MaxWaitSec == 0 {
		c.Execution.MaxWaitSec = 3
	}
	if c.Execution.PollIntervalMs == 0 {
		c.Execution.PollIntervalMs = 500
	}
	if c.Execution.InstrumentTTLSec == 0 {
		c.Execution.InstrumentTTLSec = 300
	}
	if c.Execution.LeverageTTLSec == 0 {
		c.Execution.LeverageTTLSec = 60
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Alert.Telegram.APIBaseURL == "" {
		c.Alert.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if c.Alert.Telegram.TimeoutSec == 0 {
		c.Alert.Telegram.TimeoutSec = 10
	}
}

func (c *Config) Validate() error {
	switch c.Exchange.MarketType {
	case "swap", "spot":
	default:
		return fmt.Errorf("exchange.market_type must be swap or spot, got %q", c.Exchange.MarketType)
	}
	if c.Execution.MaxWaitSec < 0 {
		return fmt.Errorf("execution.max_wait_sec must not be negative")
	}
	if c.Execution.PollIntervalMs < 0 {
		return fmt.Errorf("execution.poll_interval_ms must not be negative")
	}
	if c.Alert.Telegram.Enabled && (c.Alert.Telegram.BotToken == "" || c.Alert.Telegram.ChatID == "") {
		return fmt.Errorf("alert.telegram requires bot_token and chat_id when enabled")
	}
	if c.Preflight.OrderQty.Sign() < 0 {
		return fmt.Errorf("preflight.order_qty must not be negative")
	}
	return nil
}
