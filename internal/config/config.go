package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string

	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	OpenAIAPIKey      string
	OpenAIModel       string
	GenerationTimeout time.Duration
	PromptsFile       string

	SMTPServer       string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	SMTPStartTLS     bool
	EmailTemplateDir string

	NatsURL     string
	NatsToken   string
	DatabaseURL string

	SlackBotToken string
	SlackChannel  string
}

// LoadDotEnv loads the given .env files, skipping any that do not exist.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func Load() Config {
	smtpPort := envInt("SMTP_PORT", 587)
	return Config{
		Port:     envInt("COUNSEL_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),

		LLMProvider:       strings.ToLower(envStr("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiModel:       envStr("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:   envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		OpenAIModel:       envStr("OPENAI_MODEL", "gpt-4o-mini"),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 60*time.Second),
		PromptsFile:       envStr("PROMPTS_FILE", ""),

		SMTPServer:       envStr("SMTP_SERVER", "smtp.mailslurp.com"),
		SMTPPort:         smtpPort,
		SMTPUsername:     envStr("SMTP_USERNAME", ""),
		SMTPPassword:     envStr("SMTP_PASSWORD", ""),
		SMTPFrom:         envStr("SMTP_FROM", ""),
		SMTPStartTLS:     envBool("SMTP_STARTTLS", smtpPort != 465),
		EmailTemplateDir: envStr("EMAIL_TEMPLATE_DIR", "emails"),

		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),

		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_CHANNEL", ""),
	}
}

// ProviderAPIKey returns the API key of the selected provider.
func (c Config) ProviderAPIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// ProviderModel returns the model name of the selected provider.
func (c Config) ProviderModel() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicModel
	case "openai":
		return c.OpenAIModel
	default:
		return c.GeminiModel
	}
}

// SMTPConfigured reports whether real email delivery is possible.
func (c Config) SMTPConfigured() bool {
	return c.SMTPServer != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// SlackConfigured reports whether session digests can be posted.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// Validate checks settings needed before anything starts.
func (c Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case "gemini", "anthropic", "openai":
		if c.ProviderAPIKey() == "" {
			errs = append(errs, fmt.Errorf("%s_API_KEY is required when LLM_PROVIDER=%s", strings.ToUpper(c.LLMProvider), c.LLMProvider))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of gemini, anthropic, openai", c.LLMProvider))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("COUNSEL_PORT %d out of range", c.Port))
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT %d out of range", c.SMTPPort))
	}
	if c.GenerationTimeout < 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must not be negative"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
