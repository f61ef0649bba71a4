package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
)

type Config struct {
	AppConfig         *AppConfig
	HTTPConfig        *HTTPConfig
	BrowserConfig     *BrowserConfig
	RetrievalConfig   *RetrievalConfig
	DiagnosticsConfig *DiagnosticsConfig
	AuthConfig        *AuthConfig
}

type AppConfig struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	Debug          bool   `envconfig:"DEBUG" default:"false"`
	LogFile        string `envconfig:"LOG_FILE"`
	LogMaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxAgeDays  int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
}

type HTTPConfig struct {
	Addr              string        `envconfig:"HTTP_ADDR" default:":8000"`
	MaxConcurrent     int64         `envconfig:"HTTP_MAX_CONCURRENT" default:"4"`
	RateLimit         float64       `envconfig:"HTTP_RATE_LIMIT" default:"1"`
	RateBurst         int           `envconfig:"HTTP_RATE_BURST" default:"4"`
	ReadHeaderTimeout time.Duration `envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"10s"`
	ShutdownTimeout   time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type BrowserConfig struct {
	Engine        string        `envconfig:"BROWSER_ENGINE" default:"playwright"`
	Headless      bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo        int           `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Install       bool          `envconfig:"BROWSER_INSTALL" default:"false"`
	ExecPath      string        `envconfig:"BROWSER_EXEC_PATH"`
	ActionTimeout time.Duration `envconfig:"BROWSER_ACTION_TIMEOUT" default:"30s"`
}

type RetrievalConfig struct {
	TargetURL         string        `envconfig:"RETRIEVAL_TARGET_URL" default:"https://labs.perplexity.ai/"`
	NavigationTimeout time.Duration `envconfig:"RETRIEVAL_NAVIGATION_TIMEOUT" default:"30s"`
	SettleDelay       time.Duration `envconfig:"RETRIEVAL_SETTLE_DELAY" default:"25s"`
	PollAttempts      int           `envconfig:"RETRIEVAL_POLL_ATTEMPTS" default:"3"`
	PollTimeout       time.Duration `envconfig:"RETRIEVAL_POLL_TIMEOUT" default:"60s"`
	ScreenshotDir     string        `envconfig:"RETRIEVAL_SCREENSHOT_DIR" default:"."`
	InputSelector     string        `envconfig:"RETRIEVAL_INPUT_SELECTOR"`
	AnswerSelector    string        `envconfig:"RETRIEVAL_ANSWER_SELECTOR"`
}

type DiagnosticsConfig struct {
	MinIOEndpoint  string `envconfig:"DIAGNOSTICS_MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"DIAGNOSTICS_MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"DIAGNOSTICS_MINIO_SECRET_KEY"`
	MinIOBucket    string `envconfig:"DIAGNOSTICS_MINIO_BUCKET" default:"ask-relay-diagnostics"`
	MinIOSecure    bool   `envconfig:"DIAGNOSTICS_MINIO_SECURE" default:"false"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &conf, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.BrowserConfig != nil {
		switch c.BrowserConfig.Engine {
		case EnginePlaywright, EngineChromedp:
		default:
			errs = append(errs, fmt.Errorf("unknown browser engine %q", c.BrowserConfig.Engine))
		}
	}

	if r := c.RetrievalConfig; r != nil {
		if r.TargetURL == "" {
			errs = append(errs, errors.New("target url is empty"))
		}
		if r.NavigationTimeout <= 0 {
			errs = append(errs, errors.New("navigation timeout must be positive"))
		}
		if r.SettleDelay < 0 {
			errs = append(errs, errors.New("settle delay must not be negative"))
		}
		if r.PollAttempts <= 0 {
			errs = append(errs, errors.New("poll attempts must be positive"))
		}
		if r.PollTimeout <= 0 {
			errs = append(errs, errors.New("poll timeout must be positive"))
		}
	}

	if h := c.HTTPConfig; h != nil {
		if h.MaxConcurrent <= 0 {
			errs = append(errs, errors.New("max concurrent must be positive"))
		}
		if h.RateLimit < 0 {
			errs = append(errs, errors.New("rate limit must not be negative"))
		}
		if h.RateLimit > 0 && h.RateBurst <= 0 {
			errs = append(errs, errors.New("rate burst must be positive when rate limit is set"))
		}
	}

	return errors.Join(errs...)
}
