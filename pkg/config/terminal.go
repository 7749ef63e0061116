package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// TerminalConfig drives the cashier terminal binary and its sale gateway client.
type TerminalConfig struct {
	App     TerminalAppConfig
	Log     LogConfig
	Gateway GatewayConfig
	Search  SearchConfig
	Display DisplayConfig
}

type TerminalAppConfig struct {
	TerminalID string `envconfig:"CAFEPOS_TERMINAL_ID" default:"till-1"`
}

type GatewayConfig struct {
	BaseURL     string        `envconfig:"CAFEPOS_TERMINAL_BASE_URL" required:"true"`
	AccessToken string        `envconfig:"CAFEPOS_TERMINAL_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"CAFEPOS_TERMINAL_TIMEOUT" default:"10s"`
}

type SearchConfig struct {
	Debounce time.Duration `envconfig:"CAFEPOS_TERMINAL_SEARCH_DEBOUNCE" default:"300ms"`
	Limit    int           `envconfig:"CAFEPOS_TERMINAL_SEARCH_LIMIT" default:"20"`
}

type DisplayConfig struct {
	Currency string `envconfig:"CAFEPOS_SALES_CURRENCY" default:"USD"`
	Locale   string `envconfig:"CAFEPOS_SALES_LOCALE" default:"en-US"`
}

// LoadTerminal reads the terminal configuration from the environment.
func LoadTerminal() (*TerminalConfig, error) {
	var cfg TerminalConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing terminal config: %w", err)
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (g GatewayConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(g.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvTerminalBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvTerminalBaseURL, g.BaseURL)
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	return nil
}
