package rgs

import (
	"net/url"
	"strings"
)

// LaunchConfig holds the player launch parameters passed on the game URL
type LaunchConfig struct {
	URL       string
	SessionID string
	Language  string
	Currency  string
	Mode      string
}

// ConfigFromQuery reads the launch parameters from a query string. Missing
// server URL or session yields a configuration error; language and mode fall
// back to their defaults.
func ConfigFromQuery(q url.Values) (LaunchConfig, error) {
	cfg := LaunchConfig{
		URL:       strings.TrimSpace(q.Get(ParamURL)),
		SessionID: strings.TrimSpace(q.Get(ParamSession)),
		Language:  strings.TrimSpace(q.Get(ParamLanguage)),
		Currency:  strings.TrimSpace(q.Get(ParamCurrency)),
		Mode:      strings.TrimSpace(q.Get(ParamMode)),
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	return cfg, cfg.Validate()
}

// Validate checks that the parameters every wallet call needs are present
func (c LaunchConfig) Validate() error {
	if c.URL == "" {
		return configurationError("config", "missing "+ParamURL+" parameter")
	}
	if c.SessionID == "" {
		return configurationError("config", "missing "+ParamSession+" parameter")
	}
	return nil
}

// baseURL returns the server root; a bare host is addressed over https
func (c LaunchConfig) baseURL() string {
	u := strings.TrimRight(c.URL, "/")
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}
