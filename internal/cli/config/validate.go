package config

import (
	"fmt"
	"net/url"
)

// outputFormats lists the values accepted for the output setting.
var outputFormats = map[string]bool{
	"auto":     true,
	"table":    true,
	"json":     true,
	"csv":      true,
	"markdown": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server_url must be an http(s) URL, got %q", c.ServerURL)
	}
	if !outputFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (valid: auto, table, json, csv, markdown)", c.OutputFormat)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}
	return nil
}
