package config

import "strings"

// Overrides are command-line values that win over settings.json. Empty
// fields and nil pointers leave the setting alone.
type Overrides struct {
	LogLevel   string
	LogFormat  string
	StatusAddr string
	Preview    *bool
	CNPJ       string
}

func Overlay(cfg *Config, o Overrides) {
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.Settings.Log.Level = v
	}
	if v := strings.TrimSpace(o.LogFormat); v != "" {
		cfg.Settings.Log.Format = v
	}
	if v := strings.TrimSpace(o.StatusAddr); v != "" {
		cfg.Settings.Status.Addr = v
	}
	if o.Preview != nil {
		cfg.Settings.Preview = *o.Preview
	}
	if v := strings.TrimSpace(o.CNPJ); v != "" {
		cfg.Params.CNPJ = v
	}
}
