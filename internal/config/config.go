// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package config loads and validates the gateward configuration from a YAML
// file layered under command-line flags.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gateward/gateward/internal/account"
)

// LinkConfig holds per-link-type settings.
type LinkConfig struct {
	// Enabled toggles the whole link type; a disabled type's pipeline step
	// always skips.
	Enabled bool `koanf:"enabled"`

	// EnterDelay is the window within which an accept/decline command still
	// matches a pending entry request.
	EnterDelay time.Duration `koanf:"enter-delay"`

	// LinkTimeout is how long a generated confirmation code stays valid.
	LinkTimeout time.Duration `koanf:"link-timeout"`

	// MaxLinksPerIdentity limits how many accounts one external identity may
	// be linked to. Zero means unlimited.
	MaxLinksPerIdentity int `koanf:"max-links-per-identity"`
}

// CodeConfig controls confirmation code generation and matching.
type CodeConfig struct {
	Length        int    `koanf:"length"`
	Alphabet      string `koanf:"alphabet"`
	CaseSensitive bool   `koanf:"case-sensitive"`
}

// Config is the root gateward configuration.
type Config struct {
	DatabaseURL string `koanf:"database-url"`
	ListenAddr  string `koanf:"listen-addr"`
	MetricsAddr string `koanf:"metrics-addr"`
	LogFormat   string `koanf:"log-format"`

	// SessionDurability is how long a completed session keeps a returning
	// player from re-authenticating.
	SessionDurability time.Duration `koanf:"session-durability"`

	// AuthServer is the backend server players are moved to by the
	// enter-server step.
	AuthServer string `koanf:"auth-server"`

	// Chain is the ordered list of step names forming the pipeline.
	Chain []string `koanf:"chain"`

	// SweepInterval is how often expired link requests are evicted.
	SweepInterval time.Duration `koanf:"sweep-interval"`

	Codes CodeConfig `koanf:"codes"`

	// Links is keyed by link type name (google, discord, telegram, vk).
	Links map[string]LinkConfig `koanf:"links"`

	// Messages overrides the default player-facing message texts by key.
	Messages map[string]string `koanf:"messages"`

	// TOTPIssuer is the issuer name shown in authenticator apps.
	TOTPIssuer string `koanf:"totp-issuer"`
}

// Default returns the built-in configuration.
func Default() Config {
	defaultLink := LinkConfig{
		Enabled:             true,
		EnterDelay:          60 * time.Second,
		LinkTimeout:         5 * time.Minute,
		MaxLinksPerIdentity: 1,
	}
	return Config{
		ListenAddr:        "0.0.0.0:4201",
		MetricsAddr:       "127.0.0.1:9100",
		LogFormat:         "json",
		SessionDurability: 4 * time.Hour,
		AuthServer:        "lobby",
		Chain: []string{
			"REGISTER",
			"LOGIN",
			"GOOGLE_LINK",
			"DISCORD_LINK",
			"TELEGRAM_LINK",
			"VK_LINK",
			"ENTER_SERVER",
		},
		SweepInterval: 5 * time.Second,
		Codes: CodeConfig{
			Length:        6,
			Alphabet:      "ABCDEFGHJKMNPQRSTUVWXYZ23456789",
			CaseSensitive: false,
		},
		Links: map[string]LinkConfig{
			string(account.LinkGoogle):   defaultLink,
			string(account.LinkDiscord):  defaultLink,
			string(account.LinkTelegram): defaultLink,
			string(account.LinkVK):       defaultLink,
		},
		Messages:   map[string]string{},
		TOTPIssuer: "gateward",
	}
}

// Load builds the configuration from defaults, an optional YAML file, and an
// optional flag set, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for startup-time errors.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log-format", c.LogFormat).
			Errorf("log-format must be 'json' or 'text'")
	}
	if c.SessionDurability <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session-durability must be positive")
	}
	if len(c.Chain) == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("step chain cannot be empty")
	}
	if c.AuthServer == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth-server is required")
	}
	for name := range c.Links {
		if !account.LinkType(name).Valid() {
			return oops.Code("CONFIG_INVALID").
				With("link", name).
				Errorf("unknown link type %q", name)
		}
	}
	return nil
}

// Link returns the settings for a link type; a type absent from the map is
// disabled.
func (c *Config) Link(t account.LinkType) LinkConfig {
	lc, ok := c.Links[string(t)]
	if !ok {
		return LinkConfig{}
	}
	return lc
}

// Message resolves a player-facing message key to its configured text, or
// the built-in default.
func (c *Config) Message(key string) string {
	if text, ok := c.Messages[key]; ok {
		return text
	}
	if text, ok := defaultMessages[key]; ok {
		return text
	}
	return key
}
