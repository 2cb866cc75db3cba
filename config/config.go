// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config defines the facade's configuration, its defaults, and
// how it is loaded from a TOML file.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gogama/httpfacade/timeout"
	"github.com/pkg/errors"
)

// Config is the complete facade configuration. The zero value is not
// useful; start from Default.
type Config struct {
	Timeouts  Timeouts `toml:"timeouts"`
	Cache     Cache    `toml:"cache"`
	TLS       TLS      `toml:"tls"`
	Retry     Retry    `toml:"retry"`
	MaxAsync  int      `toml:"max_async" validate:"min=1,max=4096"`
	UserAgent string   `toml:"user_agent"`
	Log       Log      `toml:"log"`
	Metrics   Metrics  `toml:"metrics"`
}

// Timeouts holds the socket phase timeouts and the optional whole
// attempt timeout. Zero means no timeout.
type Timeouts struct {
	Connect Duration `toml:"connect" validate:"gte=0"`
	Read    Duration `toml:"read" validate:"gte=0"`
	Write   Duration `toml:"write" validate:"gte=0"`
	Attempt Duration `toml:"attempt" validate:"gte=0"`
}

// Cache configures the on-disk response cache.
type Cache struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir" validate:"required_unless=Disabled true"`
	MaxBytes int64  `toml:"max_bytes" validate:"gte=0"`
}

// TLS configures certificate verification. Hosts listed in
// InsecureHosts still have their certificate chain verified but skip
// the hostname check.
type TLS struct {
	InsecureHosts []string `toml:"insecure_hosts" validate:"dive,hostname_rfc1123|ip"`
}

// Retry configures the opt-in retry policy. Times is the number of
// retries after the first attempt; zero disables retry.
type Retry struct {
	Times    int      `toml:"times" validate:"gte=0,lte=10"`
	BaseWait Duration `toml:"base_wait" validate:"gte=0"`
	MaxWait  Duration `toml:"max_wait" validate:"gtefield=BaseWait"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" validate:"oneof=debug info warn error fatal"`
}

// Metrics configures Prometheus instrumentation.
type Metrics struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace" validate:"omitempty,metric_name"`
}

// Duration is a time.Duration which decodes from strings such as
// "15s" or "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the default configuration: 15s connect, 20s read and
// 20s write timeouts, a 10 MiB disk cache in the user cache directory,
// no retry and at most 64 concurrent asynchronous calls.
func Default() Config {
	return Config{
		Timeouts: Timeouts{
			Connect: Duration(timeout.DefaultPhases.Connect),
			Read:    Duration(timeout.DefaultPhases.Read),
			Write:   Duration(timeout.DefaultPhases.Write),
		},
		Cache: Cache{
			Dir:      DefaultCacheDir(),
			MaxBytes: 10 << 20,
		},
		Retry: Retry{
			BaseWait: Duration(50 * time.Millisecond),
			MaxWait:  Duration(time.Second),
		},
		MaxAsync: 64,
		Log:      Log{Level: "info"},
		Metrics:  Metrics{Namespace: "httpfacade"},
	}
}

// DefaultCacheDir returns the httpfacade directory under the user cache
// directory, or under the temporary directory if there is no user
// cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "httpfacade")
}

// Load reads the TOML file at path over the defaults and validates the
// result. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: parse")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, errors.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Phases returns the socket phase timeouts.
func (c *Config) Phases() timeout.Phases {
	return timeout.Phases{
		Connect: c.Timeouts.Connect.Std(),
		Read:    c.Timeouts.Read.Std(),
		Write:   c.Timeouts.Write.Std(),
	}
}
