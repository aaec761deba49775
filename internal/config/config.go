// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/shaper/internal/core"
	"firestige.xyz/shaper/internal/log"
	"firestige.xyz/shaper/internal/shaper"
)

// Config is the top-level static configuration. Maps to the `shaper:`
// root key in YAML; env vars use the SHAPER_ prefix via the key replacer
// (e.g. SHAPER_LOG_LEVEL).
type Config struct {
	Engine        shaper.Config      `mapstructure:"engine"`
	FlowTimeout   string             `mapstructure:"flow_timeout"`
	EvictInterval string             `mapstructure:"evict_interval"`
	Rules         []RuleConfig       `mapstructure:"rules"`
	Shares        map[string]float64 `mapstructure:"shares"`
	Log           log.Config         `mapstructure:"log"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// configRoot is the top-level wrapper matching the YAML structure `shaper: ...`.
type configRoot struct {
	Shaper Config `mapstructure:"shaper"`
}

// Load loads configuration from file, applying defaults, env overrides
// and validation.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `shaper.` key prefix naturally maps to SHAPER_ env vars via
	// the key replacer (key "shaper.log.level" → env "SHAPER_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Shaper

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given: engine
// enabled with stock settings and the stock classification rules.
func Default() *Config {
	return &Config{
		Engine: shaper.Config{
			Enabled:       true,
			MaxQueueSize:  shaper.DefaultMaxQueueSize,
			DropPolicy:    shaper.DropTail,
			BandwidthKbps: shaper.DefaultBandwidthKbps,
		},
		FlowTimeout:   "5m",
		EvictInterval: "30s",
		Log:           log.Config{Level: "info", Format: "text"},
		Metrics:       MetricsConfig{Listen: ":9092", Path: "/metrics"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shaper.engine.enabled", true)
	v.SetDefault("shaper.engine.max_queue_size", shaper.DefaultMaxQueueSize)
	v.SetDefault("shaper.engine.drop_policy", string(shaper.DropTail))
	v.SetDefault("shaper.engine.bandwidth_kbps", shaper.DefaultBandwidthKbps)
	v.SetDefault("shaper.engine.rate_limit.enabled", false)
	v.SetDefault("shaper.engine.rate_limit.capacity", shaper.DefaultBucketCapacity)
	v.SetDefault("shaper.engine.rate_limit.refill_rate", shaper.DefaultRefillRate)

	v.SetDefault("shaper.flow_timeout", "5m")
	v.SetDefault("shaper.evict_interval", "30s")

	v.SetDefault("shaper.log.level", "info")
	v.SetDefault("shaper.log.format", "text")
	v.SetDefault("shaper.log.file.enabled", false)
	v.SetDefault("shaper.log.file.path", "/var/log/shaper/shaper.log")
	v.SetDefault("shaper.log.file.max_size_mb", 100)
	v.SetDefault("shaper.log.file.max_age_days", 30)
	v.SetDefault("shaper.log.file.max_backups", 5)
	v.SetDefault("shaper.log.file.compress", true)

	v.SetDefault("shaper.metrics.enabled", false)
	v.SetDefault("shaper.metrics.listen", ":9092")
	v.SetDefault("shaper.metrics.path", "/metrics")
}

// Validate checks cross-field consistency. Individual rule and share
// entries are validated by their converters so errors carry context.
func (c *Config) Validate() error {
	if _, err := shaper.ParseDropPolicy(string(c.Engine.DropPolicy)); err != nil {
		return err
	}
	if _, err := c.FlowTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.EvictIntervalDuration(); err != nil {
		return err
	}
	if _, err := c.ShaperRules(); err != nil {
		return err
	}
	if _, err := c.TierShares(); err != nil {
		return err
	}
	return nil
}

// FlowTimeoutDuration parses the flow idle timeout.
func (c *Config) FlowTimeoutDuration() (time.Duration, error) {
	if c.FlowTimeout == "" {
		return shaper.DefaultFlowTimeout, nil
	}
	d, err := time.ParseDuration(c.FlowTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid flow_timeout: %q", c.FlowTimeout)
	}
	return d, nil
}

// EvictIntervalDuration parses the eviction loop interval.
func (c *Config) EvictIntervalDuration() (time.Duration, error) {
	if c.EvictInterval == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.EvictInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid evict_interval: %q", c.EvictInterval)
	}
	return d, nil
}

// ShaperRules converts the declared rules in order. An empty rule list
// yields the stock rule set.
func (c *Config) ShaperRules() ([]shaper.Rule, error) {
	if len(c.Rules) == 0 {
		return shaper.DefaultRules(), nil
	}
	rules := make([]shaper.Rule, 0, len(c.Rules))
	for i := range c.Rules {
		r, err := c.Rules[i].ToRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, c.Rules[i].Name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// TierShares converts the declared bandwidth shares. Shares are design
// intent, not runtime-enforced; a sum far from 1.0 is logged, not
// rejected.
func (c *Config) TierShares() (map[core.Tier]float64, error) {
	if len(c.Shares) == 0 {
		return nil, nil
	}
	shares := make(map[core.Tier]float64, len(c.Shares))
	sum := 0.0
	for name, share := range c.Shares {
		tier, err := core.ParseTier(name)
		if err != nil {
			return nil, err
		}
		if share < 0 || share > 1 {
			return nil, fmt.Errorf("share for tier %s out of range: %v", name, share)
		}
		shares[tier] = share
		sum += share
	}
	if sum < 0.99 || sum > 1.01 {
		log.GetLogger().Warnf("tier shares sum to %.2f, expected 1.0", sum)
	}
	return shares, nil
}
