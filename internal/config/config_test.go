package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/shaper/internal/core"
	"firestige.xyz/shaper/internal/shaper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shaper.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
shaper:
  engine:
    enabled: true
    max_queue_size: 50
    drop_policy: head
    bandwidth_kbps: 5000
    rate_limit:
      enabled: true
      capacity: 20
      refill_rate: 2
  flow_timeout: 2m
  evict_interval: 10s
  shares:
    critical: 0.10
    high: 0.30
    medium: 0.25
    normal: 0.20
    low: 0.10
    bulk: 0.05
  rules:
    - name: sip
      protocol: udp
      dst_port: 5060
      tier: high
    - name: rtp
      protocol: udp
      dst_port_low: 10000
      dst_port_high: 20000
      tier: high
  log:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Engine.Enabled)
	assert.Equal(t, 50, cfg.Engine.MaxQueueSize)
	assert.Equal(t, shaper.DropHead, cfg.Engine.DropPolicy)
	assert.Equal(t, 5000.0, cfg.Engine.BandwidthKbps)
	assert.True(t, cfg.Engine.RateLimit.Enabled)
	assert.Equal(t, 20.0, cfg.Engine.RateLimit.Capacity)

	timeout, err := cfg.FlowTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, timeout)

	rules, err := cfg.ShaperRules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "sip", rules[0].Name)
	assert.Equal(t, core.ProtoUDP, rules[0].Protocol)
	assert.Equal(t, uint16(5060), rules[0].DstPort)
	assert.Equal(t, core.TierHigh, rules[0].Tier)
	assert.Equal(t, uint16(10000), rules[1].DstPortLow)
	assert.Equal(t, uint16(20000), rules[1].DstPortHigh)

	shares, err := cfg.TierShares()
	require.NoError(t, err)
	assert.Equal(t, 0.30, shares[core.TierHigh])

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "shaper:\n  engine:\n    enabled: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, shaper.DefaultMaxQueueSize, cfg.Engine.MaxQueueSize)
	assert.Equal(t, shaper.DropTail, cfg.Engine.DropPolicy)
	assert.Equal(t, float64(shaper.DefaultBandwidthKbps), cfg.Engine.BandwidthKbps)
	assert.False(t, cfg.Engine.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)

	// No rules declared: the stock rule set applies.
	rules, err := cfg.ShaperRules()
	require.NoError(t, err)
	assert.Len(t, rules, len(shaper.DefaultRules()))
}

func TestLoad_InvalidDropPolicy(t *testing.T) {
	path := writeConfig(t, "shaper:\n  engine:\n    drop_policy: front\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drop policy")
}

func TestLoad_InvalidRuleTier(t *testing.T) {
	path := writeConfig(t, `
shaper:
  rules:
    - name: broken
      protocol: tcp
      dst_port: 80
      tier: ultra
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tier")
}

func TestLoad_InvalidShare(t *testing.T) {
	path := writeConfig(t, "shaper:\n  shares:\n    high: 1.5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRuleConfig_ToRule_Validation(t *testing.T) {
	_, err := (&RuleConfig{Name: "bad-range", Protocol: "tcp", DstPortLow: 100, Tier: "high"}).ToRule()
	assert.Error(t, err, "half-open range must be rejected")

	_, err = (&RuleConfig{Name: "bad-proto", Protocol: "icmp", Tier: "high"}).ToRule()
	assert.Error(t, err)

	_, err = (&RuleConfig{Name: "bad-addr", SrcAddr: "not-an-ip", Tier: "high"}).ToRule()
	assert.Error(t, err)

	r, err := (&RuleConfig{Name: "ok", Protocol: "udp", DstPort: 53, SrcAddr: "10.0.0.1", Tier: "high"}).ToRule()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", r.SrcAddr.String())
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Engine.Enabled)
}
