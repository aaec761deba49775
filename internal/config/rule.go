package config

import (
	"fmt"
	"net/netip"

	"firestige.xyz/shaper/internal/core"
	"firestige.xyz/shaper/internal/shaper"
)

// RuleConfig is the YAML-level form of a classification rule. All match
// fields are optional; absent fields are wildcards.
type RuleConfig struct {
	Name        string `mapstructure:"name"`
	Protocol    string `mapstructure:"protocol"`      // tcp/udp/other, empty = any
	DstPort     uint16 `mapstructure:"dst_port"`      // exact match
	DstPortLow  uint16 `mapstructure:"dst_port_low"`  // inclusive range
	DstPortHigh uint16 `mapstructure:"dst_port_high"`
	SrcAddr     string `mapstructure:"src_addr"`
	DstAddr     string `mapstructure:"dst_addr"`
	Tier        string `mapstructure:"tier"`
}

// ToRule converts to the engine-level rule.
func (rc *RuleConfig) ToRule() (shaper.Rule, error) {
	r := shaper.Rule{
		Name:        rc.Name,
		DstPort:     rc.DstPort,
		DstPortLow:  rc.DstPortLow,
		DstPortHigh: rc.DstPortHigh,
	}

	proto, ok := core.ParseProtocol(rc.Protocol)
	if !ok {
		return shaper.Rule{}, fmt.Errorf("unknown protocol: %q", rc.Protocol)
	}
	r.Protocol = proto

	tier, err := core.ParseTier(rc.Tier)
	if err != nil {
		return shaper.Rule{}, err
	}
	r.Tier = tier

	if (rc.DstPortLow == 0) != (rc.DstPortHigh == 0) || rc.DstPortLow > rc.DstPortHigh {
		return shaper.Rule{}, fmt.Errorf("invalid dst port range: %d-%d", rc.DstPortLow, rc.DstPortHigh)
	}

	if rc.SrcAddr != "" {
		addr, err := netip.ParseAddr(rc.SrcAddr)
		if err != nil {
			return shaper.Rule{}, fmt.Errorf("invalid src_addr: %w", err)
		}
		r.SrcAddr = addr
	}
	if rc.DstAddr != "" {
		addr, err := netip.ParseAddr(rc.DstAddr)
		if err != nil {
			return shaper.Rule{}, fmt.Errorf("invalid dst_addr: %w", err)
		}
		r.DstAddr = addr
	}

	return r, nil
}
