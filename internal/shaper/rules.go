package shaper

import "firestige.xyz/shaper/internal/core"

// DefaultRules returns the stock classification rule set used by
// configuration loaders when no rules are declared: VoIP signaling and
// media, game traffic, interactive and web protocols, mail, and
// BitTorrent. The engine itself starts with an empty rule list.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "sip", Protocol: core.ProtoUDP, DstPort: 5060, Tier: core.TierHigh},
		{Name: "rtp", Protocol: core.ProtoUDP, DstPortLow: 10000, DstPortHigh: 20000, Tier: core.TierHigh},
		{Name: "dns", Protocol: core.ProtoUDP, DstPort: 53, Tier: core.TierHigh},
		{Name: "gaming", Protocol: core.ProtoUDP, DstPortLow: 27000, DstPortHigh: 27100, Tier: core.TierMedium},
		{Name: "ssh", Protocol: core.ProtoTCP, DstPort: 22, Tier: core.TierMedium},
		{Name: "http", Protocol: core.ProtoTCP, DstPort: 80, Tier: core.TierMedium},
		{Name: "https", Protocol: core.ProtoTCP, DstPort: 443, Tier: core.TierMedium},
		{Name: "smtp", Protocol: core.ProtoTCP, DstPort: 25, Tier: core.TierNormal},
		{Name: "ftp-control", Protocol: core.ProtoTCP, DstPort: 21, Tier: core.TierNormal},
		{Name: "bittorrent", Protocol: core.ProtoTCP, DstPortLow: 6881, DstPortHigh: 6889, Tier: core.TierBulk},
	}
}
