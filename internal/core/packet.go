// Package core defines core data types with zero external dependencies.
package core

import "net/netip"

// Protocol identifies the transport protocol of a packet descriptor.
// The zero value is reserved as a wildcard for classifier rules;
// packets always carry TCP, UDP or Other.
type Protocol uint8

const (
	ProtoUnspecified Protocol = iota
	ProtoTCP
	ProtoUDP
	ProtoOther
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	case ProtoOther:
		return "other"
	default:
		return "any"
	}
}

// ParseProtocol converts a config-level protocol name. An empty string
// maps to ProtoUnspecified (rule wildcard).
func ParseProtocol(s string) (Protocol, bool) {
	switch s {
	case "":
		return ProtoUnspecified, true
	case "tcp":
		return ProtoTCP, true
	case "udp":
		return ProtoUDP, true
	case "other":
		return ProtoOther, true
	default:
		return ProtoUnspecified, false
	}
}

// Packet describes one packet traversing the shaping engine. The engine
// borrows the descriptor for the duration of a call; Payload is an opaque
// reference that is never inspected.
type Packet struct {
	Protocol Protocol
	SrcAddr  netip.Addr
	DstAddr  netip.Addr
	SrcPort  uint16 // Only meaningful for TCP/UDP
	DstPort  uint16
	Size     int
	Marking  int16 // DSCP value 0-63, -1 = unmarked
	Payload  []byte
}

// Marked reports whether the packet carries an explicit priority marking.
func (p *Packet) Marked() bool {
	return p.Marking >= 0
}

// FlowKey identifies the flow a packet belongs to. Ports participate only
// for TCP and UDP; for other protocols they are zeroed so all packets
// between the same pair of addresses collapse into one flow.
type FlowKey struct {
	Protocol Protocol
	SrcAddr  netip.Addr
	DstAddr  netip.Addr
	SrcPort  uint16
	DstPort  uint16
}

// FlowKeyOf derives the flow key for a packet descriptor.
func FlowKeyOf(p *Packet) FlowKey {
	key := FlowKey{
		Protocol: p.Protocol,
		SrcAddr:  p.SrcAddr,
		DstAddr:  p.DstAddr,
	}
	if p.Protocol == ProtoTCP || p.Protocol == ProtoUDP {
		key.SrcPort = p.SrcPort
		key.DstPort = p.DstPort
	}
	return key
}
