// Package ingress converts captured packets into shaping descriptors.
// Capture and delivery themselves live outside the engine; this package
// only translates decoded layers into the descriptor schema.
package ingress

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/shaper/internal/core"
)

// Descriptor builds a packet descriptor from a decoded packet. The DSCP
// bits of the IPv4 TOS byte (or IPv6 traffic class) become the marking.
// Returns false for packets without an IP network layer.
func Descriptor(pkt gopacket.Packet) (*core.Packet, bool) {
	d := &core.Packet{
		Protocol: core.ProtoOther,
		Marking:  -1,
		Size:     len(pkt.Data()),
		Payload:  pkt.Data(),
	}

	switch nl := pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		src, ok1 := netip.AddrFromSlice(nl.SrcIP)
		dst, ok2 := netip.AddrFromSlice(nl.DstIP)
		if !ok1 || !ok2 {
			return nil, false
		}
		d.SrcAddr = src.Unmap()
		d.DstAddr = dst.Unmap()
		if dscp := nl.TOS >> 2; dscp > 0 {
			d.Marking = int16(dscp)
		}
	case *layers.IPv6:
		src, ok1 := netip.AddrFromSlice(nl.SrcIP)
		dst, ok2 := netip.AddrFromSlice(nl.DstIP)
		if !ok1 || !ok2 {
			return nil, false
		}
		d.SrcAddr = src
		d.DstAddr = dst
		if dscp := nl.TrafficClass >> 2; dscp > 0 {
			d.Marking = int16(dscp)
		}
	default:
		return nil, false
	}

	switch tl := pkt.TransportLayer().(type) {
	case *layers.TCP:
		d.Protocol = core.ProtoTCP
		d.SrcPort = uint16(tl.SrcPort)
		d.DstPort = uint16(tl.DstPort)
	case *layers.UDP:
		d.Protocol = core.ProtoUDP
		d.SrcPort = uint16(tl.SrcPort)
		d.DstPort = uint16(tl.DstPort)
	}

	return d, true
}
