package ingress

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/shaper/internal/core"
)

func serialize(t *testing.T, l ...gopacket.SerializableLayer) gopacket.Packet {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, l...); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestDescriptor_IPv4UDP(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		TOS:      46 << 2, // EF
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{SrcPort: 5000, DstPort: 5060}
	udp.SetNetworkLayerForChecksum(ip)

	pkt := serialize(t, eth, ip, udp, gopacket.Payload([]byte("INVITE")))

	d, ok := Descriptor(pkt)
	if !ok {
		t.Fatal("IPv4/UDP frame must yield a descriptor")
	}
	if d.Protocol != core.ProtoUDP {
		t.Errorf("protocol: got %v, want udp", d.Protocol)
	}
	if d.SrcAddr.String() != "10.0.0.1" || d.DstAddr.String() != "10.0.0.2" {
		t.Errorf("addrs: got %s -> %s", d.SrcAddr, d.DstAddr)
	}
	if d.SrcPort != 5000 || d.DstPort != 5060 {
		t.Errorf("ports: got %d -> %d", d.SrcPort, d.DstPort)
	}
	if d.Marking != 46 {
		t.Errorf("marking: got %d, want 46", d.Marking)
	}
	if d.Size != len(pkt.Data()) {
		t.Errorf("size: got %d, want %d", d.Size, len(pkt.Data()))
	}
}

func TestDescriptor_UnmarkedTCP(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(192, 168, 1, 20),
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{SrcPort: 44321, DstPort: 80, SYN: true}
	tcp.SetNetworkLayerForChecksum(ip)

	pkt := serialize(t, eth, ip, tcp)

	d, ok := Descriptor(pkt)
	if !ok {
		t.Fatal("IPv4/TCP frame must yield a descriptor")
	}
	if d.Protocol != core.ProtoTCP {
		t.Errorf("protocol: got %v, want tcp", d.Protocol)
	}
	if d.DstPort != 80 {
		t.Errorf("dst port: got %d, want 80", d.DstPort)
	}
	if d.Marking != -1 {
		t.Errorf("zero DSCP must read as unmarked, got %d", d.Marking)
	}
	if d.Marked() {
		t.Error("unmarked packet reports Marked()")
	}
}

func TestDescriptor_IPv6TrafficClass(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip := &layers.IPv6{
		Version:      6,
		HopLimit:     64,
		TrafficClass: 26 << 2, // AF31
		SrcIP:        net.ParseIP("2001:db8::1"),
		DstIP:        net.ParseIP("2001:db8::2"),
		NextHeader:   layers.IPProtocolUDP,
	}
	udp := &layers.UDP{SrcPort: 4000, DstPort: 53}
	udp.SetNetworkLayerForChecksum(ip)

	pkt := serialize(t, eth, ip, udp, gopacket.Payload([]byte{0}))

	d, ok := Descriptor(pkt)
	if !ok {
		t.Fatal("IPv6/UDP frame must yield a descriptor")
	}
	if d.Marking != 26 {
		t.Errorf("marking: got %d, want 26", d.Marking)
	}
	if d.SrcAddr.String() != "2001:db8::1" {
		t.Errorf("src addr: got %s", d.SrcAddr)
	}
	if d.Protocol != core.ProtoUDP || d.DstPort != 53 {
		t.Errorf("transport: got %v port %d", d.Protocol, d.DstPort)
	}
}

func TestDescriptor_NonIPRejected(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte{0x02, 0, 0, 0, 0, 1},
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{10, 0, 0, 2},
	}

	pkt := serialize(t, eth, arp)

	if _, ok := Descriptor(pkt); ok {
		t.Error("ARP frame must not yield a descriptor")
	}
}
