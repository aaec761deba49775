package ingress

import (
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/shaper/internal/core"
)

// PcapSource reads packet descriptors from a pcap capture file.
type PcapSource struct {
	f *os.File
	r *pcapgo.Reader
}

// OpenPcap opens a pcap file for replay.
func OpenPcap(path string) (*PcapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &PcapSource{f: f, r: r}, nil
}

// Next returns the next IP packet descriptor, skipping frames without a
// network layer. Returns io.EOF when the file is exhausted.
func (s *PcapSource) Next() (*core.Packet, error) {
	for {
		data, _, err := s.r.ReadPacketData()
		if err != nil {
			return nil, err
		}
		pkt := gopacket.NewPacket(data, s.r.LinkType(), gopacket.Default)
		if d, ok := Descriptor(pkt); ok {
			return d, nil
		}
	}
}

// Close releases the underlying file.
func (s *PcapSource) Close() error {
	return s.f.Close()
}
