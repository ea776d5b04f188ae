package parser

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

// DefaultPreviewBytes is the payload preview length used when none is given
const DefaultPreviewBytes = 256

// ErrUnknownFormat is returned for input that is neither pcap nor pcapng
var ErrUnknownFormat = errors.New("unrecognized capture format")

const (
	magicPcapMicros = 0xa1b2c3d4
	magicPcapNanos  = 0xa1b23c4d
	magicPcapNg     = 0x0a0d0d0a
)

// packetSource is implemented by both pcapgo readers
type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// ReadCapture decodes a pcap or pcapng file, optionally gzip compressed
func ReadCapture(path string, previewBytes int) ([]packet.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := DecodeCapture(f, previewBytes)
	if err != nil {
		return records, fmt.Errorf("failed to read capture %s: %w", path, err)
	}
	return records, nil
}

// DecodeCapture turns a pcap or pcapng stream into packet records. Frames
// that cannot be attributed to a pair of hosts still yield a record so the
// aggregator can count them as skipped. A truncated final frame ends the
// stream without an error.
func DecodeCapture(r io.Reader, previewBytes int) ([]packet.Record, error) {
	src, err := openSource(r)
	if err != nil {
		return nil, err
	}

	linkType := src.LinkType()
	records := []packet.Record{}
	for {
		data, ci, err := src.ReadPacketData()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return records, err
		}
		records = append(records, decodeFrame(data, ci, linkType, previewBytes))
	}
	return records, nil
}

// openSource sniffs the stream for gzip, pcap and pcapng magic numbers
func openSource(r io.Reader) (packetSource, error) {
	buffered := bufio.NewReader(r)
	head, err := buffered.Peek(4)
	if err != nil {
		return nil, ErrUnknownFormat
	}

	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, err
		}
		return openSource(gz)
	}

	switch magic := binary.BigEndian.Uint32(head); {
	case magic == magicPcapNg:
		return pcapgo.NewNgReader(buffered, pcapgo.DefaultNgReaderOptions)
	case magic == magicPcapMicros || magic == magicPcapNanos,
		binary.LittleEndian.Uint32(head) == magicPcapMicros,
		binary.LittleEndian.Uint32(head) == magicPcapNanos:
		return pcapgo.NewReader(buffered)
	}
	return nil, ErrUnknownFormat
}

func decodeFrame(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType, previewBytes int) packet.Record {
	rec := packet.Record{
		Timestamp: float64(ci.Timestamp.Unix()) + float64(ci.Timestamp.Nanosecond())/float64(time.Second),
		Length:    ci.Length,
		Protocol:  packet.Other,
	}
	if rec.Length == 0 {
		rec.Length = len(data)
	}

	pkt := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	if l := pkt.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		rec.SrcIP, rec.DstIP = ip.SrcIP.String(), ip.DstIP.String()
	} else if l := pkt.Layer(layers.LayerTypeIPv6); l != nil {
		ip := l.(*layers.IPv6)
		rec.SrcIP, rec.DstIP = ip.SrcIP.String(), ip.DstIP.String()
	} else if l := pkt.Layer(layers.LayerTypeARP); l != nil {
		arp := l.(*layers.ARP)
		rec.SrcIP, rec.DstIP = protocolAddress(arp.SourceProtAddress), protocolAddress(arp.DstProtAddress)
		rec.Protocol = packet.ARP
		return rec
	}

	var payload []byte
	if l := pkt.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		rec.SrcPort, rec.DstPort = int(tcp.SrcPort), int(tcp.DstPort)
		rec.Flags = tcpFlags(tcp)
		rec.Protocol = packet.TCP
		payload = tcp.Payload
	} else if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		rec.SrcPort, rec.DstPort = int(udp.SrcPort), int(udp.DstPort)
		rec.Protocol = packet.UDP
		payload = udp.Payload
	} else if pkt.Layer(layers.LayerTypeICMPv4) != nil || pkt.Layer(layers.LayerTypeICMPv6) != nil {
		rec.Protocol = packet.ICMP
		return rec
	}

	if l := pkt.Layer(layers.LayerTypeDNS); l != nil {
		dns := l.(*layers.DNS)
		rec.Protocol = packet.DNS
		if len(dns.Questions) > 0 {
			rec.App = &packet.AppMeta{DNSQuery: string(dns.Questions[0].Name)}
		}
		return rec
	}
	if rec.DstPort == 53 || rec.SrcPort == 53 {
		rec.Protocol = packet.DNS
		return rec
	}

	if rec.Protocol == packet.TCP {
		labelTCP(&rec, payload)
	}
	if rec.Protocol != packet.TLS && previewBytes > 0 && len(payload) > 0 {
		if rec.App == nil {
			rec.App = &packet.AppMeta{}
		}
		rec.App.Payload = preview(payload, previewBytes)
	}
	return rec
}

// labelTCP promotes a TCP record to HTTP or TLS by port or by payload
func labelTCP(rec *packet.Record, payload []byte) {
	switch {
	case isTLSRecord(payload) || isPort(rec, 443, 8443):
		rec.Protocol = packet.TLS
	case len(payload) > 0:
		if app, ok := parseHTTP(payload); ok {
			rec.Protocol = packet.HTTP
			rec.App = app
		} else if isPort(rec, 80, 8080) {
			rec.Protocol = packet.HTTP
		}
	case isPort(rec, 80, 8080):
		rec.Protocol = packet.HTTP
	}
}

func isPort(rec *packet.Record, ports ...int) bool {
	for _, port := range ports {
		if rec.SrcPort == port || rec.DstPort == port {
			return true
		}
	}
	return false
}

// isTLSRecord checks for a TLS record header: a known content type followed
// by a 3.x protocol version
func isTLSRecord(payload []byte) bool {
	return len(payload) >= 5 && payload[0] >= 0x14 && payload[0] <= 0x17 &&
		payload[1] == 0x03 && payload[2] <= 0x04
}

func tcpFlags(tcp *layers.TCP) packet.TCPFlags {
	var flags packet.TCPFlags
	if tcp.FIN {
		flags |= packet.FIN
	}
	if tcp.SYN {
		flags |= packet.SYN
	}
	if tcp.RST {
		flags |= packet.RST
	}
	if tcp.PSH {
		flags |= packet.PSH
	}
	if tcp.ACK {
		flags |= packet.ACK
	}
	if tcp.URG {
		flags |= packet.URG
	}
	return flags
}

func protocolAddress(addr []byte) string {
	if len(addr) != 4 && len(addr) != 16 {
		return ""
	}
	return net.IP(addr).String()
}

// preview returns at most n bytes of payload as valid UTF-8 text
func preview(payload []byte, n int) string {
	if len(payload) > n {
		payload = payload[:n]
	}
	s := string(payload)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}
