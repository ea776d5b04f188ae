package packet

import (
	"strings"
)

// Protocol is the highest protocol label assigned to a packet
type Protocol string

// Protocol labels
const (
	TCP   Protocol = "TCP"
	UDP   Protocol = "UDP"
	ICMP  Protocol = "ICMP"
	ARP   Protocol = "ARP"
	DNS   Protocol = "DNS"
	HTTP  Protocol = "HTTP"
	TLS   Protocol = "TLS"
	Other Protocol = "Other"
)

var knownProtocols = []Protocol{TCP, UDP, ICMP, ARP, DNS, HTTP, TLS, Other}

// ParseProtocol maps a textual label onto the fixed protocol set.
// Labels are matched case insensitively. Empty labels return "",
// unknown labels collapse to Other.
func ParseProtocol(label string) Protocol {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	for _, p := range knownProtocols {
		if strings.EqualFold(label, string(p)) {
			return p
		}
	}
	switch strings.ToUpper(label) {
	case "HTTPS", "SSL", "TLSV1", "TLSV1.2", "TLSV1.3":
		return TLS
	case "ICMPV6":
		return ICMP
	}
	return Other
}

// OverTCP reports whether the label rides on TCP
func (p Protocol) OverTCP() bool {
	return p == TCP || p == HTTP || p == TLS
}

// TCPFlags is the set of TCP control bits observed on a packet
type TCPFlags uint8

// TCP control bits
const (
	FIN TCPFlags = 1 << iota
	SYN
	RST
	PSH
	ACK
	URG
)

var flagNames = []struct {
	flag TCPFlags
	name string
}{
	{SYN, "SYN"},
	{ACK, "ACK"},
	{FIN, "FIN"},
	{RST, "RST"},
	{PSH, "PSH"},
	{URG, "URG"},
}

// Has reports whether every bit in other is set
func (f TCPFlags) Has(other TCPFlags) bool {
	return other != 0 && f&other == other
}

// IsSYNOnly is true for a connection opening SYN that carries no ACK
func (f TCPFlags) IsSYNOnly() bool {
	return f.Has(SYN) && !f.Has(ACK)
}

// IsSYNACK is true for the second leg of a handshake
func (f TCPFlags) IsSYNACK() bool {
	return f.Has(SYN | ACK)
}

// IsPureACK is true for an ACK with no SYN, FIN or RST
func (f TCPFlags) IsPureACK() bool {
	return f.Has(ACK) && f&(SYN|FIN|RST) == 0
}

// String renders the flags as a comma separated list, e.g. "SYN,ACK"
func (f TCPFlags) String() string {
	if f == 0 {
		return ""
	}
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseFlags reads a flag list such as "SYN,ACK" or "S A". Unknown
// tokens are ignored.
func ParseFlags(s string) TCPFlags {
	var flags TCPFlags
	fields := strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '+'
	})
	for _, tok := range fields {
		switch tok {
		case "SYN", "S":
			flags |= SYN
		case "ACK", "A", ".":
			flags |= ACK
		case "FIN", "F":
			flags |= FIN
		case "RST", "R":
			flags |= RST
		case "PSH", "P":
			flags |= PSH
		case "URG", "U":
			flags |= URG
		}
	}
	return flags
}

// MarshalText implements encoding.TextMarshaler
func (f TCPFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *TCPFlags) UnmarshalText(text []byte) error {
	*f = ParseFlags(string(text))
	return nil
}

// UnmarshalText normalises incoming labels with ParseProtocol
func (p *Protocol) UnmarshalText(text []byte) error {
	*p = ParseProtocol(string(text))
	return nil
}
