package packet

import (
	"errors"
	"fmt"
	"math"

	"github.com/rayen-mansouri/packet-analyzer/util"
)

type (
	// Record is one decoded packet. Zero ports mean the packet carried
	// no transport ports and zero flags mean no TCP flags were observed.
	Record struct {
		Timestamp float64  `json:"timestamp"`
		SrcIP     string   `json:"src_ip"`
		DstIP     string   `json:"dst_ip"`
		SrcPort   int      `json:"src_port,omitempty"`
		DstPort   int      `json:"dst_port,omitempty"`
		Protocol  Protocol `json:"protocol"`
		Length    int      `json:"length"`
		Flags     TCPFlags `json:"flags,omitempty"`
		App       *AppMeta `json:"app,omitempty"`
	}

	// AppMeta holds the application layer fields the decoder could extract
	AppMeta struct {
		DNSQuery          string `json:"dns_query,omitempty"`
		HTTPHost          string `json:"http_host,omitempty"`
		HTTPURI           string `json:"http_uri,omitempty"`
		HTTPMethod        string `json:"http_method,omitempty"`
		HTTPAuthorization string `json:"http_authorization,omitempty"`
		Payload           string `json:"payload,omitempty"`
	}
)

// EphemeralPortStart is the first port not reserved for well known services
const EphemeralPortStart = 1024

// Validation errors returned by Record.Validate
var (
	ErrBadTimestamp = errors.New("timestamp is not a finite, non-negative number")
	ErrNoSource     = errors.New("missing source address")
	ErrNoDest       = errors.New("missing destination address")
	ErrBadAddress   = errors.New("address is not an IP address")
	ErrBadLength    = errors.New("negative length")
	ErrNoProtocol   = errors.New("missing protocol label")
)

// Validate returns the first reason the record can not be aggregated
func (r *Record) Validate() error {
	if math.IsNaN(r.Timestamp) || math.IsInf(r.Timestamp, 0) || r.Timestamp < 0 {
		return ErrBadTimestamp
	}
	if r.SrcIP == "" {
		return ErrNoSource
	}
	if r.DstIP == "" {
		return ErrNoDest
	}
	if !util.IsIP(r.SrcIP) || !util.IsIP(r.DstIP) {
		return ErrBadAddress
	}
	if r.Length < 0 {
		return ErrBadLength
	}
	if r.Protocol == "" {
		return ErrNoProtocol
	}
	if r.SrcPort < 0 || r.SrcPort > 65535 || r.DstPort < 0 || r.DstPort > 65535 {
		return fmt.Errorf("port out of range: %d -> %d", r.SrcPort, r.DstPort)
	}
	return nil
}

// DNSQuery returns the DNS question name or ""
func (r *Record) DNSQuery() string {
	if r.App == nil {
		return ""
	}
	return r.App.DNSQuery
}

// HasFlags is true when the decoder observed TCP flags on the packet
func (r *Record) HasFlags() bool {
	return r.Flags != 0
}

// IsInitiator reports whether the packet, taken on its own, counts as the
// sender opening a connection to DstPort. TCP is judged by its flags. Other
// transports are judged by their ports: a datagram leaving a well known
// service port for an ephemeral one is a reply.
func (r *Record) IsInitiator() bool {
	if r.DstPort == 0 {
		return false
	}
	if r.Protocol.OverTCP() && r.HasFlags() {
		return r.Flags.IsSYNOnly()
	}
	if r.SrcPort > 0 && r.SrcPort < EphemeralPortStart && r.DstPort >= EphemeralPortStart {
		return false
	}
	return true
}
