package aggregate

import (
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

// Host profiles the traffic of a single address
type Host struct {
	Addr            string
	PacketsSent     int64
	PacketsReceived int64
	BytesSent       int64
	BytesReceived   int64
	PortsContacted  data.IntSet
	Peers           data.StringSet
	Protocols       map[packet.Protocol]int64
	First           float64
	Last            float64
}

func newHost(addr string, ts float64) *Host {
	return &Host{
		Addr:           addr,
		PortsContacted: make(data.IntSet),
		Peers:          make(data.StringSet),
		Protocols:      make(map[packet.Protocol]int64),
		First:          ts,
		Last:           ts,
	}
}

func (h *Host) touch(rec *packet.Record, peer string) {
	h.Peers.Insert(peer)
	h.Protocols[rec.Protocol]++
	if rec.Timestamp < h.First {
		h.First = rec.Timestamp
	}
	if rec.Timestamp > h.Last {
		h.Last = rec.Timestamp
	}
}

// TotalPackets counts packets in either direction
func (h *Host) TotalPackets() int64 {
	return h.PacketsSent + h.PacketsReceived
}

// TotalBytes counts bytes in either direction
func (h *Host) TotalBytes() int64 {
	return h.BytesSent + h.BytesReceived
}
