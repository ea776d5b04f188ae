package aggregate

import (
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

type (
	// FlowKey identifies a unidirectional conversation
	FlowKey struct {
		Src      string
		Dst      string
		SrcPort  int
		DstPort  int
		Protocol packet.Protocol
	}

	// Flow accumulates the packets sharing a FlowKey
	Flow struct {
		Key        FlowKey
		Packets    int64
		Bytes      int64
		First      float64
		Last       float64
		FlagCounts map[packet.TCPFlags]int64
		Timestamps []float64
		Sizes      []int
	}
)

func keyOf(rec *packet.Record) FlowKey {
	return FlowKey{
		Src:      rec.SrcIP,
		Dst:      rec.DstIP,
		SrcPort:  rec.SrcPort,
		DstPort:  rec.DstPort,
		Protocol: rec.Protocol,
	}
}

// Reverse returns the key of the opposite direction
func (k FlowKey) Reverse() FlowKey {
	return FlowKey{Src: k.Dst, Dst: k.Src, SrcPort: k.DstPort, DstPort: k.SrcPort, Protocol: k.Protocol}
}

// Pair returns the directed host pair of the flow
func (k FlowKey) Pair() data.HostPair {
	return data.HostPair{Src: k.Src, Dst: k.Dst}
}

// Less orders keys by pair, ports, then protocol
func (k FlowKey) Less(o FlowKey) bool {
	if k.Src != o.Src {
		return k.Src < o.Src
	}
	if k.Dst != o.Dst {
		return k.Dst < o.Dst
	}
	if k.SrcPort != o.SrcPort {
		return k.SrcPort < o.SrcPort
	}
	if k.DstPort != o.DstPort {
		return k.DstPort < o.DstPort
	}
	return k.Protocol < o.Protocol
}

func newFlow(key FlowKey, ts float64) *Flow {
	return &Flow{
		Key:        key,
		First:      ts,
		Last:       ts,
		FlagCounts: make(map[packet.TCPFlags]int64),
	}
}

func (f *Flow) add(rec *packet.Record) {
	f.Packets++
	f.Bytes += int64(rec.Length)
	if rec.Timestamp < f.First {
		f.First = rec.Timestamp
	}
	if rec.Timestamp > f.Last {
		f.Last = rec.Timestamp
	}
	if rec.HasFlags() {
		f.FlagCounts[rec.Flags]++
	}
	f.Timestamps = append(f.Timestamps, rec.Timestamp)
	f.Sizes = append(f.Sizes, rec.Length)
}

// Duration is the time between the first and last packet of the flow
func (f *Flow) Duration() float64 {
	return f.Last - f.First
}

// CountFlags sums the packets whose flags satisfy match
func (f *Flow) CountFlags(match func(packet.TCPFlags) bool) int64 {
	var total int64
	for flags, count := range f.FlagCounts {
		if match(flags) {
			total += count
		}
	}
	return total
}
