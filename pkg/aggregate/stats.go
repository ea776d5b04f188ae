package aggregate

import (
	"sort"

	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

const (
	topListSize   = 10
	portUsageSize = 15
)

type (
	// Stats summarises the whole capture
	Stats struct {
		TotalPackets      int64                             `json:"total_packets"`
		InputPackets      int64                             `json:"input_packets"`
		SkippedPackets    int64                             `json:"skipped_packets"`
		TotalBytes        int64                             `json:"total_bytes"`
		UniqueIPsTotal    int                               `json:"unique_ips_total"`
		UniqueIPsSrc      int                               `json:"unique_ips_src"`
		UniqueIPsDst      int                               `json:"unique_ips_dst"`
		UniquePorts       int                               `json:"unique_ports"`
		AveragePacketSize float64                           `json:"average_packet_size"`
		DNSQueries        int64                             `json:"dns_queries"`
		FlowsCount        int                               `json:"flows_count"`
		StartTime         float64                           `json:"start_time"`
		EndTime           float64                           `json:"end_time"`
		Duration          float64                           `json:"duration"`
		ProtocolBreakdown map[packet.Protocol]ProtocolShare `json:"protocol_breakdown"`
		TopSources        []Ranked                          `json:"top_ips_src"`
		TopDestinations   []Ranked                          `json:"top_ips_dst"`
		TopPorts          []PortCount                       `json:"top_ports"`
		PortUsage         []PortCount                       `json:"port_usage"`
	}

	// ProtocolShare is a protocol's packet count and its percentage of
	// all valid packets, rounded to two decimals
	ProtocolShare struct {
		Count      int64   `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	// Ranked is an address with a packet count
	Ranked struct {
		Addr  string `json:"ip"`
		Count int64  `json:"count"`
	}

	// PortCount is a destination port with a packet count
	PortCount struct {
		Port    int    `json:"port"`
		Service string `json:"service"`
		Count   int64  `json:"count"`
	}
)

type statsAccumulator struct {
	input, skipped, valid int64
	bytes                 int64
	dnsQueries            int64
	start, end            float64
	protocols             map[packet.Protocol]int64
	srcCounts, dstCounts  map[string]int64
	dstPorts              map[int]int64
	ports                 data.IntSet
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{
		protocols: make(map[packet.Protocol]int64),
		srcCounts: make(map[string]int64),
		dstCounts: make(map[string]int64),
		dstPorts:  make(map[int]int64),
		ports:     make(data.IntSet),
	}
}

func (a *statsAccumulator) add(rec *packet.Record) {
	if a.valid == 0 || rec.Timestamp < a.start {
		a.start = rec.Timestamp
	}
	if a.valid == 0 || rec.Timestamp > a.end {
		a.end = rec.Timestamp
	}
	a.valid++
	a.bytes += int64(rec.Length)
	a.protocols[rec.Protocol]++
	a.srcCounts[rec.SrcIP]++
	a.dstCounts[rec.DstIP]++
	if rec.DstPort != 0 {
		a.dstPorts[rec.DstPort]++
		a.ports.Insert(rec.DstPort)
	}
	if rec.SrcPort != 0 {
		a.ports.Insert(rec.SrcPort)
	}
	if rec.DNSQuery() != "" {
		a.dnsQueries++
	}
}

func (a *statsAccumulator) finish(flows int) Stats {
	stats := Stats{
		TotalPackets:      a.valid,
		InputPackets:      a.input,
		SkippedPackets:    a.skipped,
		TotalBytes:        a.bytes,
		UniqueIPsSrc:      len(a.srcCounts),
		UniqueIPsDst:      len(a.dstCounts),
		UniquePorts:       len(a.ports),
		DNSQueries:        a.dnsQueries,
		FlowsCount:        flows,
		StartTime:         a.start,
		EndTime:           a.end,
		Duration:          a.end - a.start,
		ProtocolBreakdown: make(map[packet.Protocol]ProtocolShare, len(a.protocols)),
		TopSources:        rankAddrs(a.srcCounts, topListSize),
		TopDestinations:   rankAddrs(a.dstCounts, topListSize),
		TopPorts:          rankPorts(a.dstPorts, topListSize),
		PortUsage:         rankPorts(a.dstPorts, portUsageSize),
	}

	all := make(data.StringSet, len(a.srcCounts)+len(a.dstCounts))
	for addr := range a.srcCounts {
		all.Insert(addr)
	}
	for addr := range a.dstCounts {
		all.Insert(addr)
	}
	stats.UniqueIPsTotal = len(all)

	if a.valid > 0 {
		stats.AveragePacketSize = util.RoundTo(float64(a.bytes)/float64(a.valid), 2)
		for proto, count := range a.protocols {
			stats.ProtocolBreakdown[proto] = ProtocolShare{
				Count:      count,
				Percentage: util.RoundTo(float64(count)*100/float64(a.valid), 2),
			}
		}
	}
	return stats
}

func rankAddrs(counts map[string]int64, limit int) []Ranked {
	ranked := make([]Ranked, 0, len(counts))
	for addr, count := range counts {
		ranked = append(ranked, Ranked{Addr: addr, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Addr < ranked[j].Addr
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankPorts(counts map[int]int64, limit int) []PortCount {
	ranked := make([]PortCount, 0, len(counts))
	for port, count := range counts {
		ranked = append(ranked, PortCount{Port: port, Service: packet.PortName(port), Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Port < ranked[j].Port
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
