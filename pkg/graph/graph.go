package graph

import (
	"sort"

	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

type (
	// Locator resolves an address to a country code, or "" when unknown
	Locator interface {
		Country(addr string) string
	}

	// Options controls graph construction. A NodeCap of 0 keeps every host.
	Options struct {
		NodeCap int
		Locator Locator
	}

	// Node is a host in the relationship graph
	Node struct {
		ID              string                    `json:"id"`
		Label           string                    `json:"label"`
		PacketsSent     int64                     `json:"packets_sent"`
		PacketsReceived int64                     `json:"packets_received"`
		Bytes           int64                     `json:"bytes"`
		Protocols       map[packet.Protocol]int64 `json:"protocols"`
		Incoming        int                       `json:"incoming"`
		Outgoing        int                       `json:"outgoing"`
		Country         string                    `json:"country,omitempty"`
	}

	// Link is the directed traffic between two hosts
	Link struct {
		Source  string `json:"source"`
		Target  string `json:"target"`
		Packets int64  `json:"packets"`
		Bytes   int64  `json:"bytes"`
		Weight  int64  `json:"weight"`
		Value   int64  `json:"value"`
	}

	// Graph is the host relationship graph. TotalNodes and TotalLinks count
	// the graph before the node cap was applied.
	Graph struct {
		Nodes      []Node `json:"nodes"`
		Links      []Link `json:"links"`
		TotalNodes int    `json:"total_nodes"`
		TotalLinks int    `json:"total_links"`
		Truncated  bool   `json:"truncated"`
	}
)

// Build derives the host relationship graph from an aggregate snapshot
func Build(snap *aggregate.Snapshot, opts Options) Graph {
	packets, bytes := snap.PairTotals()

	pairs := make([]data.HostPair, 0, len(packets))
	for pair := range packets {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })

	incoming := make(map[string]int)
	outgoing := make(map[string]int)
	for _, pair := range pairs {
		outgoing[pair.Src]++
		incoming[pair.Dst]++
	}

	ranked := make([]*aggregate.Host, 0, len(snap.Hosts))
	for _, addr := range snap.HostAddrs() {
		ranked = append(ranked, snap.Hosts[addr])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPackets() > ranked[j].TotalPackets()
	})

	g := Graph{
		Nodes:      []Node{},
		Links:      []Link{},
		TotalNodes: len(ranked),
		TotalLinks: len(pairs),
	}
	if opts.NodeCap > 0 && len(ranked) > opts.NodeCap {
		ranked = ranked[:opts.NodeCap]
		g.Truncated = true
	}

	kept := make(data.StringSet, len(ranked))
	for _, h := range ranked {
		kept.Insert(h.Addr)
		node := Node{
			ID:              h.Addr,
			Label:           h.Addr,
			PacketsSent:     h.PacketsSent,
			PacketsReceived: h.PacketsReceived,
			Bytes:           h.TotalBytes(),
			Protocols:       h.Protocols,
			Incoming:        incoming[h.Addr],
			Outgoing:        outgoing[h.Addr],
		}
		if opts.Locator != nil {
			node.Country = opts.Locator.Country(h.Addr)
		}
		g.Nodes = append(g.Nodes, node)
	}

	for _, pair := range pairs {
		if !kept.Contains(pair.Src) || !kept.Contains(pair.Dst) {
			continue
		}
		g.Links = append(g.Links, Link{
			Source:  pair.Src,
			Target:  pair.Dst,
			Packets: packets[pair],
			Bytes:   bytes[pair],
			Weight:  packets[pair],
			Value:   bytes[pair],
		})
	}
	return g
}
