package aggregate

import (
	"sort"

	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

// Snapshot is the read-only result of a single aggregation pass. It is
// shared by every downstream builder and detector and must not be mutated
// once Build returns.
type Snapshot struct {
	Records []packet.Record
	Flows   map[FlowKey]*Flow
	Hosts   map[string]*Host
	Stats   Stats

	opens     []bool
	flowKeys  []FlowKey
	hostAddrs []string
}

// Build aggregates records into flows, host profiles and global statistics.
// Invalid records are counted as skipped. Unknown protocol labels are
// normalised to Other.
func Build(records []packet.Record) *Snapshot {
	snap := &Snapshot{
		Records: make([]packet.Record, 0, len(records)),
		opens:   make([]bool, 0, len(records)),
		Flows:   make(map[FlowKey]*Flow),
		Hosts:   make(map[string]*Host),
	}
	acc := newStatsAccumulator()

	for _, rec := range records {
		acc.input++
		rec.Protocol = packet.ParseProtocol(string(rec.Protocol))
		if rec.Validate() != nil {
			acc.skipped++
			continue
		}
		snap.Records = append(snap.Records, rec)
		r := &snap.Records[len(snap.Records)-1]

		key := keyOf(r)
		opens := snap.opensConnection(r, key)
		snap.opens = append(snap.opens, opens)

		flow, ok := snap.Flows[key]
		if !ok {
			flow = newFlow(key, r.Timestamp)
			snap.Flows[key] = flow
		}
		flow.add(r)

		src := snap.host(r.SrcIP, r.Timestamp)
		src.PacketsSent++
		src.BytesSent += int64(r.Length)
		src.touch(r, r.DstIP)
		if opens {
			src.PortsContacted.Insert(r.DstPort)
		}

		dst := snap.host(r.DstIP, r.Timestamp)
		dst.PacketsReceived++
		dst.BytesReceived += int64(r.Length)
		dst.touch(r, r.SrcIP)

		acc.add(r)
	}

	snap.flowKeys = make([]FlowKey, 0, len(snap.Flows))
	for key := range snap.Flows {
		snap.flowKeys = append(snap.flowKeys, key)
	}
	sort.Slice(snap.flowKeys, func(i, j int) bool {
		return snap.flowKeys[i].Less(snap.flowKeys[j])
	})

	snap.hostAddrs = make([]string, 0, len(snap.Hosts))
	for addr := range snap.Hosts {
		snap.hostAddrs = append(snap.hostAddrs, addr)
	}
	sort.Strings(snap.hostAddrs)

	snap.Stats = acc.finish(len(snap.Flows))
	return snap
}

// opensConnection decides whether r opens a connection. Without TCP flags a
// packet answering traffic already seen in the opposite direction is a reply.
func (s *Snapshot) opensConnection(r *packet.Record, key FlowKey) bool {
	if !r.IsInitiator() {
		return false
	}
	if r.Protocol.OverTCP() && r.HasFlags() {
		return true
	}
	_, answered := s.Flows[key.Reverse()]
	return !answered
}

// Opens reports whether Records[i] opened a connection
func (s *Snapshot) Opens(i int) bool {
	return s.opens[i]
}

func (s *Snapshot) host(addr string, ts float64) *Host {
	h, ok := s.Hosts[addr]
	if !ok {
		h = newHost(addr, ts)
		s.Hosts[addr] = h
	}
	return h
}

// FlowKeys returns every flow key in ascending order
func (s *Snapshot) FlowKeys() []FlowKey {
	return s.flowKeys
}

// HostAddrs returns every host address in ascending order
func (s *Snapshot) HostAddrs() []string {
	return s.hostAddrs
}

// PairTotals sums packets and bytes per directed host pair
func (s *Snapshot) PairTotals() (map[data.HostPair]int64, map[data.HostPair]int64) {
	packets := make(map[data.HostPair]int64)
	bytes := make(map[data.HostPair]int64)
	for _, key := range s.flowKeys {
		flow := s.Flows[key]
		pair := key.Pair()
		packets[pair] += flow.Packets
		bytes[pair] += flow.Bytes
	}
	return packets, bytes
}

// Empty is true when no valid packet was aggregated
func (s *Snapshot) Empty() bool {
	return len(s.Records) == 0
}
