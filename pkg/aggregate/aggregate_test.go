package aggregate

import (
	"math"
	"testing"

	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcp(ts float64, src, dst string, sport, dport int, flags packet.TCPFlags, length int) packet.Record {
	return packet.Record{
		Timestamp: ts, SrcIP: src, DstIP: dst, SrcPort: sport, DstPort: dport,
		Protocol: packet.TCP, Flags: flags, Length: length,
	}
}

func TestBuildEmpty(t *testing.T) {
	snap := Build(nil)
	assert.True(t, snap.Empty())
	assert.Empty(t, snap.Flows)
	assert.Empty(t, snap.Hosts)
	assert.Equal(t, int64(0), snap.Stats.TotalPackets)
	assert.Equal(t, 0.0, snap.Stats.AveragePacketSize)
	assert.Empty(t, snap.Stats.ProtocolBreakdown)
	assert.Empty(t, snap.Stats.TopSources)
}

func TestBuildSkipsInvalidRecords(t *testing.T) {
	records := []packet.Record{
		tcp(1, "10.0.0.1", "10.0.0.2", 1000, 80, packet.SYN, 60),
		{Timestamp: math.NaN(), SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Protocol: packet.TCP},
		{Timestamp: 2, SrcIP: "", DstIP: "10.0.0.2", Protocol: packet.TCP},
		{Timestamp: 3, SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Protocol: packet.TCP, Length: -1},
		{Timestamp: 4, SrcIP: "10.0.0.1", DstIP: "10.0.0.2"},
		{Timestamp: 5, SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Protocol: "SCTP", Length: 10},
		{Timestamp: 6, SrcIP: "gateway", DstIP: "10.0.0.2", Protocol: packet.UDP, Length: 10},
	}

	snap := Build(records)
	assert.Equal(t, int64(7), snap.Stats.InputPackets)
	assert.Equal(t, int64(5), snap.Stats.SkippedPackets)
	assert.Equal(t, int64(2), snap.Stats.TotalPackets)
	assert.Equal(t, int64(1), snap.Stats.ProtocolBreakdown[packet.Other].Count)
	assert.Len(t, snap.Records, 2)
}

func TestFlowsAndHosts(t *testing.T) {
	records := []packet.Record{
		tcp(1.0, "10.0.0.1", "10.0.0.2", 40000, 22, packet.SYN, 60),
		tcp(1.1, "10.0.0.2", "10.0.0.1", 22, 40000, packet.SYN|packet.ACK, 60),
		tcp(1.2, "10.0.0.1", "10.0.0.2", 40000, 22, packet.ACK, 52),
		tcp(1.5, "10.0.0.1", "10.0.0.2", 40000, 22, packet.PSH|packet.ACK, 200),
		{Timestamp: 2.0, SrcIP: "10.0.0.1", DstIP: "8.8.8.8", SrcPort: 5353, DstPort: 53,
			Protocol: packet.DNS, Length: 80, App: &packet.AppMeta{DNSQuery: "example.com"}},
	}

	snap := Build(records)
	require.Len(t, snap.Flows, 3)

	fwd := snap.Flows[FlowKey{"10.0.0.1", "10.0.0.2", 40000, 22, packet.TCP}]
	require.NotNil(t, fwd)
	assert.Equal(t, int64(3), fwd.Packets)
	assert.Equal(t, int64(312), fwd.Bytes)
	assert.Equal(t, 1.0, fwd.First)
	assert.Equal(t, 1.5, fwd.Last)
	assert.Equal(t, int64(1), fwd.FlagCounts[packet.SYN])
	assert.Equal(t, int64(2), fwd.CountFlags(func(f packet.TCPFlags) bool { return f.Has(packet.ACK) }))
	assert.Equal(t, []float64{1.0, 1.2, 1.5}, fwd.Timestamps)

	client := snap.Hosts["10.0.0.1"]
	assert.Equal(t, int64(4), client.PacketsSent)
	assert.Equal(t, int64(1), client.PacketsReceived)
	assert.Equal(t, []int{22, 53}, client.PortsContacted.Items(), "only the SYN and the datagram open connections")
	assert.Equal(t, []string{"10.0.0.2", "8.8.8.8"}, client.Peers.Items())

	server := snap.Hosts["10.0.0.2"]
	assert.Empty(t, server.PortsContacted, "SYN+ACK replies are not initiations")

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "8.8.8.8"}, snap.HostAddrs())
	keys := snap.FlowKeys()
	for i := 1; i < len(keys); i++ {
		assert.True(t, keys[i-1].Less(keys[i]))
	}

	stats := snap.Stats
	assert.Equal(t, int64(5), stats.TotalPackets)
	assert.Equal(t, int64(452), stats.TotalBytes)
	assert.Equal(t, 90.4, stats.AveragePacketSize)
	assert.Equal(t, 3, stats.UniqueIPsTotal)
	assert.Equal(t, 2, stats.UniqueIPsSrc)
	assert.Equal(t, 3, stats.UniqueIPsDst)
	assert.Equal(t, 4, stats.UniquePorts)
	assert.Equal(t, int64(1), stats.DNSQueries)
	assert.Equal(t, 3, stats.FlowsCount)
	assert.Equal(t, 1.0, stats.Duration)
	assert.Equal(t, ProtocolShare{Count: 4, Percentage: 80}, stats.ProtocolBreakdown[packet.TCP])
	assert.Equal(t, ProtocolShare{Count: 1, Percentage: 20}, stats.ProtocolBreakdown[packet.DNS])
	assert.Equal(t, Ranked{Addr: "10.0.0.1", Count: 4}, stats.TopSources[0])
	assert.Equal(t, PortCount{Port: 22, Service: "SSH", Count: 3}, stats.TopPorts[0])

	packets, bytes := snap.PairTotals()
	assert.Equal(t, int64(3), packets[FlowKey{Src: "10.0.0.1", Dst: "10.0.0.2"}.Pair()])
	assert.Equal(t, int64(80), bytes[FlowKey{Src: "10.0.0.1", Dst: "8.8.8.8"}.Pair()])
}

func TestHostConservation(t *testing.T) {
	var records []packet.Record
	addrs := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	for i := 0; i < 200; i++ {
		src := addrs[i%len(addrs)]
		dst := addrs[(i*7+1)%len(addrs)]
		records = append(records, tcp(float64(i)/10, src, dst, 1024+i, 80+i%5, packet.ACK, 40+i))
	}

	snap := Build(records)
	var sent, received, bytesSent, bytesReceived int64
	for _, h := range snap.Hosts {
		sent += h.PacketsSent
		received += h.PacketsReceived
		bytesSent += h.BytesSent
		bytesReceived += h.BytesReceived
	}
	assert.Equal(t, 2*snap.Stats.TotalPackets, sent+received)
	assert.Equal(t, snap.Stats.TotalBytes, bytesSent)
	assert.Equal(t, snap.Stats.TotalBytes, bytesReceived)

	var flowPackets int64
	for _, f := range snap.Flows {
		flowPackets += f.Packets
	}
	assert.Equal(t, snap.Stats.TotalPackets, flowPackets)
}

func TestProtocolPercentagesSum(t *testing.T) {
	var records []packet.Record
	protos := []packet.Protocol{packet.TCP, packet.UDP, packet.ICMP}
	for i := 0; i < 7; i++ {
		records = append(records, packet.Record{
			Timestamp: float64(i), SrcIP: "10.0.0.1", DstIP: "10.0.0.2",
			Protocol: protos[i%3], Length: 10,
		})
	}
	snap := Build(records)
	var sum float64
	for _, share := range snap.Stats.ProtocolBreakdown {
		sum += share.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.02)
	assert.Equal(t, 42.86, snap.Stats.ProtocolBreakdown[packet.TCP].Percentage)
}

func TestUDPRepliesDoNotOpenConnections(t *testing.T) {
	records := []packet.Record{
		{Timestamp: 1, SrcIP: "10.0.0.1", DstIP: "10.0.0.3", SrcPort: 40000, DstPort: 5000, Protocol: packet.UDP, Length: 60},
		{Timestamp: 2, SrcIP: "10.0.0.3", DstIP: "10.0.0.1", SrcPort: 5000, DstPort: 40000, Protocol: packet.UDP, Length: 60},
		{Timestamp: 3, SrcIP: "10.0.0.1", DstIP: "10.0.0.3", SrcPort: 40000, DstPort: 5000, Protocol: packet.UDP, Length: 60},
		{Timestamp: 4, SrcIP: "8.8.8.8", DstIP: "10.0.0.1", SrcPort: 53, DstPort: 40001, Protocol: packet.DNS, Length: 90},
	}

	snap := Build(records)
	assert.True(t, snap.Opens(0))
	assert.False(t, snap.Opens(1), "answer to an earlier datagram")
	assert.True(t, snap.Opens(2))
	assert.False(t, snap.Opens(3), "service port to ephemeral port")

	assert.Equal(t, []int{5000}, snap.Hosts["10.0.0.1"].PortsContacted.Items())
	assert.Empty(t, snap.Hosts["10.0.0.3"].PortsContacted)
	assert.Empty(t, snap.Hosts["8.8.8.8"].PortsContacted)
}
