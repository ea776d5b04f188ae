package analysis

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/pkg/threat"
	"github.com/rayen-mansouri/packet-analyzer/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	conf, err := config.LoadTestingConfig()
	require.Nil(t, err)
	return conf
}

func syn(ts float64, src, dst string, sport, dport int) packet.Record {
	return packet.Record{
		Timestamp: ts, SrcIP: src, DstIP: dst, SrcPort: sport, DstPort: dport,
		Protocol: packet.TCP, Flags: packet.SYN, Length: 60,
	}
}

func portScan(src, dst string) []packet.Record {
	var records []packet.Record
	for i := 0; i < 20; i++ {
		records = append(records, syn(float64(i)*0.25, src, dst, 40000, 1000+i))
	}
	return records
}

func TestPortScanScenario(t *testing.T) {
	res, err := Analyze(portScan("10.0.0.5", "10.0.0.9"), testConfig(t))
	require.Nil(t, err)

	require.Len(t, res.Threats, 1)
	assert.Equal(t, threat.PortScan, res.Threats[0].Kind)
	assert.Equal(t, threat.Medium, res.Threats[0].Severity)
	assert.Equal(t, "10.0.0.5", res.Threats[0].Source)
	assert.Equal(t, 8, res.RiskScore)
	assert.Equal(t, "low", res.ThreatSummary.RiskLevel)
	assert.Len(t, res.ThreatSummary.TopConcerns, 1)
}

func TestSynFloodScenario(t *testing.T) {
	var records []packet.Record
	for i := 0; i < 30; i++ {
		records = append(records, syn(float64(i)*2/30, "10.0.0.1", "10.0.0.2", 30000+i, 80))
	}
	res, err := Analyze(records, testConfig(t))
	require.Nil(t, err)

	require.Len(t, res.Threats, 1)
	assert.Equal(t, threat.SynFlood, res.Threats[0].Kind)
	assert.Equal(t, threat.High, res.Threats[0].Severity)
	assert.True(t, res.RiskScore >= 15)
}

func TestPlaintextHTTPScenario(t *testing.T) {
	records := []packet.Record{{
		Timestamp: 1.5, SrcIP: "10.0.0.3", DstIP: "93.184.216.34", SrcPort: 51000, DstPort: 80,
		Protocol: packet.HTTP, Length: 420, Flags: packet.PSH | packet.ACK,
		App: &packet.AppMeta{HTTPHost: "example.com", HTTPMethod: "GET", HTTPURI: "/"},
	}}
	res, err := Analyze(records, testConfig(t))
	require.Nil(t, err)

	assert.Equal(t, 100.0, res.Statistics.ProtocolBreakdown[packet.HTTP].Percentage)
	require.Len(t, res.Threats, 1)
	assert.Equal(t, threat.CredentialExposure, res.Threats[0].Kind)
	assert.Equal(t, threat.Low, res.Threats[0].Severity)
	assert.Equal(t, "example.com", res.Threats[0].Domain)
	assert.Len(t, res.NetworkGraph.Nodes, 2)
	require.Len(t, res.NetworkGraph.Links, 1)
	assert.Equal(t, "10.0.0.3", res.NetworkGraph.Links[0].Source)
	assert.Equal(t, "93.184.216.34", res.NetworkGraph.Links[0].Target)
	assert.Equal(t, 3, res.RiskScore)
}

func TestDiminishingReturnsScenario(t *testing.T) {
	var records []packet.Record
	for i := 1; i <= 5; i++ {
		records = append(records, portScan(fmt.Sprintf("10.0.0.%d", i), fmt.Sprintf("10.0.1.%d", i))...)
	}
	res, err := Analyze(records, testConfig(t))
	require.Nil(t, err)

	require.Len(t, res.Threats, 5)
	require.Len(t, res.ThreatSummary.Contributions, 1)
	assert.InDelta(t, 8+8.0/2+8.0/3+8.0/4+8.0/5, res.ThreatSummary.Contributions[0].Score, 0.01)
	assert.Equal(t, 18, res.RiskScore)
}

func TestEmptyInput(t *testing.T) {
	res, err := Analyze(nil, testConfig(t))
	require.Nil(t, err)

	assert.Equal(t, int64(0), res.Statistics.TotalPackets)
	assert.Equal(t, 0, res.RiskScore)
	assert.NotNil(t, res.Threats)
	assert.Empty(t, res.Threats)
	assert.Empty(t, res.Timeline.Buckets)
	assert.Empty(t, res.NetworkGraph.Nodes)
	assert.Empty(t, res.NetworkGraph.Links)
	assert.NotNil(t, res.Diagnostics)

	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(res)
	require.Nil(t, err)
	assert.Contains(t, string(out), `"threats":[]`)
	assert.Contains(t, string(out), `"diagnostics":[]`)
	assert.Contains(t, string(out), `"timeline":{"timeline":[]`)
}

func mixedCapture() []packet.Record {
	records := portScan("10.0.0.5", "10.0.0.9")
	for i := 0; i < 10; i++ {
		records = append(records, packet.Record{
			Timestamp: 100 + float64(i)*60, SrcIP: "10.0.0.8", DstIP: "198.51.100.20",
			SrcPort: 50000 + i, DstPort: 443, Protocol: packet.TLS, Length: 180,
		})
		records = append(records, packet.Record{
			Timestamp: 101 + float64(i)*7, SrcIP: "10.0.0.3", DstIP: "10.0.0.53",
			SrcPort: 5353, DstPort: 53, Protocol: packet.DNS, Length: 80,
			App: &packet.AppMeta{DNSQuery: fmt.Sprintf("host%d.example.com", i)},
		})
	}
	// malformed records
	records = append(records,
		packet.Record{Timestamp: -1, SrcIP: "10.0.0.1", DstIP: "10.0.0.2", Protocol: packet.TCP},
		packet.Record{Timestamp: 3, DstIP: "10.0.0.2", Protocol: packet.UDP},
	)
	return records
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	conf := testConfig(t)
	records := mixedCapture()

	first, err := Analyze(records, conf)
	require.Nil(t, err)
	second, err := Analyze(records, conf)
	require.Nil(t, err)

	a, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(first)
	require.Nil(t, err)
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(second)
	require.Nil(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestTimelineConservesPackets(t *testing.T) {
	res, err := Analyze(mixedCapture(), testConfig(t))
	require.Nil(t, err)

	assert.Equal(t, int64(2), res.Statistics.SkippedPackets)
	assert.Equal(t, res.Statistics.InputPackets-res.Statistics.SkippedPackets, res.Statistics.TotalPackets)
	assert.Equal(t, res.Statistics.TotalPackets, res.Timeline.Packets())

	var sent, received int64
	for _, node := range res.NetworkGraph.Nodes {
		sent += node.PacketsSent
		received += node.PacketsReceived
	}
	assert.Equal(t, res.Statistics.TotalPackets, sent)
	assert.Equal(t, res.Statistics.TotalPackets, received)
}

func TestInvalidConfig(t *testing.T) {
	conf := testConfig(t)
	conf.S.PortScan.Threshold = -1
	conf.S.Graph.NodeCap = -5

	res, err := Analyze(portScan("10.0.0.5", "10.0.0.9"), conf)
	assert.Nil(t, res)
	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 2)
}

func TestAnalyzeDoesNotMutateConfig(t *testing.T) {
	conf := testConfig(t)
	conf.S.BruteForce.SensitivePorts = []int{2222}
	before := len(conf.R.SensitivePorts)

	_, err := Analyze(nil, conf)
	require.Nil(t, err)
	assert.Equal(t, before, len(conf.R.SensitivePorts))
}

type brokenDetector struct{}

func (brokenDetector) Name() string                     { return "Broken" }
func (brokenDetector) Enabled(conf *config.Config) bool { return true }
func (brokenDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []threat.Finding {
	panic("detector exploded")
}

func TestDetectorFailureIsADiagnostic(t *testing.T) {
	res := resources.InitTestResources(t)
	analyzer := NewAnalyzer(res.Log)
	analyzer.SetDetectors(append([]threat.Detector{brokenDetector{}}, threat.Detectors()...))

	result, err := analyzer.Analyze(portScan("10.0.0.5", "10.0.0.9"), res.Config)
	require.Nil(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "Broken", result.Diagnostics[0].Detector)
	assert.Equal(t, "detector exploded", result.Diagnostics[0].Message)
	assert.Len(t, result.Threats, 1)
	assert.Equal(t, 8, result.RiskScore)
}

type fakeLocator map[string]string

func (f fakeLocator) Country(addr string) string { return f[addr] }

func TestAnalyzerHooks(t *testing.T) {
	conf := testConfig(t)
	conf.S.DNSTunneling.Enabled = false

	analyzer := NewAnalyzer(nil)
	analyzer.SetLocator(fakeLocator{"10.0.0.9": "ZZ"})

	var mu sync.Mutex
	var finished []string
	analyzer.SetProgress(func(name string) {
		mu.Lock()
		defer mu.Unlock()
		finished = append(finished, name)
	})

	enabled := analyzer.EnabledDetectors(conf)
	assert.Len(t, enabled, len(threat.Detectors())-1)
	assert.NotContains(t, enabled, "DNSTunneling")

	res, err := analyzer.Analyze(portScan("10.0.0.5", "10.0.0.9"), conf)
	require.Nil(t, err)
	assert.ElementsMatch(t, enabled, finished)

	countries := make(map[string]string)
	for _, node := range res.NetworkGraph.Nodes {
		countries[node.ID] = node.Country
	}
	assert.Equal(t, map[string]string{"10.0.0.5": "", "10.0.0.9": "ZZ"}, countries)
}
