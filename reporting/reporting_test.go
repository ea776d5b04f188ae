package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/pkg/threat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanResult(t *testing.T, dst string) *analysis.Result {
	conf, err := config.LoadTestingConfig()
	require.Nil(t, err)

	var records []packet.Record
	for i := 0; i < 20; i++ {
		records = append(records, packet.Record{
			Timestamp: 1700000000 + float64(i)*0.25, SrcIP: "10.0.0.5", DstIP: dst,
			SrcPort: 40000, DstPort: 1000 + i, Protocol: packet.TCP, Flags: packet.SYN, Length: 60,
		})
	}
	res, err := analysis.Analyze(records, conf)
	require.Nil(t, err)
	return res
}

func TestEnvelopeID(t *testing.T) {
	first, err := NewEnvelope(scanResult(t, "10.0.0.9"), "scan.pcap", "v1.0.0")
	require.Nil(t, err)
	again, err := NewEnvelope(scanResult(t, "10.0.0.9"), "copy.pcap", "v1.0.0")
	require.Nil(t, err)
	other, err := NewEnvelope(scanResult(t, "10.0.0.10"), "scan.pcap", "v1.0.0")
	require.Nil(t, err)

	_, err = uuid.Parse(first.ID)
	assert.Nil(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = NewEnvelope(nil, "", "")
	assert.NotNil(t, err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(scanResult(t, "10.0.0.9"), "scan.pcap", "v1.0.0")
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, WriteJSON(&buf, env, true))
	assert.Contains(t, buf.String(), `"analysis_id": "`+env.ID+`"`)
	assert.Contains(t, buf.String(), `"severity": "medium"`)

	decoded, err := ReadEnvelope(&buf)
	require.Nil(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, "scan.pcap", decoded.Source)
	require.Len(t, decoded.Result.Threats, 1)
	assert.Equal(t, threat.PortScan, decoded.Result.Threats[0].Kind)
	assert.Equal(t, threat.Medium, decoded.Result.Threats[0].Severity)
	assert.Equal(t, env.Result.Statistics.TotalPackets, decoded.Result.Statistics.TotalPackets)
}

func TestReadBareResult(t *testing.T) {
	res := scanResult(t, "10.0.0.9")

	var buf bytes.Buffer
	require.Nil(t, WriteJSON(&buf, res, false))

	decoded, err := ReadEnvelope(&buf)
	require.Nil(t, err)
	assert.Equal(t, "", decoded.ID)
	assert.Equal(t, res.RiskScore, decoded.Result.RiskScore)
	assert.Len(t, decoded.Result.Threats, 1)
}

func TestReadEnvelopeRejectsOtherDocuments(t *testing.T) {
	_, err := ReadEnvelope(strings.NewReader(`{"hello": "world"}`))
	assert.NotNil(t, err)

	_, err = ReadEnvelope(strings.NewReader(`not json`))
	assert.NotNil(t, err)
}

func TestTables(t *testing.T) {
	res := scanResult(t, "10.0.0.9")

	threats := ThreatTable(res)
	require.Len(t, threats.Rows, 1)
	assert.Len(t, threats.Rows[0], len(threats.Header))
	assert.Equal(t, "port_scan", threats.Rows[0][0])
	assert.Equal(t, "medium", threats.Rows[0][1])
	assert.Equal(t, "10.0.0.9", threats.Rows[0][3])
	assert.Equal(t, "20", threats.Rows[0][6])
	assert.Equal(t, "1700000000", threats.Rows[0][7])

	hosts := HostTable(res)
	assert.Len(t, hosts.Rows, 2)

	timeline := TimelineTable(res)
	var total int
	for _, row := range timeline.Rows {
		assert.Len(t, row, 4)
		total++
	}
	assert.Equal(t, len(res.Timeline.Buckets), total)
	assert.Equal(t, "Capture spans 4.75s in 5 buckets of 1s", timeline.Summary)

	assert.Empty(t, ThreatTable(res).Summary)
}

func TestWriteReport(t *testing.T) {
	env, err := NewEnvelope(scanResult(t, "10.0.0.9"), "scan.pcap", "v1.0.0")
	require.Nil(t, err)

	base := filepath.Join(t.TempDir(), "report")
	dir, err := WriteReport(env, base)
	require.Nil(t, err)
	assert.Equal(t, base, dir)

	second, err := WriteReport(env, base)
	require.Nil(t, err)
	assert.Equal(t, base+"1", second)

	for _, name := range []string{"result.json", "threats.csv", "hosts.csv", "timeline.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.Nil(t, err, name)
	}

	file, err := os.Open(filepath.Join(dir, "threats.csv"))
	require.Nil(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.Nil(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Type", rows[0][0])
	assert.Equal(t, "port_scan", rows[1][0])

	_, err = WriteReport(nil, base)
	assert.NotNil(t, err)
}
