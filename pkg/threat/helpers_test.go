package threat

import (
	"testing"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	conf, err := config.LoadTestingConfig()
	require.Nil(t, err)
	return conf
}

func tcp(ts float64, src, dst string, sport, dport int, flags packet.TCPFlags, length int) packet.Record {
	return packet.Record{
		Timestamp: ts, SrcIP: src, DstIP: dst, SrcPort: sport, DstPort: dport,
		Protocol: packet.TCP, Flags: flags, Length: length,
	}
}

func detect(t *testing.T, d Detector, conf *config.Config, records []packet.Record) []Finding {
	findings := d.Detect(aggregate.Build(records), conf)
	require.NotNil(t, findings)
	return findings
}
