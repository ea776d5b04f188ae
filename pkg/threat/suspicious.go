package threat

import (
	"fmt"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
)

// suspiciousPortDetector flags traffic to ports commonly used by backdoors
type suspiciousPortDetector struct{}

func (suspiciousPortDetector) Name() string { return "SuspiciousPort" }

func (suspiciousPortDetector) Enabled(conf *config.Config) bool { return conf.S.SuspiciousPort.Enabled }

func (suspiciousPortDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	ports := conf.S.SuspiciousPort.Ports
	findings := []Finding{}

	type hits struct {
		packets int64
		first   float64
	}
	groups := make(map[serviceKey]*hits)
	for _, key := range snap.FlowKeys() {
		if _, ok := ports[key.DstPort]; !ok {
			continue
		}
		flow := snap.Flows[key]
		group := serviceKey{pair: key.Pair(), port: key.DstPort}
		h, ok := groups[group]
		if !ok {
			h = &hits{first: flow.First}
			groups[group] = h
		}
		h.packets += flow.Packets
		if flow.First < h.first {
			h.first = flow.First
		}
	}

	keys := make([]serviceKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sortServiceKeys(keys)

	for _, key := range keys {
		h := groups[key]
		findings = append(findings, Finding{
			Kind:        SuspiciousPort,
			Severity:    High,
			Source:      key.pair.Src,
			Destination: key.pair.Dst,
			Port:        key.port,
			Count:       h.packets,
			Timestamp:   at(h.first),
			Description: fmt.Sprintf("%s connected to %s on port %d (%s)",
				key.pair.Src, key.pair.Dst, key.port, ports[key.port]),
		})
	}
	return findings
}
