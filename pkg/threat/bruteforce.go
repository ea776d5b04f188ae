package threat

import (
	"fmt"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

// bruteForceDetector flags repeated connection attempts against
// authentication services
type bruteForceDetector struct{}

func (bruteForceDetector) Name() string { return "BruteForce" }

func (bruteForceDetector) Enabled(conf *config.Config) bool { return conf.S.BruteForce.Enabled }

// opensConnection is false for flows that only carry replies or
// established traffic. Flows without any flags are counted as attempts.
func opensConnection(flow *aggregate.Flow) bool {
	if len(flow.FlagCounts) == 0 {
		return true
	}
	return flow.CountFlags(packet.TCPFlags.IsSYNOnly) > 0
}

func serviceName(conf *config.Config, port int) string {
	if name := conf.R.SensitivePorts[port]; name != "" {
		return name
	}
	if name := packet.PortName(port); name != "Unknown" {
		return name
	}
	return fmt.Sprintf("port %d", port)
}

func (bruteForceDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	cfg := conf.S.BruteForce
	findings := []Finding{}

	type attempts struct {
		count int64
		first float64
	}
	groups := make(map[serviceKey]*attempts)
	for _, key := range snap.FlowKeys() {
		if _, ok := conf.R.SensitivePorts[key.DstPort]; !ok {
			continue
		}
		flow := snap.Flows[key]
		if !opensConnection(flow) {
			continue
		}
		group := serviceKey{pair: key.Pair(), port: key.DstPort}
		a, ok := groups[group]
		if !ok {
			a = &attempts{first: flow.First}
			groups[group] = a
		}
		a.count++
		if flow.First < a.first {
			a.first = flow.First
		}
	}

	keys := make([]serviceKey, 0, len(groups))
	for key, a := range groups {
		if a.count > int64(cfg.AttemptThreshold) {
			keys = append(keys, key)
		}
	}
	sortServiceKeys(keys)

	for _, key := range keys {
		a := groups[key]
		service := serviceName(conf, key.port)
		findings = append(findings, Finding{
			Kind:        BruteForce,
			Severity:    High,
			Source:      key.pair.Src,
			Destination: key.pair.Dst,
			Port:        key.port,
			Count:       a.count,
			Timestamp:   at(a.first),
			Description: fmt.Sprintf("%s made %d %s connection attempts to %s:%d",
				key.pair.Src, a.count, service, key.pair.Dst, key.port),
		})
	}
	return findings
}
