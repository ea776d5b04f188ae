package threat

import (
	"fmt"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// exfiltrationDetector flags internal hosts uploading large volumes to
// publicly routable destinations
type exfiltrationDetector struct{}

func (exfiltrationDetector) Name() string { return "DataExfiltration" }

func (exfiltrationDetector) Enabled(conf *config.Config) bool { return conf.S.Exfiltration.Enabled }

func (exfiltrationDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	threshold := conf.S.Exfiltration.ByteThreshold
	findings := []Finding{}

	type upload struct {
		bytes   int64
		first   float64
		targets data.StringSet
	}
	uploads := make(map[string]*upload)
	for _, key := range snap.FlowKeys() {
		if !util.AddressIsPrivate(key.Src) || !util.AddressIsPubliclyRoutable(key.Dst) {
			continue
		}
		flow := snap.Flows[key]
		u, ok := uploads[key.Src]
		if !ok {
			u = &upload{first: flow.First, targets: make(data.StringSet)}
			uploads[key.Src] = u
		}
		u.bytes += flow.Bytes
		u.targets.Insert(key.Dst)
		if flow.First < u.first {
			u.first = flow.First
		}
	}

	for _, addr := range snap.HostAddrs() {
		u, ok := uploads[addr]
		if !ok || u.bytes <= threshold {
			continue
		}
		f := Finding{
			Kind:      DataExfiltration,
			Severity:  High,
			Source:    addr,
			Count:     u.bytes,
			Timestamp: at(u.first),
		}
		targets := u.targets.Items()
		if len(targets) == 1 {
			f.Destination = targets[0]
		}
		f.Description = fmt.Sprintf("%s sent %.1f MiB to %d external hosts", addr, float64(u.bytes)/(1<<20), len(targets))
		findings = append(findings, f)
	}
	return findings
}
