package threat

import (
	"fmt"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
)

// portScanDetector flags sources that open connections to many distinct
// destination ports over the whole capture
type portScanDetector struct{}

func (portScanDetector) Name() string { return "PortScan" }

func (portScanDetector) Enabled(conf *config.Config) bool { return conf.S.PortScan.Enabled }

func (portScanDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	cfg := conf.S.PortScan
	findings := []Finding{}

	type scanner struct {
		targets data.StringSet
		first   float64
	}
	scanners := make(map[string]*scanner)
	for i := range snap.Records {
		if !snap.Opens(i) {
			continue
		}
		rec := &snap.Records[i]
		p, ok := scanners[rec.SrcIP]
		if !ok {
			p = &scanner{targets: make(data.StringSet), first: rec.Timestamp}
			scanners[rec.SrcIP] = p
		}
		p.targets.Insert(rec.DstIP)
		if rec.Timestamp < p.first {
			p.first = rec.Timestamp
		}
	}

	for _, addr := range snap.HostAddrs() {
		ports := len(snap.Hosts[addr].PortsContacted)
		if ports <= cfg.Threshold {
			continue
		}
		severity := Medium
		if ports > cfg.HighThreshold {
			severity = High
		}

		p := scanners[addr]
		f := Finding{
			Kind:      PortScan,
			Severity:  severity,
			Source:    addr,
			Count:     int64(ports),
			Timestamp: at(p.first),
		}
		targets := p.targets.Items()
		if len(targets) == 1 {
			f.Destination = targets[0]
			f.Description = fmt.Sprintf("%s contacted %d distinct ports on %s", addr, ports, targets[0])
		} else {
			f.Description = fmt.Sprintf("%s contacted %d distinct ports across %d hosts", addr, ports, len(targets))
		}
		findings = append(findings, f)
	}
	return findings
}
