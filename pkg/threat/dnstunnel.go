package threat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// dnsTunnelDetector flags sources whose traffic is dominated by DNS or
// whose queries carry encoded data in long or random looking labels
type dnsTunnelDetector struct{}

type dnsSource struct {
	packets    int64
	queries    int64
	first      float64
	domains    map[string]int64
	suspicious map[string]int64
	firstSusp  map[string]float64
}

func (dnsTunnelDetector) Name() string { return "DNSTunneling" }

func (dnsTunnelDetector) Enabled(conf *config.Config) bool { return conf.S.DNSTunneling.Enabled }

// encodedLabel reports whether a subdomain looks like it carries data
func encodedLabel(sub string, cfg *config.DNSTunnelingStaticCfg) bool {
	if sub == "" {
		return false
	}
	for _, label := range strings.Split(sub, ".") {
		if len(label) > cfg.MaxLabelLength {
			return true
		}
	}
	return util.ShannonEntropy(strings.Replace(sub, ".", "", -1)) > cfg.EntropyThreshold
}

func (dnsTunnelDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	cfg := conf.S.DNSTunneling
	findings := []Finding{}
	if snap.Stats.TotalPackets == 0 {
		return findings
	}

	sources := make(map[string]*dnsSource)
	for i := range snap.Records {
		rec := &snap.Records[i]
		query := rec.DNSQuery()
		if rec.Protocol != packet.DNS && query == "" {
			continue
		}
		s, ok := sources[rec.SrcIP]
		if !ok {
			s = &dnsSource{
				first:      rec.Timestamp,
				domains:    make(map[string]int64),
				suspicious: make(map[string]int64),
				firstSusp:  make(map[string]float64),
			}
			sources[rec.SrcIP] = s
		}
		s.packets++
		if rec.Timestamp < s.first {
			s.first = rec.Timestamp
		}
		if query == "" {
			continue
		}
		base := util.BaseDomain(query)
		if util.ContainsDomain(cfg.IgnoreDomains, base) || util.ContainsDomain(cfg.IgnoreDomains, strings.TrimSuffix(query, ".")) {
			continue
		}
		s.queries++
		s.domains[base]++
		if encodedLabel(util.Subdomain(query), &cfg) {
			if _, seen := s.suspicious[base]; !seen {
				s.firstSusp[base] = rec.Timestamp
			}
			s.suspicious[base]++
		}
	}

	for _, addr := range snap.HostAddrs() {
		s, ok := sources[addr]
		if !ok {
			continue
		}

		var encoded []string
		for domain, count := range s.suspicious {
			if count >= int64(cfg.MinQueries) {
				encoded = append(encoded, domain)
			}
		}
		sort.Strings(encoded)
		for _, domain := range encoded {
			findings = append(findings, Finding{
				Kind:        DNSTunneling,
				Severity:    Medium,
				Source:      addr,
				Domain:      domain,
				Count:       s.suspicious[domain],
				Timestamp:   at(s.firstSusp[domain]),
				Description: fmt.Sprintf("%s sent %d queries with encoded looking subdomains of %s", addr, s.suspicious[domain], domain),
			})
		}
		if len(encoded) > 0 {
			continue
		}

		ratio := float64(s.packets) / float64(snap.Stats.TotalPackets)
		if ratio <= cfg.TrafficRatio || s.queries < int64(cfg.MinQueries) {
			continue
		}
		f := Finding{
			Kind:        DNSTunneling,
			Severity:    Medium,
			Source:      addr,
			Domain:      topDomain(s.domains),
			Count:       s.queries,
			Timestamp:   at(s.first),
			Description: fmt.Sprintf("DNS makes up %.0f%% of all traffic and %s sent %d queries", ratio*100, addr, s.queries),
		}
		if f.Domain != "" {
			f.Description += fmt.Sprintf(", mostly for %s", f.Domain)
		}
		findings = append(findings, f)
	}
	return findings
}

func topDomain(domains map[string]int64) string {
	var best string
	var bestCount int64
	for domain, count := range domains {
		if count > bestCount || (count == bestCount && domain < best) {
			best, bestCount = domain, count
		}
	}
	return best
}
