package parser

import (
	"net"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// filter drops records the operator asked to never analyze
type filter struct {
	alwaysIncluded []*net.IPNet // records touching these are always kept
	neverIncluded  []*net.IPNet // records touching these are dropped
}

func newFilter(conf *config.Config) filter {
	return filter{
		alwaysIncluded: conf.R.AlwaysIncluded,
		neverIncluded:  conf.R.NeverIncluded,
	}
}

func (f *filter) empty() bool {
	return len(f.neverIncluded) == 0
}

// filterConnPair reports whether traffic between src and dst should be ignored
func (f *filter) filterConnPair(srcIP net.IP, dstIP net.IP) (ignore bool) {
	// check if on always included list
	isSrcIncluded := util.ContainsIP(f.alwaysIncluded, srcIP)
	isDstIncluded := util.ContainsIP(f.alwaysIncluded, dstIP)

	// check if on never included list
	isSrcExcluded := util.ContainsIP(f.neverIncluded, srcIP)
	isDstExcluded := util.ContainsIP(f.neverIncluded, dstIP)

	// AlwaysInclude wins over NeverInclude, on either side of the pair
	if isSrcIncluded || isDstIncluded {
		return false
	}

	return isSrcExcluded || isDstExcluded
}

// filterSingleIP reports whether a lone address should be ignored
func (f *filter) filterSingleIP(ip net.IP) (ignore bool) {
	if util.ContainsIP(f.alwaysIncluded, ip) {
		return false
	}
	return util.ContainsIP(f.neverIncluded, ip)
}

// apply returns the records that survive the filter and the number dropped.
// Records with unparseable addresses are passed through for the aggregator
// to account for.
func (f *filter) apply(records []packet.Record) ([]packet.Record, int) {
	if f.empty() {
		return records, 0
	}
	kept := records[:0]
	dropped := 0
	for _, rec := range records {
		srcIP := net.ParseIP(rec.SrcIP)
		dstIP := net.ParseIP(rec.DstIP)
		var ignore bool
		switch {
		case srcIP != nil && dstIP != nil:
			ignore = f.filterConnPair(srcIP, dstIP)
		case srcIP != nil:
			ignore = f.filterSingleIP(srcIP)
		case dstIP != nil:
			ignore = f.filterSingleIP(dstIP)
		}
		if ignore {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}

// FilterRecords applies the Input filter of conf to records decoded outside
// a FileReader. It returns the kept records and how many were dropped.
func FilterRecords(conf *config.Config, records []packet.Record) ([]packet.Record, int) {
	f := newFilter(conf)
	return f.apply(records)
}
