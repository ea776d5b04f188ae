package threat

import (
	"fmt"
	"math"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
)

// synFloodDetector flags host pairs receiving bursts of connection requests
// that are rarely completed
type synFloodDetector struct{}

type synCounter struct {
	syn, synAck, ack int64
	first, last      float64
	ports            data.IntSet
}

func (synFloodDetector) Name() string { return "SynFlood" }

func (synFloodDetector) Enabled(conf *config.Config) bool { return conf.S.SynFlood.Enabled }

func (synFloodDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	cfg := conf.S.SynFlood
	findings := []Finding{}

	counters := make(map[data.HostPair]*synCounter)
	counter := func(pair data.HostPair) *synCounter {
		c, ok := counters[pair]
		if !ok {
			c = &synCounter{ports: make(data.IntSet)}
			counters[pair] = c
		}
		return c
	}

	for i := range snap.Records {
		rec := &snap.Records[i]
		// packets without observed flags say nothing about handshakes
		if !rec.Protocol.OverTCP() || !rec.HasFlags() {
			continue
		}
		pair := data.HostPair{Src: rec.SrcIP, Dst: rec.DstIP}
		switch {
		case rec.Flags.IsSYNOnly():
			c := counter(pair)
			if c.syn == 0 || rec.Timestamp < c.first {
				c.first = rec.Timestamp
			}
			if c.syn == 0 || rec.Timestamp > c.last {
				c.last = rec.Timestamp
			}
			c.syn++
			c.ports.Insert(rec.DstPort)
		case rec.Flags.IsSYNACK():
			counter(pair.Reverse()).synAck++
		case rec.Flags.IsPureACK():
			counter(pair).ack++
		}
	}

	pairs := make([]data.HostPair, 0, len(counters))
	for pair, c := range counters {
		if c.syn > 0 {
			pairs = append(pairs, pair)
		}
	}
	sortPairs(pairs)

	for _, pair := range pairs {
		c := counters[pair]
		span := c.last - c.first
		rate := float64(c.syn) / math.Max(span, 1)

		burst := c.syn > int64(cfg.CountThreshold) && span <= cfg.WindowSeconds
		sustained := float64(c.syn) > cfg.RateThreshold && rate > cfg.RateThreshold
		if !burst && !sustained {
			continue
		}

		completed := c.synAck
		if c.ack < completed {
			completed = c.ack
		}
		if float64(completed)/float64(c.syn) >= cfg.CompletionRatio {
			continue
		}

		f := Finding{
			Kind:        SynFlood,
			Severity:    High,
			Source:      pair.Src,
			Destination: pair.Dst,
			Count:       c.syn,
			Timestamp:   at(c.first),
			Description: fmt.Sprintf("%s sent %d SYN packets to %s in %.1fs (%.1f/s) with %d completed handshakes",
				pair.Src, c.syn, pair.Dst, span, rate, completed),
		}
		if ports := c.ports.Items(); len(ports) == 1 {
			f.Port = ports[0]
		}
		findings = append(findings, f)
	}
	return findings
}
