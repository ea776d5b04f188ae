package threat

import (
	"fmt"
	"sort"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// beaconDetector flags low volume channels whose events recur at a near
// constant interval. This is a heuristic: keep-alives look the same.
type beaconDetector struct{}

// channel groups the flows a beacon would produce: every connection to the
// same service, regardless of the ephemeral source port
type channel struct {
	src, dst string
	port     int
	protocol packet.Protocol
}

func (c channel) less(o channel) bool {
	if c.src != o.src {
		return c.src < o.src
	}
	if c.dst != o.dst {
		return c.dst < o.dst
	}
	if c.port != o.port {
		return c.port < o.port
	}
	return c.protocol < o.protocol
}

type beaconEvent struct {
	ts    float64
	bytes int64
}

func (beaconDetector) Name() string { return "C2Beaconing" }

func (beaconDetector) Enabled(conf *config.Config) bool { return conf.S.Beacon.Enabled }

func (beaconDetector) Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding {
	cfg := conf.S.Beacon
	findings := []Finding{}

	channels := make(map[channel][]*aggregate.Flow)
	var order []channel
	for _, key := range snap.FlowKeys() {
		ch := channel{src: key.Src, dst: key.Dst, port: key.DstPort, protocol: key.Protocol}
		if _, ok := channels[ch]; !ok {
			order = append(order, ch)
		}
		channels[ch] = append(channels[ch], snap.Flows[key])
	}
	sort.Slice(order, func(i, j int) bool { return order[i].less(order[j]) })

	for _, ch := range order {
		events := channelEvents(channels[ch])
		if len(events) < cfg.MinOccurrences || len(events) < 3 {
			continue
		}

		var totalBytes int64
		intervals := make([]float64, len(events)-1)
		for i, ev := range events {
			totalBytes += ev.bytes
			if i > 0 {
				intervals[i-1] = ev.ts - events[i-1].ts
			}
		}
		avgBytes := float64(totalBytes) / float64(len(events))
		mean := util.Mean(intervals)
		variance := util.Variance(intervals)
		if mean < cfg.MinInterval || variance >= cfg.VarianceThreshold || avgBytes > cfg.MaxAvgBytes {
			continue
		}

		//perfect beacons should have symmetric interval distributions
		//with very low dispersion around the median
		sort.Float64s(intervals)
		skew := util.BowleySkew(intervals)
		madm := util.MedianAbsDeviation(intervals)

		//most common interval at millisecond resolution
		millis := make([]int64, len(intervals))
		for i, iv := range intervals {
			millis[i] = util.Round(iv * 1000)
		}
		_, _, mode, modeCount := createCountMap(millis)

		findings = append(findings, Finding{
			Kind:        C2Beaconing,
			Severity:    Medium,
			Source:      ch.src,
			Destination: ch.dst,
			Port:        ch.port,
			Count:       int64(len(events)),
			Timestamp:   at(events[0].ts),
			Description: fmt.Sprintf("%s contacted %s:%d %d times every %.2fs (variance %.3f, skew %.2f, dispersion %.3fs, mode %.3fs x%d, %.0f bytes avg); possible C2 beaconing",
				ch.src, ch.dst, ch.port, len(events), mean, variance, skew, madm, float64(mode)/1000, modeCount, avgBytes),
		})
	}
	return findings
}

// channelEvents returns the beacon events of a channel in time order. A
// channel with several flows beacons by reconnecting, so each flow start is
// an event. A single long lived flow beacons with its packets.
func channelEvents(flows []*aggregate.Flow) []beaconEvent {
	var events []beaconEvent
	if len(flows) > 1 {
		events = make([]beaconEvent, len(flows))
		for i, f := range flows {
			events[i] = beaconEvent{ts: f.First, bytes: f.Bytes}
		}
	} else {
		f := flows[0]
		events = make([]beaconEvent, len(f.Timestamps))
		for i := range f.Timestamps {
			events[i] = beaconEvent{ts: f.Timestamps[i], bytes: int64(f.Sizes[i])}
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ts < events[j].ts })
	return events
}

// createCountMap returns a distinct data array, data count array, the mode,
// and the number of times the mode occurred
func createCountMap(sortedIn []int64) ([]int64, []int64, int64, int64) {
	//Since the data is already sorted, we can call this without fear
	distinct, countsMap := countAndRemoveConsecutiveDuplicates(sortedIn)
	countsArr := make([]int64, len(distinct))
	mode := distinct[0]
	max := countsMap[mode]
	for i, datum := range distinct {
		count := countsMap[datum]
		countsArr[i] = count
		if count > max {
			max = count
			mode = datum
		}
	}
	return distinct, countsArr, mode, max
}

//countAndRemoveConsecutiveDuplicates removes consecutive
//duplicates in an array of integers and counts how many
//instances of each number exist in the array.
func countAndRemoveConsecutiveDuplicates(numberList []int64) ([]int64, map[int64]int64) {
	//Avoid some reallocations
	result := make([]int64, 0, len(numberList)/2)
	counts := make(map[int64]int64)

	last := numberList[0]
	result = append(result, last)
	counts[last]++

	for idx := 1; idx < len(numberList); idx++ {
		if last != numberList[idx] {
			result = append(result, numberList[idx])
		}
		last = numberList[idx]
		counts[last]++
	}
	return result, counts
}
