package timeline

import (
	"math"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

type (
	// Bucket holds the traffic observed in [Start, End). The last bucket is
	// closed at End so the final packet of the capture is always counted.
	Bucket struct {
		Start     float64                   `json:"time"`
		End       float64                   `json:"end_time"`
		Packets   int64                     `json:"packets"`
		Bytes     int64                     `json:"bytes"`
		Protocols map[packet.Protocol]int64 `json:"protocols"`
	}

	// Timeline is the capture split into contiguous buckets of equal width
	Timeline struct {
		Buckets       []Bucket `json:"timeline"`
		StartTime     float64  `json:"start_time"`
		EndTime       float64  `json:"end_time"`
		TotalDuration float64  `json:"total_duration"`
		BucketWidth   float64  `json:"bucket_width"`
	}
)

// Build partitions the records into time buckets. The bucket width is
// chosen so the capture spans at most TargetBucketCount buckets, but never
// narrower than MinBucketWidth. Records are assumed to be valid.
func Build(records []packet.Record, conf *config.TimelineStaticCfg) Timeline {
	tl := Timeline{Buckets: []Bucket{}}
	if len(records) == 0 {
		return tl
	}

	start, end := records[0].Timestamp, records[0].Timestamp
	for i := range records {
		ts := records[i].Timestamp
		if ts < start {
			start = ts
		}
		if ts > end {
			end = ts
		}
	}
	duration := end - start

	width := math.Max(duration/float64(conf.TargetBucketCount), conf.MinBucketWidth)
	count := 1
	if duration > 0 {
		count = int(math.Ceil(duration / width))
		if count < 1 {
			count = 1
		}
		if count > conf.TargetBucketCount {
			count = conf.TargetBucketCount
		}
	}

	tl.StartTime = start
	tl.EndTime = end
	tl.TotalDuration = duration
	tl.BucketWidth = width
	tl.Buckets = make([]Bucket, count)
	for i := range tl.Buckets {
		tl.Buckets[i] = Bucket{
			Start:     start + float64(i)*width,
			End:       start + float64(i+1)*width,
			Protocols: make(map[packet.Protocol]int64),
		}
	}

	for i := range records {
		rec := &records[i]
		idx := int((rec.Timestamp - start) / width)
		if idx >= count {
			idx = count - 1
		}
		if idx < 0 {
			idx = 0
		}
		b := &tl.Buckets[idx]
		b.Packets++
		b.Bytes += int64(rec.Length)
		b.Protocols[rec.Protocol]++
	}
	return tl
}

// Packets sums the packets over all buckets
func (t *Timeline) Packets() int64 {
	var total int64
	for _, b := range t.Buckets {
		total += b.Packets
	}
	return total
}
