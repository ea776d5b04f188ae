package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// Table is a header plus rows of display-ready cells. Summary, when set, is
// a one line caption for human readers and is left out of CSV files.
type Table struct {
	Header  []string
	Rows    [][]string
	Summary string
}

// ThreatTable lists the findings in result order
func ThreatTable(result *analysis.Result) Table {
	t := Table{Header: []string{"Type", "Severity", "Source", "Destination", "Domain", "Port", "Count", "Timestamp", "Description"}}
	for _, finding := range result.Threats {
		port, ts := "", ""
		if finding.Port != 0 {
			port = strconv.Itoa(finding.Port)
		}
		if finding.Timestamp != nil {
			ts = f(*finding.Timestamp)
		}
		t.Rows = append(t.Rows, []string{
			string(finding.Kind), finding.Severity.String(), finding.Source,
			finding.Destination, finding.Domain, port, i(finding.Count), ts,
			finding.Description,
		})
	}
	return t
}

// HostTable lists the hosts of the network graph, busiest first
func HostTable(result *analysis.Result) Table {
	t := Table{Header: []string{"Host", "Country", "Packets Sent", "Packets Received", "Bytes", "Incoming", "Outgoing"}}
	for _, node := range result.NetworkGraph.Nodes {
		t.Rows = append(t.Rows, []string{
			node.ID, node.Country, i(node.PacketsSent), i(node.PacketsReceived),
			i(node.Bytes), strconv.Itoa(node.Incoming), strconv.Itoa(node.Outgoing),
		})
	}
	return t
}

// TimelineTable lists the timeline buckets in time order
func TimelineTable(result *analysis.Result) Table {
	t := Table{Header: []string{"Start", "End", "Packets", "Bytes"}}
	for _, bucket := range result.Timeline.Buckets {
		t.Rows = append(t.Rows, []string{f(bucket.Start), f(bucket.End), i(bucket.Packets), i(bucket.Bytes)})
	}
	if tl := result.Timeline; len(tl.Buckets) > 0 {
		t.Summary = fmt.Sprintf("Capture spans %s in %d buckets of %s",
			util.FormatDuration(util.SecondsToDuration(tl.TotalDuration)),
			len(tl.Buckets),
			util.FormatDuration(util.SecondsToDuration(tl.BucketWidth)))
	}
	return t
}

// WriteCSV writes the table to path
func (t Table) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Write(t.Header)
	w.WriteAll(t.Rows)
	return w.Error()
}

// WriteReport writes the envelope into a new directory named base. If base
// already exists a counter is appended until an unused name is found. The
// created directory is returned.
func WriteReport(env *Envelope, base string) (string, error) {
	if env == nil || env.Result == nil {
		return "", errors.New("no analysis to report on")
	}
	if base == "" {
		base = "packet-analyzer-report"
	}

	outFolder := base
	for counter := 1; ; counter++ {
		exists, err := util.Exists(outFolder)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		outFolder = base + strconv.Itoa(counter)
	}
	if err := os.Mkdir(outFolder, 0755); err != nil {
		return "", err
	}

	out, err := os.Create(filepath.Join(outFolder, "result.json"))
	if err != nil {
		return outFolder, err
	}
	err = WriteJSON(out, env, true)
	out.Close()
	if err != nil {
		return outFolder, err
	}

	tables := map[string]Table{
		"threats.csv":  ThreatTable(env.Result),
		"hosts.csv":    HostTable(env.Result),
		"timeline.csv": TimelineTable(env.Result),
	}
	for name, table := range tables {
		if err := table.WriteCSV(filepath.Join(outFolder, name)); err != nil {
			return outFolder, err
		}
	}
	return outFolder, nil
}

// f formats a float with the fewest digits that round trip. Timestamps
// must not collapse into exponent notation.
func f(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// i formats an integer
func i(i int64) string {
	return strconv.FormatInt(i, 10)
}
