package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rayen-mansouri/packet-analyzer/reporting"
)

// i formats an integer
func i(i int64) string {
	return strconv.FormatInt(i, 10)
}

func renderCSV(t reporting.Table) error {
	csvWriter := csv.NewWriter(os.Stdout)
	csvWriter.Write(t.Header)
	csvWriter.WriteAll(t.Rows)
	return csvWriter.Error()
}

func renderHuman(t reporting.Table) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(t.Header)
	table.AppendBulk(t.Rows)
	table.Render()
	if t.Summary != "" {
		fmt.Fprintf(os.Stdout, "\t[-] %s\n", t.Summary)
	}
	return nil
}

// loadAnalysis reads a JSON file written by analyze
func loadAnalysis(path string) (*reporting.Envelope, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return reporting.ReadEnvelope(file)
}
