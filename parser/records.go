package parser

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadRecords decodes a JSON array of packet records. A malformed document
// is an error; individually invalid records are kept for the aggregator to
// count as skipped.
func ReadRecords(r io.Reader) ([]packet.Record, error) {
	records := []packet.Record{}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode packet records: %w", err)
	}
	return records, nil
}

// ReadRecordsFile decodes a JSON record file
func ReadRecordsFile(path string) ([]packet.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return ReadRecords(r)
}
