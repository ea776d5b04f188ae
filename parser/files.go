package parser

import (
	"io/ioutil"
	"path"
	"sort"
	"strings"

	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/resources"
	"github.com/rayen-mansouri/packet-analyzer/util"
	log "github.com/sirupsen/logrus"
)

var (
	captureExtensions = []string{".pcap", ".pcapng", ".cap"}
	recordExtensions  = []string{".json"}
)

// FileReader loads capture and record files from disk and applies the
// configured input filter
type FileReader struct {
	res          *resources.Resources
	filter       filter
	previewBytes int
	forceRecords bool
}

// NewFileReader creates a reader using the Input section of the config
func NewFileReader(res *resources.Resources) *FileReader {
	return &FileReader{
		res:          res,
		filter:       newFilter(res.Config),
		previewBytes: res.Config.S.Input.PayloadPreviewBytes,
	}
}

// ForceRecords treats every input file as a JSON record array
func (fr *FileReader) ForceRecords(force bool) {
	fr.forceRecords = force
}

// Files expands directories and drops unsupported files
func (fr *FileReader) Files(paths []string) []string {
	return readFiles(paths, fr.forceRecords, fr.res.Log)
}

// Read loads every file in order and merges the records by timestamp.
// fileDone, if set, is called after each file.
func (fr *FileReader) Read(files []string, fileDone func(path string)) ([]packet.Record, error) {
	var records []packet.Record
	for _, file := range files {
		var (
			fileRecords []packet.Record
			err         error
		)
		if fr.forceRecords || isRecordFile(file) {
			fileRecords, err = ReadRecordsFile(file)
		} else {
			fileRecords, err = ReadCapture(file, fr.previewBytes)
		}
		if err != nil {
			fr.res.Log.WithFields(log.Fields{
				"path":  file,
				"error": err.Error(),
			}).Error("Failed to read input file")
			return nil, err
		}

		var dropped int
		fileRecords, dropped = fr.filter.apply(fileRecords)
		fr.res.Log.WithFields(log.Fields{
			"path":     file,
			"records":  len(fileRecords),
			"filtered": dropped,
		}).Info("Read input file")

		records = append(records, fileRecords...)
		if fileDone != nil {
			fileDone(file)
		}
	}

	if len(files) > 1 {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp < records[j].Timestamp
		})
	}
	if records == nil {
		records = []packet.Record{}
	}
	return records, nil
}

// readDir reads the directory looking for capture and record files
func readDir(cpath string, forceRecords bool, logger *log.Logger) []string {
	var toReturn []string
	files, err := ioutil.ReadDir(cpath)
	if err != nil {
		logger.WithFields(log.Fields{
			"error": err.Error(),
			"path":  cpath,
		}).Error("Error when reading directory")
	}

	for _, file := range files {
		if !file.IsDir() && isSupported(file.Name(), forceRecords) {
			toReturn = append(toReturn, path.Join(cpath, file.Name()))
		}
	}
	return toReturn
}

// readFiles reads the files and directories looking for capture and record files
func readFiles(paths []string, forceRecords bool, logger *log.Logger) []string {
	var toReturn []string

	for _, path := range paths {
		if util.IsDir(path) {
			toReturn = append(toReturn, readDir(path, forceRecords, logger)...)
		} else if isSupported(path, forceRecords) {
			toReturn = append(toReturn, path)
		} else {
			logger.WithFields(log.Fields{
				"path": path,
			}).Warn("Ignoring file without a capture or record extension")
		}
	}

	return toReturn
}

func isGzip(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gz")
}

func extension(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, ".gz")
	return path.Ext(name)
}

func isRecordFile(name string) bool {
	return util.StringInSlice(extension(name), recordExtensions)
}

func isSupported(name string, forceRecords bool) bool {
	if forceRecords {
		return true
	}
	ext := extension(name)
	return util.StringInSlice(ext, captureExtensions) || util.StringInSlice(ext, recordExtensions)
}

