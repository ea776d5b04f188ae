package threat

import (
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	log "github.com/sirupsen/logrus"
)

// Detector inspects an aggregate snapshot and reports findings. Detectors
// must not mutate the snapshot and must return findings in a
// deterministic order.
type Detector interface {
	Name() string
	Enabled(conf *config.Config) bool
	Detect(snap *aggregate.Snapshot, conf *config.Config) []Finding
}

// Detectors returns the full detector set in reporting order
func Detectors() []Detector {
	return []Detector{
		portScanDetector{},
		synFloodDetector{},
		bruteForceDetector{},
		beaconDetector{},
		credentialDetector{},
		suspiciousPortDetector{},
		exfiltrationDetector{},
		dnsTunnelDetector{},
	}
}

type (
	indexedDetector struct {
		index    int
		detector Detector
	}

	detection struct {
		index      int
		findings   []Finding
		diagnostic *Diagnostic
	}

	//runner fans detectors out over a shared, read-only snapshot
	runner struct {
		snap             *aggregate.Snapshot
		conf             *config.Config
		log              *log.Logger
		detectedCallback func(detection)     // detector results are sent to this callback
		closedCallback   func()              // called when .close() is called and no more results will be sent
		detectorChannel  chan indexedDetector // holds detectors waiting to run
		runWg            sync.WaitGroup       // wait for detection to finish
	}
)

func newRunner(snap *aggregate.Snapshot, conf *config.Config, logger *log.Logger,
	detectedCallback func(detection), closedCallback func()) *runner {
	return &runner{
		snap:             snap,
		conf:             conf,
		log:              logger,
		detectedCallback: detectedCallback,
		closedCallback:   closedCallback,
		detectorChannel:  make(chan indexedDetector),
	}
}

//collect queues a detector to run
func (r *runner) collect(index int, d Detector) {
	r.detectorChannel <- indexedDetector{index: index, detector: d}
}

//close waits for the runner to finish
func (r *runner) close() {
	close(r.detectorChannel)
	r.runWg.Wait()
	r.closedCallback()
}

//start kicks off a new detection thread
func (r *runner) start() {
	r.runWg.Add(1)
	go func() {
		for job := range r.detectorChannel {
			r.detectedCallback(r.detect(job))
		}
		r.runWg.Done()
	}()
}

func (r *runner) detect(job indexedDetector) (result detection) {
	result.index = job.index
	defer func() {
		if p := recover(); p != nil {
			r.log.WithFields(log.Fields{
				"detector": job.detector.Name(),
				"panic":    p,
			}).Error("detector failed")
			result.findings = nil
			result.diagnostic = &Diagnostic{
				Detector: job.detector.Name(),
				Message:  fmt.Sprintf("%v", p),
			}
		}
	}()
	result.findings = job.detector.Detect(r.snap, r.conf)
	r.log.WithFields(log.Fields{
		"detector": job.detector.Name(),
		"findings": len(result.findings),
	}).Debug("detector finished")
	return result
}

// Run executes the enabled detectors concurrently against snap. Findings are
// concatenated in detector order. A detector that panics contributes no
// findings and a Diagnostic instead. progress, when set, is called once per
// finished detector with its name.
func Run(snap *aggregate.Snapshot, conf *config.Config, detectors []Detector,
	logger *log.Logger, progress func(name string)) ([]Finding, []Diagnostic) {

	if logger == nil {
		logger = log.New()
		logger.Out = ioutil.Discard
	}

	var enabled []Detector
	for _, d := range detectors {
		if d.Enabled(conf) {
			enabled = append(enabled, d)
		}
	}

	results := make([]detection, len(enabled))
	var mu sync.Mutex
	r := newRunner(snap, conf, logger,
		func(res detection) {
			results[res.index] = res
			if progress != nil {
				mu.Lock()
				progress(enabled[res.index].Name())
				mu.Unlock()
			}
		},
		func() {},
	)

	for range enabled {
		r.start()
	}
	for i, d := range enabled {
		r.collect(i, d)
	}
	r.close()

	findings := []Finding{}
	var diagnostics []Diagnostic
	for _, res := range results {
		findings = append(findings, res.findings...)
		if res.diagnostic != nil {
			diagnostics = append(diagnostics, *res.diagnostic)
		}
	}
	return findings, diagnostics
}
