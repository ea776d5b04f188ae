package analysis

import (
	"io/ioutil"
	"sync"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/aggregate"
	"github.com/rayen-mansouri/packet-analyzer/pkg/graph"
	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
	"github.com/rayen-mansouri/packet-analyzer/pkg/score"
	"github.com/rayen-mansouri/packet-analyzer/pkg/threat"
	"github.com/rayen-mansouri/packet-analyzer/pkg/timeline"
	log "github.com/sirupsen/logrus"
)

type (
	// Result is the complete assessment of one capture. It is built once
	// and never modified afterwards.
	Result struct {
		Statistics    aggregate.Stats     `json:"statistics"`
		Threats       []threat.Finding    `json:"threats"`
		RiskScore     int                 `json:"risk_score"`
		ThreatSummary score.Summary       `json:"threat_summary"`
		NetworkGraph  graph.Graph         `json:"network_graph"`
		Timeline      timeline.Timeline   `json:"timeline"`
		Diagnostics   []threat.Diagnostic `json:"diagnostics"`
	}

	// Analyzer runs the aggregation, detection and scoring pipeline
	Analyzer struct {
		log       *log.Logger
		locator   graph.Locator
		progress  func(detector string)
		detectors []threat.Detector
	}
)

// NewAnalyzer returns an Analyzer running the full detector set. A nil
// logger silences all logging.
func NewAnalyzer(logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New()
		logger.Out = ioutil.Discard
	}
	return &Analyzer{
		log:       logger,
		detectors: threat.Detectors(),
	}
}

// SetLocator enables country enrichment of graph nodes
func (a *Analyzer) SetLocator(locator graph.Locator) {
	a.locator = locator
}

// SetProgress registers a callback invoked once per finished detector
func (a *Analyzer) SetProgress(progress func(detector string)) {
	a.progress = progress
}

// SetDetectors replaces the detector set
func (a *Analyzer) SetDetectors(detectors []threat.Detector) {
	a.detectors = detectors
}

// EnabledDetectors lists the names of the detectors conf turns on
func (a *Analyzer) EnabledDetectors(conf *config.Config) []string {
	var names []string
	for _, d := range a.detectors {
		if d.Enabled(conf) {
			names = append(names, d.Name())
		}
	}
	return names
}

// Analyze is a convenience wrapper running a silent Analyzer
func Analyze(records []packet.Record, conf *config.Config) (*Result, error) {
	return NewAnalyzer(nil).Analyze(records, conf)
}

// Analyze assesses a single capture. The only error returned is a
// *config.ValidationError for unusable tunables; malformed records and
// failing detectors are reported inside the Result.
func (a *Analyzer) Analyze(records []packet.Record, conf *config.Config) (*Result, error) {
	if conf == nil {
		var err error
		if conf, err = config.LoadDefaultConfig(); err != nil {
			return nil, err
		}
	}
	conf, err := conf.Prepare()
	if err != nil {
		a.log.WithField("error", err.Error()).Error("refusing to analyze with invalid configuration")
		return nil, err
	}

	snap := aggregate.Build(records)
	a.log.WithFields(log.Fields{
		"input":   snap.Stats.InputPackets,
		"valid":   snap.Stats.TotalPackets,
		"skipped": snap.Stats.SkippedPackets,
		"flows":   snap.Stats.FlowsCount,
		"hosts":   len(snap.Hosts),
	}).Info("aggregated capture")

	var (
		wg          sync.WaitGroup
		tl          timeline.Timeline
		net         graph.Graph
		findings    []threat.Finding
		diagnostics []threat.Diagnostic
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		tl = timeline.Build(snap.Records, &conf.S.Timeline)
	}()
	go func() {
		defer wg.Done()
		net = graph.Build(snap, graph.Options{NodeCap: conf.S.Graph.NodeCap, Locator: a.locator})
	}()
	go func() {
		defer wg.Done()
		findings, diagnostics = threat.Run(snap, conf, a.detectors, a.log, a.progress)
	}()
	wg.Wait()

	summary := score.Score(findings, conf)
	if diagnostics == nil {
		diagnostics = []threat.Diagnostic{}
	}

	a.log.WithFields(log.Fields{
		"findings":    len(findings),
		"diagnostics": len(diagnostics),
		"risk_score":  summary.RiskScore,
		"risk_level":  summary.RiskLevel,
	}).Info("analysis complete")

	return &Result{
		Statistics:    snap.Stats,
		Threats:       findings,
		RiskScore:     summary.RiskScore,
		ThreatSummary: summary,
		NetworkGraph:  net,
		Timeline:      tl,
		Diagnostics:   diagnostics,
	}, nil
}
