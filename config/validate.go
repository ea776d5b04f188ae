package config

import (
	"fmt"
	"strings"

	"github.com/rayen-mansouri/packet-analyzer/util"
)

// ValidationError lists every problem found in a configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) addf(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the tunables for values no analysis could run with
func (s *StaticCfg) Validate() error {
	errs := &ValidationError{}

	if s.Log.LogLevel < 0 || s.Log.LogLevel > 3 {
		errs.addf("LogConfig.LogLevel must be between 0 and 3, got %d", s.Log.LogLevel)
	}
	if s.Input.PayloadPreviewBytes < 0 {
		errs.addf("Input.PayloadPreviewBytes must not be negative")
	}
	if _, err := util.ParseSubnets(s.Input.AlwaysInclude); err != nil {
		errs.addf("Input.AlwaysInclude: %v", err)
	}
	if _, err := util.ParseSubnets(s.Input.NeverInclude); err != nil {
		errs.addf("Input.NeverInclude: %v", err)
	}

	if s.Timeline.TargetBucketCount < 1 {
		errs.addf("Timeline.TargetBucketCount must be at least 1, got %d", s.Timeline.TargetBucketCount)
	}
	if !(s.Timeline.MinBucketWidth > 0) {
		errs.addf("Timeline.MinBucketWidth must be positive, got %g", s.Timeline.MinBucketWidth)
	}

	if s.Graph.NodeCap < 0 {
		errs.addf("Graph.NodeCap must not be negative, got %d", s.Graph.NodeCap)
	}
	if s.Scoring.TopConcerns < 0 {
		errs.addf("Scoring.TopConcerns must not be negative, got %d", s.Scoring.TopConcerns)
	}

	if s.PortScan.Threshold < 1 {
		errs.addf("PortScan.Threshold must be at least 1, got %d", s.PortScan.Threshold)
	}
	if s.PortScan.HighThreshold < s.PortScan.Threshold {
		errs.addf("PortScan.HighThreshold (%d) must not be below PortScan.Threshold (%d)",
			s.PortScan.HighThreshold, s.PortScan.Threshold)
	}

	if s.SynFlood.CountThreshold < 1 {
		errs.addf("SynFlood.CountThreshold must be at least 1, got %d", s.SynFlood.CountThreshold)
	}
	if !(s.SynFlood.WindowSeconds > 0) {
		errs.addf("SynFlood.WindowSeconds must be positive, got %g", s.SynFlood.WindowSeconds)
	}
	if !(s.SynFlood.RateThreshold > 0) {
		errs.addf("SynFlood.RateThreshold must be positive, got %g", s.SynFlood.RateThreshold)
	}
	if !(s.SynFlood.CompletionRatio > 0) || s.SynFlood.CompletionRatio > 1 {
		errs.addf("SynFlood.CompletionRatio must be in (0, 1], got %g", s.SynFlood.CompletionRatio)
	}

	if s.BruteForce.AttemptThreshold < 1 {
		errs.addf("BruteForce.AttemptThreshold must be at least 1, got %d", s.BruteForce.AttemptThreshold)
	}
	for _, port := range s.BruteForce.SensitivePorts {
		if port < 1 || port > 65535 {
			errs.addf("BruteForce.SensitivePorts contains invalid port %d", port)
		}
	}

	if s.Beacon.MinOccurrences < 3 {
		errs.addf("Beacon.MinOccurrences must be at least 3, got %d", s.Beacon.MinOccurrences)
	}
	if s.Beacon.VarianceThreshold < 0 {
		errs.addf("Beacon.VarianceThreshold must not be negative, got %g", s.Beacon.VarianceThreshold)
	}
	if s.Beacon.MinInterval < 0 {
		errs.addf("Beacon.MinInterval must not be negative, got %g", s.Beacon.MinInterval)
	}
	if !(s.Beacon.MaxAvgBytes > 0) {
		errs.addf("Beacon.MaxAvgBytes must be positive, got %g", s.Beacon.MaxAvgBytes)
	}

	for _, proto := range s.Credentials.Protocols {
		if _, ok := credentialServices[strings.ToLower(proto)]; !ok {
			errs.addf("CredentialExposure.Protocols contains unsupported protocol %q", proto)
		}
	}

	for port := range s.SuspiciousPort.Ports {
		if port < 1 || port > 65535 {
			errs.addf("SuspiciousPort.Ports contains invalid port %d", port)
		}
	}

	if s.Exfiltration.ByteThreshold < 1 {
		errs.addf("Exfiltration.ByteThreshold must be at least 1, got %d", s.Exfiltration.ByteThreshold)
	}

	if s.DNSTunneling.TrafficRatio <= 0 || s.DNSTunneling.TrafficRatio > 1 {
		errs.addf("DNSTunneling.TrafficRatio must be in (0, 1], got %g", s.DNSTunneling.TrafficRatio)
	}
	if s.DNSTunneling.MinQueries < 1 {
		errs.addf("DNSTunneling.MinQueries must be at least 1, got %d", s.DNSTunneling.MinQueries)
	}
	if s.DNSTunneling.MaxLabelLength < 1 {
		errs.addf("DNSTunneling.MaxLabelLength must be at least 1, got %d", s.DNSTunneling.MaxLabelLength)
	}

	if len(errs.Problems) > 0 {
		return errs
	}
	return nil
}
