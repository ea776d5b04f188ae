package threat

import (
	"fmt"
	"strings"
)

// Kind names the category of a finding
type Kind string

// Finding kinds
const (
	PortScan           Kind = "port_scan"
	SynFlood           Kind = "syn_flood"
	BruteForce         Kind = "brute_force"
	C2Beaconing        Kind = "c2_beaconing"
	CredentialExposure Kind = "credential_exposure"
	SuspiciousPort     Kind = "suspicious_port"
	DataExfiltration   Kind = "data_exfiltration"
	DNSTunneling       Kind = "dns_tunneling"
	OtherKind          Kind = "other"
)

// Title is the human readable name of the kind
func (k Kind) Title() string {
	switch k {
	case PortScan:
		return "Port scan"
	case SynFlood:
		return "SYN flood"
	case BruteForce:
		return "Brute force"
	case C2Beaconing:
		return "C2 beaconing"
	case CredentialExposure:
		return "Cleartext credential exposure"
	case SuspiciousPort:
		return "Suspicious port"
	case DataExfiltration:
		return "Data exfiltration"
	case DNSTunneling:
		return "DNS tunneling"
	}
	return "Other"
}

// Severity is a totally ordered finding severity
type Severity int

// Severities from least to most severe
const (
	Low Severity = iota + 1
	Medium
	High
	Critical
)

var severityNames = map[Severity]string{
	Low:      "low",
	Medium:   "medium",
	High:     "high",
	Critical: "critical",
}

// Severities lists every severity from least to most severe
var Severities = []Severity{Low, Medium, High, Critical}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity reads a severity name
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if strings.EqualFold(n, name) {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	sev, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

type (
	// Finding is a single detected threat
	Finding struct {
		Kind        Kind     `json:"type"`
		Severity    Severity `json:"severity"`
		Description string   `json:"description"`
		Source      string   `json:"source"`
		Destination string   `json:"destination,omitempty"`
		Domain      string   `json:"source_domain,omitempty"`
		Port        int      `json:"port,omitempty"`
		Count       int64    `json:"count,omitempty"`
		Timestamp   *float64 `json:"timestamp,omitempty"`
	}

	// Diagnostic records a detector that failed without aborting the analysis
	Diagnostic struct {
		Detector string `json:"detector"`
		Message  string `json:"message"`
	}
)

func at(ts float64) *float64 {
	return &ts
}
