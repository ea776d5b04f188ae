package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
	"github.com/rayen-mansouri/packet-analyzer/pkg/threat"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

// MaxScore is the upper bound of the risk score
const MaxScore = 100

// weights holds the base contribution of a single finding per severity
var weights = map[threat.Severity]float64{
	threat.Low:      3,
	threat.Medium:   8,
	threat.High:     15,
	threat.Critical: 25,
}

// Risk levels derived from the score
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

type (
	// Contribution is the share of the raw score produced by one kind
	Contribution struct {
		Kind     threat.Kind `json:"type"`
		Findings int         `json:"findings"`
		Score    float64     `json:"score"`
	}

	// Summary condenses a list of findings
	Summary struct {
		RiskScore     int              `json:"-"`
		RiskLevel     string           `json:"risk_level"`
		TopConcerns   []string         `json:"top_concerns"`
		SeverityCount map[string]int64 `json:"severity_count"`
		Contributions []Contribution   `json:"contributions"`
	}

	// concern gathers the findings of one kind
	concern struct {
		kind     threat.Kind
		max      threat.Severity
		count    int
		sources  data.StringSet
		findings []threat.Finding
	}
)

// Weight returns the base contribution of a finding of the given severity
func Weight(sev threat.Severity) float64 {
	return weights[sev]
}

// Level maps a score onto a coarse risk level
func Level(score int) string {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	}
	return LevelLow
}

// Score combines findings into a 0-100 risk score. Within a kind the
// findings are ordered by weight and the Nth one contributes weight/N, so a
// single noisy detector cannot saturate the score on its own.
func Score(findings []threat.Finding, conf *config.Config) Summary {
	concerns := groupByKind(findings)

	summary := Summary{
		TopConcerns:   []string{},
		SeverityCount: make(map[string]int64, len(threat.Severities)),
		Contributions: make([]Contribution, 0, len(concerns)),
	}
	for _, sev := range threat.Severities {
		summary.SeverityCount[sev.String()] = 0
	}
	for _, f := range findings {
		summary.SeverityCount[f.Severity.String()]++
	}

	var raw float64
	for _, c := range concerns {
		contribution := diminishingSum(c.findings)
		raw += contribution
		summary.Contributions = append(summary.Contributions, Contribution{
			Kind:     c.kind,
			Findings: c.count,
			Score:    util.RoundTo(contribution, 2),
		})
	}

	summary.RiskScore = util.Clamp(int(util.Round(raw)), 0, MaxScore)
	summary.RiskLevel = Level(summary.RiskScore)
	summary.TopConcerns = topConcerns(concerns, conf.S.Scoring.TopConcerns)
	return summary
}

// diminishingSum adds up the weights of findings of a single kind, heaviest
// first, dividing the Nth weight by N
func diminishingSum(findings []threat.Finding) float64 {
	ws := make([]float64, len(findings))
	for i, f := range findings {
		ws[i] = Weight(f.Severity)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ws)))

	var sum float64
	for i, w := range ws {
		sum += w / float64(i+1)
	}
	return sum
}

// groupByKind returns one concern per kind, ordered by kind name
func groupByKind(findings []threat.Finding) []*concern {
	byKind := make(map[threat.Kind]*concern)
	for _, f := range findings {
		c, ok := byKind[f.Kind]
		if !ok {
			c = &concern{kind: f.Kind, sources: make(data.StringSet)}
			byKind[f.Kind] = c
		}
		c.count++
		if f.Severity > c.max {
			c.max = f.Severity
		}
		if f.Source != "" {
			c.sources.Insert(f.Source)
		}
		c.findings = append(c.findings, f)
	}

	concerns := make([]*concern, 0, len(byKind))
	for _, c := range byKind {
		concerns = append(concerns, c)
	}
	sort.Slice(concerns, func(i, j int) bool { return concerns[i].kind < concerns[j].kind })
	return concerns
}

// topConcerns renders the most pressing kinds, most severe first
func topConcerns(concerns []*concern, limit int) []string {
	ranked := make([]*concern, len(concerns))
	copy(ranked, concerns)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].max != ranked[j].max {
			return ranked[i].max > ranked[j].max
		}
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].kind < ranked[j].kind
	})

	lines := make([]string, 0, util.Min(limit, len(ranked)))
	for _, c := range ranked[:util.Min(limit, len(ranked))] {
		lines = append(lines, c.sentence())
	}
	return lines
}

const maxListedSources = 3

func (c *concern) sentence() string {
	noun := "finding"
	if c.count != 1 {
		noun = "findings"
	}
	line := fmt.Sprintf("%s: %d %s, highest severity %s", c.kind.Title(), c.count, noun, c.max)

	sources := c.sources.Items()
	switch {
	case len(sources) == 0:
	case len(sources) <= maxListedSources:
		line += fmt.Sprintf(" (from %s)", strings.Join(sources, ", "))
	default:
		line += fmt.Sprintf(" (from %s and %d more)",
			strings.Join(sources[:maxListedSources], ", "), len(sources)-maxListedSources)
	}
	return line
}

