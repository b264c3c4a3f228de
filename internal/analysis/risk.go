package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// Severity is shared by every risk sub-analysis.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Outranks reports whether s is strictly more severe than other.
func (s Severity) Outranks(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

const (
	satisfactoryRating = 3.0

	vulnerabilityRiskFloor = 0.15
	weakRating             = 2.0
	weakRatingWeight       = 20.0

	concentrationWeight     = 35.0
	highConcentrationWeight = 50.0
	dependencyWeight        = 25.0
	dependencyRating        = 3.5
	weakDependencyRating    = 2.5

	opportunityMinGap    = 1.5
	opportunityMinWeight = 15.0
	opportunityMinCost   = 5.0
	opportunityHighCost  = 15.0
	opportunityModCost   = 10.0
	maxOpportunities     = 5
)

// DependencyKind distinguishes the two dependency findings.
type DependencyKind string

const (
	DependencyConcentration DependencyKind = "over-concentration"
	DependencyCritical      DependencyKind = "critical-dependency"
)

// Vulnerability is a heavily weighted criterion where the winner rates poorly.
type Vulnerability struct {
	CriterionID    int      `json:"criterion_id"`
	Criterion      string   `json:"criterion"`
	Rating         float64  `json:"rating"`
	Weight         float64  `json:"weight"`
	PerformanceGap float64  `json:"performance_gap"`
	RiskScore      float64  `json:"risk_score"`
	Severity       Severity `json:"severity"`
}

// Dependency flags a criterion the decision leans on too much.
type Dependency struct {
	CriterionID int            `json:"criterion_id"`
	Criterion   string         `json:"criterion"`
	Kind        DependencyKind `json:"kind"`
	Weight      float64        `json:"weight"`
	Rating      float64        `json:"rating"`
	Severity    Severity       `json:"severity"`
}

// Opportunity is value given up by not picking the best alternative on a criterion.
type Opportunity struct {
	CriterionID   int      `json:"criterion_id"`
	Criterion     string   `json:"criterion"`
	AlternativeID int      `json:"alternative_id"`
	Alternative   string   `json:"alternative"`
	WinnerRating  float64  `json:"winner_rating"`
	AltRating     float64  `json:"alternative_rating"`
	Weight        float64  `json:"weight"`
	Cost          float64  `json:"cost"`
	Severity      Severity `json:"severity"`
}

// Concern names the single most severe finding.
type Concern struct {
	Source      string   `json:"source"`
	CriterionID int      `json:"criterion_id"`
	Criterion   string   `json:"criterion"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// RiskSummary aggregates the three sub-analyses.
type RiskSummary struct {
	VulnerabilityCount int      `json:"vulnerability_count"`
	DependencyCount    int      `json:"dependency_count"`
	OpportunityCount   int      `json:"opportunity_count"`
	TotalRisks         int      `json:"total_risks"`
	HighestSeverity    Severity `json:"highest_severity"`
	PrimaryConcern     *Concern `json:"primary_concern,omitempty"`
}

// RiskProfile is the full risk view of the winning option.
type RiskProfile struct {
	Winner          string          `json:"winner"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Dependencies    []Dependency    `json:"dependencies"`
	Opportunities   []Opportunity   `json:"opportunities"`
	Summary         RiskSummary     `json:"summary"`
}

// AnalyzeRisk inspects ranked[0]. Opportunities additionally scan every
// other ranked option. An empty ranking yields an empty profile.
func AnalyzeRisk(ranked []scoring.RankedResult) RiskProfile {
	p := RiskProfile{
		Vulnerabilities: []Vulnerability{},
		Dependencies:    []Dependency{},
		Opportunities:   []Opportunity{},
	}
	if len(ranked) == 0 {
		p.Summary.HighestSeverity = SeverityNone
		return p
	}
	winner := ranked[0]
	p.Winner = winner.Option.Name
	p.Vulnerabilities = vulnerabilities(winner.ScoredResult)
	p.Dependencies = dependencies(winner.ScoredResult)
	p.Opportunities = opportunities(winner.ScoredResult, ranked[1:])
	p.Summary = summarize(p)
	return p
}

func vulnerabilities(winner scoring.ScoredResult) []Vulnerability {
	out := []Vulnerability{}
	for _, c := range winner.Breakdown {
		gap := math.Max(0, satisfactoryRating-c.Rating) / satisfactoryRating
		risk := gap * c.Weight / 100
		if risk <= vulnerabilityRiskFloor && !(c.Rating <= weakRating && c.Weight >= weakRatingWeight) {
			continue
		}
		out = append(out, Vulnerability{
			CriterionID:    c.CriterionID,
			Criterion:      c.Criterion,
			Rating:         c.Rating,
			Weight:         c.Weight,
			PerformanceGap: gap,
			RiskScore:      risk,
			Severity:       vulnerabilitySeverity(risk, c.Rating, c.Weight),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	return out
}

func vulnerabilitySeverity(risk, rating, weight float64) Severity {
	switch {
	case risk > 0.25 || (rating <= 1.5 && weight >= 25):
		return SeverityCritical
	case risk > 0.15 || (rating <= 2 && weight >= 20):
		return SeverityHigh
	case risk > 0.08:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

func dependencies(winner scoring.ScoredResult) []Dependency {
	out := []Dependency{}
	for _, c := range winner.Breakdown {
		if c.Weight >= concentrationWeight {
			sev := SeverityModerate
			if c.Weight >= highConcentrationWeight {
				sev = SeverityHigh
			}
			out = append(out, Dependency{
				CriterionID: c.CriterionID,
				Criterion:   c.Criterion,
				Kind:        DependencyConcentration,
				Weight:      c.Weight,
				Rating:      c.Rating,
				Severity:    sev,
			})
		}
		if c.Weight >= dependencyWeight && c.Rating < dependencyRating {
			sev := SeverityModerate
			if c.Rating < weakDependencyRating {
				sev = SeverityHigh
			}
			out = append(out, Dependency{
				CriterionID: c.CriterionID,
				Criterion:   c.Criterion,
				Kind:        DependencyCritical,
				Weight:      c.Weight,
				Rating:      c.Rating,
				Severity:    sev,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

func opportunities(winner scoring.ScoredResult, alternatives []scoring.RankedResult) []Opportunity {
	out := []Opportunity{}
	if len(alternatives) == 0 {
		return out
	}
	for _, c := range winner.Breakdown {
		best := alternatives[0]
		bestRating := best.RatingFor(c.CriterionID)
		for _, alt := range alternatives[1:] {
			if r := alt.RatingFor(c.CriterionID); r > bestRating {
				best, bestRating = alt, r
			}
		}
		gap := bestRating - c.Rating
		cost := gap / 5 * (c.Weight / 100) * 100
		if gap < opportunityMinGap || c.Weight < opportunityMinWeight || cost < opportunityMinCost {
			continue
		}
		sev := SeverityLow
		switch {
		case cost >= opportunityHighCost:
			sev = SeverityHigh
		case cost >= opportunityModCost:
			sev = SeverityModerate
		}
		out = append(out, Opportunity{
			CriterionID:   c.CriterionID,
			Criterion:     c.Criterion,
			AlternativeID: best.Option.ID,
			Alternative:   best.Option.Name,
			WinnerRating:  c.Rating,
			AltRating:     bestRating,
			Weight:        c.Weight,
			Cost:          cost,
			Severity:      sev,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost > out[j].Cost })
	if len(out) > maxOpportunities {
		out = out[:maxOpportunities]
	}
	return out
}

func summarize(p RiskProfile) RiskSummary {
	s := RiskSummary{
		VulnerabilityCount: len(p.Vulnerabilities),
		DependencyCount:    len(p.Dependencies),
		OpportunityCount:   len(p.Opportunities),
		HighestSeverity:    SeverityNone,
	}
	s.TotalRisks = s.VulnerabilityCount + s.DependencyCount + s.OpportunityCount

	consider := func(c Concern) {
		if c.Severity.Outranks(s.HighestSeverity) {
			s.HighestSeverity = c.Severity
			cc := c
			s.PrimaryConcern = &cc
		}
	}
	for _, v := range p.Vulnerabilities {
		consider(Concern{
			Source:      "vulnerability",
			CriterionID: v.CriterionID,
			Criterion:   v.Criterion,
			Severity:    v.Severity,
			Description: fmt.Sprintf("%s rates %.1f on %s, which carries %.0f%% of the weight", p.Winner, v.Rating, v.Criterion, v.Weight),
		})
	}
	for _, d := range p.Dependencies {
		desc := fmt.Sprintf("%s alone carries %.0f%% of the weight", d.Criterion, d.Weight)
		if d.Kind == DependencyCritical {
			desc = fmt.Sprintf("the decision depends on %s (%.0f%% weight) where %s rates only %.1f", d.Criterion, d.Weight, p.Winner, d.Rating)
		}
		consider(Concern{
			Source:      "dependency",
			CriterionID: d.CriterionID,
			Criterion:   d.Criterion,
			Severity:    d.Severity,
			Description: desc,
		})
	}
	for _, o := range p.Opportunities {
		consider(Concern{
			Source:      "opportunity",
			CriterionID: o.CriterionID,
			Criterion:   o.Criterion,
			Severity:    o.Severity,
			Description: fmt.Sprintf("%s rates %.1f on %s against %.1f for %s", o.Alternative, o.AltRating, o.Criterion, o.WinnerRating, p.Winner),
		})
	}
	return s
}
