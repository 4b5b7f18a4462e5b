// Package policy holds the tunable rule tables of the RFV engine: segment
// assignment, churn risk bands, and the classifier's deviation thresholds.
// The tables ship with seeded defaults and can be replaced wholesale from a
// YAML file without touching the algorithm.
package policy

import (
	"fmt"
	"os"

	"rfv_copilot_backend/internal/rfv/domain"

	"gopkg.in/yaml.v3"
)

// SegmentRule is one row of the segment assignment table. All set constraints
// must hold for the rule to match; rules are evaluated top to bottom and the
// first match wins.
type SegmentRule struct {
	Segment        domain.Segment `yaml:"segment"`
	MinR           int            `yaml:"minR,omitempty"`
	MaxR           int            `yaml:"maxR,omitempty"`
	MinF           int            `yaml:"minF,omitempty"`
	MaxF           int            `yaml:"maxF,omitempty"`
	MinV           int            `yaml:"minV,omitempty"`
	MaxV           int            `yaml:"maxV,omitempty"`
	ExactFrequency int            `yaml:"exactFrequency,omitempty"`
}

// ChurnBands maps cycle deviation and recency onto churn risk.
type ChurnBands struct {
	// HighDeviationPct and above is high risk.
	HighDeviationPct float64 `yaml:"highDeviationPct"`
	// MediumDeviationPct and above is medium risk.
	MediumDeviationPct float64 `yaml:"mediumDeviationPct"`
	// HighRecencyDays marks customers without a cycle as high risk once
	// their last purchase is at least this old.
	HighRecencyDays int `yaml:"highRecencyDays"`
	// MediumRecencyDays is the same for medium risk.
	MediumRecencyDays int `yaml:"mediumRecencyDays"`
}

// DeviationBands holds the classifier's cycle-deviation thresholds, in
// percent of the customer's individual cycle.
type DeviationBands struct {
	PreventiveMinPct   float64 `yaml:"preventiveMinPct"`
	ReactivationMinPct float64 `yaml:"reactivationMinPct"`
	EscalationMinPct   float64 `yaml:"escalationMinPct"`
}

// Policy is the full tunable rule table of the engine.
type Policy struct {
	// ScoreBins is the number of ordinal bins for R/F/V scores (quintiles
	// by default). Bin edges are computed over the live customer base.
	ScoreBins int            `yaml:"scoreBins"`
	Segments  []SegmentRule  `yaml:"segments"`
	Churn     ChurnBands     `yaml:"churn"`
	Deviation DeviationBands `yaml:"deviation"`
}

// Default returns the seeded policy table. The exact quintile boundaries of
// the original system are not observable; these defaults follow the segment
// descriptions and are expected to be tuned per operation.
func Default() Policy {
	return Policy{
		ScoreBins: 5,
		Segments: []SegmentRule{
			// One purchase, recent: a fresh customer, not yet loyal.
			{Segment: domain.SegmentNovo, ExactFrequency: 1, MinR: 4},
			// Top tier across the board.
			{Segment: domain.SegmentCampeao, MinR: 4, MinF: 4, MinV: 4},
			// High frequency carries loyalty regardless of the rest.
			{Segment: domain.SegmentFiel, MinF: 4},
			// Recent but still few orders.
			{Segment: domain.SegmentPromissor, MinR: 4, MaxF: 3},
			// Previously frequent, now aging.
			{Segment: domain.SegmentAtencao, MinF: 3, MaxR: 3},
			// Long unseen with meaningful history.
			{Segment: domain.SegmentRisco, MaxR: 2, MinF: 2},
			// Long unseen, thin history.
			{Segment: domain.SegmentHibernando, MaxR: 2},
		},
		Churn: ChurnBands{
			HighDeviationPct:   130,
			MediumDeviationPct: 100,
			HighRecencyDays:    180,
			MediumRecencyDays:  90,
		},
		Deviation: DeviationBands{
			PreventiveMinPct:   70,
			ReactivationMinPct: 100,
			EscalationMinPct:   130,
		},
	}
}

// Load reads a policy table from a YAML file. An empty path returns the
// default table.
func Load(path string) (Policy, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the table for contradictions that would break the engine.
func (p Policy) Validate() error {
	if p.ScoreBins < 2 || p.ScoreBins > 10 {
		return fmt.Errorf("scoreBins must be between 2 and 10, got %d", p.ScoreBins)
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("segment rule table is empty")
	}
	if p.Deviation.PreventiveMinPct <= 0 ||
		p.Deviation.ReactivationMinPct <= p.Deviation.PreventiveMinPct ||
		p.Deviation.EscalationMinPct < p.Deviation.ReactivationMinPct {
		return fmt.Errorf("deviation bands must be ordered: 0 < preventive < reactivation <= escalation")
	}
	return nil
}

// matches reports whether the rule applies to the given scores and frequency.
func (r SegmentRule) matches(rScore, fScore, vScore, frequency int) bool {
	if r.ExactFrequency > 0 && frequency != r.ExactFrequency {
		return false
	}
	if r.MinR > 0 && rScore < r.MinR {
		return false
	}
	if r.MaxR > 0 && rScore > r.MaxR {
		return false
	}
	if r.MinF > 0 && fScore < r.MinF {
		return false
	}
	if r.MaxF > 0 && fScore > r.MaxF {
		return false
	}
	if r.MinV > 0 && vScore < r.MinV {
		return false
	}
	if r.MaxV > 0 && vScore > r.MaxV {
		return false
	}
	return true
}

// SegmentFor assigns a segment from the rule table. Customers matching no
// rule land in atencao: unclassified history deserves a look, not silence.
func (p Policy) SegmentFor(rScore, fScore, vScore, frequency int) domain.Segment {
	for _, rule := range p.Segments {
		if rule.matches(rScore, fScore, vScore, frequency) {
			return rule.Segment
		}
	}
	return domain.SegmentAtencao
}

// ChurnRiskFor bands a customer's churn risk. Customers without a defined
// cycle fall back to recency-based bands.
func (p Policy) ChurnRiskFor(deviation *float64, recencyDays int) domain.ChurnRisk {
	if deviation != nil {
		switch {
		case *deviation >= p.Churn.HighDeviationPct:
			return domain.ChurnRiskHigh
		case *deviation >= p.Churn.MediumDeviationPct:
			return domain.ChurnRiskMedium
		default:
			return domain.ChurnRiskLow
		}
	}

	switch {
	case recencyDays >= p.Churn.HighRecencyDays:
		return domain.ChurnRiskHigh
	case recencyDays >= p.Churn.MediumRecencyDays:
		return domain.ChurnRiskMedium
	default:
		return domain.ChurnRiskLow
	}
}
