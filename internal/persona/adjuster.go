package persona

import (
	"github.com/austinbrady/Assist-sub001/internal/behavior"
)

// traitOverride names the dials a concern sets outright. Nil fields are
// left untouched.
type traitOverride struct {
	kindness       *float64
	directness     *float64
	encouragement  *float64
	accountability *float64
	supportiveness *float64
	wisdomFocus    *float64
}

func f(v float64) *float64 { return &v }

// concernOverrides maps concern type and severity to a full overwrite of
// the named dials. When several concerns are present they are applied in
// the analyzer's emission order and later concerns overwrite earlier
// ones (last wins). That resolution is deliberate and pinned by tests;
// see DESIGN.md.
var concernOverrides = map[string]map[string]traitOverride{
	"substance_abuse": {
		behavior.SeverityHigh: {
			kindness:       f(0.3),
			directness:     f(0.9),
			accountability: f(0.9),
			encouragement:  f(0.4),
		},
		behavior.SeverityMedium: {
			kindness:       f(0.5),
			directness:     f(0.7),
			accountability: f(0.7),
		},
	},
	"relationship_issues": {
		behavior.SeverityHigh: {
			supportiveness: f(0.9),
			wisdomFocus:    f(0.7),
			directness:     f(0.6),
		},
		behavior.SeverityMedium: {
			supportiveness: f(0.9),
			wisdomFocus:    f(0.7),
		},
	},
	"loneliness": {
		behavior.SeverityHigh: {
			kindness:       f(0.9),
			supportiveness: f(0.9),
			encouragement:  f(0.8),
		},
		behavior.SeverityMedium: {
			kindness:       f(0.8),
			supportiveness: f(0.9),
			encouragement:  f(0.7),
		},
	},
	"work_stress": {
		behavior.SeverityHigh: {
			supportiveness: f(0.9),
			encouragement:  f(0.7),
			directness:     f(0.4),
		},
		behavior.SeverityMedium: {
			supportiveness: f(0.8),
			encouragement:  f(0.7),
		},
	},
	"financial_stress": {
		behavior.SeverityHigh: {
			accountability: f(0.8),
			directness:     f(0.7),
			wisdomFocus:    f(0.6),
		},
		behavior.SeverityMedium: {
			accountability: f(0.7),
			directness:     f(0.6),
		},
	},
	"irregular_sleep": {
		behavior.SeverityMedium: {
			accountability: f(0.6),
			directness:     f(0.5),
		},
	},
}

// Adjust derives a trait vector from a behavior analysis. Pure and
// deterministic: baseline, then concern overrides in order, then
// additive strength bonuses, then the medium-risk global adjustment.
// Every step clamps to [0,1].
func Adjust(analysis *behavior.Analysis) Traits {
	traits := Baseline()
	if analysis == nil {
		return traits
	}

	for _, concern := range analysis.Concerns {
		bySeverity, ok := concernOverrides[concern.Type]
		if !ok {
			continue
		}
		ov, ok := bySeverity[concern.Severity]
		if !ok {
			// Unlisted severity falls back to the medium override.
			ov, ok = bySeverity[behavior.SeverityMedium]
			if !ok {
				continue
			}
		}
		ov.apply(&traits)
		traits.clamp()
	}

	for _, strength := range analysis.Strengths {
		switch strength {
		case "spiritual_growth":
			traits.WisdomFocus += 0.2
			traits.Encouragement += 0.1
		case "grateful_heart":
			traits.Kindness += 0.1
			traits.Encouragement += 0.1
		case "goal_oriented":
			traits.Accountability += 0.1
		}
		traits.clamp()
	}

	// Global firmness bump at medium risk. High risk is already encoded
	// by the high-severity concern overrides themselves.
	if analysis.RiskLevel == behavior.SeverityMedium {
		traits.Directness += 0.2
		traits.Accountability += 0.2
		traits.Kindness -= 0.1
		traits.clamp()
	}

	return traits
}

func (o traitOverride) apply(t *Traits) {
	if o.kindness != nil {
		t.Kindness = *o.kindness
	}
	if o.directness != nil {
		t.Directness = *o.directness
	}
	if o.encouragement != nil {
		t.Encouragement = *o.encouragement
	}
	if o.accountability != nil {
		t.Accountability = *o.accountability
	}
	if o.supportiveness != nil {
		t.Supportiveness = *o.supportiveness
	}
	if o.wisdomFocus != nil {
		t.WisdomFocus = *o.wisdomFocus
	}
}
