package persona

import (
	"testing"

	"github.com/austinbrady/Assist-sub001/internal/behavior"
)

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

func TestBaselineForEmptyAnalysis(t *testing.T) {
	traits := Adjust(behavior.Neutral())

	want := Traits{
		Kindness:       0.7,
		Directness:     0.3,
		Encouragement:  0.6,
		Accountability: 0.4,
		Supportiveness: 0.7,
		WisdomFocus:    0.5,
	}
	if traits != want {
		t.Errorf("got %+v, want baseline %+v", traits, want)
	}
}

func TestHighSubstanceAbuseOverride(t *testing.T) {
	analysis := &behavior.Analysis{
		Concerns: []behavior.Concern{
			{Type: "substance_abuse", Severity: behavior.SeverityHigh},
		},
		RiskLevel: behavior.SeverityHigh,
	}
	traits := Adjust(analysis)

	if traits.Kindness != 0.3 {
		t.Errorf("kindness = %v, want 0.3", traits.Kindness)
	}
	if traits.Directness < 0.9 {
		t.Errorf("directness = %v, want >= 0.9", traits.Directness)
	}
	if traits.Accountability < 0.9 {
		t.Errorf("accountability = %v, want >= 0.9", traits.Accountability)
	}
	if traits.Encouragement != 0.4 {
		t.Errorf("encouragement = %v, want 0.4", traits.Encouragement)
	}
}

// Later concerns overwrite the dials earlier concerns set. This pins
// the documented last-wins resolution; changing it to a blend must fail
// here first.
func TestConcernOrderLastWins(t *testing.T) {
	substanceFirst := &behavior.Analysis{
		Concerns: []behavior.Concern{
			{Type: "substance_abuse", Severity: behavior.SeverityHigh},
			{Type: "loneliness", Severity: behavior.SeverityHigh},
		},
		RiskLevel: behavior.SeverityHigh,
	}
	traits := Adjust(substanceFirst)

	// Loneliness (second) overwrote kindness; substance set it to 0.3.
	if traits.Kindness != 0.9 {
		t.Errorf("kindness = %v, want 0.9 (loneliness applied last)", traits.Kindness)
	}
	// Dials loneliness does not touch keep the substance values.
	if traits.Directness != 0.9 {
		t.Errorf("directness = %v, want 0.9 (untouched by loneliness)", traits.Directness)
	}

	reversed := &behavior.Analysis{
		Concerns: []behavior.Concern{
			{Type: "loneliness", Severity: behavior.SeverityHigh},
			{Type: "substance_abuse", Severity: behavior.SeverityHigh},
		},
		RiskLevel: behavior.SeverityHigh,
	}
	rt := Adjust(reversed)
	if rt.Kindness != 0.3 {
		t.Errorf("reversed kindness = %v, want 0.3 (substance applied last)", rt.Kindness)
	}
}

func TestStrengthBonusesAreAdditiveAndClamped(t *testing.T) {
	analysis := &behavior.Analysis{
		Strengths: []string{"spiritual_growth", "grateful_heart"},
		RiskLevel: behavior.SeverityLow,
	}
	traits := Adjust(analysis)

	if !approx(traits.WisdomFocus, 0.7) {
		t.Errorf("wisdom_focus = %v, want 0.7 (0.5 + 0.2)", traits.WisdomFocus)
	}
	if !approx(traits.Kindness, 0.8) {
		t.Errorf("kindness = %v, want 0.8 (0.7 + 0.1)", traits.Kindness)
	}
	if !approx(traits.Encouragement, 0.8) {
		t.Errorf("encouragement = %v, want 0.8 (0.6 + 0.1 + 0.1)", traits.Encouragement)
	}
}

func TestMediumRiskGlobalAdjustment(t *testing.T) {
	analysis := &behavior.Analysis{
		Concerns: []behavior.Concern{
			{Type: "irregular_sleep", Severity: behavior.SeverityMedium},
			{Type: "work_stress", Severity: behavior.SeverityMedium},
			{Type: "financial_stress", Severity: behavior.SeverityMedium},
		},
		RiskLevel: behavior.SeverityMedium,
	}
	traits := Adjust(analysis)

	// financial_stress medium: accountability 0.7, directness 0.6; then
	// the medium-risk bump adds 0.2/0.2 and trims kindness by 0.1.
	if !approx(traits.Directness, 0.8) {
		t.Errorf("directness = %v, want 0.8", traits.Directness)
	}
	if !approx(traits.Accountability, 0.9) {
		t.Errorf("accountability = %v, want 0.9", traits.Accountability)
	}
	if !approx(traits.Kindness, 0.6) {
		t.Errorf("kindness = %v, want 0.6", traits.Kindness)
	}
}

func TestBoundsAfterAnyAdjustmentSequence(t *testing.T) {
	analyses := []*behavior.Analysis{
		nil,
		behavior.Neutral(),
		{
			Concerns: []behavior.Concern{
				{Type: "substance_abuse", Severity: behavior.SeverityHigh},
				{Type: "loneliness", Severity: behavior.SeverityHigh},
				{Type: "relationship_issues", Severity: behavior.SeverityHigh},
				{Type: "work_stress", Severity: behavior.SeverityHigh},
				{Type: "financial_stress", Severity: behavior.SeverityHigh},
			},
			Strengths: []string{"spiritual_growth", "grateful_heart", "goal_oriented"},
			RiskLevel: behavior.SeverityHigh,
		},
		{
			Strengths: []string{"spiritual_growth", "spiritual_growth", "grateful_heart"},
			RiskLevel: behavior.SeverityMedium,
		},
	}

	for i, analysis := range analyses {
		traits := Adjust(analysis)
		if !traits.InBounds() {
			t.Errorf("case %d: traits out of bounds: %+v", i, traits)
		}
	}
}

func TestAdjustIsDeterministic(t *testing.T) {
	analysis := &behavior.Analysis{
		Concerns: []behavior.Concern{
			{Type: "work_stress", Severity: behavior.SeverityMedium},
			{Type: "loneliness", Severity: behavior.SeverityMedium},
		},
		Strengths: []string{"grateful_heart"},
		RiskLevel: behavior.SeverityLow,
	}
	first := Adjust(analysis)
	for i := 0; i < 10; i++ {
		if again := Adjust(analysis); again != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}
