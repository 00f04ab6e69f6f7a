package behavior

// Severity tiers for a detected concern.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Concern is one detected area of concern.
type Concern struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Analysis is the full behavioral picture derived from a user's
// conversation history. It is recomputed from scratch on every request.
type Analysis struct {
	Concerns     []Concern `json:"concerns"`
	Strengths    []string  `json:"strengths"`
	RiskLevel    string    `json:"risk_level"`
	AreasOfFocus []string  `json:"areas_of_focus"`
}

// HasConcern reports whether a concern of the given type is present.
func (a *Analysis) HasConcern(concernType string) bool {
	for _, c := range a.Concerns {
		if c.Type == concernType {
			return true
		}
	}
	return false
}

// HasStrength reports whether the given strength was detected.
func (a *Analysis) HasStrength(name string) bool {
	for _, s := range a.Strengths {
		if s == name {
			return true
		}
	}
	return false
}

// Neutral is the analysis used when no history exists or when the
// analyzer fails: no concerns, low risk.
func Neutral() *Analysis {
	return &Analysis{RiskLevel: SeverityLow}
}

// concernCategory defines one keyword-counted concern. Categories are
// evaluated in slice order; that order is part of the contract because
// downstream trait overrides apply last-wins.
type concernCategory struct {
	concernType    string
	keywords       []string
	threshold      int // count must exceed this to emit a concern
	highThreshold  int // count above this escalates severity to high
	description    string
	recommendation string
	focus          string
}

var concernCategories = []concernCategory{
	{
		concernType:    "substance_abuse",
		keywords:       []string{"drunk", "drinking", "hangover", "wine", "beer", "whiskey", "alcohol"},
		threshold:      5,
		highThreshold:  10,
		description:    "Frequent references to drinking",
		recommendation: "Gently steer toward healthier coping habits",
		focus:          "substance use",
	},
	{
		concernType:    "relationship_issues",
		keywords:       []string{"breakup", "divorce", "argument", "we fought", "not speaking", "my ex"},
		threshold:      4,
		highThreshold:  8,
		description:    "Recurring relationship conflict",
		recommendation: "Encourage honest, calm communication",
		focus:          "relationships",
	},
	{
		concernType:    "loneliness",
		keywords:       []string{"lonely", "all alone", "no friends", "isolated", "nobody to talk"},
		threshold:      3,
		highThreshold:  7,
		description:    "Signs of isolation",
		recommendation: "Suggest reaching out to one person this week",
		focus:          "connection",
	},
	{
		concernType:    "work_stress",
		keywords:       []string{"overwhelmed", "burnout", "burned out", "too much work", "overtime", "stressed"},
		threshold:      5,
		highThreshold:  10,
		description:    "Sustained work pressure",
		recommendation: "Encourage boundaries and rest",
		focus:          "work-life balance",
	},
	{
		concernType:    "financial_stress",
		keywords:       []string{"can't afford", "broke", "debt", "overdraft", "behind on", "paycheck to paycheck"},
		threshold:      3,
		highThreshold:  6,
		description:    "Money worries keep coming up",
		recommendation: "Offer to help track bills and budget",
		focus:          "finances",
	},
}

// strengthCategory defines one keyword-counted strength.
type strengthCategory struct {
	name      string
	keywords  []string
	threshold int
}

var strengthCategories = []strengthCategory{
	{
		name:      "spiritual_growth",
		keywords:  []string{"pray", "meditate", "church", "scripture", "faith"},
		threshold: 3,
	},
	{
		name:      "goal_oriented",
		keywords:  []string{"my goal", "plan to", "working toward", "milestone"},
		threshold: 3,
	},
	{
		name:      "grateful_heart",
		keywords:  []string{"thankful", "grateful", "appreciate", "blessed"},
		threshold: 3,
	},
}
