package pattern

// Type classifies a detected conversation pattern.
type Type string

const (
	TypeTemporal Type = "temporal"
	TypeProblem  Type = "problem"
	TypeGoal     Type = "goal"
	TypeWorkflow Type = "workflow"
)

// Pattern is one detected recurrence in a user's conversation window.
// Keyword holds the matched keyword, goal excerpt or stringified
// workflow sequence depending on Type. Confidence is always
// min(Frequency/threshold, 1.0) for the type's threshold, so it can be
// recomputed from the count alone.
type Pattern struct {
	Type       Type    `json:"type"`
	Keyword    string  `json:"keyword"`
	Frequency  int     `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// confidence applies the shared count-to-confidence rule.
func confidence(count, threshold int) float64 {
	c := float64(count) / float64(threshold)
	if c > 1 {
		return 1
	}
	return c
}

// temporalKeywords is the fixed day / time-of-day / frequency-adverb list.
var temporalKeywords = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"morning", "afternoon", "evening", "tonight",
	"every day", "daily", "weekly", "every week",
	"always", "usually", "often",
}

// problemIndicators mark a message as describing a problem.
var problemIndicators = []string{
	"i need", "i can't", "i cant", "help me", "struggling with",
	"how do i", "i keep", "problem with",
}

// goalLeadIns are the fixed goal phrases. An excerpt of up to 100
// characters starting at the phrase is the pattern key.
var goalLeadIns = []string{
	"i want to", "i wish", "i hope to", "my goal",
	"i plan to", "i'd like to", "i dream of",
}

// actionVerbs mark a message as a workflow step.
var actionVerbs = []string{"add", "create", "send", "call", "schedule", "track"}

// stopwords are excluded from token extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "have": true, "you": true, "but": true, "not": true,
	"are": true, "was": true, "what": true, "can": true, "need": true,
	"help": true, "about": true, "just": true, "like": true, "get": true,
	"all": true, "out": true, "its": true, "your": true, "from": true,
}

const (
	// conversationWindowDefault bounds how many recent conversations are scanned.
	conversationWindowDefault = 50

	// goalExcerptLen is how much text after a goal lead-in identifies the goal.
	goalExcerptLen = 100

	problemTopN     = 10
	problemMinCount = 3
	goalTopN        = 5
	goalMinCount    = 2
	workflowTopN    = 5
	workflowMin     = 2

	temporalThreshold = 5
	problemThreshold  = 5
	goalThreshold     = 3
	workflowThreshold = 5
)
