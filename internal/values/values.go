package values

import (
	"strings"
	"time"
)

// Topics is the fixed topic taxonomy. Each topic maps to the keywords
// that count as a mention.
var Topics = map[string][]string{
	"birthdays": {"birthday", "bday", "turning", "cake"},
	"payments":  {"payment", "pay", "bill", "invoice", "owe", "rent"},
	"tasks":     {"task", "todo", "to-do", "to do", "chore", "errand"},
	"meetings":  {"meeting", "appointment", "call with", "standup", "sync"},
	"health":    {"doctor", "gym", "workout", "medication", "sleep", "diet"},
	"family":    {"mom", "dad", "sister", "brother", "wife", "husband", "kids"},
	"work":      {"work", "boss", "deadline", "project", "coworker", "office"},
	"hobbies":   {"hobby", "guitar", "paint", "hiking", "game", "read"},
}

// interrogativeLeads mark a message as a question even without "?".
var interrogativeLeads = []string{
	"what", "how", "when", "where", "why", "who",
	"can you", "could you", "should i", "do i", "is there",
}

// lowValueMinInteractions is how much history must exist before an
// absence of mentions is trusted as a low-value signal.
const lowValueMinInteractions = 10

// highValueMinMentions promotes a topic to high value on mentions alone.
const highValueMinMentions = 3

// Engagement tracks per-topic interaction counters.
type Engagement struct {
	Mentions      int       `json:"mentions"`
	Questions     int       `json:"questions"`
	Ignores       int       `json:"ignores"`
	LastMentioned time.Time `json:"last_mentioned"`
}

// System is a user's accumulated value system.
type System struct {
	TopicMentions   map[string]int         `json:"topic_mentions"`
	TopicEngagement map[string]*Engagement `json:"topic_engagement"`
	HighValueTopics map[string]bool        `json:"high_value_topics"`
	LowValueTopics  map[string]bool        `json:"low_value_topics"`
	Interactions    int                    `json:"interactions"`
}

// NewSystem returns an empty value system.
func NewSystem() *System {
	return &System{
		TopicMentions:   make(map[string]int),
		TopicEngagement: make(map[string]*Engagement),
		HighValueTopics: make(map[string]bool),
		LowValueTopics:  make(map[string]bool),
	}
}

// normalize repairs nil maps after a partial JSON load.
func (s *System) normalize() {
	if s.TopicMentions == nil {
		s.TopicMentions = make(map[string]int)
	}
	if s.TopicEngagement == nil {
		s.TopicEngagement = make(map[string]*Engagement)
	}
	if s.HighValueTopics == nil {
		s.HighValueTopics = make(map[string]bool)
	}
	if s.LowValueTopics == nil {
		s.LowValueTopics = make(map[string]bool)
	}
}

// Observe processes one message: topic matches bump mention and
// engagement counters, then every topic is reclassified from the full
// counter state.
func (s *System) Observe(message string, now time.Time) {
	s.normalize()
	s.Interactions++

	lower := strings.ToLower(message)
	question := isQuestion(lower)

	for topic, keywords := range Topics {
		if !matchesAny(lower, keywords) {
			continue
		}
		s.TopicMentions[topic]++
		eng := s.TopicEngagement[topic]
		if eng == nil {
			eng = &Engagement{}
			s.TopicEngagement[topic] = eng
		}
		eng.Mentions++
		if question {
			eng.Questions++
		}
		eng.LastMentioned = now
	}

	s.reclassify()
}

// reclassify rebuilds both value sets from full counter state.
// A topic is never in both sets at once.
func (s *System) reclassify() {
	for topic := range Topics {
		mentions := s.TopicMentions[topic]
		questions := 0
		if eng := s.TopicEngagement[topic]; eng != nil {
			questions = eng.Questions
		}

		switch {
		case mentions >= highValueMinMentions || questions > 0:
			s.HighValueTopics[topic] = true
			delete(s.LowValueTopics, topic)
		case mentions == 0 && s.Interactions > lowValueMinInteractions:
			s.LowValueTopics[topic] = true
			delete(s.HighValueTopics, topic)
		default:
			// Under-evidenced: in neither set.
			delete(s.HighValueTopics, topic)
			delete(s.LowValueTopics, topic)
		}
	}
}

func isQuestion(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	for _, lead := range interrogativeLeads {
		if strings.HasPrefix(lower, lead) {
			return true
		}
	}
	return false
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
