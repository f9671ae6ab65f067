package parser

import (
	"regexp"
	"strings"

	"github.com/mixelka/inboxlens/pkg/models"
)

// Signals are the parts of a message the priority classifier looks at
type Signals struct {
	XPriority  string
	Importance string
	Subject    string
	Body       string
	// HeadersOnly is set for metadata fetches; content rules then read the subject
	HeadersOnly bool
}

// PriorityClassifier assigns a priority from headers and content keywords
type PriorityClassifier struct {
	rules []*priorityRule
}

type priorityRule struct {
	Priority models.Priority
	Match    func(s Signals) bool
}

// NewPriorityClassifier creates a classifier with the default rule set.
// Rules are evaluated in order and the first match wins.
func NewPriorityClassifier() *PriorityClassifier {
	urgentSubject := regexp.MustCompile(`(?i)urgent`)
	pressing := regexp.MustCompile(`(?i)urgent|asap|immediately|critical`)
	bulk := regexp.MustCompile(`(?i)newsletter|unsubscribe|promotion`)

	return &PriorityClassifier{
		rules: []*priorityRule{
			// Explicit priority headers
			{
				Priority: models.PriorityHigh,
				Match: func(s Signals) bool {
					xp := strings.TrimSpace(s.XPriority)
					return strings.HasPrefix(xp, "1") || strings.HasPrefix(xp, "2") ||
						strings.EqualFold(strings.TrimSpace(s.Importance), "high")
				},
			},
			{
				Priority: models.PriorityUrgent,
				Match:    func(s Signals) bool { return urgentSubject.MatchString(s.Subject) },
			},
			// Pressing language in the body; metadata fetches have no body to inspect
			{
				Priority: models.PriorityHigh,
				Match:    func(s Signals) bool { return !s.HeadersOnly && pressing.MatchString(s.Body) },
			},
			// Bulk mail
			{
				Priority: models.PriorityLow,
				Match:    func(s Signals) bool { return bulk.MatchString(s.content()) },
			},
		},
	}
}

// Classify returns the priority of the first matching rule, or medium
func (c *PriorityClassifier) Classify(s Signals) models.Priority {
	for _, rule := range c.rules {
		if rule.Match(s) {
			return rule.Priority
		}
	}
	return models.PriorityMedium
}

func (s Signals) content() string {
	if s.HeadersOnly {
		return s.Subject
	}
	return s.Body
}
