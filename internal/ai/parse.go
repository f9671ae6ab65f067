package ai

import (
	"strings"

	"github.com/mixelka/inboxlens/pkg/models"
)

// Fallback values for fields missing from the model output
const (
	DefaultSummary  = "Not available"
	DefaultKeyPoint = "No key points identified"
	DefaultTone     = "professional"
)

type section struct {
	label  string
	marker string // numbered-list prefix, e.g. "1."
}

var (
	summarySection   = section{label: "summary", marker: "1."}
	keyPointsSection = section{label: "key points", marker: "2."}
	actionSection    = section{label: "action", marker: "3."}
	urgencySection   = section{label: "urgency", marker: "4."}
	toneSection      = section{label: "tone", marker: "5."}
)

// stopSections end the key points list
var stopSections = []section{actionSection, urgencySection, toneSection}

type parsedSummary struct {
	Summary        string
	KeyPoints      []string
	ActionRequired bool
	Urgency        models.Priority
	Tone           string
	Defaults       []string
}

// parseSummary reads the sectioned model output. It never fails; absent sections take defaults.
func parseSummary(content string) parsedSummary {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var out parsedSummary

	if v, ok := findSection(lines, summarySection); ok && v != "" {
		out.Summary = v
	} else {
		out.Summary = DefaultSummary
		out.Defaults = append(out.Defaults, models.FieldSummary)
	}

	out.KeyPoints = keyPoints(lines)
	if len(out.KeyPoints) == 0 {
		out.KeyPoints = []string{DefaultKeyPoint}
		out.Defaults = append(out.Defaults, models.FieldKeyPoints)
	}

	if v, ok := findSection(lines, actionSection); ok {
		v = strings.ToLower(v)
		out.ActionRequired = strings.Contains(v, "yes") || strings.Contains(v, "required")
	} else {
		out.Defaults = append(out.Defaults, models.FieldActionRequired)
	}

	if v, ok := findSection(lines, urgencySection); ok {
		out.Urgency = urgencyFrom(v)
	} else {
		out.Urgency = models.PriorityMedium
		out.Defaults = append(out.Defaults, models.FieldUrgency)
	}

	if v, ok := findSection(lines, toneSection); ok && v != "" {
		out.Tone = strings.ToLower(v)
	} else {
		out.Tone = DefaultTone
		out.Defaults = append(out.Defaults, models.FieldTone)
	}

	return out
}

// hasLabel reports whether line opens section s by name, e.g. "**Urgency:** high" or "4. Urgency: high"
func (s section) hasLabel(line string) bool {
	l := strings.ToLower(strings.TrimLeft(strings.TrimSpace(line), "#*_ "))
	l = strings.TrimLeft(l, "0123456789")
	l = strings.TrimLeft(l, ".)#*_ ")
	return strings.HasPrefix(l, s.label)
}

// hasMarker reports whether line starts with the section's list number
func (s section) hasMarker(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), s.marker)
}

// findSection returns the value after the colon on the line opening s.
// Labels win over bare list numbers.
func findSection(lines []string, s section) (string, bool) {
	for _, match := range []func(string) bool{s.hasLabel, s.hasMarker} {
		for _, line := range lines {
			if !match(line) {
				continue
			}
			if _, v, ok := strings.Cut(line, ":"); ok {
				return cleanValue(v), true
			}
			return cleanValue(strings.TrimPrefix(strings.TrimSpace(line), s.marker)), true
		}
	}
	return "", false
}

// keyPoints collects list items between the key points header and the next section
func keyPoints(lines []string) []string {
	var points []string
	in := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if !in {
			if keyPointsSection.hasLabel(line) || keyPointsSection.hasMarker(line) {
				in = true
				// Inline points after the header colon
				if _, v, ok := strings.Cut(line, ":"); ok && cleanValue(v) != "" {
					points = append(points, cleanValue(v))
				}
			}
			continue
		}

		if isStop(line) {
			break
		}
		if line == "" {
			continue
		}
		if p := strings.TrimSpace(strings.TrimLeft(line, "•-*0123456789.) ")); p != "" {
			points = append(points, p)
		}
	}

	return points
}

func isStop(line string) bool {
	for _, s := range stopSections {
		if s.hasLabel(line) {
			return true
		}
	}
	return false
}

func urgencyFrom(v string) models.Priority {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "urgent"):
		return models.PriorityUrgent
	case strings.Contains(v, "high"):
		return models.PriorityHigh
	case strings.Contains(v, "low"):
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func cleanValue(v string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(v), "*_"))
}
