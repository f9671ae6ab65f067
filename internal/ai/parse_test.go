package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mixelka/inboxlens/pkg/models"
)

func TestParseSummary(t *testing.T) {
	content := `SUMMARY: The vendor wants the signed contract by Friday.
KEY POINTS:
- Contract attached
- Deadline is Friday
• Legal has already reviewed it
ACTION REQUIRED: Yes
URGENCY: High
TONE: Formal`

	got := parseSummary(content)

	assert.Equal(t, "The vendor wants the signed contract by Friday.", got.Summary)
	assert.Equal(t, []string{"Contract attached", "Deadline is Friday", "Legal has already reviewed it"}, got.KeyPoints)
	assert.True(t, got.ActionRequired)
	assert.Equal(t, models.PriorityHigh, got.Urgency)
	assert.Equal(t, "formal", got.Tone)
	assert.Empty(t, got.Defaults)
}

func TestParseSummaryNumberedMarkdown(t *testing.T) {
	content := `1. **Summary:** Quarterly numbers are in.
2. **Key points:**
   1. Revenue up 12%
   3. Costs flat
3. **Action required:** No
4. **Urgency:** urgent
5. **Tone:** friendly`

	got := parseSummary(content)

	assert.Equal(t, "Quarterly numbers are in.", got.Summary)
	assert.Equal(t, []string{"Revenue up 12%", "Costs flat"}, got.KeyPoints)
	assert.False(t, got.ActionRequired)
	assert.Equal(t, models.PriorityUrgent, got.Urgency)
	assert.Equal(t, "friendly", got.Tone)
}

func TestParseSummaryDefaults(t *testing.T) {
	got := parseSummary("I could not process this email.")

	assert.Equal(t, DefaultSummary, got.Summary)
	assert.Equal(t, []string{DefaultKeyPoint}, got.KeyPoints)
	assert.False(t, got.ActionRequired)
	assert.Equal(t, models.PriorityMedium, got.Urgency)
	assert.Equal(t, DefaultTone, got.Tone)
	assert.ElementsMatch(t, []string{
		models.FieldSummary,
		models.FieldKeyPoints,
		models.FieldActionRequired,
		models.FieldUrgency,
		models.FieldTone,
	}, got.Defaults)
}

func TestUrgencyFrom(t *testing.T) {
	tests := map[string]models.Priority{
		"Urgent!":              models.PriorityUrgent,
		"high":                 models.PriorityHigh,
		"Low priority":         models.PriorityLow,
		"somewhere in between": models.PriorityMedium,
	}
	for in, want := range tests {
		assert.Equal(t, want, urgencyFrom(in), in)
	}
}
