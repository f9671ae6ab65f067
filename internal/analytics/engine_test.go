package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/inboxlens/pkg/models"
)

var fixedNow = time.Date(2025, 9, 21, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := NewEngine(DefaultWeights())
	e.now = func() time.Time { return fixedNow }
	return e
}

func msg(domain string, p models.Priority, at time.Time) models.EmailMessage {
	return models.EmailMessage{Sender: "x@" + domain, Domain: domain, Priority: p, ReceivedAt: at}
}

func TestPriorityWeightsExhaustive(t *testing.T) {
	e := newTestEngine()
	for _, p := range models.Priorities {
		w, ok := DefaultWeights().Levels[p]
		require.True(t, ok, p)
		assert.Equal(t, w, e.PriorityWeight(p))
		assert.LessOrEqual(t, w, 1.0)
	}
	assert.Equal(t, 0.5, e.PriorityWeight("bogus"))
}

func TestRecency(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, 1.0, e.Recency(fixedNow))
	assert.Equal(t, 1.0, e.Recency(fixedNow.Add(-23*time.Hour)))
	assert.Equal(t, 0.0, e.Recency(fixedNow.Add(-30*24*time.Hour)))
	assert.Equal(t, 0.0, e.Recency(fixedNow.Add(-45*24*time.Hour)))
	assert.InDelta(t, 0.5, e.Recency(fixedNow.Add(-15*24*time.Hour)), 1e-9)
	assert.Equal(t, 1.0, e.Recency(fixedNow.Add(time.Hour)))
}

func TestRankFrequentRecentDomainFirst(t *testing.T) {
	e := newTestEngine()

	var emails []models.EmailMessage
	for i := 0; i < 7; i++ {
		emails = append(emails, msg("a.com", models.PriorityMedium, fixedNow))
	}
	old := fixedNow.Add(-40 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		emails = append(emails, msg("b.com", models.PriorityLow, old))
	}

	ranked := e.Rank(emails)
	require.Len(t, ranked, 2)

	assert.Equal(t, "a.com", ranked[0].Domain)
	assert.Equal(t, 7, ranked[0].Count)
	// 0.4*0.7 + 0.4*0.5 + 0.2*1.0
	assert.Equal(t, 0.68, ranked[0].ImportanceScore)

	assert.Equal(t, "b.com", ranked[1].Domain)
	assert.Equal(t, 3, ranked[1].Count)
	// 0.4*0.3 + 0.4*0.25 + 0
	assert.Equal(t, 0.22, ranked[1].ImportanceScore)
	assert.True(t, ranked[1].LastReceived.Equal(old))
}

func TestRankLastReceivedIsNewest(t *testing.T) {
	e := newTestEngine()
	newest := fixedNow.Add(-time.Hour)
	ranked := e.Rank([]models.EmailMessage{
		msg("a.com", models.PriorityMedium, fixedNow.Add(-72*time.Hour)),
		msg("a.com", models.PriorityMedium, newest),
		msg("a.com", models.PriorityMedium, fixedNow.Add(-48*time.Hour)),
	})
	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].LastReceived.Equal(newest))
}

func TestRankScoreBounds(t *testing.T) {
	e := newTestEngine()

	all := []models.EmailMessage{}
	for i := 0; i < 20; i++ {
		all = append(all, msg("only.com", models.PriorityUrgent, fixedNow))
	}
	ranked := e.Rank(all)
	require.Len(t, ranked, 1)
	assert.Equal(t, 1.0, ranked[0].ImportanceScore)

	for i := 0; i < 50; i++ {
		d := fmt.Sprintf("d%d.com", i%7)
		p := models.Priorities[i%len(models.Priorities)]
		all = append(all, msg(d, p, fixedNow.Add(-time.Duration(i)*24*time.Hour)))
	}
	for _, d := range e.Rank(all) {
		assert.GreaterOrEqual(t, d.ImportanceScore, 0.0)
		assert.LessOrEqual(t, d.ImportanceScore, 1.0)
	}
}

func TestRankMonotonicInCount(t *testing.T) {
	e := newTestEngine()
	old := fixedNow.Add(-10 * 24 * time.Hour)

	// The sample size is held fixed at 20 while a.com's share grows
	prev := -1.0
	for n := 1; n <= 10; n++ {
		var emails []models.EmailMessage
		for i := 0; i < n; i++ {
			emails = append(emails, msg("a.com", models.PriorityHigh, old))
		}
		for len(emails) < 20 {
			emails = append(emails, msg("filler.com", models.PriorityHigh, old))
		}

		for _, d := range e.Rank(emails) {
			if d.Domain == "a.com" {
				assert.GreaterOrEqual(t, d.ImportanceScore, prev)
				prev = d.ImportanceScore
			}
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	e := newTestEngine()
	emails := []models.EmailMessage{
		msg("zeta.com", models.PriorityMedium, fixedNow),
		msg("alpha.com", models.PriorityMedium, fixedNow),
	}
	ranked := e.Rank(emails)
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].ImportanceScore, ranked[1].ImportanceScore)
	assert.Equal(t, "alpha.com", ranked[0].Domain)
	assert.Equal(t, "zeta.com", ranked[1].Domain)
}

func TestRankEmpty(t *testing.T) {
	ranked := newTestEngine().Rank(nil)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestAnalyze(t *testing.T) {
	e := newTestEngine()
	a := e.Analyze([]models.EmailMessage{msg("a.com", models.PriorityLow, fixedNow)})
	assert.Equal(t, 1, a.TotalEmails)
	assert.True(t, a.Sampled)
	assert.Equal(t, fixedNow, a.AnalyzedAt)
	assert.Len(t, a.Domains, 1)
}
