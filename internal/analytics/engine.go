// Package analytics ranks sender domains by importance over a sample of messages.
//
// The score of a domain combines three factors, each in [0,1]:
//
//	frequency = count / sample size
//	priority  = mean priority weight of the domain's messages
//	recency   = max(0, 1 - whole days since the newest message / decay window)
//
// and importance = min(1, wf*frequency + wp*priority + wr*recency), rounded to
// three decimals.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/mixelka/inboxlens/pkg/models"
)

// Weights are the tunable constants of the importance formula
type Weights struct {
	Frequency   float64
	Priority    float64
	Recency     float64
	DecayWindow time.Duration
	Levels      map[models.Priority]float64
}

// DefaultWeights returns the standard scoring constants
func DefaultWeights() Weights {
	return Weights{
		Frequency:   0.4,
		Priority:    0.4,
		Recency:     0.2,
		DecayWindow: 30 * 24 * time.Hour,
		Levels: map[models.Priority]float64{
			models.PriorityLow:    0.25,
			models.PriorityMedium: 0.5,
			models.PriorityHigh:   0.75,
			models.PriorityUrgent: 1.0,
		},
	}
}

// Engine computes domain rankings
type Engine struct {
	weights Weights
	now     func() time.Time
}

// NewEngine creates an engine with the given weights
func NewEngine(w Weights) *Engine {
	return &Engine{
		weights: w,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PriorityWeight maps a priority to its numeric weight; unknown values weigh as medium
func (e *Engine) PriorityWeight(p models.Priority) float64 {
	if w, ok := e.weights.Levels[p]; ok {
		return w
	}
	return e.weights.Levels[models.PriorityMedium]
}

// Recency returns the decay factor for a message received at last
func (e *Engine) Recency(last time.Time) float64 {
	days := math.Floor(e.now().Sub(last.UTC()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	window := e.weights.DecayWindow.Hours() / 24
	return math.Max(0, 1-days/window)
}

// Rank groups messages by domain and returns them ordered by importance
func (e *Engine) Rank(emails []models.EmailMessage) []models.DomainSummary {
	if len(emails) == 0 {
		return []models.DomainSummary{}
	}

	total := float64(len(emails))
	groups := lo.GroupBy(emails, func(m models.EmailMessage) string { return m.Domain })

	domains := make([]models.DomainSummary, 0, len(groups))
	for domain, msgs := range groups {
		count := float64(len(msgs))
		weightSum := lo.SumBy(msgs, func(m models.EmailMessage) float64 { return e.PriorityWeight(m.Priority) })
		last := lo.MaxBy(msgs, func(a, b models.EmailMessage) bool { return a.ReceivedAt.After(b.ReceivedAt) }).ReceivedAt

		frequency := count / total
		avgPriority := weightSum / count
		score := e.weights.Frequency*frequency + e.weights.Priority*avgPriority + e.weights.Recency*e.Recency(last)

		domains = append(domains, models.DomainSummary{
			Domain:          domain,
			Count:           len(msgs),
			ImportanceScore: round3(math.Min(1, score)),
			LastReceived:    last.UTC(),
		})
	}

	sort.Slice(domains, func(i, j int) bool {
		a, b := domains[i], domains[j]
		if a.ImportanceScore != b.ImportanceScore {
			return a.ImportanceScore > b.ImportanceScore
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})

	return domains
}

// Analyze ranks a sample and wraps it with sample metadata
func (e *Engine) Analyze(emails []models.EmailMessage) models.DomainAnalysis {
	return models.DomainAnalysis{
		Domains:     e.Rank(emails),
		TotalEmails: len(emails),
		Sampled:     true,
		AnalyzedAt:  e.now(),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
