package models

import "time"

// DomainSummary is the importance ranking entry for one sender domain
type DomainSummary struct {
	Domain          string    `json:"domain"`
	Count           int       `json:"count"` // Messages within the sample, not the mailbox
	ImportanceScore float64   `json:"importance_score"`
	LastReceived    time.Time `json:"last_received"`
}

// DomainAnalysis is a ranked list of domains computed over one sample
type DomainAnalysis struct {
	Domains     []DomainSummary `json:"domains"`
	TotalEmails int             `json:"total_emails"` // Sample size
	Sampled     bool            `json:"sampled"`
	AnalyzedAt  time.Time       `json:"analysis_date"`
}
