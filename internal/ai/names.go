package ai

import (
	"context"
	"strings"
	"unicode"

	"github.com/emersion/go-message/mail"

	"github.com/mixelka/inboxlens/pkg/models"
)

// FallbackReplySender signs replies when the account name is unknown
const FallbackReplySender = "User"

// ProfileSource returns the authenticated account, if any
type ProfileSource interface {
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// Role mailboxes get "<Company> <Team>" instead of a personal name
var roleMailboxes = map[string]string{
	"hi":       "Team",
	"hello":    "Team",
	"info":     "Team",
	"support":  "Support Team",
	"noreply":  "Team",
	"no-reply": "Team",
	"admin":    "Admin Team",
	"contact":  "Team",
}

// SenderName guesses how to address the sender of an email
func SenderName(sender string) string {
	sender = strings.TrimSpace(sender)
	if addr, err := mail.ParseAddress(sender); err == nil {
		if name := strings.TrimSpace(addr.Name); name != "" {
			return name
		}
		sender = addr.Address
	} else if i := strings.Index(sender, "<"); i > 0 {
		if name := strings.Trim(strings.TrimSpace(sender[:i]), `"`); name != "" {
			return name
		}
	}

	local, domain, _ := strings.Cut(strings.Trim(sender, "<>"), "@")
	if team, ok := roleMailboxes[strings.ToLower(local)]; ok {
		company, _, _ := strings.Cut(domain, ".")
		company = titleWords(strings.NewReplacer("-", " ", "_", " ").Replace(company))
		return strings.TrimSpace(company + " " + team)
	}

	return nameFromLocalPart(local)
}

// ReplySenderName derives the signature name from the account behind profiles
func ReplySenderName(ctx context.Context, profiles ProfileSource) string {
	if profiles == nil {
		return FallbackReplySender
	}

	profile, err := profiles.Profile(ctx)
	if err != nil || profile == nil || profile.Email == "" {
		return FallbackReplySender
	}

	local, _, _ := strings.Cut(profile.Email, "@")
	if name := nameFromLocalPart(local); name != "" {
		return name
	}
	return FallbackReplySender
}

// nameFromLocalPart turns "john.doe" into "John Doe"
func nameFromLocalPart(local string) string {
	return titleWords(strings.ReplaceAll(local, ".", " "))
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
