package analytics

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

var (
	looseAddrRegex = regexp.MustCompile(`[^\s<>"'@,;]+@([A-Za-z0-9][A-Za-z0-9.-]*)`)
	domainRegex    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
)

// ExtractDomain returns the lower-cased domain of a sender header value,
// or models.UnknownDomain when no address can be found
func ExtractDomain(sender string) string {
	domain, err := MustExtractDomain(sender)
	if err != nil {
		return models.UnknownDomain
	}
	return domain
}

// MustExtractDomain is ExtractDomain for callers that need a real domain
func MustExtractDomain(sender string) (string, error) {
	addr := parseAddress(sender)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "", fmt.Errorf("%w: no address in %q", apperr.ErrInvalidDomain, sender)
	}
	return strings.ToLower(strings.TrimRight(addr[at+1:], ".")), nil
}

// NormalizeDomain validates a user-supplied domain and lower-cases it
func NormalizeDomain(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "@")
	if !domainRegex.MatchString(d) {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidDomain, domain)
	}
	return d, nil
}

// parseAddress returns the bare address from a header value, falling back
// to a lenient scan when the value is not RFC 5322 compliant
func parseAddress(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return ""
	}
	if a, err := mail.ParseAddress(sender); err == nil {
		return a.Address
	}
	if m := looseAddrRegex.FindString(sender); m != "" {
		return m
	}
	return ""
}
