// internal/enrich/domainparse/domainparse.go

// Package domainparse derives the lookup identities of an origin: the
// hostname used for address and TLS lookups, and the registrable domain
// (ICANN eTLD+1) used for name-server lookups.
package domainparse

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"originx/internal/core/domain"
)

// ExtractHostname parses an origin URL and returns its lowercased host,
// without scheme, port or trailing dot. Failures carry FailureInvalidURL.
func ExtractHostname(origin string) (string, error) {
	trimmed := strings.TrimSpace(origin)
	if trimmed == "" {
		return "", domain.Failf(domain.FailureInvalidURL, "empty origin")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", domain.NewFailure(domain.FailureInvalidURL, err)
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return "", domain.Failf(domain.FailureInvalidURL, "%s: no host component", origin)
	}

	return host, nil
}

// ExtractDomain returns the registrable domain of hostname: one label plus
// the longest ICANN-managed public suffix. Hostnames under a private-section
// suffix collapse onto the ICANN boundary (s3.amazonaws.com → amazonaws.com).
//
// Two failure shapes, told apart by kind:
//   - FailureInvalidHostname (terminal): no ICANN suffix at all, the name
//     cannot exist in public DNS (www.example.toto, invalid_domain);
//   - FailureDomainExtraction (degrades): the hostname IS a public suffix,
//     so no registrable domain sits above it (co.uk).
func ExtractDomain(hostname string) (string, error) {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if host == "" {
		return "", domain.Failf(domain.FailureInvalidHostname, "empty hostname")
	}

	suffix, ok := icannSuffix(host)
	if !ok {
		return "", domain.Failf(domain.FailureInvalidHostname, "%s: eTLD is not an ICANN suffix", host)
	}
	if host == suffix {
		return "", domain.Failf(domain.FailureDomainExtraction, "%s is itself a public suffix", host)
	}

	// host ends with "."+suffix on a label boundary; keep one label more.
	rest := host[:len(host)-len(suffix)-1]
	label := rest
	if i := strings.LastIndex(rest, "."); i >= 0 {
		label = rest[i+1:]
	}
	if label == "" {
		return "", domain.Failf(domain.FailureDomainExtraction, "%s: empty label before suffix", host)
	}

	return label + "." + suffix, nil
}

// icannSuffix returns the longest ICANN-managed public suffix of host.
// Private-section matches (github.io, s3.amazonaws.com, hosting.ovh.net)
// are peeled label by label until an ICANN rule answers; hosts whose
// trailing label is not a listed TLD return false.
func icannSuffix(host string) (string, bool) {
	candidate := host
	for {
		suffix, icann := publicsuffix.PublicSuffix(candidate)
		if icann {
			return suffix, true
		}
		i := strings.Index(suffix, ".")
		if i < 0 {
			return "", false
		}
		candidate = suffix[i+1:]
	}
}
