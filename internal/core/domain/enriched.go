// internal/core/domain/enriched.go
package domain

import (
	"fmt"
	"sort"
)

// EnrichedRecord is the outcome of one pipeline execution over an
// OriginRecord. It is built incrementally stage by stage and frozen once
// handed to the result sink. Optional fields stay nil/empty when the
// corresponding lookup produced nothing; JSON omits them.
//
// A failed record is still an EnrichedRecord: Failure is set, the lookup
// fields that never ran stay absent. This keeps the one-object-per-input
// output invariant without a second wire shape.
type EnrichedRecord struct {
	Origin      OriginRecord           `json:"origin"`
	Hostname    string                 `json:"hostname,omitempty"`
	Domain      string                 `json:"domain,omitempty"`
	Cname       []string               `json:"cname,omitempty"`
	Nameservers *NameServerInfo        `json:"nameservers,omitempty"`
	IPs         []string               `json:"ip,omitempty"`
	ASNs        []ASNInfo              `json:"asn,omitempty"`
	TLS         *CertificateIssuerInfo `json:"tls,omitempty"`
	Failure     *RecordFailure         `json:"error,omitempty"`
}

// NewEnrichedRecord starts an empty result for the given origin.
func NewEnrichedRecord(origin OriginRecord) *EnrichedRecord {
	return &EnrichedRecord{Origin: origin}
}

// Failed reports whether the record carries a record-level failure.
func (e *EnrichedRecord) Failed() bool {
	return e.Failure != nil
}

// String returns a readable identity for logs.
func (e *EnrichedRecord) String() string {
	if e.Failed() {
		return fmt.Sprintf("EnrichedRecord{origin=%s, error=%s}", e.Origin.Origin, e.Failure.Kind)
	}
	return fmt.Sprintf("EnrichedRecord{origin=%s, hostname=%s, ips=%d, asn=%d}",
		e.Origin.Origin, e.Hostname, len(e.IPs), len(e.ASNs))
}

// NameServerInfo describes the authoritative name servers of a registrable
// domain: the NS host names in answer order, the union of their resolved
// addresses, and the ASN attribution of those addresses.
type NameServerInfo struct {
	Names []string  `json:"names"`
	IPs   []string  `json:"ips,omitempty"`
	ASNs  []ASNInfo `json:"asn,omitempty"`
}

// ASNInfo is the aggregated attribution of one autonomous system across a
// set of examined IP addresses. ASN is the aggregation key: within any
// aggregated result there is at most one ASNInfo per distinct AS number,
// and Networks is the deduplicated union of every CIDR block matched for
// that AS number during the aggregation.
type ASNInfo struct {
	Networks     []string `json:"networks"`
	ASN          uint32   `json:"asn"`
	Organization string   `json:"organization"`
	CountryCode  string   `json:"country_code"`
}

// AddNetwork unions a CIDR block into the set, idempotently.
func (a *ASNInfo) AddNetwork(cidr string) {
	for _, n := range a.Networks {
		if n == cidr {
			return
		}
	}
	a.Networks = append(a.Networks, cidr)
	sort.Strings(a.Networks)
}

// CertificateIssuerInfo identifies the issuer of a probed TLS certificate,
// taken from the issuer distinguished name of the root-most certificate the
// server sent. Country is absent when the DN carries no C attribute.
type CertificateIssuerInfo struct {
	Organization string `json:"organization"`
	Country      string `json:"country,omitempty"`
}
