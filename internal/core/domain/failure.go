// internal/core/domain/failure.go
package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a record-level failure. Only Parse-stage kinds and
// the pipeline timeout terminate a record; every other kind degrades a field
// to absent and is logged where it happens.
type FailureKind string

const (
	// FailureInvalidURL origin is not a well-formed URL or has no host
	FailureInvalidURL FailureKind = "invalid_url"

	// FailureInvalidHostname host component unusable for lookups
	FailureInvalidHostname FailureKind = "invalid_hostname"

	// FailureDomainExtraction registrable domain not derivable (degrades, never terminal)
	FailureDomainExtraction FailureKind = "domain_extraction"

	// FailureDNSLookup a DNS query failed (absorbed as an absent field)
	FailureDNSLookup FailureKind = "dns_lookup"

	// FailureNoAddress TLS probe had no candidate address to connect to
	FailureNoAddress FailureKind = "no_address_available"

	// FailureTLSConnect TCP connection to the probe target failed
	FailureTLSConnect FailureKind = "tls_connect"

	// FailureTLSHandshake TLS handshake with the probe target failed
	FailureTLSHandshake FailureKind = "tls_handshake"

	// FailureMissingPeerCertificates handshake completed but the peer sent no chain
	FailureMissingPeerCertificates FailureKind = "missing_peer_certificates"

	// FailureMissingIssuerOrganization issuer DN carries no Organization attribute
	FailureMissingIssuerOrganization FailureKind = "missing_issuer_organization"

	// FailurePipelineTimeout whole-record deadline expired
	FailurePipelineTimeout FailureKind = "pipeline_timeout"
)

// IsValid reports whether the kind is one of the declared values.
func (k FailureKind) IsValid() bool {
	switch k {
	case FailureInvalidURL, FailureInvalidHostname, FailureDomainExtraction,
		FailureDNSLookup, FailureNoAddress, FailureTLSConnect,
		FailureTLSHandshake, FailureMissingPeerCertificates,
		FailureMissingIssuerOrganization, FailurePipelineTimeout:
		return true
	default:
		return false
	}
}

// Terminal reports whether the kind aborts the whole record. Non-terminal
// kinds only blank the field they belong to.
func (k FailureKind) Terminal() bool {
	switch k {
	case FailureInvalidURL, FailureInvalidHostname, FailurePipelineTimeout:
		return true
	default:
		return false
	}
}

func (k FailureKind) String() string {
	return string(k)
}

// RecordFailure is a typed record-level failure. It travels as a value on
// the result channel (inside EnrichedRecord), never as a task abort, so one
// broken record cannot take down its siblings.
type RecordFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// NewFailure builds a RecordFailure from a kind and an underlying error.
func NewFailure(kind FailureKind, err error) *RecordFailure {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &RecordFailure{Kind: kind, Message: msg}
}

// Failf builds a RecordFailure from a kind and a format string.
func Failf(kind FailureKind, format string, args ...any) *RecordFailure {
	return &RecordFailure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface so failures can flow through normal
// error returns inside a stage before being attached to the record.
func (f *RecordFailure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// AsRecordFailure extracts a *RecordFailure from an error chain. The second
// return is false when the error is not kind-tagged.
func AsRecordFailure(err error) (*RecordFailure, bool) {
	var rf *RecordFailure
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}
