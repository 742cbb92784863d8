// internal/core/domain/record.go
package domain

import (
	"fmt"
	"strings"
)

// OriginRecord is one input row of the enrichment run: a website origin as
// listed in a popularity ranking. It is immutable once read from the input
// source and is carried verbatim inside the emitted result.
type OriginRecord struct {
	// Origin raw origin URL, commonly scheme://host/...
	Origin string `json:"origin"`

	// Popularity rank or score from the source list
	Popularity uint64 `json:"popularity"`

	// Date snapshot date of the source list (kept as-is, no parsing)
	Date string `json:"date"`

	// Country country code attributed by the source list
	Country string `json:"country"`
}

// Validate checks that the record can enter the pipeline at all.
// Deeper URL validation happens at the Parse stage.
func (r OriginRecord) Validate() error {
	if strings.TrimSpace(r.Origin) == "" {
		return ErrEmptyOrigin
	}
	return nil
}

// IsHTTPS reports whether the origin declares the https scheme.
// The TLS probe stage only runs for https origins unless probing is forced.
func (r OriginRecord) IsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Origin)), "https://")
}

// String returns a readable identity for logs.
func (r OriginRecord) String() string {
	return fmt.Sprintf("%s (rank %d, %s)", r.Origin, r.Popularity, r.Country)
}
