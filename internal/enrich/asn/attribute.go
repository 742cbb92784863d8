// internal/enrich/asn/attribute.go
package asn

import (
	"net/netip"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
)

// Attribute aggregates the ASN attribution of a set of addresses. Pure:
// table lookups only, no I/O. The result holds at most one ASNInfo per
// distinct AS number, in first-seen order, and each Networks set is the
// deduplicated union of every CIDR block matched for that AS number.
// Returns nil when the input is empty or nothing matched.
func Attribute(ips []string, db ports.AsnDB) []domain.ASNInfo {
	if len(ips) == 0 || db == nil {
		return nil
	}

	var out []domain.ASNInfo
	index := make(map[uint32]int, len(ips))
	for _, raw := range ips {
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			continue
		}
		entry, ok := db.Lookup(addr)
		if !ok {
			continue
		}

		if i, seen := index[entry.ASN]; seen {
			out[i].AddNetwork(entry.Network.String())
			continue
		}
		index[entry.ASN] = len(out)
		out = append(out, domain.ASNInfo{
			Networks:     []string{entry.Network.String()},
			ASN:          entry.ASN,
			Organization: entry.Organization,
			CountryCode:  entry.CountryCode,
		})
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
