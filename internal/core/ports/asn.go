// internal/core/ports/asn.go
package ports

import "net/netip"

// ASNEntry es el resultado de una búsqueda puntual en la tabla ip2asn:
// el bloque CIDR que contuvo la dirección y la identidad del AS anunciante.
type ASNEntry struct {
	// Network bloque CIDR que contiene la dirección consultada
	Network netip.Prefix

	// ASN número de sistema autónomo
	ASN uint32

	// Organization descripción del AS tal como aparece en la tabla
	Organization string

	// CountryCode código de país de dos letras, puede ser "None"
	CountryCode string
}

// AsnDB es el port de atribución de direcciones IP a sistemas autónomos.
// Las implementaciones son de solo lectura tras su construcción y seguras
// para uso concurrente.
type AsnDB interface {
	// Lookup retorna la entrada que cubre ip, o false si ninguna la cubre.
	// Las direcciones no ruteadas (ASN 0 en la tabla) cuentan como no cubiertas.
	Lookup(ip netip.Addr) (ASNEntry, bool)

	// Size retorna el número de rangos cargados.
	Size() int
}
