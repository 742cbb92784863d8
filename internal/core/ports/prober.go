// internal/core/ports/prober.go
package ports

import (
	"context"

	"originx/internal/core/domain"
)

// CertProber es el port de sondeo TLS: conecta al puerto 443 de una de las
// direcciones resueltas y extrae el emisor del certificado raíz de la cadena
// presentada por el servidor.
type CertProber interface {
	// Probe conecta a una dirección candidata (preferencia IPv4) usando
	// hostname como SNI. Los fallos retornan un *domain.RecordFailure con
	// el kind correspondiente (tls_connect, tls_handshake, ...).
	Probe(ctx context.Context, hostname string, ips []string) (*domain.CertificateIssuerInfo, error)
}
