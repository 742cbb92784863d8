// internal/core/ports/resolver.go
package ports

import (
	"context"

	"originx/internal/core/domain"
)

// Resolution agrupa el resultado DNS de un hostname: unión de direcciones
// A/AAAA, cadena CNAME en orden de resolución y los name servers
// autoritativos del dominio registrable (con sus IPs y ASNs ya atribuidos).
type Resolution struct {
	// IPs direcciones v4 y v6 del hostname, sin duplicados
	IPs []string

	// Cname cadena de alias en orden, vacía si el hostname no es un alias
	Cname []string

	// Nameservers NS del dominio registrable; nil si la consulta no produjo nada
	Nameservers *domain.NameServerInfo
}

// Resolver es el port de resolución DNS del pipeline.
type Resolver interface {
	// Resolve resuelve hostname y consulta los NS de registrable (omitido
	// cuando registrable es vacío). Los fallos de consulta degradan a campos
	// ausentes, nunca a error; el único error posible es la cancelación del
	// contexto.
	Resolve(ctx context.Context, hostname, registrable string) (*Resolution, error)
}
