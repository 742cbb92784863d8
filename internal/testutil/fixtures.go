// internal/testutil/fixtures.go
package testutil

// Fixture data para tests (valores primitivos solamente, sin dependencias de domain)

// FixtureOrigins contiene origins válidos tal como aparecen en el CSV de entrada.
var FixtureOrigins = []string{
	"https://example.com",
	"https://www.google.com",
	"http://free.fr",
	"https://cdn.static.example.net:8443",
}

// FixtureInvalidOrigins contiene origins que no deben producir hostname.
var FixtureInvalidOrigins = []string{
	"",
	"https://",
	"://missing-scheme",
	"https://invalid_domain",
	"https://www.example.toto",
}

// FixtureHostnames contiene pares hostname -> dominio registrable esperado.
var FixtureHostnames = map[string]string{
	"www.example.co.uk":          "example.co.uk",
	"carrd.co":                   "carrd.co",
	"phpmyadmin.hosting.ovh.net": "ovh.net",
	"free.fr":                    "free.fr",
	"www.google.com":             "google.com",
}

// FixtureIPv4 contiene direcciones IPv4 de rangos de documentación.
var FixtureIPv4 = []string{
	"192.0.2.1",
	"192.0.2.44",
	"198.51.100.7",
	"203.0.113.9",
}

// FixtureIPv6 contiene direcciones IPv6 de documentación.
var FixtureIPv6 = []string{
	"2001:db8::1",
	"2001:db8:cafe::2",
}

// FixtureASNTSV es un extracto con el formato de ip2asn-combined.tsv:
// range_start<TAB>range_end<TAB>AS_number<TAB>country_code<TAB>AS_description.
const FixtureASNTSV = `1.0.0.0	1.0.0.255	13335	US	CLOUDFLARENET
1.0.1.0	1.0.3.255	0	None	Not routed
192.0.2.0	192.0.2.255	64496	FR	EXAMPLE-DOC-AS
198.51.100.0	198.51.100.255	64497	US	EXAMPLE-DOC-AS-2
203.0.113.0	203.0.113.255	64496	FR	EXAMPLE-DOC-AS
2001:db8::	2001:db8:ffff:ffff:ffff:ffff:ffff:ffff	64499	DE	EXAMPLE-DOC-AS-V6
`

// FixtureCSV es un input mínimo con la cabecera del dataset de origins.
const FixtureCSV = `origin,popularity,date,country
https://example.com,1000,2026-08-01,US
https://free.fr,850,2026-08-01,FR
https://www.google.com,21000,2026-08-01,US
`

// FixtureCSVMalformed incluye filas que deben descartarse antes del dispatch.
const FixtureCSVMalformed = `origin,popularity,date,country
https://example.com,1000,2026-08-01,US
,850,2026-08-01,FR
https://ok.example.org,not-a-number,2026-08-01,DE
https://final.example.net,77,2026-08-01,ES
`
