// internal/platform/config/help.go
package config

import (
	"fmt"
	"os"
	"runtime"
)

const helpText = `
originx - Website Origin Enrichment Pipeline

USAGE:
  originx --csv <file> [options]

IMPORTANT:
  Use double dash (--) for long flag names: --csv, --workers, --pretty
  Use single dash (-) for short flags: -c, -w, -q

  ❌ WRONG:  originx -csv origins.csv
  ✓  RIGHT:  originx --csv origins.csv
  ✓  RIGHT:  originx -c origins.csv

CORE OPTIONS:
  -c, --csv string         Input CSV of origins (required)
  -w, --workers int        Number of concurrent record pipelines (default: 5)
  -T, --timeout int        Whole-run timeout in seconds, 0=no timeout (default: 0)
  --record-timeout int     Per-record pipeline deadline in seconds (default: 120)

DNS OPTIONS:
  --dns string             Comma-separated DNS servers, port 53 assumed
                           (default: system of record is 1.1.1.1)
  --dns.timeout int        Per-query timeout in seconds (default: 5)
  --dns.qps float          DNS queries per second, 0=unlimited (default: 0)

ASN OPTIONS:
  --asn.db string          Local ip2asn TSV snapshot path
                           (default: <tmp>/originx-ip2asn-combined.tsv)
  --asn.url string         Snapshot download URL (default: iptoasn.com combined)
  --asn.refresh            Force snapshot re-download (default: false)

TLS OPTIONS:
  --tls string             Probe mode: auto|always|off (default: auto)
                           auto probes https:// origins only

OUTPUT OPTIONS:
  -o, --out string         Write results to file instead of stdout
  --pretty                 Indent emitted JSON (default: false)
  -q, --quiet              Disable the progress bar (default: false)

LOG OPTIONS:
  --log.level string       Log level: debug|info|warn|error (default: info)
  --log.file string        Route logs to a file instead of stderr

INFO:
  -C, --config string      YAML configuration file
  -v, --version            Print version information and exit
  -h, --help               Show this help message

EXAMPLES:
  Enrich a ranking snapshot:
    originx --csv top1m.csv

  Crank up concurrency with custom resolvers:
    originx --csv top1m.csv -w 32 --dns 9.9.9.9,8.8.8.8

  Pretty results into a file, logs out of the way:
    originx --csv top1m.csv -o enriched.json --pretty --log.file run.log

  Probe TLS on every origin, even http:// ones:
    originx --csv top1m.csv --tls always

ENVIRONMENT VARIABLES:
  Most flags can be set via environment variables with ORIGINX_ prefix:

  ORIGINX_CSV                  Input CSV path
  ORIGINX_WORKERS=8            Concurrent pipelines
  ORIGINX_TIMEOUT=600          Whole-run timeout in seconds
  ORIGINX_RECORD_TIMEOUT=120   Per-record deadline in seconds
  ORIGINX_DNS_SERVERS=9.9.9.9  Custom resolvers (comma-separated)
  ORIGINX_DNS_QPS=100          DNS rate limit
  ORIGINX_ASN_DB=/path/db.tsv  Local ASN snapshot
  ORIGINX_TLS_MODE=off         TLS probe mode
  ORIGINX_OUT=/path/out.json   Result destination
  ORIGINX_LOG_LEVEL=debug      Log level
  ORIGINX_CONFIG=/path/c.yaml  Configuration file

  Note: CLI flags override environment variables.

OUTPUT:
  One JSON object per input record, in completion order:
  - Successful records carry hostname, domain, cname, nameservers, ip, asn, tls
  - Failed records carry the origin and an error {kind, message}
  - Rows that cannot be parsed are logged and skipped before dispatch

For more information and documentation:
  https://github.com/lcalzada-xor/originx
`

// PrintHelp prints the custom help message and exits.
func PrintHelp() {
	fmt.Fprint(os.Stdout, helpText)
	os.Exit(0)
}

// PrintVersion prints version information and exits.
func PrintVersion(version, commit, date string) {
	fmt.Printf("originx %s\n", version)
	fmt.Printf("  Commit:  %s\n", commit)
	fmt.Printf("  Built:   %s\n", date)
	fmt.Printf("  Go:      %s\n", getGoVersion())
	os.Exit(0)
}

func getGoVersion() string {
	return runtime.Version()
}
