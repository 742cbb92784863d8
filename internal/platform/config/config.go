// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// TLS probe modes.
const (
	ProbeAuto   = "auto"   // probe only https:// origins
	ProbeAlways = "always" // probe every origin on 443
	ProbeOff    = "off"    // never probe
)

// DefaultASNURL is the public snapshot the attribution table is built from.
const DefaultASNURL = "https://iptoasn.com/data/ip2asn-combined.tsv.gz"

type Config struct {
	Core   CoreConfig   `yaml:"core"`
	DNS    DNSConfig    `yaml:"dns"`
	ASN    ASNConfig    `yaml:"asn"`
	Probe  ProbeConfig  `yaml:"probe"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

type CoreConfig struct {
	// CSVPath input dataset (origin,popularity,date,country)
	CSVPath string `yaml:"csv"`

	// Workers concurrent record pipelines
	Workers int `yaml:"workers"`

	// TimeoutS whole-run timeout in seconds (0 = no timeout)
	TimeoutS int `yaml:"timeout"`

	// RecordTimeoutS per-record pipeline deadline in seconds
	RecordTimeoutS int `yaml:"record_timeout"`

	// PrintVersion print version and exit
	PrintVersion bool `yaml:"-"`
}

type DNSConfig struct {
	// Servers custom resolvers; empty means the default public resolver
	Servers []string `yaml:"servers"`

	// QueryTimeoutS per-query timeout in seconds
	QueryTimeoutS int `yaml:"timeout"`

	// QPS optional query rate limit, 0 = unlimited
	QPS float64 `yaml:"qps"`

	// Burst rate limiter burst size
	Burst int `yaml:"burst"`
}

type ASNConfig struct {
	// DBPath local TSV snapshot; downloaded here when absent
	DBPath string `yaml:"db"`

	// URL snapshot source
	URL string `yaml:"url"`

	// Refresh force re-download even when the local snapshot exists
	Refresh bool `yaml:"refresh"`
}

type ProbeConfig struct {
	// Mode auto|always|off
	Mode string `yaml:"mode"`

	// ConnectTimeoutS TCP dial budget in seconds
	ConnectTimeoutS int `yaml:"connect_timeout"`

	// ReadTimeoutS handshake and read deadline in seconds
	ReadTimeoutS int `yaml:"read_timeout"`
}

type OutputConfig struct {
	// Path result destination; empty = stdout
	Path string `yaml:"path"`

	// Pretty indent emitted JSON
	Pretty bool `yaml:"pretty"`

	// Quiet disable the progress UI
	Quiet bool `yaml:"quiet"`
}

type LogConfig struct {
	// Level debug|info|warn|error
	Level string `yaml:"level"`

	// File log destination; empty = stderr
	File string `yaml:"file"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Core: CoreConfig{
			CSVPath:        "",
			Workers:        5,
			TimeoutS:       0,
			RecordTimeoutS: 120,
		},
		DNS: DNSConfig{
			Servers:       nil,
			QueryTimeoutS: 5,
			QPS:           0,
			Burst:         1,
		},
		ASN: ASNConfig{
			DBPath:  filepath.Join(os.TempDir(), "originx-ip2asn-combined.tsv"),
			URL:     DefaultASNURL,
			Refresh: false,
		},
		Probe: ProbeConfig{
			Mode:            ProbeAuto,
			ConnectTimeoutS: 1,
			ReadTimeoutS:    30,
		},
		Output: OutputConfig{
			Path:   "",
			Pretty: false,
			Quiet:  false,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load inicializa la configuración: defaults -> fichero YAML -> ENV -> FLAGS
// (flags tienen prioridad). Maneja --help y --version internamente.
func Load(version, commit, date string) (Config, error) {
	cfg := DefaultConfig()

	// Fichero de configuración (pre-scan: los flags aún no están parseados)
	cfgFile := configFileFromArgs(os.Args[1:])
	if cfgFile == "" {
		cfgFile = getenv("ORIGINX_CONFIG", "")
	}
	if cfgFile != "" {
		if err := loadFromFile(cfgFile, &cfg); err != nil {
			return cfg, err
		}
	}

	// Cargar desde ENV
	loadFromEnv(&cfg)

	// Parsear flags (overrides ENV)
	if err := loadFromFlags(&cfg, version, commit, date); err != nil {
		return cfg, err
	}

	// Normalizar y validar
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// configFileFromArgs extrae el valor de --config/-C sin parsear el resto.
func configFileFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case arg == "--config" || arg == "-C":
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

// loadFromFile fusiona un fichero YAML sobre la configuración actual.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv("ORIGINX_CSV", ""); v != "" {
		cfg.Core.CSVPath = v
	}
	if v := getenv("ORIGINX_WORKERS", ""); v != "" {
		cfg.Core.Workers = parseInt(v, cfg.Core.Workers)
	}
	if v := getenv("ORIGINX_TIMEOUT", ""); v != "" {
		cfg.Core.TimeoutS = parseInt(v, cfg.Core.TimeoutS)
	}
	if v := getenv("ORIGINX_RECORD_TIMEOUT", ""); v != "" {
		cfg.Core.RecordTimeoutS = parseInt(v, cfg.Core.RecordTimeoutS)
	}

	if v := getenv("ORIGINX_DNS_SERVERS", ""); v != "" {
		cfg.DNS.Servers = parseList(v)
	}
	if v := getenv("ORIGINX_DNS_TIMEOUT", ""); v != "" {
		cfg.DNS.QueryTimeoutS = parseInt(v, cfg.DNS.QueryTimeoutS)
	}
	if v := getenv("ORIGINX_DNS_QPS", ""); v != "" {
		cfg.DNS.QPS = parseFloat(v, cfg.DNS.QPS)
	}

	if v := getenv("ORIGINX_ASN_DB", ""); v != "" {
		cfg.ASN.DBPath = v
	}
	if v := getenv("ORIGINX_ASN_URL", ""); v != "" {
		cfg.ASN.URL = v
	}
	if v := getenv("ORIGINX_ASN_REFRESH", ""); v != "" {
		cfg.ASN.Refresh = parseBool(v)
	}

	if v := getenv("ORIGINX_TLS_MODE", ""); v != "" {
		cfg.Probe.Mode = v
	}

	if v := getenv("ORIGINX_OUT", ""); v != "" {
		cfg.Output.Path = v
	}
	if v := getenv("ORIGINX_PRETTY", ""); v != "" {
		cfg.Output.Pretty = parseBool(v)
	}
	if v := getenv("ORIGINX_QUIET", ""); v != "" {
		cfg.Output.Quiet = parseBool(v)
	}

	if v := getenv("ORIGINX_LOG_LEVEL", ""); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("ORIGINX_LOG_FILE", ""); v != "" {
		cfg.Log.File = v
	}
}

// loadFromFlags parsea flags de CLI sobre pflag.CommandLine.
func loadFromFlags(cfg *Config, version, commit, date string) error {
	fs := pflag.CommandLine

	var (
		dnsServers = strings.Join(cfg.DNS.Servers, ",")
		configFile string
		showHelp   bool
	)

	fs.StringVarP(&cfg.Core.CSVPath, "csv", "c", cfg.Core.CSVPath, "CSV de origins a enriquecer (requerido)")
	fs.IntVarP(&cfg.Core.Workers, "workers", "w", cfg.Core.Workers, "Concurrencia máxima de pipelines")
	fs.IntVarP(&cfg.Core.TimeoutS, "timeout", "T", cfg.Core.TimeoutS, "Timeout global en segundos (0 = sin timeout)")
	fs.IntVar(&cfg.Core.RecordTimeoutS, "record-timeout", cfg.Core.RecordTimeoutS, "Timeout por registro en segundos")

	fs.StringVar(&dnsServers, "dns", dnsServers, "Resolvers DNS separados por comas (vacío = resolver público)")
	fs.IntVar(&cfg.DNS.QueryTimeoutS, "dns.timeout", cfg.DNS.QueryTimeoutS, "Timeout por consulta DNS en segundos")
	fs.Float64Var(&cfg.DNS.QPS, "dns.qps", cfg.DNS.QPS, "Límite de consultas DNS por segundo (0 = sin límite)")

	fs.StringVar(&cfg.ASN.DBPath, "asn.db", cfg.ASN.DBPath, "Snapshot TSV local de rangos ASN")
	fs.StringVar(&cfg.ASN.URL, "asn.url", cfg.ASN.URL, "URL del snapshot ip2asn")
	fs.BoolVar(&cfg.ASN.Refresh, "asn.refresh", cfg.ASN.Refresh, "Forzar descarga del snapshot ASN")

	fs.StringVar(&cfg.Probe.Mode, "tls", cfg.Probe.Mode, "Modo de sondeo TLS: auto|always|off")

	fs.StringVarP(&cfg.Output.Path, "out", "o", cfg.Output.Path, "Fichero de salida (vacío = stdout)")
	fs.BoolVar(&cfg.Output.Pretty, "pretty", cfg.Output.Pretty, "Indentar el JSON emitido")
	fs.BoolVarP(&cfg.Output.Quiet, "quiet", "q", cfg.Output.Quiet, "Desactivar la barra de progreso")

	fs.StringVar(&cfg.Log.Level, "log.level", cfg.Log.Level, "Nivel de log: debug|info|warn|error")
	fs.StringVar(&cfg.Log.File, "log.file", cfg.Log.File, "Fichero de log (vacío = stderr)")

	fs.StringVarP(&configFile, "config", "C", "", "Fichero de configuración YAML")
	fs.BoolVarP(&cfg.Core.PrintVersion, "version", "v", false, "Imprimir versión y salir")
	fs.BoolVarP(&showHelp, "help", "h", false, "Mostrar esta ayuda")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showHelp {
		PrintHelp()
	}
	if cfg.Core.PrintVersion {
		PrintVersion(version, commit, date)
	}

	if fs.Changed("dns") {
		cfg.DNS.Servers = parseList(dnsServers)
	}

	return nil
}

func normalize(c *Config) {
	c.Core.CSVPath = strings.TrimSpace(c.Core.CSVPath)
	if c.Core.Workers < 1 {
		c.Core.Workers = 1
	}
	if c.Core.TimeoutS < 0 {
		c.Core.TimeoutS = 0
	}
	if c.Core.RecordTimeoutS < 1 {
		c.Core.RecordTimeoutS = 120
	}

	servers := make([]string, 0, len(c.DNS.Servers))
	for _, s := range c.DNS.Servers {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	c.DNS.Servers = servers
	if c.DNS.QueryTimeoutS < 1 {
		c.DNS.QueryTimeoutS = 5
	}
	if c.DNS.QPS < 0 {
		c.DNS.QPS = 0
	}
	if c.DNS.Burst < 1 {
		c.DNS.Burst = 1
	}

	if c.ASN.URL == "" {
		c.ASN.URL = DefaultASNURL
	}
	if c.ASN.DBPath == "" {
		c.ASN.DBPath = filepath.Join(os.TempDir(), "originx-ip2asn-combined.tsv")
	}

	c.Probe.Mode = strings.ToLower(strings.TrimSpace(c.Probe.Mode))
	if c.Probe.ConnectTimeoutS < 1 {
		c.Probe.ConnectTimeoutS = 1
	}
	if c.Probe.ReadTimeoutS < 1 {
		c.Probe.ReadTimeoutS = 30
	}
}

func validate(c *Config) error {
	switch c.Probe.Mode {
	case ProbeAuto, ProbeAlways, ProbeOff:
	default:
		return fmt.Errorf("invalid tls mode %q (want auto, always or off)", c.Probe.Mode)
	}
	return nil
}

// ToJSON serializa la configuración a JSON (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Timeout devuelve el timeout global como time.Duration.
func (c Config) Timeout() time.Duration {
	if c.Core.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.Core.TimeoutS) * time.Second
}

// RecordTimeout devuelve el timeout por registro como time.Duration.
func (c Config) RecordTimeout() time.Duration {
	return time.Duration(c.Core.RecordTimeoutS) * time.Second
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func parseList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
