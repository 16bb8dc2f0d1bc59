// Package config provides a go-simpler.org/env configuration table and
// helpers for working with the key/value lists stored in .env files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
	lol "lol.mleku.dev"
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/version"
)

// C holds application configuration settings loaded from environment
// variables and default values. It defines parameters for app behaviour,
// storage locations, pricing, logging, and network settings used across the
// relay service.
type C struct {
	AppName           string   `env:"APP_NAME" default:"crosstown" usage:"name displayed in the relay information document"`
	DataDir           string   `env:"DATA_DIR" usage:"storage location for the event store; unset or unwritable falls back to a volatile in-memory store"`
	Listen            string   `env:"LISTEN" default:"0.0.0.0" usage:"network listen address"`
	BLSPort           int      `env:"BLS_PORT" default:"3100" usage:"port the business logic server accepts packets on"`
	WSPort            int      `env:"WS_PORT" default:"3334" usage:"port the relay websocket listens on"`
	BasePricePerByte  string   `env:"BLS_BASE_PRICE_PER_BYTE" default:"10" usage:"price per encoded byte for kinds without an override, non-negative integer"`
	KindOverrides     string   `env:"BLS_KIND_OVERRIDES" usage:"JSON object mapping kind numbers to per byte prices, eg {\"1\":\"5\",\"10032\":\"0\"}"`
	SPSPMinPrice      string   `env:"SPSP_MIN_PRICE" usage:"optional clamp applied to the price of SPSP request events"`
	OwnerPubkey       string   `env:"OWNER_PUBKEY" usage:"optional 64 hex pubkey whose events bypass payment (not signature checks)"`
	UpstreamRelays    []string `env:"UPSTREAM_RELAYS" usage:"comma-separated websocket URLs of relays to mirror events from"`
	SpiderFilterKinds []int    `env:"SPIDER_FILTER_KINDS" usage:"comma-separated kind numbers the mirror subscribes to; empty mirrors all"`
	LogLevel          string   `env:"LOG_LEVEL" default:"info" usage:"relay log level: fatal error warn info debug trace"`
	DBLogLevel        string   `env:"DB_LOG_LEVEL" default:"warn" usage:"database log level: fatal error warn info debug trace"`
	LogToStdout       bool     `env:"LOG_TO_STDOUT" default:"false" usage:"log to stdout instead of stderr"`
	Pprof             string   `env:"PPROF" usage:"enable pprof in modes: cpu,memory,allocation"`
}

// New creates and initializes a new configuration object for the relay
// application, loading a .env file from the working directory when present,
// then the process environment over it.
func New() (cfg *C, err error) {
	// .env values become part of the environment before the table loads
	if fileExists(".env") {
		if err = godotenv.Load(); chk.E(err) {
			return
		}
	}
	cfg = &C{}
	if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.T(err) {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err)
		PrintHelp(cfg, os.Stderr)
		os.Exit(1)
	}
	if cfg.DataDir != "" && strings.Contains(cfg.DataDir, "~") {
		cfg.DataDir = filepath.Join(xdg.DataHome, cfg.AppName)
	}
	if GetEnv() {
		PrintEnv(cfg, os.Stdout)
		os.Exit(0)
	}
	if HelpRequested() {
		PrintHelp(cfg, os.Stderr)
		os.Exit(0)
	}
	if err = validatePort("BLS_PORT", cfg.BLSPort); err != nil {
		return
	}
	if err = validatePort("WS_PORT", cfg.WSPort); err != nil {
		return
	}
	if cfg.LogToStdout {
		lol.Writer = os.Stdout
	}
	lol.SetLogLevel(cfg.LogLevel)
	return
}

func validatePort(name string, port int) (err error) {
	if port < 1 || port > 65535 {
		err = fmt.Errorf("%s %d out of range 1-65535", name, port)
	}
	return
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// HelpRequested determines if the command line arguments indicate a request
// for help.
func HelpRequested() (help bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "help", "-h", "--h", "-help", "--help", "?":
			help = true
		}
	}
	return
}

// GetEnv checks if the first command line argument is "env", requesting the
// current configuration be printed in .env form.
func GetEnv() (requested bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "env":
			requested = true
		}
	}
	return
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a sortable slice of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV generates key/value pairs from a configuration object's struct
// tags.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("env")
		if k == "" {
			continue
		}
		v := reflect.ValueOf(cfg).Field(i).Interface()
		var val string
		switch vv := v.(type) {
		case string:
			val = vv
		case int, bool:
			val = fmt.Sprint(vv)
		case []string:
			val = strings.Join(vv, ",")
		case []int:
			var parts []string
			for _, n := range vv {
				parts = append(parts, fmt.Sprint(n))
			}
			val = strings.Join(parts, ",")
		}
		m = append(m, KV{k, val})
	}
	return
}

// PrintEnv outputs sorted environment key/value pairs from a configuration
// object to the provided writer.
func PrintEnv(cfg *C, printer io.Writer) {
	kvs := EnvKV(*cfg)
	sort.Sort(kvs)
	for _, v := range kvs {
		_, _ = fmt.Fprintf(printer, "%s=%s\n", v.Key, v.Value)
	}
}

// PrintHelp prints the environment variable table with usage and defaults.
func PrintHelp(cfg *C, printer io.Writer) {
	_, _ = fmt.Fprintf(
		printer,
		"%s %s\n\nconfiguration is via environment variables or a .env file in the working directory:\n\n",
		cfg.AppName, version.V,
	)
	t := reflect.TypeOf(*cfg)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		k := field.Tag.Get("env")
		if k == "" {
			continue
		}
		def := field.Tag.Get("default")
		usage := field.Tag.Get("usage")
		if def != "" {
			_, _ = fmt.Fprintf(printer, "  %s (default %q)\n      %s\n", k, def, usage)
		} else {
			_, _ = fmt.Fprintf(printer, "  %s\n      %s\n", k, usage)
		}
	}
	_, _ = fmt.Fprintf(
		printer,
		"\nsubcommands:\n  env    print the current configuration in .env form\n  help   print this information\n",
	)
}
