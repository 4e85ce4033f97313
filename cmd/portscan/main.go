package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/marcuoli/go-portscan/internal/config"
	"github.com/marcuoli/go-portscan/internal/report"
	"github.com/marcuoli/go-portscan/pkg/portscan"
	"github.com/marcuoli/go-portscan/pkg/portscan/oui"
	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
	"github.com/marcuoli/go-portscan/pkg/portscan/resolve"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

const usageLine = "usage: portscan [flags] <host> [start_port] [end_port] [workers]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one scan and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("portscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		workers    = fs.Int("workers", portscan.DefaultWorkers, "Number of concurrent workers")
		timeout    = fs.Duration("timeout", probe.DefaultTimeout, "Per-port connect timeout")
		dnsServers = fs.String("dns", "", "Comma-separated DNS servers to resolve the target with (default: system resolver)")
		enrich     = fs.Bool("enrich", false, "Look up reverse DNS, MAC and vendor of the target for the banner")
		ouiPath    = fs.String("oui", "", "Path to an IEEE OUI database used with -enrich")
		cfgPath    = fs.String("config", "", "YAML configuration file")
		verbose    = fs.Bool("v", false, "Debug output")
		veryVerb   = fs.Bool("vv", false, "Per-port debug output")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		cfg = loaded
	}
	// Flags given on the command line win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workers
		case "timeout":
			cfg.Timeout = config.Duration(*timeout)
		case "dns":
			cfg.DNSServers = splitList(*dnsServers)
		case "enrich":
			cfg.Enrich = *enrich
		case "oui":
			cfg.OUIDatabase = *ouiPath
		case "v":
			if *verbose {
				cfg.DebugLevel = "basic"
			}
		case "vv":
			if *veryVerb {
				cfg.DebugLevel = "verbose"
			}
		}
	})

	pos := fs.Args()
	if len(pos) < 1 || strings.TrimSpace(pos[0]) == "" {
		fmt.Fprintln(stderr, "error: target host is required")
		fmt.Fprintln(stderr, usageLine)
		return exitUsage
	}
	if len(pos) > 4 {
		fmt.Fprintf(stderr, "error: unexpected arguments: %v\n", pos[4:])
		fmt.Fprintln(stderr, usageLine)
		return exitUsage
	}
	host := pos[0]

	start, end := portscan.DefaultStartPort, portscan.DefaultEndPort
	for i, dst := range []*int{&start, &end, &cfg.Workers} {
		if len(pos) <= i+1 {
			break
		}
		v, err := strconv.Atoi(pos[i+1])
		if err != nil {
			fmt.Fprintf(stderr, "error: invalid number %q\n", pos[i+1])
			return exitUsage
		}
		*dst = v
	}

	rng, err := portscan.NewPortRange(start, end)
	if err != nil {
		fmt.Fprintf(stderr, "[-] Invalid port range: %v\n", err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	level, _ := config.ParseDebugLevel(cfg.DebugLevel)

	log := newLogger(stderr, level)
	defer func() { _ = log.Sync() }()
	bridgeDebugLogger(log, level)

	console := report.NewConsole(stdout)
	opts := cfg.ScanOptions()
	// OnResult runs on the collector goroutine only.
	opts.OnResult = func(r probe.Result) {
		switch r.State {
		case probe.StateOpen:
			console.OpenPort(r.Port)
		case probe.StateError:
			log.Debug("probe failed", zap.Uint16("port", r.Port), zap.Error(r.Err))
		}
	}
	scanner, err := portscan.NewScanner(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	resolver := resolve.NewResolver()
	for _, s := range cfg.DNSServers {
		if s = resolve.NormalizeServer(s); s != "" {
			resolver.Servers = append(resolver.Servers, s)
		}
	}

	target, err := portscan.Resolve(ctx, resolver, host)
	if err != nil {
		fmt.Fprintf(stderr, "[-] Cannot resolve hostname: %v\n", err)
		return exitFailure
	}

	if cfg.Enrich {
		if cfg.OUIDatabase != "" {
			if err := oui.SetDatabase(cfg.OUIDatabase); err != nil {
				log.Warn("vendor lookup disabled", zap.Error(err))
			}
		}
		eo := portscan.DefaultEnrichOptions()
		eo.Resolver = resolver
		target.Info = portscan.Enrich(ctx, target, eo)
	}

	eff := scanner.Options()
	console.Banner(report.Header{Target: target, Range: rng, Workers: eff.Workers, Timeout: eff.Timeout})

	startedAt := time.Now()
	res, err := scanner.Scan(ctx, target, rng)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	log = log.With(zap.String("scan_id", res.ID))
	console.Summary(res)

	log.Debug("scan finished",
		zap.String("target", target.String()),
		zap.Int("probed", res.Stats.Probed),
		zap.Int("open", res.Stats.Open),
		zap.Int("errors", res.Stats.Errors),
		zap.Duration("elapsed", time.Since(startedAt)))

	if res.Interrupted {
		log.Warn("scan interrupted, results are partial", zap.Int("probed", res.Stats.Probed), zap.Int("total", rng.Len()))
		return exitInterrupted
	}
	return exitOK
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
