// cmd/originx/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"originx/internal/adapters/input"
	"originx/internal/adapters/output"
	"originx/internal/core/usecases"
	"originx/internal/enrich/asn"
	"originx/internal/enrich/dnsx"
	"originx/internal/enrich/tlsx"
	"originx/internal/platform/config"
	"originx/internal/platform/httpclient"
	"originx/internal/platform/logx"
	"originx/internal/platform/ui"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// 1. Load centralized config (handles help/version internally)
	cfg, err := config.Load(version, commit, date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		os.Exit(2)
	}

	if cfg.Core.CSVPath == "" {
		fmt.Fprintln(os.Stderr, "Error: input CSV is required")
		fmt.Fprintln(os.Stderr, "Usage: originx --csv <file>")
		fmt.Fprintln(os.Stderr, "Try: originx -h for help")
		os.Exit(2)
	}

	// 2. Shared logger; stderr by default, file when requested so the
	// progress bar keeps the terminal to itself
	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: log setup failed: %v\n", err)
		os.Exit(2)
	}
	defer closeLog()

	logger.Info("originx starting",
		"version", version,
		"commit", commit,
		"date", date,
		"csv", cfg.Core.CSVPath,
		"workers", cfg.Core.Workers,
		"tls", cfg.Probe.Mode,
	)

	// 3. Context and signals for clean shutdown
	ctx, cancel := rootContextWithSignals(cfg.Core.TimeoutS)
	defer cancel()

	// 4. ASN table: acquire the snapshot, build the in-memory index.
	// Shared read-only by every pipeline; failure here is fatal.
	table, err := buildASNTable(ctx, cfg, logger)
	if err != nil {
		logger.Err(err, "phase", "asn-build")
		os.Exit(2)
	}
	logger.Info("asn table ready", "prefixes", table.Size())

	// 5. DNS resolver, shared and read-only
	resolver := dnsx.New(dnsx.Config{
		Servers:      cfg.DNS.Servers,
		QueryTimeout: time.Duration(cfg.DNS.QueryTimeoutS) * time.Second,
		QPS:          cfg.DNS.QPS,
		Burst:        cfg.DNS.Burst,
	}, table, logger)
	logger.Info("resolver ready", "servers", resolver.Servers())

	// 6. TLS prober
	prober := tlsx.New(tlsx.Config{
		ConnectTimeout: time.Duration(cfg.Probe.ConnectTimeoutS) * time.Second,
		ReadTimeout:    time.Duration(cfg.Probe.ReadTimeoutS) * time.Second,
	}, logger)

	// 7. Input dataset, loaded up front for the progress total
	records, skipped, err := input.NewCSVSource(cfg.Core.CSVPath, logger).Load(ctx)
	if err != nil {
		logger.Err(err, "phase", "input")
		os.Exit(2)
	}
	logger.Info("dataset loaded", "records", len(records), "skipped", skipped)

	// 8. Result writer (stdout or file)
	writer, err := output.Open(cfg.Output.Path, cfg.Output.Pretty)
	if err != nil {
		logger.Err(err, "phase", "output-open")
		os.Exit(2)
	}

	// 9. Progress presenter
	presenter := buildPresenter(cfg)

	// 10. Assemble the run: pipeline → dispatcher → sink → runner
	pipeline := usecases.NewPipeline(usecases.PipelineOptions{
		Resolver:      resolver,
		AsnDB:         table,
		Prober:        prober,
		ProbeMode:     usecases.ProbeMode(cfg.Probe.Mode),
		RecordTimeout: cfg.RecordTimeout(),
		Logger:        logger,
	})
	runner := usecases.NewRunner(usecases.RunnerOptions{
		Dispatcher: usecases.NewDispatcher(usecases.DispatcherOptions{
			Pipeline: pipeline,
			Workers:  cfg.Core.Workers,
			Logger:   logger,
		}),
		Sink: usecases.NewSink(usecases.SinkOptions{
			Writer:    writer,
			Presenter: presenter,
			Logger:    logger,
		}),
		Presenter: presenter,
		Logger:    logger,
		Info: ui.RunInfo{
			CSVPath:       cfg.Core.CSVPath,
			Workers:       cfg.Core.Workers,
			Resolvers:     resolver.Servers(),
			ProbeMode:     cfg.Probe.Mode,
			RecordTimeout: cfg.RecordTimeout(),
		},
	})

	// 11. Execute
	start := time.Now()
	report, runErr := runner.Run(ctx, records, skipped)
	elapsed := time.Since(start)

	if err := writer.Close(); err != nil {
		logger.Err(err, "phase", "output-close")
		if runErr == nil {
			runErr = err
		}
	}

	// 12. Summary and exit code
	if runErr != nil {
		logger.Err(runErr, "phase", "run", "elapsed_ms", elapsed.Milliseconds())
		os.Exit(1)
	}
	logger.Info("originx finished", "report", report.Summary())
}

// buildLogger creates the process logger, routed to a file when configured.
// The returned closer flushes and closes that file; a no-op for stderr.
func buildLogger(cfg config.Config) (logx.Logger, func(), error) {
	level := logx.ParseLevel(cfg.Log.Level)

	if cfg.Log.File == "" {
		return logx.NewWithLevel(level), func() {}, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", cfg.Log.File, err)
	}
	return logx.NewWithWriter(f, level), func() { _ = f.Close() }, nil
}

// buildASNTable ensures the local ip2asn snapshot and loads it.
func buildASNTable(ctx context.Context, cfg config.Config, logger logx.Logger) (*asn.Table, error) {
	client := httpclient.New(httpclient.DefaultConfig(), logger)
	snapshot, err := asn.EnsureSnapshot(ctx, client, asn.AcquireOptions{
		URL:     cfg.ASN.URL,
		Path:    cfg.ASN.DBPath,
		Refresh: cfg.ASN.Refresh,
	}, logger)
	if err != nil {
		return nil, err
	}
	return asn.Load(snapshot, logger)
}

// buildPresenter selects the progress UI: rich by default, silent on --quiet.
func buildPresenter(cfg config.Config) ui.Presenter {
	if cfg.Output.Quiet {
		return ui.NewNoopPresenter()
	}
	return ui.NewPTermPresenter()
}

// rootContextWithSignals creates a root context with optional timeout and signal cancellation.
// Returns a context and cancel function that cleans up all resources (signals, goroutines).
func rootContextWithSignals(timeoutSeconds int) (context.Context, context.CancelFunc) {
	var base context.Context
	var baseCancel context.CancelFunc

	if timeoutSeconds > 0 {
		base, baseCancel = context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	} else {
		base, baseCancel = context.WithCancel(context.Background())
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanupCancel := func() {
		signal.Stop(ch)
		close(ch)
		baseCancel()
	}

	return base, cleanupCancel
}
