// Command sightline traces sightlines through simulation snapshots.
//
// Usage:
//
//	sightline [--version] [--metrics-addr ADDR] [--log-level LEVEL] <command> [args]
//
// Commands:
//
//	trace    ox oy oz dx dy dz length [--n 128]
//	segments SNAPSHOT ox oy oz dx dy dz length [--first] [--fields]
//	spectrum SNAPSHOT ox oy oz dx dy dz length [--n 256] [--lines "HI 1216"] [--csv] [--cell-aware]
//	batch    SNAPSHOT RAYS.json [--workers N] [--rate R] [--output segments|sightline|first-hit]
//	convert  SRC DST [--compression lz4|zstd|none] [--fields a,b]
//
// SNAPSHOT is a local path, s3://bucket/key or minio://bucket/key. MinIO
// connection settings are read from MINIO_ENDPOINT, MINIO_ACCESS_KEY,
// MINIO_SECRET_KEY, MINIO_REGION and MINIO_SECURE.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/sightline"
)

// env bundles what every command needs.
type env struct {
	stdout  io.Writer
	stderr  io.Writer
	logger  *sightline.Logger
	metrics sightline.MetricsCollector
}

func (e *env) engineOptions() []sightline.Option {
	return []sightline.Option{
		sightline.WithLogger(e.logger),
		sightline.WithMetricsCollector(e.metrics),
	}
}

type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"trace":    {usage: "trace ox oy oz dx dy dz length [--n 128]", run: runTrace},
	"segments": {usage: "segments SNAPSHOT ox oy oz dx dy dz length [--first] [--fields]", run: runSegments},
	"spectrum": {usage: "spectrum SNAPSHOT ox oy oz dx dy dz length [--n 256] [--lines L] [--csv] [--cell-aware]", run: runSpectrum},
	"batch":    {usage: "batch SNAPSHOT RAYS.json [--workers N] [--rate R] [--output O]", run: runBatch},
	"convert":  {usage: "convert SRC DST [--compression lz4|zstd|none] [--fields a,b]", run: runConvert},
}

var commandOrder = []string{"trace", "segments", "spectrum", "batch", "convert"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sightline", flag.ContinueOnError)
	fs.SetOutput(stderr)

	version := fs.Bool("version", false, "print the version and exit")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sightline [--version] [--metrics-addr ADDR] [--log-level LEVEL] <command> [args]")
		fmt.Fprintln(stderr, "\ncommands:")
		for _, name := range commandOrder {
			fmt.Fprintln(stderr, "  "+commands[name].usage)
		}
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, sightline.Version)
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "sightline: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "sightline: invalid log level %q\n", *logLevel)
		return 2
	}

	e := &env{
		stdout:  stdout,
		stderr:  stderr,
		logger:  sightline.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		metrics: sightline.NoopMetricsCollector{},
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		e.metrics = NewPrometheusCollector(reg)

		srv := serveMetrics(*metricsAddr, reg, e.logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := cmd.run(ctx, e, fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "sightline %s: %v\nusage: sightline %s\n", fs.Arg(0), err, cmd.usage)
			return 2
		}
		fmt.Fprintf(stderr, "sightline %s: %v\n", fs.Arg(0), err)
		return 1
	}

	return 0
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *sightline.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return srv
}
