// ideascope analyzes a business idea: it fans the request out to the
// configured analysis tasks and prints the aggregated result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ideascope/internal/app"
	"ideascope/pkg/config"
	"ideascope/pkg/coordinator"
	"ideascope/pkg/logx"
)

// Version information - set via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config (defaults apply when empty)")
		inputPath   = flag.String("input", "-", "Request JSON file, or - for stdin")
		depth       = flag.String("depth", "", "Analysis depth override: basic, standard, comprehensive")
		metricsAddr = flag.String("metrics-addr", "", "Listen address for /metrics, /healthz, /executions (overrides config)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ideascope %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if *debug {
		logx.SetDebug(true)
	}

	os.Exit(run(*configPath, *inputPath, *depth, *metricsAddr))
}

// run contains the main logic and returns an exit code, so defers execute
// before the process exits.
func run(configPath, inputPath, depth, metricsAddr string) int {
	logger := logx.NewLogger("main")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn("shutdown cleanup failed: %v", closeErr)
		}
	}()

	if cfg.Metrics.Addr != "" {
		startObservability(cfg.Metrics.Addr, application, logger)
	}

	input, err := readInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read request: %v\n", err)
		return 1
	}
	if depth != "" {
		input.AnalysisDepth = depth
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output := application.Coordinator.Analyze(ctx, input)

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))

	if !output.Success {
		return 1
	}
	return 0
}

func readInput(path string) (coordinator.CompositeAnalysisInput, error) {
	var input coordinator.CompositeAnalysisInput

	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return input, err
		}
		defer f.Close()
		reader = f
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		return input, fmt.Errorf("invalid request JSON: %w", err)
	}
	return input, nil
}

func startObservability(addr string, application *app.App, logger *logx.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("observability listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("observability server failed: %v", err)
		}
	}()
}
