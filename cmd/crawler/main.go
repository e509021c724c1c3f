package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pbaptista/bookdash/config"
	"github.com/pbaptista/bookdash/crawl"
	"github.com/pbaptista/bookdash/models"
	"github.com/pbaptista/bookdash/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaults := config.DefaultConfig()

	pagesDefault := defaults.MaxPages
	if value, ok, err := config.EnvInt("CRAWLER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	outputDefault := defaults.OutputFile
	if value, ok := config.EnvString("CRAWLER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaults.MetricsAddr
	if value, ok := config.EnvString("CRAWLER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	baseURL := flag.String("base-url", defaults.BaseURL, "Catalogue start URL")
	maxPages := flag.Int("pages", pagesDefault, "Maximum catalogue pages to walk")
	timeoutSec := flag.Int("timeout", int(defaults.Timeout/time.Second), "Request timeout (seconds)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaults.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaults
	cfg.BaseURL = *baseURL
	cfg.MaxPages = *maxPages
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", cfg.MaxPages),
		slog.String("output", cfg.OutputFile),
	)

	c, err := crawl.New(cfg)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current page")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(c.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(cfg.PipelineWorkers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	result, runErr := c.Run(ctx, p)

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, p.GetMetrics(), cfg.OutputFile)

	if runErr != nil {
		// the partial sink written so far stays valid
		slog.Error("crawl stopped early", slog.Any("error", runErr))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, metrics map[string]interface{}, outputFile string) {
	written := int64(0)
	if processed, ok := metrics["processed_records"].(int64); ok {
		written = processed
	}
	duration := result.EndTime.Sub(result.StartTime)
	perSec := 0.0
	if duration.Seconds() > 0 {
		perSec = float64(written) / duration.Seconds()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Crawl summary", ""})
	t.AppendRows([]table.Row{
		{"Pages", result.PageCount},
		{"Records extracted", result.RecordCount},
		{"Records written", written},
		{"Errors", result.ErrorCount},
		{"Duration", duration.Round(time.Millisecond)},
		{"Records/sec", fmt.Sprintf("%.2f", perSec)},
		{"Output file", outputFile},
	})
	if gaps, ok := metrics["field_gaps"].(map[string]int); ok && len(gaps) > 0 {
		t.AppendRow(table.Row{"Field gaps", fmt.Sprintf("%v", gaps)})
	}
	t.Render()
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
