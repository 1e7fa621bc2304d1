// Command docpipe runs the document pipeline over one or more image files and
// prints each result envelope as JSON. With -xlsx it additionally writes a
// spreadsheet summary, and with -metrics-addr it serves Prometheus metrics
// while processing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/amitayks/visara-docpipe/internal/common"
	"github.com/amitayks/visara-docpipe/internal/export"
	"github.com/amitayks/visara-docpipe/internal/metrics"
	"github.com/amitayks/visara-docpipe/internal/ocr"
	"github.com/amitayks/visara-docpipe/internal/pipeline"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "write an XLSX summary to this path")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address while processing")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: docpipe [flags] <image> [image...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(logger, flag.Args(), *xlsxPath, *metricsAddr, *pretty); err != nil {
		logger.Error("docpipe.failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, images []string, xlsxPath, metricsAddr string, pretty bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig(logger)
	m := metrics.New()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("docpipe.metrics_server.failed", "addr", metricsAddr, "error", err)
			}
		}()
	}

	provider := ocr.NewTesseractProvider(ocr.TesseractConfig{
		Languages:   cfg.OCR.Languages,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
	}, logger)

	proc, err := pipeline.NewProcessor(logger, provider, pipeline.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}
	if err := proc.Init(ctx); err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	opts := pipeline.OptionsFromConfig(cfg)

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}

	var results []*pipeline.Result
	for _, img := range images {
		if ctx.Err() != nil {
			logger.Warn("docpipe.interrupted", "remaining", len(images)-len(results))
			break
		}
		res := proc.ProcessDocument(ctx, img, opts)
		results = append(results, res)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result for %s: %w", img, err)
		}
	}

	if xlsxPath != "" {
		svc := export.NewService(logger, cfg.Export.SheetName)
		if err := svc.WriteXLSX(xlsxPath, results); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
	}
	return nil
}
