package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/engine"
	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/services"
)

func main() {
	report := flag.String("report", "", "write an ingestion report to this path (.xlsx or .json)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: reindex [-report path]")
		fmt.Fprintln(os.Stderr, "Fetches the help-desk documentation and indexes it into the vector store.")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// stdout carries the result line
	logger.InitLoggerWithWriter(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	defer eng.Close()

	res, err := eng.Reindex(ctx)
	if res != nil && *report != "" {
		if werr := writeReport(*report, res); werr != nil {
			logger.Error("Writing report failed", "path", *report, "error", werr)
		} else {
			fmt.Printf("Report written to %s\n", *report)
		}
	}

	var fatal *ingest.FatalDiscoveryError
	switch {
	case errors.As(err, &fatal):
		fmt.Fprintln(os.Stderr, "No ERP modules could be discovered. Check HELPDESK_API_URL.")
		os.Exit(1)
	case errors.Is(err, ingest.ErrNothingToIndex):
		fmt.Fprintln(os.Stderr, "No documentation content was collected, nothing indexed.")
		os.Exit(1)
	case err != nil:
		log.Fatalf("Reindex failed: %v", err)
	}

	fmt.Printf("Indexed %d documents from %d modules (%d skipped)\n",
		res.Indexed, res.ModulesFound, len(res.SkippedModules))
}

func writeReport(path string, res *ingest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := services.NewIngestionReport(res)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return r.WriteJSON(f)
	}
	return r.WriteExcel(f)
}
