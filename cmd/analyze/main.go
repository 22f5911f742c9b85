// Command analyze runs the campaign report over local CSV or XLSX exports
// and prints the result as JSON.
//
//	analyze -campaign "Spring Sale" -platform google_ads exports/*.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/config"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/sources"
)

type output struct {
	Report     analytics.Report             `json:"report"`
	Sources    []sources.Status             `json:"sources"`
	Projection *analytics.ScalingProjection `json:"projection,omitempty"`
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config file for engine thresholds")
		campaign   = flag.String("campaign", "", "campaign name to match")
		platform   = flag.String("platform", "", "platform identifier to match")
		sheet      = flag.String("sheet", "", "XLSX sheet name (default: first sheet)")
		convValue  = flag.Float64("conversion-value", 0, "value per conversion when the export has no revenue column")
		increase   = flag.Float64("increase", 0, "also project a spend increase of this many percent")
		compact    = flag.Bool("compact", false, "print single-line JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: analyze [flags] export.csv|export.xlsx ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	thresholds := analytics.DefaultThresholds()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		thresholds = cfg.Engine.Thresholds()
		logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	} else {
		logger.SetLevel(logger.WARN)
	}

	srcs := make([]sources.Source, 0, flag.NArg())
	for _, path := range flag.Args() {
		src, err := sources.NewFileSource(path, *sheet)
		if err != nil {
			log.Fatalf("%v", err)
		}
		srcs = append(srcs, src)
	}

	ctx := context.Background()
	col := sources.NewCollector(0, nil).Collect(ctx, srcs...)
	if !col.Available() {
		for _, s := range col.Statuses {
			log.Printf("[analyze] %s: %s", s.Source, s.Error)
		}
		log.Fatal("no export could be read")
	}

	req := analytics.AnalysisRequest{
		Dataset:      col.Dataset,
		CampaignName: *campaign,
		PlatformID:   *platform,
	}
	if *convValue > 0 {
		req.ConversionValue = convValue
	}

	engine := analytics.NewEngine(thresholds)
	out := output{Report: engine.Analyze(req), Sources: col.Statuses}
	out.Report.Warnings = append(col.Warnings, out.Report.Warnings...)

	if *increase != 0 {
		p, err := engine.ProjectScaling(out.Report.Metrics, *increase)
		switch {
		case errors.Is(err, analytics.ErrInsufficientData):
			log.Printf("[analyze] projection skipped: %v", err)
		case err != nil:
			log.Fatalf("projection: %v", err)
		default:
			out.Projection = &p
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}
