package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/Hemanthmaddila/AI-agent/internal/app"
	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/database/migration"
	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
	"github.com/Hemanthmaddila/AI-agent/internal/scraper"
)

func main() {
	keywords := flag.String("keywords", "", "job search keywords")
	location := flag.String("location", "", "job location")
	sources := flag.String("sources", "", "comma-separated source filter (linkedin, indeed, remote.co, wellfound, stackoverflow)")
	datePosted := flag.String("date-posted", "", "date posted filter (past_day, past_week, past_month)")
	limit := flag.Int("limit", 10, "max postings per source")
	asJSON := flag.Bool("json", false, "emit the raw report as JSON")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall search timeout")
	flag.Parse()

	if strings.TrimSpace(*keywords) == "" {
		fmt.Fprintln(os.Stderr, "usage: agent -keywords \"software engineer\" [-location \"remote\"] [-sources linkedin,indeed]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	if c.DB != nil {
		migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := migration.Run(migCtx, c.DB.SQLDB())
		migCancel()
		if err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	req := job.SearchRequest{
		Keywords:       *keywords,
		Location:       *location,
		LimitPerSource: *limit,
		DatePosted:     job.DatePostedFilter(strings.TrimSpace(*datePosted)),
	}
	if s := strings.TrimSpace(*sources); s != "" {
		req.EnabledSources = strings.Split(s, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report := c.Orchestrator.Run(ctx, req)

	if c.Repo != nil {
		if n, err := c.Repo.SaveAll(ctx, report.Postings); err != nil {
			logger.Printf("[Agent] persisted %d postings with errors: %v", n, err)
		} else {
			logger.Printf("[Agent] persisted %d postings", n)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}

	renderReport(report)
	if !report.Succeeded() {
		os.Exit(1)
	}
}

func renderReport(report scraper.Report) {
	for _, res := range report.Results {
		fmt.Printf("%s %s: %d postings in %s",
			statusBadge(res.Status), res.Source, len(res.Postings), res.Elapsed.Round(time.Millisecond))
		if res.Message != "" {
			fmt.Printf(" (%s)", res.Message)
		}
		fmt.Println()
	}

	fmt.Printf("\n%d postings after merging (%d duplicates removed)\n\n",
		len(report.Postings), report.DuplicatesRemoved)

	for i, p := range report.Postings {
		title := pterm.LightCyan(p.Title)
		if p.IsSynthetic {
			title += pterm.Gray(" [synthetic]")
		}
		fmt.Printf("%2d. %s - %s\n", i+1, title, p.Company)
		if p.Location != "" {
			fmt.Printf("    %s\n", p.Location)
		}
		if p.SalaryRange != "" {
			comp := pterm.Green(p.SalaryRange)
			if p.EquityRange != "" {
				comp += pterm.Green(" + " + p.EquityRange + " equity")
			}
			fmt.Printf("    %s\n", comp)
		} else if p.EquityRange != "" {
			fmt.Printf("    %s\n", pterm.Green(p.EquityRange+" equity"))
		}
		if p.FundingStage != "" {
			fmt.Printf("    %s\n", pterm.Gray(p.FundingStage))
		}
		fmt.Printf("    %s  %s\n", pterm.Gray(p.Source), p.URL)
	}
}

func statusBadge(s scraper.Status) string {
	switch s {
	case scraper.StatusSuccess:
		return pterm.Green("[ok]")
	case scraper.StatusPartial:
		return pterm.Yellow("[partial]")
	case scraper.StatusTimeout:
		return pterm.Red("[timeout]")
	default:
		return pterm.Red("[error]")
	}
}
