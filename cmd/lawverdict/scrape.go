package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/export"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/internal/service"
	"github.com/spf13/cobra"
)

// scrapeRunner is the part of the service the terminal flow drives
type scrapeRunner interface {
	Start(ctx context.Context, to time.Time, option scraper.Option) (*service.Started, error)
	RefreshCaptcha(ctx context.Context, id string) error
	Submit(ctx context.Context, id, captcha string) (*service.RunReport, error)
	Close(id string) error
}

// NewScrapeCmd creates the scrape command
func NewScrapeCmd() *cobra.Command {
	var (
		toDate string
		option string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape, solving the CAPTCHA on the terminal",
		Long: `Open the portal, fill the date window ending on --to, save the CAPTCHA image
and wait for you to type it. Type "r" to get a new image.`,
		Example: `  # Judgments of the last 10 days, reportable only
  lawverdict scrape

  # Window ending on a given date, all judgments
  lawverdict scrape --to 14/08/2025 --option All`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			to := time.Now()
			if toDate != "" {
				parsed, err := scraper.ParseDate(toDate)
				if err != nil {
					return err
				}
				to = parsed
			}
			opt, err := scraper.ParseOption(option)
			if err != nil {
				return err
			}

			cfg, log, store, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			browser := scraper.NewBrowser(cfg, log)
			defer browser.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			svc := service.New(cfg, browser, store, log)
			return runScrape(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), to, opt)
		},
	}

	cmd.Flags().StringVar(&toDate, "to", "", "last day of the window, dd/mm/yyyy (default today)")
	cmd.Flags().StringVar(&option, "option", "Yes", "reportable judgments: Yes, No or All")

	return cmd
}

// runScrape drives one session from start to report on a terminal
func runScrape(ctx context.Context, svc scrapeRunner, in io.Reader, out io.Writer, to time.Time, opt scraper.Option) error {
	started, err := svc.Start(ctx, to, opt)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scraping from %s to %s (reportable: %s)\n", started.FromDate, started.ToDate, started.Option)

	lines := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "CAPTCHA saved to %s\nEnter CAPTCHA (r for a new one): ", started.CaptchaPath)
		if !lines.Scan() {
			_ = svc.Close(started.ID)
			if err := lines.Err(); err != nil {
				return err
			}
			return errors.New("no CAPTCHA entered")
		}

		answer := strings.TrimSpace(lines.Text())
		switch strings.ToLower(answer) {
		case "":
			continue
		case "r":
			if err := svc.RefreshCaptcha(ctx, started.ID); err != nil {
				_ = svc.Close(started.ID)
				return err
			}
			continue
		}

		report, err := svc.Submit(ctx, started.ID, answer)
		if errors.Is(err, scraper.ErrCaptchaRejected) {
			fmt.Fprintln(out, "CAPTCHA rejected, try again.")
			continue
		}
		if report == nil {
			_ = svc.Close(started.ID)
			return err
		}

		printReport(out, report)
		return err
	}
}

func printReport(out io.Writer, report *service.RunReport) {
	if report.NewCount == 0 {
		fmt.Fprintf(out, "No new data found (%d pages, %d already stored).\n", report.Pages, report.AlreadySeen)
	} else {
		export.RenderRecords(out, report.Records)
		fmt.Fprintf(out, "Scraping complete! %d new rows added.\n", report.NewCount)
	}

	if report.ExportPath != "" {
		fmt.Fprintf(out, "CSV written to %s\n", report.ExportPath)
	}
	if report.Skipped > 0 {
		fmt.Fprintf(out, "%d rows skipped, they will be retried on the next run.\n", report.Skipped)
	}
	for _, e := range report.InsertErrors {
		fmt.Fprintf(out, "not stored: %s\n", e)
	}
}
