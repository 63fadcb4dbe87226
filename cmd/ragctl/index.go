package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/schema"

	"github.com/ragbuilder/modelservice/pkg/model"
	"github.com/ragbuilder/modelservice/pkg/scraper"
)

func newIndexCommand(root *rootOptions) *cobra.Command {
	var projectID string
	var fileID string
	var scrapeURL string
	var scrapeDepth int

	cmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "Index documents into the namespace",
		Long: "Index local files, or crawl a documentation site with --url, " +
			"into the tenant namespace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && scrapeURL == "" {
				return fmt.Errorf("provide files to index or --url to crawl")
			}

			app, err := root.buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			bar := newProgressBar(len(args), " Reading documents")
			docs := make([]schema.Document, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				docs = append(docs, schema.Document{
					PageContent: string(data),
					Metadata:    map[string]any{"source": filepath.Base(path)},
				})
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			if scrapeURL != "" {
				s, err := scraper.New(scraper.Config{
					BaseURL:  scrapeURL,
					MaxDepth: scrapeDepth,
				}, app.logger)
				if err != nil {
					return err
				}
				spinner := newSpinner(" Crawling " + scrapeURL)
				scraped, err := s.Scrape(ctx, scrapeURL)
				_ = spinner.Finish()
				if err != nil {
					return err
				}
				color.Green("✓ Scraped %d pages\n", len(scraped))
				docs = append(docs, scraped...)
			}

			callMetadata := map[string]any{"user_id": root.namespace}
			if projectID != "" {
				callMetadata["project_id"] = projectID
			}
			if fileID != "" {
				callMetadata["file_id"] = fileID
			}

			spinner := newSpinner(" Indexing...")
			ids, err := app.model.Index(ctx, docs, model.IndexOptions{
				Namespace: root.namespace,
				Metadata:  callMetadata,
			})
			_ = spinner.Finish()
			if err != nil {
				return err
			}

			color.Green("✓ Indexed %d documents into %d vectors\n", len(docs), len(ids))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "project id applied to every document")
	cmd.Flags().StringVar(&fileID, "file-id", "", "file id applied to every document")
	cmd.Flags().StringVar(&scrapeURL, "url", "", "documentation URL to crawl and index")
	cmd.Flags().IntVar(&scrapeDepth, "max-depth", 3, "maximum crawl depth for --url")
	return cmd
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
