// Command prospect crawls the programme catalog and ingests the results into
// the vector document store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"programme-search/pkg/artifact"
	"programme-search/pkg/catalog"
	"programme-search/pkg/config"
	"programme-search/pkg/crawl"
	"programme-search/pkg/embed"
	"programme-search/pkg/fetch"
	"programme-search/pkg/ingest"
	"programme-search/pkg/pdfx"
	"programme-search/pkg/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prospect",
		Short:         "Crawl graduate programme pages and build the searchable knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCatalogCmd())
	return root
}

type runOptions struct {
	programme string
	noPDFs    bool
	dryRun    bool
	saveJSON  bool
	clean     bool
	storeKind string
	jsonDir   string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl the catalog and ingest documents into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.programme, "programme", "", "only crawl entries whose name/slug contains this substring")
	cmd.Flags().BoolVar(&opts.noPDFs, "no-pdfs", false, "skip PDF download and extraction")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "crawl only; do not write to the store")
	cmd.Flags().BoolVar(&opts.saveJSON, "save-json", false, "also save crawled data as JSON artifacts")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "clear prior documents and programmes before ingesting")
	cmd.Flags().StringVar(&opts.storeKind, "store", "postgres", "document sink: postgres or supabase")
	cmd.Flags().StringVar(&opts.jsonDir, "json-dir", "data/scraped", "directory for JSON artifacts")

	return cmd
}

func run(ctx context.Context, opts runOptions) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	settings, err := config.Load()
	if err != nil {
		return err
	}

	entries := catalog.Filter(catalog.All(), opts.programme)
	if len(entries) == 0 {
		return errors.New("no catalog entries matched the filter")
	}

	fmt.Printf("Programmes to crawl: %d\n", len(entries))
	fmt.Printf("PDF extraction:      %s\n", onOff(!opts.noPDFs))
	fmt.Printf("Dry run:             %s\n", onOff(opts.dryRun))

	fetcher := fetch.New(logger, fetch.WithDelay(settings.RequestDelay))
	downloader := pdfx.NewDownloader(settings.PDFDir, logger)
	crawler := crawl.New(fetcher, downloader, logger, crawl.WithSkipPDFs(opts.noPDFs))

	results, summary := crawler.CrawlAll(ctx, entries)

	if opts.saveJSON {
		if err := artifact.Save(opts.jsonDir, results); err != nil {
			return err
		}
		fmt.Printf("Saved JSON artifacts to %s\n", opts.jsonDir)
	}

	totalChunks := 0
	if !opts.dryRun {
		st, err := openStore(ctx, settings, opts.storeKind)
		if err != nil {
			return err
		}
		defer st.Close()

		if opts.clean {
			if err := st.DeleteAllDocuments(ctx); err != nil {
				return err
			}
			if err := st.DeleteAllProgrammes(ctx); err != nil {
				logger.Warn("could not clean programmes table", zap.Error(err))
			}
		}

		embedder := embed.NewClient(settings.OpenAIAPIKey, "", settings.EmbeddingModel, settings.EmbeddingDimensions)
		ingestor := ingest.New(embedder, st, settings.ChunkSize, settings.ChunkOverlap, settings.EmbedBatchSize, logger)

		for _, result := range results {
			if result.Failed() {
				fmt.Printf("  Skipping %s (landing page failed)\n", result.Entry.Name)
				continue
			}
			if err := st.UpsertProgramme(ctx, ingest.BuildProgrammeRecord(result)); err != nil {
				logger.Warn("failed to upsert programme", zap.String("slug", result.Entry.Slug), zap.Error(err))
			}
			n, err := ingestor.Ingest(ctx, result)
			totalChunks += n
			if err != nil {
				logger.Error("ingestion failed", zap.String("slug", result.Entry.Slug), zap.Error(err))
				continue
			}
			fmt.Printf("  Ingested %s: %d chunks\n", result.Entry.Name, n)
		}
	}

	fmt.Println("\nCRAWL COMPLETE")
	fmt.Printf("Programmes crawled: %d/%d\n", summary.Succeeded, summary.Entries)
	fmt.Printf("Sub-pages:          %d\n", summary.SubPages)
	fmt.Printf("PDFs extracted:     %d\n", summary.PDFs)
	if !opts.dryRun {
		fmt.Printf("Document chunks:    %d\n", totalChunks)
	} else {
		fmt.Println("(dry run - nothing written to the store)")
	}

	return nil
}

func openStore(ctx context.Context, settings *config.Settings, kind string) (store.Store, error) {
	switch kind {
	case "postgres":
		pg := store.NewPostgresStore(store.PostgresConfig{DSN: settings.DatabaseDSN})
		if err := pg.Connect(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case "supabase":
		return store.NewSupabaseStore(store.SupabaseConfig{
			URL: settings.SupabaseURL,
			Key: settings.SupabaseKey,
		})
	default:
		return nil, fmt.Errorf("unknown store %q (want postgres or supabase)", kind)
	}
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the curated programme catalog",
		Run: func(_ *cobra.Command, _ []string) {
			for _, e := range catalog.All() {
				external := ""
				if e.IsExternal {
					external = " (external)"
				}
				fmt.Printf("%-34s %-10s %s%s\n", e.Slug, e.Category, e.LandingURL, external)
			}
		},
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
