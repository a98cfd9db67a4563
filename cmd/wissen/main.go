// Command wissen runs the document ingestion and semantic retrieval
// pipeline from the command line.
//
// Usage:
//
//	wissen [-config path] ingest [-reset] <root-dir>
//	wissen [-config path] search [-k N] [-category C] <query>
//	wissen [-config path] get <document-id>
//	wissen [-config path] docs
//	wissen [-config path] categories
//	wissen [-config path] stats
//
// Configuration is read from a YAML file (see pkg/config) with WISSEN_*
// environment variable overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/wissen-dev/wissen/pkg/config"
	"github.com/wissen-dev/wissen/pkg/debug"
	"github.com/wissen-dev/wissen/pkg/observability"
	"github.com/wissen-dev/wissen/pkg/wissen"
)

func main() {
	if err := run(); err != nil {
		slog.Error("wissen failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	debug.Init()

	configPath := flag.String("config", "", "path to config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	svc := wissen.New(cfg)
	ctx := context.Background()

	if cfg.Metrics.Enabled {
		metrics, err := observability.NewMetricsServer(cfg.Metrics.Addr, cfg.Metrics.Path, svc.Collectors())
		if err != nil {
			return fmt.Errorf("setting up metrics: %w", err)
		}
		metrics.Start()
	}

	switch args[0] {
	case "ingest":
		return runIngest(ctx, svc, cfg.Ingest.Root, args[1:])
	case "search":
		return runSearch(ctx, svc, args[1:])
	case "get":
		return runGet(ctx, svc, args[1:])
	case "docs":
		return runDocs(ctx, svc)
	case "categories":
		return runCategories(ctx, svc)
	case "stats":
		return runStats(ctx, svc)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runIngest(ctx context.Context, svc *wissen.Service, defaultRoot string, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	reset := fs.Bool("reset", false, "delete the collection before ingesting")
	fs.Parse(args)

	root := defaultRoot
	if fs.NArg() == 1 {
		root = fs.Arg(0)
	}
	if root == "" || fs.NArg() > 1 {
		return fmt.Errorf("usage: wissen ingest [-reset] <root-dir>")
	}

	stats, err := svc.IngestDocuments(ctx, root, *reset)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d documents (%d chunks, %d skipped)\n", stats.Documents, stats.Chunks, stats.Skipped)
	if len(stats.Categories) > 0 {
		fmt.Printf("Categories: %v\n", stats.Categories)
	}
	return nil
}

func runSearch(ctx context.Context, svc *wissen.Service, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	topK := fs.Int("k", 0, "maximum number of results (0 = configured default)")
	category := fs.String("category", "", "restrict results to one category")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: wissen search [-k N] [-category C] <query>")
	}

	query := fs.Arg(0)
	for _, a := range fs.Args()[1:] {
		query += " " + a
	}

	results, err := svc.Search(ctx, query, *topK, *category)
	if err != nil {
		return fmt.Errorf("search unavailable: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s", i+1, r.Score, r.Metadata.DocumentName)
		if r.Metadata.Category != "" {
			fmt.Printf(" (%s)", r.Metadata.Category)
		}
		fmt.Printf("\n   %s\n", r.Content)
	}
	return nil
}

func runGet(ctx context.Context, svc *wissen.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: wissen get <document-id>")
	}
	text, err := svc.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Println("Document not found.")
		return nil
	}
	fmt.Println(text)
	return nil
}

func runDocs(ctx context.Context, svc *wissen.Service) error {
	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s  %s", d.DocumentID, d.DocumentName)
		if d.Category != "" {
			fmt.Printf("  [%s]", d.Category)
		}
		fmt.Println()
	}
	return nil
}

func runCategories(ctx context.Context, svc *wissen.Service) error {
	categories, err := svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Println(c)
	}
	return nil
}

func runStats(ctx context.Context, svc *wissen.Service) error {
	stats, err := svc.CollectionStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Points: %d\nStatus: %s\n", stats.Points, stats.Status)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: wissen [-config path] <command> [arguments]

Commands:
  ingest [-reset] [root-dir]            index all documents under a directory
                                        (defaults to the configured ingest root)
  search [-k N] [-category C] <query>   semantic search over indexed chunks
  get <document-id>                     print a document reassembled from its chunks
  docs                                  list indexed documents
  categories                            list document categories
  stats                                 show collection statistics
`)
}
