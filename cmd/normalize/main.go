package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/ather123970/aalacomputer-sub003/config"
	"github.com/ather123970/aalacomputer-sub003/internal/domain"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/cache"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/jsonsource"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/reachability"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/report"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/rulebook"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/sqlite"
	"github.com/ather123970/aalacomputer-sub003/internal/usecase"
)

const (
	exitOK      = 0
	exitFailure = 1 // runtime or per-record failure
	exitUsage   = 2 // bad flags, configuration or rulebook
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: normalize <command> [flags]

commands:
  enrich         build a changeset from the store or a JSON export; -apply writes it
  import         load a JSON export into the sqlite store
  verify-images  check that every proposed image can actually be served

run "normalize <command> -h" for command flags`)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}

	cmd := args[0]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		usage(stdout)
		return exitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitUsage
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "logger error: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()

	switch cmd {
	case "enrich":
		return runEnrich(ctx, cfg, logger, args[1:], stdout, stderr)
	case "import":
		return runImport(ctx, cfg, logger, args[1:], stdout, stderr)
	case "verify-images":
		return runVerifyImages(ctx, cfg, logger, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		usage(stderr)
		return exitUsage
	}
}

// sourceFlags are shared by every command that reads products.
type sourceFlags struct {
	source  *string
	input   *string
	rules   *string
	workers *int
	report  *string
}

func addSourceFlags(fs *flag.FlagSet, cfg *config.Config) sourceFlags {
	return sourceFlags{
		source:  fs.String("source", "sqlite", "record source: sqlite|json"),
		input:   fs.String("input", "", "sqlite database or JSON export (default: store.path)"),
		rules:   fs.String("rules", cfg.Rules.Path, "rulebook YAML (default: embedded rulebook)"),
		workers: fs.Int("workers", cfg.Pipeline.Workers, "parallel enrichment workers"),
		report:  fs.String("report", "", "also write an XLSX report to this path"),
	}
}

// openSource returns the configured product source. store is non-nil only
// for the sqlite source; the caller closes it.
func openSource(cfg *config.Config, f sourceFlags) (domain.ProductSource, *sqlite.Store, error) {
	switch *f.source {
	case "sqlite":
		path := *f.input
		if path == "" {
			path = cfg.Store.Path
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store %s: %w", path, err)
		}
		return store, store, nil
	case "json":
		if strings.TrimSpace(*f.input) == "" {
			return nil, nil, fmt.Errorf("%w: -input is required for -source json", domain.ErrInvalidRequest)
		}
		return jsonsource.New(*f.input), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown source %q (want sqlite or json)", domain.ErrInvalidRequest, *f.source)
	}
}

func loadPipeline(path string, logger *zap.Logger) (*usecase.Pipeline, error) {
	book, err := rulebook.Load(path)
	if err != nil {
		return nil, err
	}
	tables, err := usecase.NewTables(book)
	if err != nil {
		return nil, err
	}
	return usecase.NewPipeline(tables, logger.Named("pipeline")), nil
}

func runEnrich(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	fs.SetOutput(stderr)
	src := addSourceFlags(fs, cfg)
	dryRun := fs.Bool("dry-run", true, "print the changeset without writing anything")
	apply := fs.Bool("apply", false, "write changed records back to the sqlite store")
	out := fs.String("out", "", "write the changeset JSON to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	dryRunSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dry-run" {
			dryRunSet = true
		}
	})
	if *apply && dryRunSet && *dryRun {
		fmt.Fprintln(stderr, "-apply and -dry-run are mutually exclusive")
		return exitUsage
	}
	if *apply && *src.source != "sqlite" {
		fmt.Fprintln(stderr, "-apply needs -source sqlite")
		return exitUsage
	}

	pipeline, err := loadPipeline(*src.rules, logger)
	if err != nil {
		fmt.Fprintf(stderr, "rulebook error: %v\n", err)
		return exitUsage
	}

	source, store, err := openSource(cfg, src)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitCodeFor(err)
	}
	if store != nil {
		defer store.Close()
	}

	records, err := source.ListProducts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "read products: %v\n", err)
		return exitFailure
	}

	changeset, err := pipeline.BuildChangeset(ctx, records, *src.workers)
	if err != nil {
		fmt.Fprintf(stderr, "enrich: %v\n", err)
		return exitFailure
	}

	if *src.report != "" {
		if err := report.ExportChangesetToXLSX(changeset, nil, *src.report); err != nil {
			fmt.Fprintf(stderr, "write report: %v\n", err)
			return exitFailure
		}
		logger.Info("Wrote changeset report", zap.String("path", *src.report))
	}

	if !*apply || *out != "" {
		if err := writeJSON(*out, stdout, changeset); err != nil {
			fmt.Fprintf(stderr, "write changeset: %v\n", err)
			return exitFailure
		}
	}

	if !*apply {
		return exitOK
	}

	applier := usecase.NewChangesetApplier(store, logger.Named("applier"))
	applyReport, err := applier.Apply(ctx, changeset.Results)
	if err != nil {
		fmt.Fprintf(stderr, "apply: %v\n", err)
		return exitFailure
	}
	if err := writeJSON("", stdout, applyReport); err != nil {
		fmt.Fprintf(stderr, "write report: %v\n", err)
		return exitFailure
	}
	if len(applyReport.Failures) > 0 {
		return exitFailure
	}
	return exitOK
}

func runImport(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "JSON export to import (required)")
	dbPath := fs.String("db", cfg.Store.Path, "sqlite database to write")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(stderr, "-input is required")
		return exitUsage
	}

	records, err := jsonsource.New(*input).ListProducts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "read products: %v\n", err)
		return exitFailure
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "open store %s: %v\n", *dbPath, err)
		return exitFailure
	}
	defer store.Close()

	n, err := store.UpsertProducts(ctx, records)
	if err != nil {
		fmt.Fprintf(stderr, "import: %v\n", err)
		return exitFailure
	}

	logger.Info("Imported products", zap.Int("count", n), zap.String("db", *dbPath))
	fmt.Fprintf(stdout, "imported %d products into %s\n", n, *dbPath)
	return exitOK
}

// auditLine is the JSON form of one image audit.
type auditLine struct {
	ID        string                `json:"id"`
	Image     domain.ImageReference `json:"image"`
	Reachable bool                  `json:"reachable"`
	Cached    bool                  `json:"cached,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func runVerifyImages(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify-images", flag.ContinueOnError)
	fs.SetOutput(stderr)
	src := addSourceFlags(fs, cfg)
	publicDir := fs.String("public-dir", cfg.Images.PublicDir, "directory local image paths are served from")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	pipeline, err := loadPipeline(*src.rules, logger)
	if err != nil {
		fmt.Fprintf(stderr, "rulebook error: %v\n", err)
		return exitUsage
	}

	source, store, err := openSource(cfg, src)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitCodeFor(err)
	}
	if store != nil {
		defer store.Close()
	}

	records, err := source.ListProducts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "read products: %v\n", err)
		return exitFailure
	}

	changeset, err := pipeline.BuildChangeset(ctx, records, *src.workers)
	if err != nil {
		fmt.Fprintf(stderr, "enrich: %v\n", err)
		return exitFailure
	}

	memoryCache := cache.NewMemoryCache(0)
	defer memoryCache.Close()

	checker := reachability.NewClient(reachability.Config{
		PublicDir:         *publicDir,
		Timeout:           cfg.Reachability.Timeout,
		RequestsPerSecond: cfg.Reachability.RequestsPerSecond,
		Burst:             cfg.Reachability.Burst,
		MaxRetries:        cfg.Reachability.MaxRetries,
	}, logger.Named("reachability"))

	verifier := usecase.NewImageVerifier(memoryCache, checker, usecase.ImageVerifierConfig{
		CacheTTL:    cfg.Reachability.CacheTTL,
		Concurrency: *src.workers,
	}, logger.Named("verifier"))

	audits, err := verifier.VerifyBatch(ctx, changeset.Results)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	failed, unreachable := 0, 0
	for _, a := range audits {
		line := auditLine{ID: a.ID, Image: a.Image, Reachable: a.Reachable, Cached: a.Cached}
		if a.Err != nil {
			line.Error = a.Err.Error()
			failed++
		} else if !a.Reachable {
			unreachable++
		}
		if err := enc.Encode(line); err != nil {
			fmt.Fprintf(stderr, "write audit: %v\n", err)
			return exitFailure
		}
	}

	if *src.report != "" {
		if err := report.ExportChangesetToXLSX(changeset, audits, *src.report); err != nil {
			fmt.Fprintf(stderr, "write report: %v\n", err)
			return exitFailure
		}
	}

	logger.Info("Verified images",
		zap.Int("checked", len(audits)),
		zap.Int("unreachable", unreachable),
		zap.Int("failed", failed))

	if failed > 0 {
		return exitFailure
	}
	return exitOK
}

// writeJSON writes v as indented JSON to path, or to fallback when path is empty.
func writeJSON(path string, fallback io.Writer, v any) error {
	w := fallback
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCodeFor(err error) int {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return exitUsage
	}
	return exitFailure
}
