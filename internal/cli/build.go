package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"ubreader/internal/app"
	"ubreader/internal/document"
	"ubreader/internal/indexer"
	"ubreader/internal/transform"
)

type buildOptions struct {
	indexPath   string
	dbPath      string
	frontmatter string
	concurrency int
	json        bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build [content-dir]",
		Short: "Build the search index from a content directory",
		Long: `Scans the content directory, transforms every supported file and writes
the search index JSON file and the SQLite document catalog. The content
directory defaults to CONTENT_DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.indexPath, "index", "", "index file path (default INDEX_PATH)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default DB_PATH)")
	cmd.Flags().StringVar(&opts.frontmatter, "frontmatter", "", "frontmatter mode: flat or yaml (default FRONTMATTER_MODE)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "files transformed in parallel (default BUILD_CONCURRENCY)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print build statistics as JSON")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string, opts buildOptions) error {
	cfg := *configFrom(cmd)
	if len(args) == 1 {
		cfg.ContentDir = args[0]
	}
	if opts.indexPath != "" {
		cfg.IndexPath = opts.indexPath
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.frontmatter != "" {
		mode, err := transform.ParseFrontmatterMode(opts.frontmatter)
		if err != nil {
			return err
		}
		cfg.FrontmatterMode = mode
	}
	if opts.concurrency > 0 {
		cfg.BuildConcurrency = opts.concurrency
	}
	if err := cfg.RequireContentDir(); err != nil {
		return err
	}

	a, err := app.New(&cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	result, err := a.Search.Rebuild(cmd.Context())
	if err != nil {
		return err
	}

	if opts.json {
		data, err := json.MarshalIndent(result.Stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printStats(cmd, result, cfg.IndexPath)
	return nil
}

func printStats(cmd *cobra.Command, result *indexer.Result, indexPath string) {
	s := result.Stats
	cmd.Printf("Build %s\n", result.BuildID)
	cmd.Printf("  Index:     %s\n", indexPath)
	cmd.Printf("  Files:     %d scanned, %d indexed, %d failed\n", s.FilesScanned, s.Documents, s.Failures)

	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		cmd.Printf("  %-10s %d\n", t+":", s.ByType[document.DocType(t)])
	}
	cmd.Printf("  Content:   mean %.0f, p95 %d runes\n", s.ContentRunes.Mean, s.ContentRunes.P95)
}
