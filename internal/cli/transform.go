package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ubreader/internal/app"
	ext "ubreader/internal/extension"
	"ubreader/internal/transform"
)

type transformOptions struct {
	format      string
	frontmatter string
	html        bool
	page        bool
}

func newTransformCmd() *cobra.Command {
	var opts transformOptions
	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Transform a source file into a reader document",
		Long: `Converts a Markdown, Perplexity or DOCX file and prints the resulting
document as JSON. The format is detected from the file extension unless
--format is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "source format: markdown, perplexity or docx")
	cmd.Flags().StringVar(&opts.frontmatter, "frontmatter", "", "frontmatter mode: flat or yaml (default FRONTMATTER_MODE)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "print only the rendered content HTML")
	cmd.Flags().BoolVar(&opts.page, "page", false, "print the full page with header and table of contents")
	cmd.MarkFlagsMutuallyExclusive("html", "page")
	return cmd
}

func runTransform(cmd *cobra.Command, path string, opts transformOptions) error {
	format := transform.Format(opts.format)
	switch format {
	case transform.FormatMarkdown, transform.FormatPerplexity, transform.FormatDOCX:
	case "":
		detected, ok := transform.DetectFormat(path)
		if !ok {
			return fmt.Errorf("cannot detect format of %s; use --format", path)
		}
		format = detected
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg := *configFrom(cmd)
	if opts.frontmatter != "" {
		mode, err := transform.ParseFrontmatterMode(opts.frontmatter)
		if err != nil {
			return err
		}
		cfg.FrontmatterMode = mode
	}
	reg, t, err := app.NewTransformer(&cfg)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, []string{path})
	if err != nil {
		return err
	}
	doc, err := t.Transform(format, data)
	if err != nil {
		return err
	}

	switch {
	case opts.html:
		cmd.Println(doc.HTML)
	case opts.page:
		cmd.Println(ext.RenderPage(reg, doc))
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(out))
	}
	return nil
}
