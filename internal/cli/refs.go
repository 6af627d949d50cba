package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ubreader/internal/reference"
)

type refsOptions struct {
	link    bool
	baseURL string
	json    bool
}

func newRefsCmd() *cobra.Command {
	var opts refsOptions
	cmd := &cobra.Command{
		Use:   "refs [file]",
		Short: "Find paper and section references in text",
		Long: `Lists every "Paper N, Section M" and "N:M" reference in a file, or in
standard input when no file is given. With --link the text is printed with
each reference replaced by an HTML link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.link, "link", false, "print the text with references replaced by links")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "reader base URL for links (default READER_BASE_URL)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print references as JSON")
	return cmd
}

func runRefs(cmd *cobra.Command, args []string, opts refsOptions) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = configFrom(cmd).ReaderBaseURL
	}
	linker := reference.NewLinker(baseURL)

	if opts.link {
		cmd.Print(linker.Link(string(text)))
		return nil
	}

	refs := linker.Parse(string(text))
	if opts.json {
		if refs == nil {
			refs = []reference.Reference{}
		}
		data, err := json.MarshalIndent(refs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal references: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(refs) == 0 {
		cmd.Println("No references found.")
		return nil
	}
	for _, ref := range refs {
		cmd.Printf("%-24s %-22q %d-%d  %s\n",
			reference.Format(ref.Paper, ref.Section),
			ref.OriginalText,
			ref.Position.Start, ref.Position.End,
			linker.URL(ref))
	}
	return nil
}

// readInput returns the named file, or standard input when args is empty.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
