// Package cli implements the ubreader command line: build, search, refs and
// transform.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"ubreader/internal/config"
	"ubreader/internal/contextutil"
)

// NewRootCommand returns the ubreader command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ubreader",
		Short: "Transform, index and search reader content",
		Long: `ubreader converts Markdown, Perplexity answers and DOCX files into a
canonical document tree, builds a search index from a content directory and
queries it. Defaults come from the same environment variables as the API
server (CONTENT_DIR, INDEX_PATH, DB_PATH, ...), and from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(cmd.ErrOrStderr())
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withConfig(contextutil.WithLogger(ctx, logger), cfg))
			return nil
		},
	}

	root.AddCommand(
		newBuildCmd(),
		newSearchCmd(),
		newRefsCmd(),
		newTransformCmd(),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the Config loaded by the root command.
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}
