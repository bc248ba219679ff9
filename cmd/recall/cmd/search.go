package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/notewell/recall/internal/output"
)

func newSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve context for a query",
		Long: `Retrieve the most relevant note chunks for a query.

Results are ranked by cosine similarity, one entry per note.
The index is built on first use if no usable cache exists.

Examples:
  recall search "meeting notes from last week"
  recall search -k 5 "deploy checklist"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			if topK > 0 {
				cfg.Retrieval.TopK = topK
			}

			coord, _, provider, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			out := output.New(cmd.OutOrStdout())
			query := strings.Join(args, " ")
			results := coord.RetrieveContext(cmd.Context(), query)
			if len(results) == 0 {
				out.Println("No results.")
				return nil
			}

			for i, r := range results {
				if i > 0 {
					out.Println("")
				}
				out.Separator(i+1, len(results))
				out.Println(r)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Maximum entries to return (default from config)")
	return cmd
}
