package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx context.Context, app *Application) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print root paths, keyword count, and live file count",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Catalog().Summarize(ctx)
			if err != nil {
				return err
			}

			roots, err := app.Catalog().ListRoots(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("roots: %d\n", s.RootCount)
			for _, r := range roots {
				fmt.Printf("  %s\n", r.Path)
			}
			fmt.Printf("keywords: %d\n", s.KeywordCount)
			fmt.Printf("files: %d\n", s.FileCount)
			return nil
		},
	}
}
