package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the storagemgr cobra command tree.
func NewRootCommand(ctx context.Context) *cobra.Command {
	app := NewApplication()

	root := &cobra.Command{
		Use:           "storagemgr",
		Short:         "Manage a personal media archive: scan, archive, deduplicate",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	AddAppFlags(ctx, root, app)

	root.AddCommand(
		newArchiveCommand(ctx, app),
		newScanCommand(ctx, app),
		newDuplicatesCommand(ctx, app),
		newRootPathCommand(ctx, app),
		newFilterImagesCommand(ctx, app),
		newStatsCommand(ctx, app),
		newHashCommand(ctx, app),
	)
	return root
}
