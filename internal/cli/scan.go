package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/metadata"
	"github.com/akgrant43/storagemgr/internal/scanner"
)

func newScanCommand(ctx context.Context, app *Application) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "scan [--full] <root-path>...",
		Short: "Reconcile the catalog against what is actually on disk under one or more roots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := scanner.ModeQuick
			if full {
				mode = scanner.ModeFull
			}

			md, err := metadata.NewReader()
			if err != nil {
				return fmt.Errorf("starting metadata reader: %w", err)
			}
			defer md.Close()

			bar := progressbar.Default(-1, "scanning")
			s := scanner.New(app.Catalog(), md, app.Log(), mode)
			s.Progress = func(path string) { bar.Add(1) }
			s.DryRun = app.DryRun()
			for _, path := range args {
				root, err := app.Catalog().RootByPath(ctx, path)
				if err != nil {
					return fmt.Errorf("%q is not a registered root (use `storagemgr root add` first): %w", path, err)
				}
				if err := s.ScanRoot(ctx, root); err != nil {
					return fmt.Errorf("scanning %s: %w", path, err)
				}
				app.Log().OK("scanned %s", path)
			}
			bar.Finish()
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "re-fingerprint every live file, not just those whose stat signature changed")
	return cmd
}
