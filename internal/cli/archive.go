package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/archiver"
	"github.com/akgrant43/storagemgr/internal/metadata"
)

func newArchiveCommand(ctx context.Context, app *Application) *cobra.Command {
	var images, videos, media, files, breakOnAdd bool

	cmd := &cobra.Command{
		Use:   "archive [flags] <srcdir> [<dstdir>]",
		Short: "Ingest a source tree into the canonical chronological archive layout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := countSelected(images, videos, media, files)
			if selected != 1 {
				return fmt.Errorf("exactly one of --images, --videos, --media, --files is required")
			}

			var policy *archiver.Policy
			var dst string
			switch {
			case images:
				policy = archiver.NewImagePolicy()
				dst = app.Config().ImagesArchive
			case videos:
				policy = archiver.NewVideoPolicy()
				dst = app.Config().VideoArchive
			case media:
				policy = archiver.NewMediaPolicy()
				dst = app.Config().ImagesArchive
			case files:
				policy = archiver.NewAnyPolicy()
			}
			if len(args) == 2 {
				dst = args[1]
			}
			if dst == "" {
				return fmt.Errorf("no destination directory given and no matching archive configured")
			}

			md, err := metadata.NewReader()
			if err != nil {
				return fmt.Errorf("starting metadata reader: %w", err)
			}
			defer md.Close()

			bar := progressbar.Default(-1, "archiving")
			a := archiver.New(app.Catalog(), md, app.Log(), policy)
			a.BreakOnAdd = breakOnAdd
			a.DryRun = app.DryRun()
			a.Progress = func(path string) { bar.Add(1) }
			err = a.Archive(ctx, args[0], dst)
			bar.Finish()
			return err
		},
	}

	cmd.Flags().BoolVar(&images, "images", false, "archive image files, named IMG-YYYYMMDD-HHMMSS-<microsecond>.ext")
	cmd.Flags().BoolVar(&videos, "videos", false, "archive video files, named VID-YYYYMMDD-HHMMSS-<microsecond>.ext")
	cmd.Flags().BoolVar(&media, "media", false, "archive both images and videos")
	cmd.Flags().BoolVar(&files, "files", false, "archive any file, keeping its original basename")
	cmd.Flags().BoolVar(&breakOnAdd, "break-on-add", false, "log each new file's source and destination before copying it (does not pause)")
	return cmd
}

func countSelected(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
