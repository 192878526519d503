package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/dedup"
)

func newDuplicatesCommand(ctx context.Context, app *Application) *cobra.Command {
	var shortSummary, longSummary, deduplicate bool
	var showHash string

	cmd := &cobra.Command{
		Use:   "duplicates [flags]",
		Short: "Summarize or resolve files sharing a content fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			digests, err := app.Catalog().DuplicateDigests(ctx)
			if err != nil {
				return err
			}
			if showHash != "" {
				var matched []string
				for _, d := range digests {
					if strings.HasPrefix(d, showHash) {
						matched = append(matched, d)
					}
				}
				digests = matched
			}

			switch {
			case longSummary:
				return printDuplicates(ctx, app, digests, true)
			case deduplicate:
				return runDeduplicate(ctx, app, digests)
			default:
				// shortSummary is also the default with no flags given.
				return printDuplicates(ctx, app, digests, false)
			}
		},
	}

	cmd.Flags().BoolVar(&shortSummary, "short-summary", false, "print one line per duplicate set (default)")
	cmd.Flags().BoolVar(&longSummary, "long-summary", false, "print every duplicate file's path and size")
	cmd.Flags().StringVar(&showHash, "show-hash", "", "restrict the report to digests matching this prefix")
	cmd.Flags().BoolVar(&deduplicate, "deduplicate", false, "resolve every duplicate set, auto-resolving where a prior preference is known")
	return cmd
}

func printDuplicates(ctx context.Context, app *Application, digests []string, long bool) error {
	for _, digest := range digests {
		files, err := app.Catalog().FilesWithHash(ctx, digest)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d files\n", digest, len(files))
		if !long {
			continue
		}
		for _, f := range files {
			abs, err := app.Catalog().FileAbsPath(ctx, f)
			if err != nil {
				return err
			}
			fmt.Printf("  %s (%s)\n", abs, humanize.Bytes(uint64(f.Size)))
		}
	}
	return nil
}

func runDeduplicate(ctx context.Context, app *Application, digests []string) error {
	d := dedup.New(app.Catalog(), app.Log(), app.Config().TmpPath, app.Config().TmpMinSpaceMB)
	d.DryRun = app.DryRun()
	stdin := bufio.NewReader(os.Stdin)

	keep := func(files []*catalog.File) (int, error) {
		fmt.Println("Multiple unresolved candidates; keep which one?")
		for i, f := range files {
			abs, err := app.Catalog().FileAbsPath(ctx, f)
			if err != nil {
				return 0, err
			}
			fmt.Printf("  [%d] %s\n", i, abs)
		}
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("reading keep selection: %w", err)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, fmt.Errorf("invalid selection %q: %w", line, err)
		}
		return idx, nil
	}

	for _, digest := range digests {
		if err := d.Resolve(ctx, digest, keep); err != nil {
			return fmt.Errorf("resolving duplicates for %s: %w", digest, err)
		}
	}
	return nil
}
