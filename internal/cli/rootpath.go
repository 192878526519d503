package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRootPathCommand(ctx context.Context, app *Application) *cobra.Command {
	root := &cobra.Command{
		Use:   "root",
		Short: "Manage registered root paths and directory exclusions",
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "add <path>",
			Short: "Register path as a managed root",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := app.Catalog().AddRoot(ctx, args[0])
				if err != nil {
					return err
				}
				app.Log().OK("registered root %d: %s", r.ID, r.Path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <path>",
			Short: "Deregister a managed root",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.Catalog().RemoveRoot(ctx, args[0]); err != nil {
					return err
				}
				app.Log().OK("removed root %s", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "exclude-dir <regex> [<root-path>]",
			Short: "Register a directory-path exclusion pattern, global or scoped to one root",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var rootID int64
				if len(args) == 2 {
					r, err := app.Catalog().RootByPath(ctx, args[1])
					if err != nil {
						return fmt.Errorf("%q is not a registered root: %w", args[1], err)
					}
					rootID = r.ID
				}
				ex, err := app.Catalog().AddExcludeDir(ctx, args[0], rootID)
				if err != nil {
					return err
				}
				scope := "globally"
				if ex.RootID.Valid {
					scope = "for root " + strconv.FormatInt(ex.RootID.Int64, 10)
				}
				app.Log().OK("excluding %q %s", ex.Pattern, scope)
				return nil
			},
		},
	)
	return root
}
