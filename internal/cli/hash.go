package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/fingerprint"
)

func newHashCommand(ctx context.Context, app *Application) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print a file's content digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := fingerprint.Digest(args[0])
			if err != nil {
				return fmt.Errorf("hashing %s: %w", args[0], err)
			}
			fmt.Println(digest)
			return nil
		},
	}
}
