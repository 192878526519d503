package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/fingerprint"
	"github.com/akgrant43/storagemgr/internal/metadata"
)

func newFilterImagesCommand(ctx context.Context, app *Application) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "filter-images --model <regex> <dir>",
		Short: "List images under dir whose EXIF Make/Model matches a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return fmt.Errorf("--model is required")
			}
			re, err := regexp.Compile(model)
			if err != nil {
				return fmt.Errorf("invalid --model pattern %q: %w", model, err)
			}

			md, err := metadata.NewReader()
			if err != nil {
				return fmt.Errorf("starting metadata reader: %w", err)
			}
			defer md.Close()

			return filepath.WalkDir(args[0], func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					app.Log().Error("walking %s: %v", path, err)
					return nil
				}
				if d.IsDir() {
					return nil
				}
				ext := strings.ToLower(filepath.Ext(path))
				if !fingerprint.ImageExtensions[ext] {
					return nil
				}
				make_, camModel, err := md.CameraModel(path)
				if err != nil {
					app.Log().Error("reading tags from %s: %v", path, err)
					return nil
				}
				if re.MatchString(make_) || re.MatchString(camModel) {
					fmt.Println(path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "regular expression matched against EXIF Make or Model")
	return cmd
}
