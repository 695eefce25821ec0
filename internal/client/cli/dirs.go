package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/spf13/cobra"
)

func newDirsCommand(a *App) *cobra.Command {
	dirs := &cobra.Command{
		Use:   "dirs",
		Short: "Manage watched directories",
	}
	dirs.AddCommand(
		&cobra.Command{
			Use:   "add <path>...",
			Short: "Watch directories for new images",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.addDirs(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print watched directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.listDirs(cmd.Context())
			},
		},
	)
	return dirs
}

func (a *App) addDirs(ctx context.Context, paths []string) error {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		p, err := filex.ExpandHome(p)
		if err != nil {
			return err
		}
		if p, err = filepath.Abs(p); err != nil {
			return err
		}
		fi, err := a.fs.Stat(p)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", p)
		}
		abs = append(abs, p)
	}

	if err := a.index.SaveDirectories(ctx, abs); err != nil {
		return err
	}
	for _, p := range abs {
		a.printf("Watching %s\n", p)
	}
	return nil
}

func (a *App) listDirs(ctx context.Context) error {
	dirs, err := a.index.Directories(ctx)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		a.printf("%s\n", d)
	}
	return nil
}
