package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Count indexed files per sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.status(cmd.Context())
		},
	}
}

func (a *App) status(ctx context.Context) error {
	for _, st := range []models.SyncStatus{models.SyncStatusNew, models.SyncStatusInProgress, models.SyncStatusSynced} {
		fds, err := a.index.FindByStatus(ctx, st)
		if err != nil {
			return err
		}
		remote := lo.CountBy(fds, func(fd models.FileDescriptor) bool { return fd.IsRemoteOnly })
		if remote > 0 {
			a.printf("%s: %d (%d remote only)\n", st, len(fds), remote)
		} else {
			a.printf("%s: %d\n", st, len(fds))
		}
	}

	cursor, err := a.index.LastSyncCursor(ctx)
	if err != nil {
		return err
	}
	if cursor == nil {
		a.printf("last sync: never\n")
	} else {
		a.printf("last sync: %s\n", cursor.Local().Format(time.RFC3339))
	}
	return nil
}

func newGetCommand(a *App) *cobra.Command {
	var variant, output string

	cmd := &cobra.Command{
		Use:   "get <uuid>",
		Short: "Download and decrypt a file's original or thumbnail",
		Long: "Without --variant the original is materialized into the download directory " +
			"and its path printed. With --variant the decrypted part is written to --output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.get(cmd.Context(), args[0], variant, output)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "thumbnail variant, e.g. small-cover")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file for --variant")
	return cmd
}

func (a *App) get(ctx context.Context, rawID, variant, output string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("bad file id %q: %w", rawID, err)
	}
	u, c, err := a.session(ctx)
	if err != nil {
		return err
	}
	priv, err := a.privateKey(c, u)
	if err != nil {
		return err
	}
	s := a.syncer(c, u, priv)

	if common.VariantPartName(variant) == common.OriginalPartName && output == "" {
		p, err := s.Materialize(ctx, id)
		if err != nil {
			return err
		}
		a.printf("%s\n", p)
		return nil
	}

	if output == "" {
		return errors.New("--output is required with --variant")
	}
	data, err := s.FetchVariant(ctx, id, variant)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(a.fs, output, data, 0o600); err != nil {
		return err
	}
	a.printf("%s\n", output)
	return nil
}

func newResetCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return interrupted uploads to New so the next sync retries them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.index.ResetInProgress(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Reset %d files\n", n)
			return nil
		},
	}
}
