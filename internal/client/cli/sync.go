package cli

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/photovault/internal/client/services"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/spf13/cobra"
)

// errPartialSync makes the exit status non-zero when some files failed.
var errPartialSync = errors.New("some files failed to sync, they are retried on the next run")

func newIndexCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan watched directories and index new images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runIndex(cmd.Context())
		},
	}
}

func (a *App) runIndex(ctx context.Context) error {
	u, c, err := a.session(ctx)
	if err != nil {
		return err
	}
	priv, err := a.privateKey(c, u)
	if err != nil {
		return err
	}

	n, err := a.indexer().Index(ctx, &priv.PublicKey)
	if err != nil {
		return err
	}
	a.printf("Indexed %d new files\n", n)
	return nil
}

// indexingSyncer indexes the watched directories before every sync pass,
// so files added between passes are picked up.
type indexingSyncer struct {
	indexer *services.IndexerService
	syncer  *services.SyncService
	pub     *rsa.PublicKey
	log     logging.Logger
}

func (s *indexingSyncer) Sync(ctx context.Context) (*services.SyncReport, error) {
	if s.indexer != nil {
		n, err := s.indexer.Index(ctx, s.pub)
		if err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
		if n > 0 {
			s.log.Info(ctx, "indexed new files", "count", n)
		}
	}
	return s.syncer.Sync(ctx)
}

func newSyncCommand(a *App) *cobra.Command {
	var watch, skipIndex bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Index new images, then download and upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd.Context(), watch, skipIndex)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep syncing every --interval, SIGHUP forces a pass")
	cmd.Flags().BoolVar(&skipIndex, "skip-index", false, "do not scan watched directories first")
	return cmd
}

func (a *App) runSync(ctx context.Context, watch, skipIndex bool) error {
	u, c, err := a.session(ctx)
	if err != nil {
		return err
	}
	priv, err := a.privateKey(c, u)
	if err != nil {
		return err
	}

	s := &indexingSyncer{syncer: a.syncer(c, u, priv), pub: &priv.PublicKey, log: a.log}
	if !skipIndex {
		s.indexer = a.indexer()
	}

	if watch {
		if a.config.SyncInterval <= 0 {
			return fmt.Errorf("sync interval must be positive, got %s", a.config.SyncInterval)
		}
		sched := services.NewScheduler(s, a.config.SyncInterval, a.log)

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-hup:
					sched.Trigger()
				}
			}
		}()

		a.log.Info(ctx, "watching", "interval", a.config.SyncInterval)
		sched.Run(ctx)
		return nil
	}

	report, err := s.Sync(ctx)
	if report != nil {
		a.printf("Downloaded %d (failed %d), uploaded %d (failed %d)\n",
			report.Downloaded, report.DownloadFailed, report.Uploaded, report.UploadFailed)
	}
	if err != nil {
		return err
	}
	if report.DownloadFailed+report.UploadFailed > 0 {
		return errPartialSync
	}
	return nil
}
