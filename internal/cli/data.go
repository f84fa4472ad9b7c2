package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/runreward/runreward/internal/workers"
	"github.com/spf13/cobra"
)

func newDataCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Export, import and mirror the user data",
	}
	cmd.AddCommand(
		newExportCommand(s),
		newImportCommand(s),
		newSyncCommand(s),
		newMirrorCommand(s),
		newWatchCommand(s),
	)
	return cmd
}

func newExportCommand(s *state) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write users, registrations and favorites as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sync, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, path)
			if err != nil {
				return err
			}
			if err := sync.Export(ctx, w); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "file to write; standard output when empty")
	return cmd
}

func newImportCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the accounts of an exported file; existing emails are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sync, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}
			res, err := sync.Import(ctx, f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts, skipped %d\n", res.Imported, res.Skipped)
			return err
		},
	}
}

func newSyncCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Copy the user data to the mirror now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sync, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}
			snap, err := sync.MigrateFromLocal(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d users, %d registrations, %d favorites\n",
				len(snap.Users), len(snap.CourseRegistrations), len(snap.CourseFavorites))
			return err
		},
	}
}

func newMirrorCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Show what the mirror holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sync, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}
			snap, err := sync.LoadMirror(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if snap == nil {
				_, err = fmt.Fprintln(out, "The mirror is empty")
				return err
			}
			current := "nobody"
			if snap.CurrentUser != nil {
				current = snap.CurrentUser.Email
			}
			_, err = fmt.Fprintf(out, "Users: %d\nRegistrations: %d\nFavorites: %d\nSigned in: %s\n",
				len(snap.Users), len(snap.CourseRegistrations), len(snap.CourseFavorites), current)
			return err
		},
	}
}

func newWatchCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep mirroring every --sync-interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if s.cfg.SyncInterval <= 0 {
				return errors.New("set --sync-interval to a positive duration")
			}
			sync, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}

			w := workers.NewSyncWorker(sync, s.cfg.SyncInterval, s.app.log.With("component", "worker"))
			if err := w.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mirroring every %s, press Ctrl+C to stop\n", s.cfg.SyncInterval)

			<-ctx.Done()
			return w.Stop()
		},
	}
}
