package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newFavoritesCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Keep a list of races you like",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add COURSE_ID",
			Short: "Add a race to your favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				if _, err := s.currentUser(ctx); err != nil {
					return err
				}
				c, err := s.course(ctx, args[0])
				if err != nil {
					return err
				}
				ok, err := s.app.users.AddToFavorites(ctx, c.ID, c.Name)
				if err != nil {
					return err
				}
				msg := "Added %s to your favorites\n"
				if !ok {
					msg = "%s is already a favorite\n"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), msg, c.Name)
				return err
			},
		},
		&cobra.Command{
			Use:   "remove COURSE_ID",
			Short: "Remove a race from your favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				if _, err := s.currentUser(ctx); err != nil {
					return err
				}
				id, err := parseCourseID(args[0])
				if err != nil {
					return err
				}
				ok, err := s.app.users.RemoveFromFavorites(ctx, id)
				if err != nil {
					return err
				}
				msg := "Removed course %d from your favorites\n"
				if !ok {
					msg = "Course %d was not a favorite\n"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), msg, id)
				return err
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List your favorites",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				if _, err := s.currentUser(ctx); err != nil {
					return err
				}
				favs, err := s.app.users.GetUserFavorites(ctx)
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				fmt.Fprintln(t, "ID\tCOURSE\tSINCE")
				for _, f := range favs {
					fmt.Fprintf(t, "%d\t%s\t%s\n", f.CourseID, f.CourseName, f.FavoriteDate.Format(time.DateOnly))
				}
				return t.Flush()
			},
		},
	)
	return cmd
}
