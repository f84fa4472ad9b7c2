package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/filex"
	"github.com/runreward/runreward/internal/notify"
	"github.com/runreward/runreward/internal/reports"
	"github.com/runreward/runreward/internal/services"
	"github.com/spf13/cobra"
)

func newAdminCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Organizer commands; each asks for the administrator password",
	}
	cmd.AddCommand(
		newAdminUsersCommand(s),
		newAdminReportCommand(s),
		newAdminCSVCommand(s),
		newAdminStatsCommand(s),
		newAdminRegistrationsCommand(s),
		newAdminStatusCommand(s, "confirm", "Confirm a registration and email the volunteer"),
		newAdminStatusCommand(s, "cancel", "Cancel a registration"),
		newAdminDeleteUserCommand(s),
		newAdminTestEmailCommand(s),
	)
	return cmd
}

// adminRun wraps fn so it only runs once the administrator password is
// accepted.
func adminRun(s *state, fn func(cmd *cobra.Command, admin *services.AdminService, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		admin, err := s.requireAdmin(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, admin, args)
	}
}

// output returns the file named by path, or the command output when path
// is empty. The returned close function is always safe to call.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := filex.CreateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newAdminUsersCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, _ *services.AdminService, _ []string) error {
			users, err := s.app.users.GetAllUsers(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "ID\tNAME\tEMAIL\tCITY\tSTATUS\tJOINED")
			for _, u := range users {
				fmt.Fprintf(t, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
					u.ID, u.FirstName, u.LastName, u.Email, u.City, u.Status, u.InscriptionDate.Format(time.DateOnly))
			}
			return t.Flush()
		}),
	}
}

func newAdminReportCommand(s *state) *cobra.Command {
	var path string
	var dated bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the plain-text report of every account",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, admin *services.AdminService, _ []string) error {
			report, err := admin.UsersReport(cmd.Context())
			if err != nil {
				return err
			}
			if dated {
				path = reports.ReportFileName(now())
			}
			w, closeFn, err := output(cmd, path)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, report); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		}),
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "file to write; standard output when empty")
	cmd.Flags().BoolVar(&dated, "dated", false, "write to rapport-admin-runreward-<date>.txt")
	return cmd
}

func newAdminCSVCommand(s *state) *cobra.Command {
	var path string
	var dated bool

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export every account as CSV",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, admin *services.AdminService, _ []string) error {
			if dated {
				path = reports.CSVFileName(now())
			}
			w, closeFn, err := output(cmd, path)
			if err != nil {
				return err
			}
			if err := admin.WriteUsersCSV(cmd.Context(), w); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		}),
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "file to write; standard output when empty")
	cmd.Flags().BoolVar(&dated, "dated", false, "write to utilisateurs-runreward-<date>.csv")
	return cmd
}

func newAdminStatsCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Registrations and favorites per race, and who signed up",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, admin *services.AdminService, _ []string) error {
			ctx := cmd.Context()
			stats, err := s.app.users.GetCourseStats(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			t := newTable(out)
			fmt.Fprintln(t, "ID\tCOURSE\tTOTAL\tCONFIRMED\tPENDING\tCANCELLED\tFAVORITES")
			for _, st := range stats {
				fmt.Fprintf(t, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", st.CourseID, st.CourseName,
					st.TotalRegistrations, st.ConfirmedRegistrations, st.PendingRegistrations,
					st.CancelledRegistrations, st.TotalFavorites)
			}
			if err := t.Flush(); err != nil {
				return err
			}

			d, err := admin.Demographics(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nAccounts: %d\n", d.Total)
			for _, g := range []struct {
				title  string
				counts []reports.Count
			}{
				{"By status", d.ByStatus},
				{"By gender", d.ByGender},
				{"By city", d.ByCity},
				{"By shoe size", d.ByShoe},
			} {
				fmt.Fprintf(out, "%s:\n", g.title)
				for _, c := range g.counts {
					fmt.Fprintf(out, "  %s: %d\n", c.Key, c.N)
				}
			}
			return nil
		}),
	}
}

func newAdminRegistrationsCommand(s *state) *cobra.Command {
	var courseID int

	cmd := &cobra.Command{
		Use:   "registrations",
		Short: "List registrations, optionally for one race",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, _ *services.AdminService, _ []string) error {
			var filter *int
			if cmd.Flags().Changed("course") {
				filter = &courseID
			}
			regs, err := s.app.users.GetCourseRegistrations(cmd.Context(), filter)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "ID\tCOURSE\tVOLUNTEER\tEMAIL\tDATE\tSTATUS")
			for _, r := range regs {
				fmt.Fprintf(t, "%s\t%s\t%s %s\t%s\t%s\t%s\n", r.ID, r.CourseName,
					r.UserInfo.FirstName, r.UserInfo.LastName, r.UserInfo.Email,
					r.RegistrationDate.Format(time.DateOnly), r.Status)
			}
			return t.Flush()
		}),
	}
	cmd.Flags().IntVar(&courseID, "course", 0, "only this course id")
	return cmd
}

func newAdminStatusCommand(s *state, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " REGISTRATION_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(s, func(cmd *cobra.Command, admin *services.AdminService, args []string) error {
			ctx := cmd.Context()
			var (
				ok   bool
				err  error
				done = "cancelled"
			)
			if action == "confirm" {
				ok, err = admin.ConfirmRegistration(ctx, args[0])
				done = "confirmed"
			} else {
				ok, err = admin.CancelRegistration(ctx, args[0])
			}
			if err != nil {
				if !ok {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			if !ok {
				return fmt.Errorf("registration %s: %w", args[0], common.ErrorNotFound)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registration %s %s\n", args[0], done)
			return err
		}),
	}
}

func newAdminDeleteUserCommand(s *state) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-user USER_ID",
		Short: "Delete an account and its favorites",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(s, func(cmd *cobra.Command, _ *services.AdminService, args []string) error {
			ctx := cmd.Context()
			if !yes {
				ok, err := s.prompt.Confirm("Delete account " + args[0] + "?")
				if err != nil {
					return err
				}
				if !ok {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return err
				}
			}
			ok, err := s.app.users.DeleteUser(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("user %s: %w", args[0], common.ErrorNotFound)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", args[0])
			return err
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAdminTestEmailCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "test-email",
		Short: "Send a test confirmation through the configured notifier",
		Args:  cobra.NoArgs,
		RunE: adminRun(s, func(cmd *cobra.Command, _ *services.AdminService, _ []string) error {
			n, err := notify.NewNotifier(s.cfg, s.app.log)
			if err != nil {
				return err
			}
			ok, err := notify.SendTestEmail(cmd.Context(), n)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "the notifier did not accept the message")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Test email handed to the %s notifier\n", n.Name())
			return err
		}),
	}
}
