package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/security"
	"github.com/spf13/cobra"
)

// seam for tests
var now = time.Now

func newAccountCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"a"},
		Short:   "Sign up, sign in and register for races",
	}
	cmd.AddCommand(
		newSignupCommand(s),
		newLoginCommand(s),
		newLogoutCommand(s),
		newWhoamiCommand(s),
		newAccountUpdateCommand(s),
		newRegisterCommand(s),
		newMyRegistrationsCommand(s),
	)
	return cmd
}

// validationError joins the messages of a rejected form.
func validationError(msgs []string) error {
	return fmt.Errorf("%w:\n  - %s", common.ErrorValidation, strings.Join(msgs, "\n  - "))
}

func (s *state) ask(labels []string, dst []*string) error {
	for i, l := range labels {
		v, err := s.prompt.Line(l)
		if err != nil {
			return err
		}
		*dst[i] = security.SanitizeInput(v)
	}
	return nil
}

func newSignupCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a volunteer account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var form security.RegistrationForm
			var nu models.NewUser

			if err := s.ask(
				[]string{"First name", "Last name", "Email"},
				[]*string{&form.FirstName, &form.LastName, &form.Email},
			); err != nil {
				return err
			}

			var err error
			if form.Password, err = s.prompt.Password("Password"); err != nil {
				return err
			}
			if form.ConfirmPassword, err = s.prompt.Password("Confirm password"); err != nil {
				return err
			}
			if msgs := security.ValidateRegistration(form); len(msgs) > 0 {
				return validationError(msgs)
			}

			exists, err := s.app.users.EmailExists(ctx, form.Email)
			if err != nil {
				return err
			}
			if exists {
				return common.ErrorDuplicateEmail
			}

			if err := s.ask(
				[]string{"Address", "City", "Postal code", "Birth date (YYYY-MM-DD)", "Gender (homme/femme/autre)", "Shoe size"},
				[]*string{&nu.Address, &nu.City, &nu.PostalCode, &nu.BirthDate, &nu.Gender, &nu.ShoeSize},
			); err != nil {
				return err
			}
			if nu.BirthDate != "" && !security.IsValidBirthDate(nu.BirthDate, now()) {
				return fmt.Errorf("%w: invalid birth date %q", common.ErrorValidation, nu.BirthDate)
			}

			nu.FirstName, nu.LastName, nu.Email, nu.Password = form.FirstName, form.LastName, form.Email, form.Password
			u, _, err := s.app.users.CreateUser(ctx, nu)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Welcome %s, your account is pending until you register for a race.\n", u.FirstName)
			return err
		},
	}
}

func newLoginCommand(s *state) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if email == "" {
				if email, err = s.prompt.Line("Email"); err != nil {
					return err
				}
			}
			pw, err := s.prompt.Password("Password")
			if err != nil {
				return err
			}

			u, sess, err := s.app.users.Authenticate(ctx, email, pw)
			if err != nil {
				return err
			}
			if u == nil {
				return errors.New("wrong email or password")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s %s until %s\n",
				u.FirstName, u.LastName, sess.ExpiresAt.Local().Format(time.DateTime))
			return err
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newLogoutCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.users.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}

func newWhoamiCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := s.currentUser(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
			fmt.Fprintf(out, "  Status:     %s\n", u.Status)
			fmt.Fprintf(out, "  Joined:     %s\n", u.InscriptionDate.Format(time.DateOnly))
			fmt.Fprintf(out, "  Address:    %s, %s %s\n", u.Address, u.PostalCode, u.City)
			fmt.Fprintf(out, "  Born:       %s\n", u.BirthDate)
			fmt.Fprintf(out, "  Shoe size:  %s\n", u.ShoeSize)
			if u.SelectedRace != nil {
				fmt.Fprintf(out, "  Race:       %s (%s)\n", u.SelectedRace.Name, u.SelectedRace.Date)
			}
			fmt.Fprintf(out, "  Favorites:  %d\n", len(u.FavoriteCourses))
			return nil
		},
	}
}

func newAccountUpdateCommand(s *state) *cobra.Command {
	fields := []struct{ flag, usage string }{
		{"first-name", "first name"},
		{"last-name", "last name"},
		{"email", "email"},
		{"address", "street address"},
		{"city", "city"},
		{"postal-code", "postal code"},
		{"birth-date", "birth date, YYYY-MM-DD"},
		{"gender", "homme, femme or autre"},
		{"shoe-size", "shoe size"},
	}
	values := make(map[string]*string, len(fields))
	var changePassword bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change details of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			u, err := s.currentUser(ctx)
			if err != nil {
				return err
			}

			pick := func(flag string) *string {
				if !cmd.Flags().Changed(flag) {
					return nil
				}
				v := security.SanitizeInput(*values[flag])
				return &v
			}
			p := models.UserPatch{
				FirstName:  pick("first-name"),
				LastName:   pick("last-name"),
				Email:      pick("email"),
				Address:    pick("address"),
				City:       pick("city"),
				PostalCode: pick("postal-code"),
				BirthDate:  pick("birth-date"),
				Gender:     pick("gender"),
				ShoeSize:   pick("shoe-size"),
			}
			if p.Email != nil && !security.IsValidEmail(*p.Email) {
				return validationError([]string{security.MsgInvalidEmail})
			}
			if p.BirthDate != nil && !security.IsValidBirthDate(*p.BirthDate, now()) {
				return fmt.Errorf("%w: invalid birth date %q", common.ErrorValidation, *p.BirthDate)
			}

			if changePassword {
				pw, err := s.prompt.Password("New password")
				if err != nil {
					return err
				}
				if !security.IsValidPassword(pw) {
					return validationError([]string{security.MsgWeakPassword})
				}
				p.Password = &pw
			}

			if _, err := s.app.users.UpdateUser(ctx, u.ID, p); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Account updated")
			return err
		},
	}
	for _, f := range fields {
		values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().BoolVar(&changePassword, "password", false, "prompt for a new password")
	return cmd
}

// profileAnswer returns what the account already says for a question id.
func profileAnswer(u *models.User, id string) string {
	switch id {
	case "address":
		return u.Address
	case "city":
		return u.City
	case "postalCode":
		return u.PostalCode
	case "birthDate":
		return u.BirthDate
	case "gender":
		return u.Gender
	case "shoeSize":
		return u.ShoeSize
	}
	return ""
}

// phoneNumber drops a leading contact name, so "Paul 06 12 34 56 78"
// yields the number alone.
func phoneNumber(v string) string {
	i := strings.IndexAny(v, "+0123456789")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(v[i:])
}

// answer asks one registration question until it gets a valid reply.
func (s *state) answer(u *models.User, f models.CourseField) (string, error) {
	label := f.Label
	if len(f.Options) > 0 {
		label += " (" + strings.Join(f.Options, "/") + ")"
	}
	if f.Placeholder != "" {
		label += " - " + f.Placeholder
	}

	for {
		v, err := s.prompt.LineDefault(label, profileAnswer(u, f.ID))
		if err != nil {
			return "", err
		}
		v = security.SanitizeInput(v)

		switch {
		case v == "" && f.Required:
			fmt.Fprintln(s.out, "  this question is required")
		case v != "" && len(f.Options) > 0 && !slices.Contains(f.Options, v):
			fmt.Fprintln(s.out, "  pick one of the listed options")
		case v != "" && f.Type == models.FieldEmail && !security.IsValidEmail(v):
			fmt.Fprintln(s.out, "  "+security.MsgInvalidEmail)
		case v != "" && f.Type == models.FieldTel && !security.IsValidPhone(phoneNumber(v)):
			fmt.Fprintln(s.out, "  "+security.MsgInvalidPhone)
		default:
			return v, nil
		}
	}
}

func (s *state) collectAnswers(ctx context.Context, u *models.User, c *models.Course) (map[string]string, error) {
	answers := make(map[string]string, len(c.RequiredFields))
	for _, f := range c.RequiredFields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := s.answer(u, f)
		if err != nil {
			return nil, err
		}
		if v != "" {
			answers[f.ID] = v
		}
	}
	return answers, nil
}

func newRegisterCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "register COURSE_ID",
		Short: "Volunteer for a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := s.currentUser(ctx)
			if err != nil {
				return err
			}
			c, err := s.course(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(s.out, "Registering for %s on %s\n", c.Name, c.Date)
			answers, err := s.collectAnswers(ctx, u, c)
			if err != nil {
				return err
			}

			if _, err := s.app.users.CompleteRegistration(ctx, u.ID, c.Snapshot(), answers); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registration for %s sent to the organizer, status pending\n", c.Name)
			return err
		},
	}
}

func newMyRegistrationsCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "registrations",
		Short: "List the races the signed-in account registered for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			u, err := s.currentUser(ctx)
			if err != nil {
				return err
			}
			regs, err := s.app.users.GetCourseRegistrations(ctx, nil)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			fmt.Fprintln(t, "ID\tCOURSE\tDATE\tSTATUS")
			for _, r := range regs {
				if r.UserID != u.ID {
					continue
				}
				fmt.Fprintf(t, "%s\t%s\t%s\t%s\n", r.ID, r.CourseName, r.RegistrationDate.Format(time.DateOnly), r.Status)
			}
			return t.Flush()
		},
	}
}
