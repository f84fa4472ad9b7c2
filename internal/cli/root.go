package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/logging"
	"github.com/spf13/cobra"
)

// state is shared by every command of one invocation.
type state struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	app    *App
	prompt *Prompter
}

// seam for tests
var newApp = NewApp

func (s *state) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	log, err := logging.New(s.errOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.app = app
	return nil
}

func newRootCommand(s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "runreward",
		Short: "Volunteer marketplace for race organizers and runners",
		Long: `runreward lists races looking for volunteers, manages volunteer accounts,
their favorites and race registrations, and gives organizers an
administration view with reports and confirmation emails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return s.setup(cmd)
		},
	}

	config.RegisterFlags(root.PersistentFlags())
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	root.AddCommand(
		newCoursesCommand(s),
		newAccountCommand(s),
		newFavoritesCommand(s),
		newAdminCommand(s),
		newDataCommand(s),
	)
	return root
}

// Run executes one command line. The store opened for it is closed before
// Run returns, whatever the outcome.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) (err error) {
	s := &state{in: in, out: out, errOut: errOut, prompt: NewPrompter(in, out)}
	root := newRootCommand(s)
	root.SetArgs(args)

	defer func() {
		if s.app != nil {
			err = errors.Join(err, s.app.Close())
		}
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("runreward: %w", err)
	}
	return nil
}
