package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/services"
)

var errNotSignedIn = errors.New("not signed in, run `runreward account login` first")

func parseCourseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid course id %q", common.ErrorValidation, arg)
	}
	return id, nil
}

func (s *state) course(ctx context.Context, arg string) (*models.Course, error) {
	id, err := parseCourseID(arg)
	if err != nil {
		return nil, err
	}
	c, err := s.app.courses.GetCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("course %d: %w", id, common.ErrorNotFound)
	}
	return c, nil
}

func (s *state) currentUser(ctx context.Context) (*models.User, error) {
	u, err := s.app.users.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotSignedIn
	}
	return u, nil
}

// requireAdmin asks for the administrator password and returns the admin
// service once it is accepted.
func (s *state) requireAdmin(ctx context.Context) (*services.AdminService, error) {
	admin, err := s.app.Admin()
	if err != nil {
		return nil, err
	}
	pw, err := s.prompt.Password("Admin password")
	if err != nil {
		return nil, err
	}
	ok, err := admin.Authorize(ctx, pw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return admin, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
