package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/runreward/runreward/internal/auth"
	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/notify"
	"github.com/runreward/runreward/internal/reports"
)

// AdminService groups the operations of the administration page. The
// caller is expected to check Authorize before using the rest.
type AdminService struct {
	gate     auth.AdminGate
	users    *UserService
	courses  *CourseService
	notifier notify.Notifier
	log      logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAdminService(gate auth.AdminGate, users *UserService, courses *CourseService, n notify.Notifier, log logging.Logger, m *metrics.Metrics) *AdminService {
	return &AdminService{
		gate:     gate,
		users:    users,
		courses:  courses,
		notifier: n,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Authorize reports whether password opens the administration page.
func (a *AdminService) Authorize(ctx context.Context, password string) (bool, error) {
	ok, err := a.gate.Authorize(ctx, password)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if !ok {
		a.log.Warn(ctx, "admin authorization refused")
	}
	return ok, nil
}

// ConfirmRegistration confirms the registration and emails its volunteer.
// It reports false when the registration does not exist. A failed delivery
// leaves the registration confirmed and is returned as an error.
func (a *AdminService) ConfirmRegistration(ctx context.Context, id string) (bool, error) {
	reg, err := a.users.GetRegistration(ctx, id)
	if err != nil || reg == nil {
		return false, err
	}

	ok, err := a.users.ConfirmRegistration(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	email := notify.ConfirmationEmail{
		ToEmail:    reg.UserInfo.Email,
		ToName:     reg.UserInfo.FirstName + " " + reg.UserInfo.LastName,
		CourseName: reg.CourseName,
	}
	course, err := a.courses.GetCourseByID(ctx, reg.CourseID)
	if err != nil {
		return true, err
	}
	if course != nil {
		email.CourseDate = course.Date
		email.CourseLocation = course.Location
	}

	sent, err := a.notifier.SendConfirmation(ctx, email)
	a.metrics.RecordNotification(a.notifier.Name(), err == nil && sent)
	if err != nil {
		a.log.Error(ctx, "confirmation email failed", "registration", id, "error", err)
		return true, fmt.Errorf("registration confirmed, notification failed: %w", err)
	}
	return true, nil
}

func (a *AdminService) CancelRegistration(ctx context.Context, id string) (bool, error) {
	return a.users.CancelRegistration(ctx, id)
}

// UsersReport renders the plain-text report of every account.
func (a *AdminService) UsersReport(ctx context.Context) (string, error) {
	users, err := a.users.GetAllUsers(ctx)
	if err != nil {
		return "", err
	}
	return reports.UsersReport(users, a.now())
}

// WriteUsersCSV writes every account as CSV to w.
func (a *AdminService) WriteUsersCSV(ctx context.Context, w io.Writer) error {
	users, err := a.users.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	return reports.WriteUsersCSV(w, users)
}

func (a *AdminService) Demographics(ctx context.Context) (reports.Demographics, error) {
	users, err := a.users.GetAllUsers(ctx)
	if err != nil {
		return reports.Demographics{}, err
	}
	return reports.NewDemographics(users), nil
}
