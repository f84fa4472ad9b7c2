package services

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/runreward/runreward/internal/models"
)

// CompleteRegistration marks the user completed with race as the selected
// course and appends a pending registration carrying the user's contact
// details at call time plus the custom field answers. An unknown user
// yields nil and no registration.
//
// Registering the same user for the same course again adds another row.
func (s *UserService) CompleteRegistration(ctx context.Context, userID string, race models.RaceSnapshot, answers map[string]string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	i := indexUser(users, userID)
	if i < 0 {
		return nil, nil
	}
	regs, err := load(ctx, s.registrations, s.metrics)
	if err != nil {
		return nil, err
	}

	status := models.UserCompleted
	models.UserPatch{Status: &status, SelectedRace: &race}.Apply(&users[i])

	reg := models.CourseRegistration{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         race.ID,
		CourseName:       race.Name,
		RegistrationDate: s.now().UTC(),
		UserInfo:         users[i].Contact(),
		CustomFields:     maps.Clone(answers),
		Status:           models.RegistrationPending,
	}
	regs = append(regs, reg)

	// the user patch and the new registration land in one write
	if err := saveTogether(ctx, s.repo, s.metrics, encode(s.users, users), encode(s.registrations, regs)); err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration("created")
	s.log.Info(ctx, "registration created", "id", reg.ID, "user", userID, "course", race.ID)
	return s.decorate(ctx, users[i])
}

// GetCourseRegistrations returns every registration, or those of one course
// when courseID is set.
func (s *UserService) GetCourseRegistrations(ctx context.Context, courseID *int) ([]models.CourseRegistration, error) {
	regs, err := load(ctx, s.registrations, s.metrics)
	if err != nil {
		return nil, err
	}

	out := []models.CourseRegistration{}
	for _, r := range regs {
		if courseID == nil || r.CourseID == *courseID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// GetRegistration returns nil without error when absent.
func (s *UserService) GetRegistration(ctx context.Context, id string) (*models.CourseRegistration, error) {
	regs, err := load(ctx, s.registrations, s.metrics)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(regs, func(r models.CourseRegistration) bool { return r.ID == id })
	if i < 0 {
		return nil, nil
	}
	r := regs[i].Clone()
	return &r, nil
}

// ConfirmRegistration sets the status to confirmed whatever it was.
func (s *UserService) ConfirmRegistration(ctx context.Context, id string) (bool, error) {
	return s.setRegistrationStatus(ctx, id, models.RegistrationConfirmed)
}

// CancelRegistration sets the status to cancelled whatever it was.
func (s *UserService) CancelRegistration(ctx context.Context, id string) (bool, error) {
	return s.setRegistrationStatus(ctx, id, models.RegistrationCancelled)
}

func (s *UserService) setRegistrationStatus(ctx context.Context, id string, status models.RegistrationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, err := load(ctx, s.registrations, s.metrics)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(regs, func(r models.CourseRegistration) bool { return r.ID == id })
	if i < 0 {
		return false, nil
	}

	regs[i].Status = status
	if err := save(ctx, s.registrations, regs, s.metrics); err != nil {
		return false, err
	}

	s.metrics.RecordRegistration(string(status))
	s.log.Info(ctx, "registration status changed", "id", id, "status", status)
	return true, nil
}

// GetCourseStats groups registrations by course, in order of first
// appearance, and merges in favorite counts. Courses that only have
// favorites come last, named after their first favorite.
func (s *UserService) GetCourseStats(ctx context.Context) ([]models.CourseStats, error) {
	regs, err := load(ctx, s.registrations, s.metrics)
	if err != nil {
		return nil, err
	}
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return nil, err
	}

	var order []int
	byCourse := map[int]*models.CourseStats{}
	entry := func(id int, name string) *models.CourseStats {
		st, ok := byCourse[id]
		if !ok {
			st = &models.CourseStats{CourseID: id, CourseName: name, Registrations: []models.CourseRegistration{}}
			byCourse[id] = st
			order = append(order, id)
		}
		return st
	}

	for _, r := range regs {
		st := entry(r.CourseID, r.CourseName)
		st.TotalRegistrations++
		st.Registrations = append(st.Registrations, r.Clone())
		switch r.Status {
		case models.RegistrationConfirmed:
			st.ConfirmedRegistrations++
		case models.RegistrationPending:
			st.PendingRegistrations++
		case models.RegistrationCancelled:
			st.CancelledRegistrations++
		}
	}

	for _, f := range favs {
		entry(f.CourseID, f.CourseName).TotalFavorites++
	}

	out := make([]models.CourseStats, 0, len(order))
	for _, id := range order {
		out = append(out, *byCourse[id])
	}
	return out, nil
}
