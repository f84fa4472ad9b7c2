package services

import (
	"context"
	"errors"
	"testing"

	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vosges() models.RaceSnapshot {
	return models.RaceSnapshot{
		ID:       2,
		Name:     "Trail des Vosges",
		Location: "Épinal",
		Date:     "2024-05-18",
		Distance: "25 km",
		Reward:   "Buff technique + Repas local",
		Type:     "Trail",
	}
}

// batchRepo records SetMany calls and fails them when err is set.
type batchRepo struct {
	kv.Repository
	batches [][]string
	err     error
}

func (r *batchRepo) SetMany(ctx context.Context, items map[string][]byte) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	r.batches = append(r.batches, keys)
	if r.err != nil {
		return r.err
	}
	for k, v := range items {
		if err := r.Repository.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func TestUserService_CompleteRegistration_SingleWrite(t *testing.T) {
	ctx := context.Background()
	repo := &batchRepo{Repository: kv.NewMemoryRepository()}
	s := newUsers(t, repo)

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)

	_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
	assert.ElementsMatch(t, []string{"runreward-users", "runreward-course-registrations"}, repo.batches[0])

	boom := errors.New("disk full")
	repo.err = boom
	_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
	require.ErrorIs(t, err, boom)

	regs, err := s.GetCourseRegistrations(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestUserService_CompleteRegistration(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)

	answers := map[string]string{"tshirtSize": "M", "emergencyContact": "Paul 0612345678"}
	u, err := s.CompleteRegistration(ctx, a.ID, vosges(), answers)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.UserCompleted, u.Status)
	require.NotNil(t, u.SelectedRace)
	assert.Equal(t, vosges(), *u.SelectedRace)

	answers["tshirtSize"] = "XL"

	course := 2
	regs, err := s.GetCourseRegistrations(ctx, &course)
	require.NoError(t, err)
	require.Len(t, regs, 1)

	r := regs[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, a.ID, r.UserID)
	assert.Equal(t, "Trail des Vosges", r.CourseName)
	assert.Equal(t, models.RegistrationPending, r.Status)
	assert.Equal(t, fixedNow, r.RegistrationDate)
	assert.Equal(t, a.Contact(), r.UserInfo)
	assert.Equal(t, "M", r.CustomFields["tshirtSize"])

	other := 1
	regs, err = s.GetCourseRegistrations(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestUserService_CompleteRegistrationUnknownUser(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	u, err := s.CompleteRegistration(ctx, "ghost", vosges(), nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	regs, err := s.GetCourseRegistrations(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestUserService_RegistrationSnapshotIsFrozen(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)
	_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
	require.NoError(t, err)

	city := "Marseille"
	_, err = s.UpdateUser(ctx, a.ID, models.UserPatch{City: &city})
	require.NoError(t, err)

	regs, err := s.GetCourseRegistrations(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Paris", regs[0].UserInfo.City)
}

func TestUserService_RegistrationStatus(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)
	_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
	require.NoError(t, err)

	regs, err := s.GetCourseRegistrations(ctx, nil)
	require.NoError(t, err)
	id := regs[0].ID

	ok, err := s.ConfirmRegistration(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := s.GetRegistration(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, r.Status)

	ok, err = s.CancelRegistration(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	r, err = s.GetRegistration(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, r.Status)

	ok, err = s.ConfirmRegistration(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	r, err = s.GetRegistration(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestUserService_GetCourseStats(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)
	_, err = s.AddToFavorites(ctx, 5, "10km de Nice")
	require.NoError(t, err)
	_, err = s.AddToFavorites(ctx, 2, "Trail des Vosges")
	require.NoError(t, err)

	b, _, err := s.CreateUser(ctx, bob())
	require.NoError(t, err)

	_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
	require.NoError(t, err)
	_, err = s.CompleteRegistration(ctx, b.ID, vosges(), nil)
	require.NoError(t, err)
	_, err = s.CompleteRegistration(ctx, b.ID, models.RaceSnapshot{ID: 1, Name: "Marathon de Paris"}, nil)
	require.NoError(t, err)

	course := 2
	regs, err := s.GetCourseRegistrations(ctx, &course)
	require.NoError(t, err)
	_, err = s.ConfirmRegistration(ctx, regs[0].ID)
	require.NoError(t, err)
	_, err = s.CancelRegistration(ctx, regs[1].ID)
	require.NoError(t, err)

	stats, err := s.GetCourseStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, 2, stats[0].CourseID)
	assert.Equal(t, 2, stats[0].TotalRegistrations)
	assert.Equal(t, 1, stats[0].ConfirmedRegistrations)
	assert.Equal(t, 1, stats[0].CancelledRegistrations)
	assert.Equal(t, 0, stats[0].PendingRegistrations)
	assert.Equal(t, 1, stats[0].TotalFavorites)
	assert.Len(t, stats[0].Registrations, 2)

	assert.Equal(t, 1, stats[1].CourseID)
	assert.Equal(t, 1, stats[1].PendingRegistrations)
	assert.Equal(t, 0, stats[1].TotalFavorites)

	assert.Equal(t, 5, stats[2].CourseID)
	assert.Equal(t, "10km de Nice", stats[2].CourseName)
	assert.Equal(t, 0, stats[2].TotalRegistrations)
	assert.Equal(t, 1, stats[2].TotalFavorites)
	assert.Empty(t, stats[2].Registrations)

	for _, st := range stats {
		assert.Equal(t, st.TotalRegistrations,
			st.ConfirmedRegistrations+st.PendingRegistrations+st.CancelledRegistrations)
	}
}

func TestUserService_RegisterTwiceForSameCourse(t *testing.T) {
	ctx := context.Background()
	s := newUsers(t, kv.NewMemoryRepository())

	a, _, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)

	for range 2 {
		_, err = s.CompleteRegistration(ctx, a.ID, vosges(), nil)
		require.NoError(t, err)
	}

	course := 2
	regs, err := s.GetCourseRegistrations(ctx, &course)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.NotEqual(t, regs[0].ID, regs[1].ID)
}
