package services

import (
	"context"
	"testing"
	"time"

	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func newCourses(t *testing.T, repo kv.Repository) *CourseService {
	t.Helper()
	s, err := NewCourseService(context.Background(), repo, logging.NewDiscard(), nil)
	require.NoError(t, err)
	return s
}

func newUsers(t *testing.T, repo kv.Repository, opts ...UserOption) *UserService {
	t.Helper()
	opts = append([]UserOption{WithUserClock(func() time.Time { return fixedNow })}, opts...)
	s, err := NewUserService(context.Background(), repo, testConfig(), logging.NewDiscard(), nil, opts...)
	require.NoError(t, err)
	return s
}

func alice() models.NewUser {
	return models.NewUser{
		FirstName:  "Alice",
		LastName:   "Martin",
		Email:      "alice@x.com",
		Password:   "Passw0rd",
		Address:    "1 rue de la Paix",
		City:       "Paris",
		PostalCode: "75002",
		BirthDate:  "1990-01-01",
		Gender:     "femme",
		ShoeSize:   "38",
	}
}

func bob() models.NewUser {
	u := alice()
	u.FirstName = "Bob"
	u.LastName = "Durand"
	u.Email = "bob@x.com"
	u.Gender = "homme"
	u.ShoeSize = "43"
	return u
}
