package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/runreward/runreward/internal/auth"
	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/cryptox"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/repositories/collections"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/runreward/runreward/internal/security"
)

// Rate limiter actions.
const (
	ActionLogin  = "login"
	ActionSignup = "signup"
)

// UserService owns accounts, the current session and the two collections
// that hang off an account: course registrations and favorites.
//
// A user's favorite course ids are not stored on the user record; they are
// derived from the favorites collection each time a user is returned.
//
// The current session is a signed token persisted under
// runreward-current-user, so a later process resumes it until it expires.
type UserService struct {
	repo          kv.Repository
	users         *collections.Collection[models.User]
	registrations *collections.Collection[models.CourseRegistration]
	favorites     *collections.Collection[models.CourseFavorite]
	session       *collections.Value[string]

	log        logging.Logger
	metrics    *metrics.Metrics
	limiter    *security.RateLimiter
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	current *models.Session
}

type UserOption func(*UserService)

// WithRateLimiter throttles Authenticate and CreateUser.
func WithRateLimiter(l *security.RateLimiter) UserOption {
	return func(s *UserService) { s.limiter = l }
}

// WithUserClock replaces time.Now for inscription, registration and
// favorite dates.
func WithUserClock(now func() time.Time) UserOption {
	return func(s *UserService) { s.now = now }
}

// NewUserService builds the store and resumes a valid persisted session.
func NewUserService(ctx context.Context, repo kv.Repository, cfg *config.Config, log logging.Logger, m *metrics.Metrics, opts ...UserOption) (*UserService, error) {
	s := &UserService{
		repo:          repo,
		users:         collections.New[models.User](repo, common.UsersKey),
		registrations: collections.New[models.CourseRegistration](repo, common.RegistrationsKey),
		favorites:     collections.New[models.CourseFavorite](repo, common.FavoritesKey),
		session:       collections.NewValue[string](repo, common.CurrentUserKey),
		log:           log,
		metrics:       m,
		jwtSecret:     []byte(cfg.SecretKey),
		sessionTTL:    cfg.SessionTTL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.restoreSession(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *UserService) restoreSession(ctx context.Context) error {
	token, err := s.session.Load(ctx)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}

	u, err := s.resume(ctx, *token)
	if err != nil || u == nil {
		s.log.Warn(ctx, "dropping persisted session", "error", err)
		return s.session.Clear(ctx)
	}
	return nil
}

// --- helpers below; callers hold s.mu where they mutate ---

func (s *UserService) checkLimit(ctx context.Context, action string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, action)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn(ctx, "rate limited", "action", action)
		return common.ErrorRateLimited
	}
	return nil
}

func emailTaken(users []models.User, email, exceptID string) bool {
	e := fold(email)
	return slices.ContainsFunc(users, func(u models.User) bool {
		return u.ID != exceptID && fold(u.Email) == e
	})
}

func indexUser(users []models.User, id string) int {
	return slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
}

func favoriteIDs(favs []models.CourseFavorite, userID string) []int {
	ids := []int{}
	for _, f := range favs {
		if f.UserID == userID {
			ids = append(ids, f.CourseID)
		}
	}
	return ids
}

// withFavorites returns a copy of u with FavoriteCourses derived from favs.
func withFavorites(u models.User, favs []models.CourseFavorite) *models.User {
	out := u.Clone()
	out.FavoriteCourses = favoriteIDs(favs, u.ID)
	return &out
}

func (s *UserService) decorate(ctx context.Context, u models.User) (*models.User, error) {
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return nil, err
	}
	return withFavorites(u, favs), nil
}

// startSession signs a token for userID, persists it and makes it current.
func (s *UserService) startSession(ctx context.Context, userID string) (*models.Session, error) {
	token, expires, err := auth.GenerateToken(userID, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	if err := s.session.Save(ctx, token); err != nil {
		return nil, err
	}
	s.current = &models.Session{UserID: userID, Token: token, ExpiresAt: expires}
	sess := *s.current
	return &sess, nil
}

func (s *UserService) endSession(ctx context.Context) error {
	s.current = nil
	return s.session.Clear(ctx)
}

func (s *UserService) resume(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	i := indexUser(users, userID)
	if i < 0 {
		return nil, nil
	}

	s.current = &models.Session{UserID: userID, Token: token}
	return s.decorate(ctx, users[i])
}

// --- accounts ---

// EmailExists compares emails under Unicode case folding.
func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return false, err
	}
	return emailTaken(users, email, ""), nil
}

// CreateUser stores a pending account and makes it the current session.
// A duplicate email fails with common.ErrorDuplicateEmail and changes
// nothing.
func (s *UserService) CreateUser(ctx context.Context, data models.NewUser) (*models.User, *models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLimit(ctx, ActionSignup); err != nil {
		return nil, nil, err
	}

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, nil, err
	}
	if emailTaken(users, data.Email, "") {
		s.log.Warn(ctx, "duplicate email on sign-up")
		return nil, nil, common.ErrorDuplicateEmail
	}

	u := models.User{
		ID:              uuid.NewString(),
		FirstName:       data.FirstName,
		LastName:        data.LastName,
		Email:           data.Email,
		PasswordHash:    cryptox.HashPassword(data.Password),
		Address:         data.Address,
		City:            data.City,
		PostalCode:      data.PostalCode,
		BirthDate:       data.BirthDate,
		Gender:          data.Gender,
		ShoeSize:        data.ShoeSize,
		InscriptionDate: s.now().UTC(),
		Status:          models.UserPending,
	}

	users = append(users, u)
	if err := save(ctx, s.users, users, s.metrics); err != nil {
		return nil, nil, err
	}

	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.RecordUserCreated()
	s.log.Info(ctx, "user created", "id", u.ID)

	out := u.Clone()
	out.FavoriteCourses = []int{}
	return &out, sess, nil
}

// ImportUser adds an exported account as is, keeping its password hash.
// It reports false when the email is already taken.
func (s *UserService) ImportUser(ctx context.Context, u models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return false, err
	}
	if emailTaken(users, u.Email, "") {
		return false, nil
	}

	u = u.Clone()
	u.FavoriteCourses = nil
	if u.ID == "" || indexUser(users, u.ID) >= 0 {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = models.UserPending
	}
	if u.InscriptionDate.IsZero() {
		u.InscriptionDate = s.now().UTC()
	}

	users = append(users, u)
	if err := save(ctx, s.users, users, s.metrics); err != nil {
		return false, err
	}
	s.log.Info(ctx, "user imported", "id", u.ID)
	return true, nil
}

// Authenticate returns (nil, nil, nil) whenever email or password do not
// match, without saying which.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLimit(ctx, ActionLogin); err != nil {
		s.metrics.RecordAuthentication(false)
		return nil, nil, err
	}

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, nil, err
	}

	e := fold(email)
	i := slices.IndexFunc(users, func(u models.User) bool { return fold(u.Email) == e })
	if i < 0 {
		// burn the same work as a real check
		_, _ = cryptox.VerifyPassword(password, dummyHash())
		s.metrics.RecordAuthentication(false)
		return nil, nil, nil
	}

	ok, err := cryptox.VerifyPassword(password, users[i].PasswordHash)
	if err != nil && !errors.Is(err, cryptox.ErrMalformedHash) {
		return nil, nil, err
	}
	if !ok {
		s.metrics.RecordAuthentication(false)
		return nil, nil, nil
	}

	sess, err := s.startSession(ctx, users[i].ID)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordAuthentication(true)
	s.log.Info(ctx, "user authenticated", "id", users[i].ID)

	u, err := s.decorate(ctx, users[i])
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

var dummyHash = sync.OnceValue(func() string { return cryptox.HashPassword("runreward-dummy") })

// ResumeSession validates token and makes its user current. An invalid or
// expired token is an error; a valid token for a deleted user yields nil.
func (s *UserService) ResumeSession(ctx context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.resume(ctx, token)
	if err != nil || u == nil {
		return nil, err
	}
	if err := s.session.Save(ctx, token); err != nil {
		return nil, err
	}
	return u, nil
}

// CurrentSession returns a copy of the active session, or nil.
func (s *UserService) CurrentSession() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// GetCurrentUser returns nil when nobody is signed in.
func (s *UserService) GetCurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentUser(ctx)
}

func (s *UserService) currentUser(ctx context.Context) (*models.User, error) {
	if s.current == nil {
		return nil, nil
	}

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	i := indexUser(users, s.current.UserID)
	if i < 0 {
		return nil, nil
	}
	return s.decorate(ctx, users[i])
}

func (s *UserService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.log.Info(ctx, "user logged out", "id", s.current.UserID)
	}
	return s.endSession(ctx)
}

// UpdateUser merges patch into the account; nil without error when absent.
// A password in the patch is re-hashed. Changing the email to one used by
// another account fails with common.ErrorDuplicateEmail.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateUser(ctx, id, patch)
}

func (s *UserService) updateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	i := indexUser(users, id)
	if i < 0 {
		return nil, nil
	}

	if patch.Email != nil && emailTaken(users, *patch.Email, id) {
		s.log.Warn(ctx, "duplicate email on update", "id", id)
		return nil, common.ErrorDuplicateEmail
	}

	patch.Apply(&users[i])
	if patch.Password != nil {
		users[i].PasswordHash = cryptox.HashPassword(*patch.Password)
	}

	if err := save(ctx, s.users, users, s.metrics); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user updated", "id", id)
	return s.decorate(ctx, users[i])
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return nil, err
	}

	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = *withFavorites(u, favs)
	}
	return out, nil
}

// GetUserByID returns nil without error when absent.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return nil, err
	}
	i := indexUser(users, id)
	if i < 0 {
		return nil, nil
	}
	return s.decorate(ctx, users[i])
}

// DeleteUser removes the account and its favorites. Registrations stay as
// the course history. The session ends if it belonged to the user.
func (s *UserService) DeleteUser(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := load(ctx, s.users, s.metrics)
	if err != nil {
		return false, err
	}
	i := indexUser(users, id)
	if i < 0 {
		return false, nil
	}

	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return false, err
	}

	users = slices.Delete(users, i, i+1)
	kept := slices.DeleteFunc(favs, func(f models.CourseFavorite) bool { return f.UserID == id })
	if err := saveTogether(ctx, s.repo, s.metrics, encode(s.users, users), encode(s.favorites, kept)); err != nil {
		return false, err
	}

	if s.current != nil && s.current.UserID == id {
		if err := s.endSession(ctx); err != nil {
			return false, err
		}
	}

	s.log.Info(ctx, "user deleted", "id", id)
	return true, nil
}
