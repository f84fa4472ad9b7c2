package services

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/geo"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/repositories/collections"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/runreward/runreward/internal/security"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type courseSeed struct {
	DefaultFields []models.CourseField `yaml:"defaultFields"`
	Courses       []models.Course      `yaml:"courses"`
}

func parseSeed() (courseSeed, error) {
	var seed courseSeed
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return courseSeed{}, fmt.Errorf("failed to parse course seed: %w", err)
	}
	return seed, nil
}

// DefaultCourses returns the listings a fresh store starts with.
func DefaultCourses() ([]models.Course, error) {
	seed, err := parseSeed()
	return seed.Courses, err
}

// DefaultFields returns the volunteer questions every seeded course asks.
func DefaultFields() ([]models.CourseField, error) {
	seed, err := parseSeed()
	return seed.DefaultFields, err
}

// CourseService owns the course listings.
type CourseService struct {
	repo    kv.Repository
	courses *collections.Collection[models.Course]
	log     logging.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// NewCourseService builds the store and seeds it when nothing is persisted.
func NewCourseService(ctx context.Context, repo kv.Repository, log logging.Logger, m *metrics.Metrics) (*CourseService, error) {
	s := &CourseService{
		repo:    repo,
		courses: collections.New[models.Course](repo, common.CoursesKey),
		log:     log,
		metrics: m,
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init persists the default courses if the collection was never written.
// A stored empty list stays empty.
func (s *CourseService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.Get(ctx, s.courses.Key())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.courses.Key(), err)
	}
	if existing != nil {
		return nil
	}

	seed, err := DefaultCourses()
	if err != nil {
		return err
	}
	if err := save(ctx, s.courses, seed, s.metrics); err != nil {
		return err
	}
	s.log.Info(ctx, "seeded default courses", "count", len(seed))
	return nil
}

func cloneCourses(in []models.Course) []models.Course {
	out := make([]models.Course, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func (s *CourseService) filter(ctx context.Context, keep func(models.Course) bool) ([]models.Course, error) {
	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}
	out := []models.Course{}
	for _, c := range all {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *CourseService) GetAllCourses(ctx context.Context) ([]models.Course, error) {
	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}
	return cloneCourses(all), nil
}

// GetCourseByID returns nil without error when no course has id.
func (s *CourseService) GetCourseByID(ctx context.Context, id int) (*models.Course, error) {
	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(all, func(c models.Course) bool { return c.ID == id })
	if i < 0 {
		return nil, nil
	}
	c := all[i].Clone()
	return &c, nil
}

func validateFields(fields []models.CourseField) error {
	for _, f := range fields {
		if !security.ValidateCourseField(f) {
			return fmt.Errorf("%w: invalid course field %q", common.ErrorValidation, f.ID)
		}
	}
	return nil
}

// DefaultImage derives the image reference used when a course has none.
func DefaultImage(name string) string {
	return "/images/" + slug.Make(name) + ".jpg"
}

// AddCourse stores data under id max(existing)+1, or 1 on an empty store.
func (s *CourseService) AddCourse(ctx context.Context, data models.NewCourse) (*models.Course, error) {
	if err := validateFields(data.RequiredFields); err != nil {
		s.log.Warn(ctx, "course rejected", "name", data.Name, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, c := range all {
		maxID = max(maxID, c.ID)
	}

	course := data.WithID(maxID + 1)
	if course.Image == "" {
		course.Image = DefaultImage(course.Name)
	}

	all = append(all, course)
	if err := save(ctx, s.courses, all, s.metrics); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "course added", "id", course.ID, "name", course.Name)
	out := course.Clone()
	return &out, nil
}

// UpdateCourse merges patch into the course; nil without error when absent.
func (s *CourseService) UpdateCourse(ctx context.Context, id int, patch models.CoursePatch) (*models.Course, error) {
	if patch.RequiredFields != nil {
		if err := validateFields(*patch.RequiredFields); err != nil {
			s.log.Warn(ctx, "course update rejected", "id", id, "error", err)
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(all, func(c models.Course) bool { return c.ID == id })
	if i < 0 {
		return nil, nil
	}

	patch.Apply(&all[i])
	all[i].ID = id
	if err := save(ctx, s.courses, all, s.metrics); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "course updated", "id", id)
	out := all[i].Clone()
	return &out, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(all, func(c models.Course) bool { return c.ID == id })
	if i < 0 {
		return false, nil
	}

	all = slices.Delete(all, i, i+1)
	if err := save(ctx, s.courses, all, s.metrics); err != nil {
		return false, err
	}

	s.log.Info(ctx, "course deleted", "id", id)
	return true, nil
}

func (s *CourseService) GetCoursesByDepartment(ctx context.Context, department string) ([]models.Course, error) {
	return s.filter(ctx, func(c models.Course) bool { return c.Department == department })
}

func (s *CourseService) GetCoursesByType(ctx context.Context, t models.CourseType) ([]models.Course, error) {
	return s.filter(ctx, func(c models.Course) bool { return c.Type == t })
}

// SearchCourses matches query case-insensitively against name, location and
// description; a hit in any of them counts.
func (s *CourseService) SearchCourses(ctx context.Context, query string) ([]models.Course, error) {
	q := fold(query)
	return s.filter(ctx, func(c models.Course) bool {
		return strings.Contains(fold(c.Name), q) ||
			strings.Contains(fold(c.Location), q) ||
			strings.Contains(fold(c.Description), q)
	})
}

// CourseDistance pairs a course with its distance from a search center.
type CourseDistance struct {
	Course     models.Course
	DistanceKm float64
}

// GetCoursesNear returns the courses within radiusKm of center, nearest
// first.
func (s *CourseService) GetCoursesNear(ctx context.Context, center models.Coordinates, radiusKm float64) ([]CourseDistance, error) {
	all, err := load(ctx, s.courses, s.metrics)
	if err != nil {
		return nil, err
	}

	out := []CourseDistance{}
	for _, c := range all {
		if d := geo.HaversineKm(center, c.Coordinates); d <= radiusKm {
			out = append(out, CourseDistance{Course: c.Clone(), DistanceKm: d})
		}
	}
	slices.SortStableFunc(out, func(a, b CourseDistance) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	return out, nil
}
