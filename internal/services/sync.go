package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/models"
	"github.com/runreward/runreward/internal/repositories/collections"
	"github.com/runreward/runreward/internal/repositories/kv"
)

// Snapshot is the document written to the mirror.
type Snapshot struct {
	Users               []models.User               `json:"users"`
	CourseRegistrations []models.CourseRegistration `json:"courseRegistrations"`
	CourseFavorites     []models.CourseFavorite     `json:"courseFavorites"`
	CurrentUser         *models.User                `json:"currentUser"`
}

// ExportDocument is the file produced by Export and read by Import.
type ExportDocument struct {
	Users         []models.User               `json:"users"`
	Registrations []models.CourseRegistration `json:"registrations"`
	Favorites     []models.CourseFavorite     `json:"favorites"`
	ExportDate    time.Time                   `json:"exportDate"`
}

// ImportResult counts the accounts Import added and the ones it skipped
// because their email was taken.
type ImportResult struct {
	Imported int
	Skipped  int
}

// SyncService copies the user-side collections to a second repository and
// moves accounts in and out as JSON files.
type SyncService struct {
	users   *UserService
	mirror  *collections.Value[Snapshot]
	log     logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSyncService(users *UserService, mirror kv.Repository, log logging.Logger, m *metrics.Metrics) *SyncService {
	return &SyncService{
		users:   users,
		mirror:  collections.NewValue[Snapshot](mirror, common.ExternalDatabaseKey),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

func (s *SyncService) snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Users, err = s.users.GetAllUsers(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.CourseRegistrations, err = s.users.GetCourseRegistrations(ctx, nil); err != nil {
		return Snapshot{}, err
	}
	if snap.CourseFavorites, err = s.users.GetAllFavorites(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.CurrentUser, err = s.users.GetCurrentUser(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// MigrateFromLocal overwrites the mirror with the current state of the
// primary repository and returns what it wrote.
func (s *SyncService) MigrateFromLocal(ctx context.Context) (Snapshot, error) {
	snap, err := s.snapshot(ctx)
	if err == nil {
		err = s.mirror.Save(ctx, snap)
	}
	s.metrics.RecordSync(err == nil)
	if err != nil {
		s.log.Error(ctx, "sync to mirror failed", "error", err)
		return Snapshot{}, fmt.Errorf("failed to sync mirror: %w", err)
	}

	s.log.Info(ctx, "mirror synced",
		"users", len(snap.Users),
		"registrations", len(snap.CourseRegistrations),
		"favorites", len(snap.CourseFavorites),
	)
	return snap, nil
}

// LoadMirror returns the last synced snapshot, or nil when nothing was
// synced yet.
func (s *SyncService) LoadMirror(ctx context.Context) (*Snapshot, error) {
	return s.mirror.Load(ctx)
}

// Export writes users, registrations and favorites to w as indented JSON.
func (s *SyncService) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}

	doc := ExportDocument{
		Users:         snap.Users,
		Registrations: snap.CourseRegistrations,
		Favorites:     snap.CourseFavorites,
		ExportDate:    s.now().UTC(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	s.log.Info(ctx, "data exported", "users", len(doc.Users))
	return nil
}

// Import adds the accounts of an exported document. Registrations and
// favorites in the document are ignored.
func (s *SyncService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc ExportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("%w: malformed import file: %w", common.ErrorValidation, err)
	}

	var res ImportResult
	for _, u := range doc.Users {
		ok, err := s.users.ImportUser(ctx, u)
		if err != nil {
			return res, err
		}
		if ok {
			res.Imported++
		} else {
			res.Skipped++
		}
	}

	s.log.Info(ctx, "data imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}
